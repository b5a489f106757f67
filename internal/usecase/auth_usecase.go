package usecase

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// accesstokenの有効期限
const accessTokenTTL = 15 * time.Minute

// bcryptのコスト
const bcryptCost = 12

// AuthUsecase は会員登録とログインだけを持つ。
// refresh token / role は本アプリでは使わない。
type AuthUsecase struct {
	users     repo.UserRepository
	jwtSecret []byte
}

func NewAuthUsecase(users repo.UserRepository, jwtSecret string) *AuthUsecase {
	return &AuthUsecase{users: users, jwtSecret: []byte(jwtSecret)}
}

type RegisterInput struct {
	Email    string
	Password string
}

type UserOutput struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type LoginInput struct {
	Email    string
	Password string
}

type TokenOutput struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") || len(email) > 255 {
		return UserOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(in.Password) < 8 || len(in.Password) > 72 {
		return UserOutput{}, NewHTTPError(http.StatusBadRequest, "invalid password")
	}

	existing, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing != nil {
		return UserOutput{}, NewHTTPError(http.StatusConflict, "email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := time.Now()
	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		//ユニーク制約競合は409で返す
		return UserOutput{}, NewHTTPError(http.StatusConflict, "email already exists")
	}

	return UserOutput{ID: user.ID, Email: user.Email}, nil
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (TokenOutput, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return TokenOutput{}, NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return TokenOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		//ユーザー有無は区別しない
		return TokenOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return TokenOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(user.ID, 10),
		"iat": now.Unix(),
		"exp": now.Add(accessTokenTTL).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(u.jwtSecret)
	if err != nil {
		return TokenOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return TokenOutput{
		AccessToken: signed,
		ExpiresIn:   int(accessTokenTTL.Seconds()),
	}, nil
}
