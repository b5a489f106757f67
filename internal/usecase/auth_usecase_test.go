package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)

	users.On("FindByEmail", mock.Anything, "taro@example.com").Return(nil, nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		//保存前にハッシュ済みであること
		return u.Email == "taro@example.com" && u.PasswordHash != "password123"
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = 5
	})

	uc := usecase.NewAuthUsecase(users, testJWTSecret)
	out, err := uc.Register(ctx, usecase.RegisterInput{
		Email:    "  Taro@Example.com ",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(5), out.ID)
	assert.Equal(t, "taro@example.com", out.Email)
	users.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)

	users.On("FindByEmail", mock.Anything, "taro@example.com").
		Return(&model.User{ID: 5, Email: "taro@example.com"}, nil)

	uc := usecase.NewAuthUsecase(users, testJWTSecret)
	_, err := uc.Register(ctx, usecase.RegisterInput{
		Email:    "taro@example.com",
		Password: "password123",
	})

	assertHTTPStatus(t, err, http.StatusConflict)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_ShortPassword(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewAuthUsecase(new(UserRepoMock), testJWTSecret)

	_, err := uc.Register(ctx, usecase.RegisterInput{Email: "taro@example.com", Password: "short"})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	assert.NoError(t, err)

	users.On("FindByEmail", mock.Anything, "taro@example.com").
		Return(&model.User{ID: 5, Email: "taro@example.com", PasswordHash: string(hash)}, nil)

	uc := usecase.NewAuthUsecase(users, testJWTSecret)
	out, err := uc.Login(ctx, usecase.LoginInput{Email: "taro@example.com", Password: "password123"})

	assert.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)
	assert.Equal(t, 900, out.ExpiresIn)

	//subにユーザーIDが入っていること
	tok, err := jwt.Parse(out.AccessToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	assert.NoError(t, err)
	claims, ok := tok.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, "5", claims["sub"])
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	assert.NoError(t, err)

	users.On("FindByEmail", mock.Anything, "taro@example.com").
		Return(&model.User{ID: 5, Email: "taro@example.com", PasswordHash: string(hash)}, nil)

	uc := usecase.NewAuthUsecase(users, testJWTSecret)
	_, err = uc.Login(ctx, usecase.LoginInput{Email: "taro@example.com", Password: "wrong"})

	assertHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestLogin_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	users := new(UserRepoMock)

	users.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	uc := usecase.NewAuthUsecase(users, testJWTSecret)
	_, err := uc.Login(ctx, usecase.LoginInput{Email: "nobody@example.com", Password: "password123"})

	//ユーザー有無は区別せず401
	assertHTTPStatus(t, err, http.StatusUnauthorized)
}
