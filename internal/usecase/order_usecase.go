package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/metrics"
	repo "app/internal/repository"
)

// OrderUsecase は注文/決済ライフサイクルの中核。
// カートから不変の注文スナップショットを作り、決済状態を遷移させる。
type OrderUsecase struct {
	tx       repo.TransactionManager
	gateway  PaymentGateway
	currency string
}

func NewOrderUsecase(tx repo.TransactionManager, gateway PaymentGateway, currency string) *OrderUsecase {
	return &OrderUsecase{tx: tx, gateway: gateway, currency: currency}
}

type PlaceOrderInput struct {
	PaymentMethod  string
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
	UnitPrice int64 `json:"unit_price"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	PaymentMethod string            `json:"payment_method"`
	PaymentStatus string            `json:"payment_status"`
	TotalAmount   int64             `json:"total_amount"`
	RemoteOrderID string            `json:"remote_order_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
}

// PlaceOrder はカートを注文に変換する。
// 合計は呼び出し時点の商品価格で確定し、明細にスナップショットする。
// CODは即CONFIRMEDでカートを空にする。RAZORPAYはPENDINGのまま
// カートを残す（決済失敗・放置時にリトライできるようにするため）。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	method := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(in.PaymentMethod)))
	if method != model.PaymentMethodCOD && method != model.PaymentMethodRazorpay {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	var out OrderOutput

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			//既存注文を返す
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		//カート明細を行ロック付きで取得（同時チェックアウトの二重課金防止）
		lines, err := r.CartLines().ListByUserIDForUpdate(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		//現在価格でスナップショット
		orderItems := make([]model.OrderItem, 0, len(lines))
		var total int64 = 0

		for _, line := range lines {
			p, err := r.Products().FindByID(ctx, line.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "invalid")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			now := time.Now()
			orderItems = append(orderItems, model.OrderItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: p.Price,
				CreatedAt: now,
			})

			total += p.Price * line.Quantity
		}

		//CODは確定、ゲートウェイは決済待ち
		status := model.PaymentStatusPending
		if method == model.PaymentMethodCOD {
			status = model.PaymentStatusConfirmed
		}

		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:         userID,
			TotalAmount:    total,
			PaymentMethod:  method,
			PaymentStatus:  status,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			//競合（同時で同じキーが入った等）はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				items2, err3 := r.OrderItems().ListByOrderID(ctx, ex2.ID)
				if err3 != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
				out = toOrderOutput(ex2, items2)
				return nil
			}
			return NewHTTPError(http.StatusBadRequest, "idempotency conflict")
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.PaymentEvents().Create(ctx, model.PaymentEvent{
			OrderID:   orderID,
			ToStatus:  status,
			Reason:    "order_created",
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//CODだけカートを空にする。ゲートウェイ決済は検証成功まで残す。
		if method == model.PaymentMethodCOD {
			if err := r.CartLines().DeleteByUserID(ctx, userID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		created := model.Order{
			ID:            orderID,
			UserID:        userID,
			TotalAmount:   total,
			PaymentMethod: method,
			PaymentStatus: status,
			CreatedAt:     now,
		}
		out = toOrderOutput(created, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	metrics.OrdersPlaced.WithLabelValues(string(method)).Inc()
	return out, nil
}

type PaymentOrderOutput struct {
	OrderID       int64  `json:"order_id"`
	RemoteOrderID string `json:"remote_order_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
}

// CreateRemotePaymentOrder はゲートウェイ側に対応する注文を作る。
// 金額は最小通貨単位、receiptはローカル注文ID由来、即時キャプチャ指定。
// FAILEDの注文はここを通ったときだけPENDINGへ戻る（明示的リトライ）。
// ゲートウェイ呼び出しが失敗した場合は注文を一切変更しない。
func (u *OrderUsecase) CreateRemotePaymentOrder(ctx context.Context, userID int64, orderID int64) (PaymentOrderOutput, error) {
	if userID <= 0 {
		return PaymentOrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return PaymentOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	//先に注文を検証してからゲートウェイを呼ぶ。
	//HTTP呼び出しをトランザクションの中に入れない。
	var order model.Order

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if o.PaymentMethod != model.PaymentMethodRazorpay {
			return NewHTTPError(http.StatusConflict, "not a gateway order")
		}
		if o.PaymentStatus != model.PaymentStatusPending && o.PaymentStatus != model.PaymentStatusFailed {
			return NewHTTPError(http.StatusConflict, "already paid")
		}
		order = o
		return nil
	})
	if err != nil {
		return PaymentOrderOutput{}, err
	}

	receipt := fmt.Sprintf("order_%d", order.ID)
	remoteID, err := u.gateway.CreateRemoteOrder(ctx, order.TotalAmount, u.currency, receipt, true)
	if err != nil {
		//注文はPENDING（またはFAILED）のまま。呼び出し側の判断でリトライ。
		return PaymentOrderOutput{}, ErrGatewayUnavailable
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().SetRemoteOrderID(ctx, order.ID, remoteID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//FAILED→PENDINGはこの明示的リトライ経路だけ
		if order.PaymentStatus == model.PaymentStatusFailed {
			if err := r.Orders().UpdateStatus(ctx, order.ID, model.PaymentStatusPending); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if err := r.PaymentEvents().Create(ctx, model.PaymentEvent{
				OrderID:    order.ID,
				FromStatus: model.PaymentStatusFailed,
				ToStatus:   model.PaymentStatusPending,
				Reason:     "payment_retry",
				CreatedAt:  time.Now(),
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
		return nil
	})
	if err != nil {
		return PaymentOrderOutput{}, err
	}

	return PaymentOrderOutput{
		OrderID:       order.ID,
		RemoteOrderID: remoteID,
		Amount:        order.TotalAmount,
		Currency:      u.currency,
	}, nil
}

type ConfirmPaymentInput struct {
	RemoteOrderID   string
	RemotePaymentID string
	Signature       string
}

type ConfirmPaymentOutput struct {
	OrderID       int64
	PaymentStatus model.PaymentStatus
	Verified      bool
}

// ConfirmPayment は決済プロバイダからの非同期通知を取り込む。
// 署名OK: COMPLETEDにしてユーザーのカートを全削除。
// 署名NG: FAILEDにする（エラーではなく正常な結果として返す）。
// 同じ通知の二重配送はno-opの成功。
func (u *OrderUsecase) ConfirmPayment(ctx context.Context, in ConfirmPaymentInput) (ConfirmPaymentOutput, error) {
	if in.RemoteOrderID == "" || in.RemotePaymentID == "" || in.Signature == "" {
		return ConfirmPaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	var out ConfirmPaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//remote idで行ロック。重複配送はここで直列化される。
		o, err := r.Orders().FindByRemoteOrderIDForUpdate(ctx, in.RemoteOrderID)
		if err == repo.ErrNotFound {
			return ErrOrderNotFound
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//処理済みならそのまま成功を返す（カートは二度消さない）
		if o.PaymentStatus == model.PaymentStatusCompleted {
			out = ConfirmPaymentOutput{OrderID: o.ID, PaymentStatus: o.PaymentStatus, Verified: true}
			return nil
		}

		verified := u.gateway.VerifySignature(in.RemoteOrderID, in.RemotePaymentID, in.Signature)
		now := time.Now()

		if !verified {
			if err := r.Orders().UpdateStatus(ctx, o.ID, model.PaymentStatusFailed); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if err := r.PaymentEvents().Create(ctx, model.PaymentEvent{
				OrderID:    o.ID,
				FromStatus: o.PaymentStatus,
				ToStatus:   model.PaymentStatusFailed,
				Reason:     "signature_mismatch",
				CreatedAt:  now,
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = ConfirmPaymentOutput{OrderID: o.ID, PaymentStatus: model.PaymentStatusFailed, Verified: false}
			return nil
		}

		if err := r.Orders().UpdateStatus(ctx, o.ID, model.PaymentStatusCompleted); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.PaymentEvents().Create(ctx, model.PaymentEvent{
			OrderID:    o.ID,
			FromStatus: o.PaymentStatus,
			ToStatus:   model.PaymentStatusCompleted,
			Reason:     "signature_verified",
			CreatedAt:  now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//ユーザーのカートを全削除。
		//注意: チェックアウト後に追加された明細も消える（現行仕様の踏襲）。
		if err := r.CartLines().DeleteByUserID(ctx, o.UserID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = ConfirmPaymentOutput{OrderID: o.ID, PaymentStatus: model.PaymentStatusCompleted, Verified: true}
		return nil
	})

	if err != nil {
		return ConfirmPaymentOutput{}, err
	}

	if out.Verified {
		metrics.PaymentConfirmations.WithLabelValues("completed").Inc()
	} else {
		metrics.PaymentConfirmations.WithLabelValues("failed").Inc()
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングはまず固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	remoteID := ""
	if o.RemoteOrderID != nil {
		remoteID = *o.RemoteOrderID
	}

	return OrderOutput{
		ID:            o.ID,
		UserID:        o.UserID,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		TotalAmount:   o.TotalAmount,
		RemoteOrderID: remoteID,
		CreatedAt:     o.CreatedAt,
		Items:         outItems,
	}
}
