package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tappay/internal/adapter/http/dto"
	"tappay/internal/adapter/http/middleware"
	"tappay/internal/core/domain"
	"tappay/internal/core/ports"
	"tappay/internal/core/ports/mocks"
	"tappay/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jsonRequest(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	return w, c
}

func authedAs(c *gin.Context, userID int64) {
	c.Set(middleware.CtxUserID, userID)
	c.Set(middleware.CtxSessionID, "sess-test")
}

func respData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "expected data object in %s", w.Body.String())
	return data
}

// --- Auth handler ---

func TestAuthHandler_Register_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), ports.RegisterRequest{
		Email:    "alice@example.com",
		FullName: "Alice",
		Password: "password123",
	}).Return(&domain.User{ID: 7, Email: "alice@example.com", FullName: "Alice", Active: true}, nil)

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Email:    "alice@example.com",
		FullName: "Alice",
		Password: "password123",
	})
	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := respData(t, w)
	assert.Equal(t, float64(7), data["id"])
	assert.Equal(t, "alice@example.com", data["email"])
}

func TestAuthHandler_Register_BindingError(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/auth/register", gin.H{"email": "x@example.com"})
	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiresAt := time.Now().Add(time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "alice@example.com", "password123").Return(&ports.LoginResult{
		Token:     "jwt-token",
		ExpiresAt: expiresAt,
		User:      &domain.User{ID: 7, Email: "alice@example.com", Active: true},
	}, nil)

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := respData(t, w)
	assert.Equal(t, "jwt-token", data["token"])
	assert.Equal(t, float64(expiresAt.Unix()), data["expiry"])
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInvalidCredentials())

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTHZ_002")
}

// --- Payment handler ---

func sampleTxn(id int64, txType domain.TransactionType) *domain.Transaction {
	now := time.Now().UTC()
	return &domain.Transaction{
		ID:            id,
		ReferenceCode: "TXN-ref",
		UserID:        7,
		Amount:        decimal.RequireFromString("50.00"),
		Type:          txType,
		Status:        domain.TransactionStatusSuccess,
		CreatedAt:     now,
		ProcessedAt:   &now,
	}
}

func TestPaymentHandler_ProcessPayment_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewPaymentHandler(mockLedger)

	mockLedger.EXPECT().ProcessPayment(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.PaymentRequest) (*domain.Transaction, error) {
			assert.Equal(t, int64(7), req.UserID)
			assert.Equal(t, int64(2), req.CardID)
			assert.True(t, req.Amount.Equal(decimal.RequireFromString("50.00")))
			return sampleTxn(77, domain.TransactionTypePayment), nil
		})

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/payments", dto.PaymentRequest{
		CardID:     2,
		MerchantID: 3,
		Amount:     "50.00",
	})
	authedAs(c, 7)
	h.ProcessPayment(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := respData(t, w)
	assert.Equal(t, "50.00", data["amount"])
	assert.Equal(t, "PAYMENT", data["type"])
	assert.Equal(t, "SUCCESS", data["status"])
}

func TestPaymentHandler_ProcessPayment_RejectsBadAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewPaymentHandler(mocks.NewMockLedgerService(ctrl))

	for _, amount := range []string{"-5", "1.234", "abc", "0"} {
		w, c := jsonRequest(t, http.MethodPost, "/api/v1/payments", gin.H{
			"card_id": 2, "merchant_id": 3, "amount": amount,
		})
		authedAs(c, 7)
		h.ProcessPayment(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, "amount %q", amount)
	}
}

func TestPaymentHandler_ProcessPayment_LimitError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewPaymentHandler(mockLedger)

	mockLedger.EXPECT().ProcessPayment(gomock.Any(), gomock.Any()).Return(nil,
		apperror.ErrInsufficientFunds(decimal.RequireFromString("10.00"), decimal.RequireFromString("50.00")))

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/payments", dto.PaymentRequest{
		CardID: 2, MerchantID: 3, Amount: "50.00",
	})
	authedAs(c, 7)
	h.ProcessPayment(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "LIM_001")
	assert.Contains(t, w.Body.String(), `"available":"10"`)
}

func TestPaymentHandler_Refund_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewPaymentHandler(mockLedger)

	mockLedger.EXPECT().RefundPayment(gomock.Any(), ports.RefundRequest{
		TransactionID: 40, UserID: 7, Reason: "wrong order",
	}).Return(sampleTxn(78, domain.TransactionTypeRefund), nil)

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/payments/40/refund", dto.RefundRequest{
		Reason: "wrong order",
	})
	c.Params = gin.Params{{Key: "id", Value: "40"}}
	authedAs(c, 7)
	h.Refund(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := respData(t, w)
	assert.Equal(t, "REFUND", data["type"])
}

func TestPaymentHandler_Cancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewPaymentHandler(mockLedger)

	cancelled := sampleTxn(9, domain.TransactionTypePayment)
	cancelled.Status = domain.TransactionStatusCancelled
	mockLedger.EXPECT().CancelTransaction(gomock.Any(), int64(9), int64(7)).Return(cancelled, nil)

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/transactions/9/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}
	authedAs(c, 7)
	h.Cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := respData(t, w)
	assert.Equal(t, "CANCELLED", data["status"])
}

// --- Wallet handler ---

func TestWalletHandler_GetBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockReporting := mocks.NewMockReportingService(ctrl)
	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl), mockReporting)

	mockReporting.EXPECT().GetWalletBalance(gomock.Any(), int64(7)).
		Return(decimal.RequireFromString("123.45"), domain.DefaultCurrency, nil)

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/wallet/balance", nil)
	authedAs(c, 7)
	h.GetBalance(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := respData(t, w)
	assert.Equal(t, "123.45", data["balance"])
	assert.Equal(t, domain.DefaultCurrency, data["currency"])
}

func TestWalletHandler_Deposit(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLedger := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(mockLedger, mocks.NewMockReportingService(ctrl))

	mockLedger.EXPECT().AddFunds(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.DepositRequest) (*domain.Transaction, error) {
			assert.True(t, req.Amount.Equal(decimal.RequireFromString("500.00")))
			return sampleTxn(79, domain.TransactionTypeDeposit), nil
		})

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/deposit", dto.DepositRequest{Amount: "500.00"})
	authedAs(c, 7)
	h.Deposit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestWalletHandler_Transfer_Unauthenticated(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewWalletHandler(mocks.NewMockLedgerService(ctrl), mocks.NewMockReportingService(ctrl))

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/wallet/transfer", dto.TransferRequest{
		ToUserID: 2, Amount: "10.00",
	})
	h.Transfer(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Card handler ---

func TestCardHandler_AddCard(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockCards := mocks.NewMockCardService(ctrl)
	h := NewCardHandler(mockCards)

	mockCards.EXPECT().AddCard(gomock.Any(), ports.AddCardRequest{
		UserID: 7, CardUID: "04:A2:19:B7", Name: "commute", Type: domain.CardTypeVirtual,
	}).Return(&domain.Card{ID: 11, UserID: 7, CardUID: "04:A2:19:B7", Name: "commute", Type: domain.CardTypeVirtual, Active: true}, nil)

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/cards", dto.AddCardRequest{
		CardUID: "04:A2:19:B7", Name: "commute", Type: "VIRTUAL",
	})
	authedAs(c, 7)
	h.AddCard(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := respData(t, w)
	assert.Equal(t, "commute", data["name"])
}

func TestCardHandler_AddCard_BadType(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewCardHandler(mocks.NewMockCardService(ctrl))

	w, c := jsonRequest(t, http.MethodPost, "/api/v1/cards", dto.AddCardRequest{
		CardUID: "X", Name: "n", Type: "MAGNETIC",
	})
	authedAs(c, 7)
	h.AddCard(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Transaction handler ---

func TestTransactionHandler_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockReporting := mocks.NewMockReportingService(ctrl)
	h := NewTransactionHandler(mockReporting)

	mockReporting.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, int64(7), params.UserID)
			require.NotNil(t, params.Status)
			assert.Equal(t, domain.TransactionStatusSuccess, *params.Status)
			return []domain.Transaction{*sampleTxn(40, domain.TransactionTypePayment)}, 41, nil
		})

	w, c := jsonRequest(t, http.MethodGet, "/api/v1/transactions?status=SUCCESS&page=1&page_size=20", nil)
	authedAs(c, 7)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := respData(t, w)
	assert.Equal(t, float64(41), data["total"])
	assert.Equal(t, float64(3), data["total_pages"])
}

// --- Health check ---

func TestHealthCheck_AllHealthy(t *testing.T) {
	r := gin.New()
	r.GET("/health", HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestHealthCheck_Degraded(t *testing.T) {
	r := gin.New()
	r.GET("/health", HealthCheck(stubChecker{name: "postgresql", err: assert.AnError}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(ctx context.Context) error { return s.err }
func (s stubChecker) Name() string                   { return s.name }
