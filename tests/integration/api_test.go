package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "tappay/internal/adapter/http/handler"
	redisStorage "tappay/internal/adapter/storage/redis"
	"tappay/internal/core/ports"
	"tappay/internal/service"
	"tappay/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack on in-memory storage: miniredis
// behind the real session store, map-backed repos behind the real
// services. This exercises the HTTP layer, middleware, handlers, services
// and the Redis session store end-to-end.

type testApp struct {
	server     *httptest.Server
	redis      *miniredis.Miniredis
	walletRepo *inMemoryWalletRepo
	txRepo     *inMemoryTransactionRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	sessionStore := redisStorage.NewSessionStore(rdb)

	// Core services with real implementations
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	// In-memory repos
	userRepo := newInMemoryUserRepo()
	walletRepo := newInMemoryWalletRepo()
	cardRepo := newInMemoryCardRepo()
	merchantRepo := newInMemoryMerchantRepo()
	txRepo := newInMemoryTransactionRepo()

	// Business services
	log := logger.New("tappay-test", "debug", false)
	authSvc := service.NewAuthService(userRepo, walletRepo, hashSvc, tokenSvc, sessionStore, time.Hour, log)
	ledgerSvc := service.NewLedgerService(userRepo, cardRepo, merchantRepo, walletRepo, txRepo, log)
	cardSvc := service.NewCardService(cardRepo, userRepo, log)
	merchantSvc := service.NewMerchantService(merchantRepo, log)
	reportingSvc := service.NewReportingService(walletRepo, txRepo)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LedgerSvc:      ledgerSvc,
		CardSvc:        cardSvc,
		MerchantSvc:    merchantSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		Sessions:       sessionStore,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:     server,
		redis:      mr,
		walletRepo: walletRepo,
		txRepo:     txRepo,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// do sends a JSON request with an optional bearer token and decodes the
// response body into a generic map.
func (a *testApp) do(t *testing.T, method, path, token string, body any) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", string(raw))
	}
	return resp.StatusCode, parsed
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "expected data object in %v", body)
	return d
}

// --- Setup helpers ---

func registerAndLogin(t *testing.T, app *testApp, email string) string {
	t.Helper()

	status, _ := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":     email,
		"full_name": "Test User",
		"password":  "StrongPass123",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "StrongPass123",
	})
	require.Equal(t, http.StatusOK, status)
	return data(t, body)["token"].(string)
}

func addCard(t *testing.T, app *testApp, token, uid string) int64 {
	t.Helper()
	status, body := app.do(t, http.MethodPost, "/api/v1/cards", token, map[string]string{
		"card_uid": uid,
		"name":     "card " + uid,
		"type":     "VIRTUAL",
	})
	require.Equal(t, http.StatusCreated, status)
	return int64(data(t, body)["id"].(float64))
}

func registerMerchant(t *testing.T, app *testApp, token, code string) int64 {
	t.Helper()
	status, body := app.do(t, http.MethodPost, "/api/v1/merchants", token, map[string]string{
		"code":     code,
		"name":     "Merchant " + code,
		"category": "FOOD",
	})
	require.Equal(t, http.StatusCreated, status)
	return int64(data(t, body)["id"].(float64))
}

func deposit(t *testing.T, app *testApp, token, amount string) {
	t.Helper()
	status, _ := app.do(t, http.MethodPost, "/api/v1/wallet/deposit", token, map[string]string{
		"amount": amount,
	})
	require.Equal(t, http.StatusCreated, status)
}

func pay(t *testing.T, app *testApp, token string, cardID, merchantID int64, amount string) (int, map[string]interface{}) {
	t.Helper()
	return app.do(t, http.MethodPost, "/api/v1/payments", token, map[string]interface{}{
		"card_id":     cardID,
		"merchant_id": merchantID,
		"amount":      amount,
	})
}

func balance(t *testing.T, app *testApp, token string) string {
	t.Helper()
	status, body := app.do(t, http.MethodGet, "/api/v1/wallet/balance", token, nil)
	require.Equal(t, http.StatusOK, status)
	return data(t, body)["balance"].(string)
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, body := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, body := app.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":     "alice@example.com",
		"full_name": "Alice",
		"password":  "StrongPass123",
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "alice@example.com", data(t, body)["email"])

	status, body = app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "StrongPass123",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, data(t, body)["token"])
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	reg := map[string]string{
		"email":     "dup@example.com",
		"full_name": "Dup",
		"password":  "StrongPass123",
	}
	status, _ := app.do(t, http.MethodPost, "/api/v1/auth/register", "", reg)
	assert.Equal(t, http.StatusCreated, status)

	status, body := app.do(t, http.MethodPost, "/api/v1/auth/register", "", reg)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "STATE_005", body["error_code"])
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, _ := app.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestIntegration_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	status, _ := app.do(t, http.MethodGet, "/api/v1/wallet/balance", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestIntegration_LogoutRevokesToken(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "logout@example.com")

	status, _ := app.do(t, http.MethodGet, "/api/v1/wallet/balance", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = app.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	// The JWT itself is still unexpired; the session behind it is gone.
	status, _ = app.do(t, http.MethodGet, "/api/v1/wallet/balance", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestIntegration_PaymentEndToEnd(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "payer@example.com")
	cardID := addCard(t, app, token, "04:A2:19:B7")
	merchantID := registerMerchant(t, app, token, "CAFE01")

	deposit(t, app, token, "100.00")
	assert.Equal(t, "100.00", balance(t, app, token))

	status, body := pay(t, app, token, cardID, merchantID, "50.00")
	require.Equal(t, http.StatusCreated, status)
	payData := data(t, body)
	assert.Equal(t, "PAYMENT", payData["type"])
	assert.Equal(t, "SUCCESS", payData["status"])
	assert.Equal(t, "50.00", payData["amount"])

	assert.Equal(t, "50.00", balance(t, app, token))

	// History shows both movements
	status, body = app.do(t, http.MethodGet, "/api/v1/transactions?page=1&page_size=10", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), data(t, body)["total"])
}

func TestIntegration_PaymentInsufficientFunds(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "broke@example.com")
	cardID := addCard(t, app, token, "04:00:00:01")
	merchantID := registerMerchant(t, app, token, "SHOP01")

	deposit(t, app, token, "20.00")

	status, body := pay(t, app, token, cardID, merchantID, "50.00")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "LIM_001", body["error_code"])

	// Balance untouched, refused attempt recorded as FAILED
	assert.Equal(t, "20.00", balance(t, app, token))
}

func TestIntegration_DailySpendCap(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "spender@example.com")
	cardID := addCard(t, app, token, "04:00:00:02")
	merchantID := registerMerchant(t, app, token, "SHOP02")

	deposit(t, app, token, "2000.00")
	deposit(t, app, token, "2000.00")
	deposit(t, app, token, "2000.00")

	// 4900.00 spent across five payments, all under the per-payment cap
	for i := 0; i < 4; i++ {
		status, _ := pay(t, app, token, cardID, merchantID, "1000.00")
		require.Equal(t, http.StatusCreated, status)
	}
	status, _ := pay(t, app, token, cardID, merchantID, "900.00")
	require.Equal(t, http.StatusCreated, status)

	// 200.00 more would push today past 5000.00
	status, body := pay(t, app, token, cardID, merchantID, "200.00")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "LIM_002", body["error_code"])

	status, body = app.do(t, http.MethodGet, "/api/v1/wallet/daily-spend", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "4900.00", data(t, body)["spent"])
}

func TestIntegration_WalletCeiling(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "hoarder@example.com")

	for i := 0; i < 5; i++ {
		deposit(t, app, token, "2000.00")
	}
	assert.Equal(t, "10000.00", balance(t, app, token))

	status, body := app.do(t, http.MethodPost, "/api/v1/wallet/deposit", token, map[string]string{
		"amount": "1.00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "LIM_003", body["error_code"])
}

func TestIntegration_WithdrawalBounds(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "drawer@example.com")
	deposit(t, app, token, "500.00")

	status, body := app.do(t, http.MethodPost, "/api/v1/wallet/withdraw", token, map[string]string{
		"amount": "5.00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "LIM_007", body["error_code"])

	status, _ = app.do(t, http.MethodPost, "/api/v1/wallet/withdraw", token, map[string]string{
		"amount": "100.00",
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "400.00", balance(t, app, token))
}

func TestIntegration_RefundRoundTrip(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "refunder@example.com")
	cardID := addCard(t, app, token, "04:00:00:03")
	merchantID := registerMerchant(t, app, token, "SHOP03")

	deposit(t, app, token, "100.00")
	status, body := pay(t, app, token, cardID, merchantID, "60.00")
	require.Equal(t, http.StatusCreated, status)
	paymentID := int64(data(t, body)["id"].(float64))

	assert.Equal(t, "40.00", balance(t, app, token))

	status, body = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/refund", paymentID), token, map[string]string{
		"reason": "item returned",
	})
	require.Equal(t, http.StatusCreated, status)
	refundData := data(t, body)
	assert.Equal(t, "REFUND", refundData["type"])
	assert.Equal(t, float64(paymentID), refundData["original_transaction_id"])

	assert.Equal(t, "100.00", balance(t, app, token))

	// A second refund of the same payment is refused
	status, body = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/refund", paymentID), token, map[string]string{
		"reason": "again",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "STATE_002", body["error_code"])
}

func TestIntegration_Transfer(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	tokenA := registerAndLogin(t, app, "sender@example.com")
	tokenB := registerAndLogin(t, app, "receiver@example.com")

	deposit(t, app, tokenA, "300.00")

	// User IDs are assigned in registration order
	status, body := app.do(t, http.MethodPost, "/api/v1/wallet/transfer", tokenA, map[string]interface{}{
		"to_user_id": 2,
		"amount":     "100.00",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "TRANSFER_OUT", data(t, body)["type"])

	assert.Equal(t, "200.00", balance(t, app, tokenA))
	assert.Equal(t, "100.00", balance(t, app, tokenB))
}

func TestIntegration_TransferCap(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	tokenA := registerAndLogin(t, app, "capped-sender@example.com")
	registerAndLogin(t, app, "capped-receiver@example.com")

	deposit(t, app, tokenA, "2000.00")

	status, body := app.do(t, http.MethodPost, "/api/v1/wallet/transfer", tokenA, map[string]interface{}{
		"to_user_id": 2,
		"amount":     "600.00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "LIM_008", body["error_code"])
}

func TestIntegration_TransferCreditRefusedRestoresSource(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	tokenA := registerAndLogin(t, app, "blocked-sender@example.com")
	tokenB := registerAndLogin(t, app, "blocked-receiver@example.com")

	deposit(t, app, tokenA, "200.00")

	// The destination wallet refuses the credit after the source has
	// already been debited; the debit must be walked back.
	app.walletRepo.refuseCreditsFor(2)

	status, _ := app.do(t, http.MethodPost, "/api/v1/wallet/transfer", tokenA, map[string]interface{}{
		"to_user_id": 2,
		"amount":     "100.00",
	})
	assert.Equal(t, http.StatusInternalServerError, status)

	assert.Equal(t, "200.00", balance(t, app, tokenA))
	assert.Equal(t, "0.00", balance(t, app, tokenB))
}

func TestIntegration_TransferCompensationRestoresBalances(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	tokenA := registerAndLogin(t, app, "comp-sender@example.com")
	tokenB := registerAndLogin(t, app, "comp-receiver@example.com")

	deposit(t, app, tokenA, "300.00")

	// Recording the transfer legs fails after both wallets have moved;
	// the service must walk the money back.
	app.txRepo.failOnce()

	status, _ := app.do(t, http.MethodPost, "/api/v1/wallet/transfer", tokenA, map[string]interface{}{
		"to_user_id": 2,
		"amount":     "100.00",
	})
	assert.Equal(t, http.StatusInternalServerError, status)

	assert.Equal(t, "300.00", balance(t, app, tokenA))
	assert.Equal(t, "0.00", balance(t, app, tokenB))
}

func TestIntegration_CardLimit(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "collector@example.com")

	for i := 0; i < 5; i++ {
		addCard(t, app, token, fmt.Sprintf("04:00:01:%02d", i))
	}

	status, body := app.do(t, http.MethodPost, "/api/v1/cards", token, map[string]string{
		"card_uid": "04:00:01:99",
		"name":     "one too many",
		"type":     "VIRTUAL",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "LIM_004", body["error_code"])
}

func TestIntegration_InactiveCardRefused(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerAndLogin(t, app, "deactivator@example.com")
	cardID := addCard(t, app, token, "04:00:00:04")
	merchantID := registerMerchant(t, app, token, "SHOP04")
	deposit(t, app, token, "100.00")

	status, _ := app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/cards/%d/deactivate", cardID), token, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body := pay(t, app, token, cardID, merchantID, "10.00")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "STATE_001", body["error_code"])
}
