package funding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/logging"
	"github.com/nerdwork/nwt_ledger/internal/middleware"
	"github.com/nerdwork/nwt_ledger/internal/nwt"
	"github.com/nerdwork/nwt_ledger/internal/store"
	"github.com/nerdwork/nwt_ledger/internal/wallet"
)

const webhookSecret = "whsec"

func webhookApp(t *testing.T) (*fiber.App, *store.Memory, ledger.Ref) {
	t.Helper()
	mem := store.NewMemory()
	wallets := wallet.NewService(mem)
	acct, err := wallets.Open(context.Background(), wallet.OpenInput{UserID: uuid.NewString(), Kind: ledger.KindReader})
	require.NoError(t, err)

	svc, err := NewService(mem, fixedProvider{id: "p1"}, nil, logging.Discard())
	require.NoError(t, err)
	_, err = svc.InitiateTopUp(context.Background(), TopUpInput{
		ReaderID: acct.ID, NWTAmount: nwt.MustParse("50"), USDAmount: nwt.MustParse("5"),
	})
	require.NoError(t, err)

	h := NewHandler(svc, wallets, logging.Discard())
	app := fiber.New()
	app.Post("/webhooks/payments", middleware.WebhookSignature(webhookSecret), h.Webhook)
	return app, mem, acct.Ref
}

func sendWebhook(t *testing.T, app *fiber.App, body, signature string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(middleware.WebhookSignatureHeader, signature)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestWebhookSettlesSignedConfirmation(t *testing.T) {
	app, mem, reader := webhookApp(t)
	body := `{"payment_id":"p1","status":"success","transaction_reference":"0xabc"}`

	assert.Equal(t, http.StatusUnauthorized, sendWebhook(t, app, body, middleware.SignWebhook("wrong", []byte(body))))
	assert.True(t, readerBalance(t, mem, reader).IsZero())

	assert.Equal(t, http.StatusOK, sendWebhook(t, app, body, middleware.SignWebhook(webhookSecret, []byte(body))))
	assert.Equal(t, http.StatusOK, sendWebhook(t, app, body, middleware.SignWebhook(webhookSecret, []byte(body))))
	assert.True(t, readerBalance(t, mem, reader).Equal(nwt.MustParse("50")))
}

func TestWebhookErrorMapping(t *testing.T) {
	app, _, _ := webhookApp(t)
	cases := []struct {
		body   string
		status int
	}{
		{`{"payment_id":"missing","status":"success"}`, http.StatusNotFound},
		{`{"payment_id":"p1","status":"on_hold"}`, http.StatusBadRequest},
		{`{"status":"success"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		got := sendWebhook(t, app, tc.body, middleware.SignWebhook(webhookSecret, []byte(tc.body)))
		assert.Equal(t, tc.status, got, tc.body)
	}

	failed := `{"payment_id":"p1","status":"failed","failure_reason":"card declined"}`
	assert.Equal(t, http.StatusOK, sendWebhook(t, app, failed, middleware.SignWebhook(webhookSecret, []byte(failed))))
	success := `{"payment_id":"p1","status":"success"}`
	assert.Equal(t, http.StatusConflict, sendWebhook(t, app, success, middleware.SignWebhook(webhookSecret, []byte(success))))
}

const topUpSecret = "topup-secret"

func topUpApp(t *testing.T, provider PaymentProvider) (*fiber.App, string) {
	t.Helper()
	mem := store.NewMemory()
	wallets := wallet.NewService(mem)
	userID := uuid.NewString()
	_, err := wallets.Open(context.Background(), wallet.OpenInput{UserID: userID, Kind: ledger.KindReader})
	require.NoError(t, err)

	svc, err := NewService(mem, provider, nil, logging.Discard())
	require.NoError(t, err)
	h := NewHandler(svc, wallets, logging.Discard())

	app := fiber.New()
	app.Post("/wallet/top-ups", middleware.JWTAuth(topUpSecret), h.TopUp)
	return app, userID
}

func postTopUp(t *testing.T, app *fiber.App, userID, body string) (int, map[string]any) {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(topUpSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/wallet/top-ups", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]any
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func TestTopUpAcceptsFractionalAmounts(t *testing.T) {
	app, userID := topUpApp(t, fixedProvider{id: "p-frac"})

	status, body := postTopUp(t, app, userID, `{"nwt_amount":"12.5","usd_amount":"4.99"}`)
	require.Equal(t, http.StatusCreated, status)
	tx := body["data"].(map[string]any)["transaction"].(map[string]any)
	assert.Equal(t, "12.500000", tx["nwt_amount"])
	assert.Equal(t, "4.99", tx["usd_amount"])
	assert.Equal(t, "pending", tx["status"])
}

func TestTopUpErrorMapping(t *testing.T) {
	app, userID := topUpApp(t, fixedProvider{id: "p-err"})
	cases := []struct {
		name   string
		user   string
		body   string
		status int
	}{
		{"sub-cent usd", userID, `{"nwt_amount":"1","usd_amount":"0.001"}`, http.StatusBadRequest},
		{"negative nwt", userID, `{"nwt_amount":"-1","usd_amount":"1"}`, http.StatusBadRequest},
		{"not a number", userID, `{"nwt_amount":"ten","usd_amount":"1"}`, http.StatusBadRequest},
		{"no reader profile", uuid.NewString(), `{"nwt_amount":"1","usd_amount":"1"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := postTopUp(t, app, tc.user, tc.body)
			assert.Equal(t, tc.status, status)
		})
	}

	failing, failingUser := topUpApp(t, failingProvider{})
	status, _ := postTopUp(t, failing, failingUser, `{"nwt_amount":"1","usd_amount":"1"}`)
	assert.Equal(t, http.StatusBadGateway, status)
}
