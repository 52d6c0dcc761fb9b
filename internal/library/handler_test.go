package library

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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
	"github.com/nerdwork/nwt_ledger/internal/store"
	"github.com/nerdwork/nwt_ledger/internal/wallet"
)

const librarySecret = "library-secret"

func TestHandlerAccess(t *testing.T) {
	mem := store.NewMemory()
	wallets := wallet.NewService(mem)
	userID := uuid.NewString()
	reader, err := wallets.Open(context.Background(), wallet.OpenInput{UserID: userID, Kind: ledger.KindReader})
	require.NoError(t, err)
	owned := uuid.NewString()
	seedGrant(t, mem, reader.ID, owned, time.Now())

	h := NewHandler(NewService(mem, nil, logging.Discard()), wallets)
	app := fiber.New()
	app.Get("/library/:contentId/access", middleware.JWTAuth(librarySecret), h.Access)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(librarySecret))
	require.NoError(t, err)

	get := func(contentID string) (int, map[string]any) {
		req := httptest.NewRequest(http.MethodGet, "/library/"+contentID+"/access", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		var body map[string]any
		if resp.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		}
		return resp.StatusCode, body
	}

	status, body := get(owned)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["data"].(map[string]any)["has_access"])

	status, body = get(uuid.NewString())
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["data"].(map[string]any)["has_access"])

	status, _ = get("not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, status)
}
