package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/adapter/storage/memory"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the full stack over the in-memory store and a
// miniredis-backed idempotency cache.
func newTestServer(t *testing.T) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.NewStore(time.Second)
	walletRepo := memory.NewWalletRepo(store)
	txRepo := memory.NewTransactionRepo(store)

	router := SetupRouter(RouterDeps{
		WalletSvc: service.NewWalletService(walletRepo, txRepo, zerolog.Nop()),
		LedgerSvc: service.NewLedgerService(
			walletRepo, txRepo, memory.NewIdempotencyRepo(store),
			redisStore.NewIdempotencyCache(client), memory.NewTransactor(store),
			time.Hour, zerolog.Nop(),
		),
		HealthCheckers: []ports.HealthChecker{memory.NewHealthCheck(), redisStore.NewHealthCheck(client)},
		Logger:         zerolog.Nop(),
	})
	return router, mr
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func openWallet(t *testing.T, r http.Handler, balance int64) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/wallets", map[string]int64{"initial_balance_in_minor_units": balance})
	require.Equal(t, http.StatusCreated, w.Code)
	var snap domain.WalletSnapshot
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &snap))
	return snap.WalletID
}

func walletBalance(t *testing.T, r http.Handler, id string) int64 {
	t.Helper()
	w := doJSON(t, r, http.MethodGet, "/api/v1/wallets/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.WalletSnapshot
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &snap))
	return snap.BalanceMinorUnits
}

func TestRouter_LedgerFlow(t *testing.T) {
	r, mr := newTestServer(t)

	w := openWallet(t, r, 0)

	credit := map[string]interface{}{
		"wallet_id": w, "type": "CREDIT", "amount_in_minor_units": 500, "idempotency_key": "k1",
	}
	resp := doJSON(t, r, http.MethodPost, "/api/v1/transactions", credit)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.NotEmpty(t, resp.Header().Get(middleware.HeaderRequestID))
	assert.Equal(t, int64(500), walletBalance(t, r, w))
	assert.True(t, mr.Exists("idempotency:k1"), "committed key is cached")

	// Replay is rejected by the cache fast path.
	resp = doJSON(t, r, http.MethodPost, "/api/v1/transactions", credit)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "LED_004", decode(t, resp).ErrorCode)

	// And by the ledger once the cache has forgotten it.
	mr.FlushAll()
	resp = doJSON(t, r, http.MethodPost, "/api/v1/transactions", credit)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, int64(500), walletBalance(t, r, w))

	resp = doJSON(t, r, http.MethodPost, "/api/v1/transactions", map[string]interface{}{
		"wallet_id": w, "type": "DEBIT", "amount_in_minor_units": 900, "idempotency_key": "k2",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Insufficient balance. Current: 500, Requested: 900", decode(t, resp).Message)
}

func TestRouter_Transfer(t *testing.T) {
	r, _ := newTestServer(t)

	a, b := openWallet(t, r, 1000), openWallet(t, r, 0)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/transfers", map[string]interface{}{
		"sender_wallet_id": a, "receiver_wallet_id": b, "amount_in_minor_units": 400, "idempotency_key": "k3",
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var snap domain.TransactionSnapshot
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &snap))
	assert.Equal(t, a, snap.WalletID)
	assert.Equal(t, "DEBIT", snap.Type)

	assert.Equal(t, int64(600), walletBalance(t, r, a))
	assert.Equal(t, int64(400), walletBalance(t, r, b))

	list := doJSON(t, r, http.MethodGet, "/api/v1/wallets/"+b+"/transactions", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var page struct {
		Items []domain.TransactionSnapshot `json:"items"`
		Total int64                        `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decode(t, list).Data, &page))
	assert.Equal(t, int64(0), page.Total, "receiver gets no record")
	assert.Empty(t, page.Items)

	resp = doJSON(t, r, http.MethodPost, "/api/v1/transfers", map[string]interface{}{
		"sender_wallet_id": a, "receiver_wallet_id": a, "amount_in_minor_units": 1, "idempotency_key": "k4",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRouter_Pagination(t *testing.T) {
	r, _ := newTestServer(t)
	w := openWallet(t, r, 0)

	for i := 0; i < 5; i++ {
		resp := doJSON(t, r, http.MethodPost, "/api/v1/transactions", map[string]interface{}{
			"wallet_id": w, "type": "CREDIT", "amount_in_minor_units": i + 1, "idempotency_key": fmt.Sprintf("p-%d", i),
		})
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := doJSON(t, r, http.MethodGet, "/api/v1/wallets/"+w+"/transactions?page=2&page_size=2", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var page struct {
		Items      []domain.TransactionSnapshot `json:"items"`
		Total      int64                        `json:"total"`
		Page       int                          `json:"page"`
		TotalPages int                          `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &page))
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 2)
}

func TestRouter_UnknownWallet(t *testing.T) {
	r, _ := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/api/v1/wallets/not-a-uuid", nil).Code)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/transactions", map[string]interface{}{
		"wallet_id": "8f6f1d4e-4a49-4c2e-9d0e-3f1b2a7c9e10", "type": "BOGUS",
		"amount_in_minor_units": 1, "idempotency_key": "k",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code, "missing wallet wins over a bad type")
}

func TestRouter_Health(t *testing.T) {
	r, mr := newTestServer(t)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/health", nil).Code)

	mr.Close()
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, r, http.MethodGet, "/health", nil).Code)
}
