package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/tokenledger/internal/ledger/application"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/identity"
	"github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/persistence/memory"
	ledgerhttp "github.com/wyfcoding/tokenledger/internal/ledger/interfaces/http"
)

const contractOwner = "ledger.admin"

func newRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	ledger := domain.NewLedger(
		store, store.Balances(), store.Exemptions(),
		identity.ContextAuthorizer{}, store, domain.NopNotifier{}, contractOwner,
	)
	query := application.NewLedgerQueryService(store, store.Balances(), nil)
	command := application.NewLedgerCommandService(ledger, store, store, nil, nil, query)
	svc := application.NewLedgerService(command, query)

	handler := ledgerhttp.NewLedgerHandler(svc, store)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api"))
	return router, store
}

func doJSON(t *testing.T, router *gin.Engine, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set(ledgerhttp.AuthHeader, auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateToken(t *testing.T) {
	router, _ := newRouter(t)

	t.Run("missing authority returns 403", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/tokens", "", gin.H{
			"issuer": "alice", "max_supply": "1000.00 SYM",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing fields return 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/tokens", contractOwner, gin.H{
			"issuer": "alice",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad asset literal returns 400", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/tokens", contractOwner, gin.H{
			"issuer": "alice", "max_supply": "garbage",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success returns 201", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/tokens", contractOwner, gin.H{
			"issuer": "alice", "max_supply": "1000.00 SYM",
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("duplicate returns 409", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/tokens", contractOwner, gin.H{
			"issuer": "bob", "max_supply": "5.00 SYM",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandlerTransferFlow(t *testing.T) {
	router, store := newRouter(t)
	store.RegisterIdentity("alice")
	store.RegisterIdentity("bob")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/tokens", contractOwner, gin.H{
		"issuer": "alice", "max_supply": "1000.00 SYM",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/tokens/issue", "alice", gin.H{
		"to": "alice", "quantity": "100.00 SYM", "memo": "genesis",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// 请求头支持逗号分隔的多重身份
	rec = doJSON(t, router, http.MethodPost, "/api/v1/transfers", "alice, bob", gin.H{
		"from": "alice", "to": "bob", "quantity": "40.00 SYM",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/tokens/SYM/supply", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var supply application.SupplyDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &supply))
	assert.Equal(t, "100.00 SYM", supply.Supply)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/accounts/bob/balances/SYM", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance application.BalanceDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.Equal(t, "40.00 SYM", balance.Balance)

	// 余额不足属于不可处理的业务错误
	rec = doJSON(t, router, http.MethodPost, "/api/v1/transfers", "bob", gin.H{
		"from": "bob", "to": "alice", "quantity": "41.00 SYM",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/tokens/SYM/holders", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var holders []application.BalanceDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &holders))
	assert.Len(t, holders, 2)
}

func TestHandlerOpenClose(t *testing.T) {
	router, store := newRouter(t)
	store.RegisterIdentity("bob")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/tokens", contractOwner, gin.H{
		"issuer": "alice", "max_supply": "1000.00 SYM",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/balances/open", "bob", gin.H{
		"owner": "bob", "symbol": "2,SYM", "ram_payer": "bob",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/accounts/bob/balances/SYM", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/balances/close", "bob", gin.H{
		"owner": "bob", "symbol": "2,SYM",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// 关户后余额查询 404
	rec = doJSON(t, router, http.MethodGet, "/api/v1/accounts/bob/balances/SYM", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerAdmin(t *testing.T) {
	router, store := newRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/admin/identities", "", gin.H{
		"name": "carol",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	exists, err := store.Exists(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "carol")
	require.NoError(t, err)
	assert.True(t, exists)

	t.Run("logfee requires contract owner", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/admin/logfee", "carol", gin.H{
			"account": "carol", "fee": "0.10 SYM",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/api/v1/admin/logfee", contractOwner, gin.H{
			"account": "carol", "fee": "0.10 SYM",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHandlerUnknownToken(t *testing.T) {
	router, _ := newRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/tokens/NOPE", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/tokens/NOPE/supply", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
