package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursemint/settlement/internal/app/service/order"
	"github.com/coursemint/settlement/internal/app/service/settlement"
	"github.com/coursemint/settlement/internal/models"
)

type stubSettler struct {
	res *settlement.SettleResult
	err error
}

func (s *stubSettler) Settle(_ context.Context, _ *settlement.SettleRequest) (*settlement.SettleResult, error) {
	return s.res, s.err
}

func newSettleRouter(s settlement.Settler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1/payment")
	RegisterSettlementRoutes(g, s, zap.NewNop().Sugar())
	return r
}

func postSettle(t *testing.T, r *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/settle", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApiSettle_Success(t *testing.T) {
	stub := &stubSettler{res: &settlement.SettleResult{
		Order:            &models.Order{OrderNumber: "ORDER-1700000000000-AB12C"},
		Currency:         "cny",
		OriginalCurrency: "eur",
		Amount:           100,
		OriginalAmount:   100,
	}}
	w := postSettle(t, newSettleRouter(stub), map[string]any{
		"userId": "user-1", "amount": 100, "paymentType": "alipay", "currency": "eur",
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, true, resp["success"])
	require.Equal(t, "cny", resp["currency"])
	require.Equal(t, "eur", resp["original_currency"])
	require.Contains(t, resp, "originalAmount")
	require.NotNil(t, resp["order"])
}

func TestApiSettle_MissingField(t *testing.T) {
	stub := &stubSettler{err: fmt.Errorf("%w: userId", order.ErrMissingField)}
	w := postSettle(t, newSettleRouter(stub), map[string]any{
		"amount": 100, "paymentType": "alipay",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "error")
	require.NotContains(t, w.Body.String(), "details")
}

func TestApiSettle_UnknownUser(t *testing.T) {
	stub := &stubSettler{err: fmt.Errorf("%w: ghost", order.ErrUnknownUser)}
	w := postSettle(t, newSettleRouter(stub), map[string]any{
		"userId": "ghost", "amount": 100, "paymentType": "creditcard",
	})

	require.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "user not found", resp["error"])
}

func TestApiSettle_PersistenceFailure(t *testing.T) {
	stub := &stubSettler{err: fmt.Errorf("%w: connection refused", order.ErrPersistence)}
	w := postSettle(t, newSettleRouter(stub), map[string]any{
		"userId": "user-1", "amount": 100, "paymentType": "creditcard",
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp, "error")
	require.Contains(t, resp["details"], "connection refused")
}

func TestApiSettle_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/settle", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	newSettleRouter(&stubSettler{}).ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterSettlementRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api/v1/payment")
	RegisterSettlementRoutes(g, &stubSettler{}, zap.NewNop().Sugar())

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("POST /api/v1/payment/settle"))
}
