package http_test

import (
	"bytes"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/testutil"
)

func movement(productID int64, kind string, qty float64) dto.CreateMovementRequest {
	return dto.CreateMovementRequest{ProductID: productID, Kind: kind, Quantity: qty}
}

func stockOf(lines []dto.StockLineResponse, productID int64) (dto.StockLineResponse, bool) {
	for _, l := range lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return dto.StockLineResponse{}, false
}

func TestKardex_AcmeEntradaSalida(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPost, "/api/kardex/movements", testutil.AcmeAuthID, movement(testutil.WidgetID, "entrada", 10))
	require.Equal(t, http.StatusCreated, status, string(body))
	result := decode[dto.MovementResultResponse](t, body)
	in := result.Movement
	require.Len(t, result.Entries, 1, "la respuesta trae el kardex releído")
	assert.Equal(t, int64(10), result.Entries[0].Balance)
	line, ok := stockOf(result.Stock, testutil.WidgetID)
	require.True(t, ok)
	assert.Equal(t, int64(10), line.Stock)
	assert.Equal(t, "entrada", in.Kind)
	assert.Equal(t, int64(10), in.Quantity)
	assert.Equal(t, testutil.AcmeID, in.CompanyID)
	assert.Equal(t, testutil.AcmeUserID, in.UserID, "se atribuye al id interno, no al externo")
	assert.Equal(t, "Movimiento de entrada", in.Detail)

	status, body = srv.do(t, http.MethodPost, "/api/kardex/movements", testutil.AcmeAuthID, movement(testutil.WidgetID, "salida", 3))
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = srv.do(t, http.MethodGet, "/api/kardex", testutil.AcmeAuthID, nil)
	require.Equal(t, http.StatusOK, status)
	ledger := decode[dto.LedgerResponse](t, body)
	require.NotNil(t, ledger.Company)
	assert.Equal(t, "Acme", ledger.Company.Name)
	require.Len(t, ledger.Entries, 2)
	assert.Equal(t, int64(10), ledger.Entries[0].Balance)
	assert.Equal(t, int64(7), ledger.Entries[1].Balance)
	assert.Equal(t, "Widget", ledger.Entries[1].ProductDescription)
	assert.Equal(t, "Ana Acme", ledger.Entries[1].UserName)

	line, ok = stockOf(ledger.Stock, testutil.WidgetID)
	require.True(t, ok)
	assert.Equal(t, int64(7), line.Stock)
	assert.False(t, line.BelowMinimum)

	p, _ := srv.store.Product(testutil.WidgetID)
	assert.Equal(t, int64(7), p.Stock, "la columna cacheada se actualiza en la misma transacción")
}

func TestKardex_TenantIsolation(t *testing.T) {
	srv := newTestServer(t)
	status, _ := srv.do(t, http.MethodPost, "/api/kardex/movements", testutil.AcmeAuthID, movement(testutil.WidgetID, "entrada", 5))
	require.Equal(t, http.StatusCreated, status)

	status, body := srv.do(t, http.MethodGet, "/api/kardex", testutil.OtherAuthID, nil)
	require.Equal(t, http.StatusOK, status)
	ledger := decode[dto.LedgerResponse](t, body)
	assert.Equal(t, "Globex", ledger.Company.Name)
	assert.Empty(t, ledger.Entries)

	status, body = srv.do(t, http.MethodPost, "/api/kardex/movements", testutil.OtherAuthID, movement(testutil.WidgetID, "salida", 1))
	assert.Equal(t, http.StatusNotFound, status, "el producto de otra empresa no se revela")
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, body).Code)
	assert.Len(t, srv.store.Movements(), 1)
}

func TestKardex_RegisterMovementRejections(t *testing.T) {
	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"tipo inválido", movement(testutil.WidgetID, "ajuste", 1), http.StatusBadRequest, "VALIDATION"},
		{"cantidad cero", movement(testutil.WidgetID, "entrada", 0), http.StatusBadRequest, "VALIDATION"},
		{"cantidad negativa", movement(testutil.WidgetID, "entrada", -4), http.StatusBadRequest, "VALIDATION"},
		{"cantidad fraccionaria", movement(testutil.WidgetID, "entrada", 2.5), http.StatusUnprocessableEntity, "VALIDATION"},
		{"sin producto", movement(0, "entrada", 1), http.StatusBadRequest, "VALIDATION"},
		{"stock insuficiente", movement(testutil.WidgetID, "salida", 1), http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"producto inexistente", movement(99999, "entrada", 1), http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t)
			status, body := srv.do(t, http.MethodPost, "/api/kardex/movements", testutil.AcmeAuthID, tc.body)
			assert.Equal(t, tc.status, status, string(body))
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, body).Code)
			assert.Empty(t, srv.store.Movements(), "ninguna escritura con entrada inválida")
		})
	}
}

func TestKardex_InvalidBody(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, http.MethodPost, "/api/kardex/movements", testutil.AcmeAuthID, "no es un objeto")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_BODY", decode[dto.ErrorResponse](t, body).Code)
}

func TestKardex_PersistenceFailure(t *testing.T) {
	srv := newTestServer(t)
	srv.store.FailOn("movements.create", errors.New("conexión perdida"))

	status, body := srv.do(t, http.MethodPost, "/api/kardex/movements", testutil.AcmeAuthID, movement(testutil.WidgetID, "entrada", 2))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "PERSISTENCE", decode[dto.ErrorResponse](t, body).Code)
	p, _ := srv.store.Product(testutil.WidgetID)
	assert.Zero(t, p.Stock)
}

func TestKardex_RegisterMovementRefreshFailure(t *testing.T) {
	srv := newTestServer(t)
	srv.store.FailOn("movements.kardex", errors.New("timeout"))

	status, body := srv.do(t, http.MethodPost, "/api/kardex/movements", testutil.AcmeAuthID, movement(testutil.WidgetID, "entrada", 2))
	assert.Equal(t, http.StatusBadGateway, status)
	resp := decode[dto.ErrorResponse](t, body)
	assert.Equal(t, "REFRESH_FAILED", resp.Code)
	assert.Contains(t, resp.Message, "movimiento registrado")
	assert.Equal(t, 1, srv.store.Calls("movements.kardex"), "la relectura se intentó tras la escritura")

	require.Len(t, srv.store.Movements(), 1, "la escritura no se deshace")
	p, _ := srv.store.Product(testutil.WidgetID)
	assert.Equal(t, int64(2), p.Stock)
}

func TestKardex_DriftRequestsReconcile(t *testing.T) {
	srv := newTestServer(t)
	status, _ := srv.do(t, http.MethodGet, "/api/kardex", testutil.AcmeAuthID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, srv.reconciler.requested(), "sin desalineación no se encola nada")

	srv.store.AddMovement(entity.Movement{
		ID: 900, Date: time.Now(), Kind: entity.MovementKindIn, Quantity: 4, ProductID: testutil.GadgetID,
		CompanyID: testutil.AcmeID, UserID: testutil.AcmeUserID, Status: entity.MovementStatusActive,
	})
	status, body := srv.do(t, http.MethodGet, "/api/kardex", testutil.AcmeAuthID, nil)
	require.Equal(t, http.StatusOK, status)
	line, ok := stockOf(decode[dto.LedgerResponse](t, body).Stock, testutil.GadgetID)
	require.True(t, ok)
	assert.Equal(t, int64(4), line.Stock, "el stock mostrado sale del kardex")
	assert.Equal(t, []int64{testutil.AcmeID}, srv.reconciler.requested())
}

func TestKardex_ReconcileEndpoint(t *testing.T) {
	srv := newTestServer(t)
	status, _ := srv.do(t, http.MethodPost, "/api/kardex/reconcile", testutil.AcmeAuthID, nil)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, []int64{testutil.AcmeID}, srv.reconciler.requested())

	srv.reconciler.err = errors.New("redis caído")
	status, body := srv.do(t, http.MethodPost, "/api/kardex/reconcile", testutil.OtherAuthID, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "PERSISTENCE", decode[dto.ErrorResponse](t, body).Code)
}

func TestKardex_LedgerRefreshFailure(t *testing.T) {
	srv := newTestServer(t)
	srv.store.FailOn("movements.kardex", errors.New("timeout"))

	status, body := srv.do(t, http.MethodGet, "/api/kardex", testutil.AcmeAuthID, nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "REFRESH_FAILED", decode[dto.ErrorResponse](t, body).Code)
}

func TestKardex_Report(t *testing.T) {
	srv := newTestServer(t)
	status, _ := srv.do(t, http.MethodPost, "/api/kardex/movements", testutil.AcmeAuthID, movement(testutil.GadgetID, "entrada", 4))
	require.Equal(t, http.StatusCreated, status)

	status, body := srv.do(t, http.MethodGet, "/api/kardex/report.pdf", testutil.AcmeAuthID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestKardex_Unauthenticated(t *testing.T) {
	srv := newTestServer(t)
	status, _ := srv.do(t, http.MethodGet, "/api/kardex", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
