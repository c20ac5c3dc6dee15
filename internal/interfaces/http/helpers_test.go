package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/catalog"
	"github.com/jhoicas/Kardex-api/internal/application/kardex"
	"github.com/jhoicas/Kardex-api/internal/application/tenant"
	"github.com/jhoicas/Kardex-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/Kardex-api/internal/interfaces/http"
	"github.com/jhoicas/Kardex-api/internal/testutil"
	pkgjwt "github.com/jhoicas/Kardex-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "kardex-test"
)

type testServer struct {
	app        *fiber.App
	store      *testutil.Store
	feed       *testutil.Feed
	registry   *kardex.Registry
	reconciler *recordingReconciler
}

// recordingReconciler registra las empresas para las que se pidió reconciliación.
type recordingReconciler struct {
	mu        sync.Mutex
	companies []int64
	err       error
}

func (r *recordingReconciler) RequestReconcile(_ context.Context, companyID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.companies = append(r.companies, companyID)
	return nil
}

func (r *recordingReconciler) requested() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.companies...)
}

// newTestServer arma la API completa sobre el almacén en memoria con Acme sembrada.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := testutil.NewStore()
	testutil.SeedAcme(store)
	feed := testutil.NewFeed()
	store.Feed = feed

	resolver := tenant.NewResolver(store.Users(), store.Companies(), time.Minute, zerolog.Nop())
	engine := kardex.NewEngine(testutil.NewTxRunner(store), store.MovementRepo(), resolver, zerolog.Nop())
	cache := catalog.NewCache(store.Products(), store.Brands(), store.Categories())
	registry := kardex.NewRegistry(kardex.SessionDeps{
		Engine:         engine,
		Resolver:       resolver,
		Catalog:        cache,
		Messages:       store.Messages(),
		Feed:           feed,
		NotifyDuration: time.Minute,
		Log:            zerolog.Nop(),
	})
	t.Cleanup(registry.CloseAll)

	reconciler := &recordingReconciler{}
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Resolver:   resolver,
		Engine:     engine,
		Catalog:    cache,
		Reports:    pdf.NewKardexReportGenerator(),
		Messages:   store.Messages(),
		Sessions:   registry,
		Feed:       feed,
		Reconciler: reconciler,
		JWTSecret:  testJWTSecret,
		JWTIssuer:  testIssuer,
		Log:        zerolog.Nop(),
	})
	return &testServer{app: app, store: store, feed: feed, registry: registry, reconciler: reconciler}
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, subject, subject+"@test.co", testIssuer, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

// do lanza la petición como subject ("" sin Authorization) y devuelve status y cuerpo.
func (s *testServer) do(t *testing.T, method, path, subject string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if subject != "" {
		req.Header.Set("Authorization", bearer(t, subject))
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
