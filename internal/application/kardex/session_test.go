package kardex

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/notify"
	"github.com/jhoicas/Kardex-api/internal/application/realtime"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/testutil"
)

func startSession(t *testing.T, f *fixture, externalID string) *Session {
	t.Helper()
	s := NewSession("s-"+externalID, f.deps)
	require.NoError(t, s.Start(asUser(externalID)))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(t *testing.T, s *Session, kind entity.MovementKind, productID, qty int64) {
	t.Helper()
	require.NoError(t, s.OpenMovementDialog(kind))
	require.NoError(t, s.SelectProduct(productID))
	require.NoError(t, s.SetQuantity(qty))
	_, err := s.SaveMovement(asUser(s.Owner()))
	require.NoError(t, err)
}

func stockOf(v View, productID int64) int64 {
	for _, l := range v.Stock {
		if l.Product.ID == productID {
			return l.Stock
		}
	}
	return -1
}

func TestSession_StartLoadsTenantData(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	v := s.State()
	assert.Equal(t, PhaseIdle, v.Phase)
	require.NotNil(t, v.Company)
	assert.Equal(t, "Acme", v.Company.Name)
	assert.False(t, v.Loading)
	assert.Empty(t, v.Error)
	assert.Len(t, v.Stock, 2)
	assert.Equal(t, 1, f.feed.Subscribers(realtime.TableKardex))
	assert.Equal(t, 1, f.feed.Subscribers(realtime.TableMessages))
}

func TestSession_StartWithoutAuth(t *testing.T) {
	f := newFixture()
	s := NewSession("x", f.deps)
	defer s.Close()
	err := s.Start(context.Background())
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
}

func TestSession_StartWithoutCompany(t *testing.T) {
	f := newFixture()
	s := NewSession("x", f.deps)
	defer s.Close()
	err := s.Start(asUser(testutil.OrphanAuthID))
	assert.Equal(t, domain.KindTenantResolution, domain.KindOf(err))
}

func TestSession_AcmeScenario(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)

	record(t, s, entity.MovementKindIn, testutil.WidgetID, 10)
	record(t, s, entity.MovementKindOut, testutil.WidgetID, 3)

	v := s.State()
	assert.Equal(t, PhaseIdle, v.Phase)
	assert.Equal(t, OutcomeSuccess, v.Outcome)
	assert.False(t, v.Dialog.Open)
	assert.Equal(t, int64(7), stockOf(v, testutil.WidgetID))
	require.Len(t, v.Ledger, 2)
	assert.Equal(t, int64(7), v.Ledger[1].Balance)
	assert.Equal(t, "Widget", v.Ledger[1].ProductDescription)
	assert.Equal(t, "Ana Acme", v.Ledger[1].UserName)
	assert.Equal(t, notify.SeveritySuccess, v.Notification.Severity)
	assert.True(t, v.Notification.Visible)
	assert.Len(t, f.store.Movements(), 2)
}

func TestSession_OpenDialogResetsFields(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)

	require.NoError(t, s.OpenMovementDialog(entity.MovementKindIn))
	require.NoError(t, s.SelectProduct(testutil.WidgetID))
	require.NoError(t, s.SetQuantity(4))
	require.NoError(t, s.SetQuery("wid"))

	require.NoError(t, s.OpenMovementDialog(entity.MovementKindOut))
	d := s.State().Dialog
	assert.True(t, d.Open)
	assert.Equal(t, entity.MovementKindOut, d.Kind)
	assert.Zero(t, d.ProductID)
	assert.Zero(t, d.Quantity)
	assert.Empty(t, d.Query)
	assert.Empty(t, d.Error)
	assert.Equal(t, PhaseCollectingInput, s.State().Phase)
}

func TestSession_OpenDialogWithoutCatalog(t *testing.T) {
	f := newFixture()
	f.store.FailOn("products.list", errors.New("timeout"))
	s := startSession(t, f, testutil.AcmeAuthID)
	assert.NotEmpty(t, s.State().Error)

	err := s.OpenMovementDialog(entity.MovementKindIn)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCatalogNotLoaded)
	assert.False(t, s.State().Dialog.Open)
}

func TestSession_SaveWithoutProductKeepsDialog(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	require.NoError(t, s.OpenMovementDialog(entity.MovementKindIn))
	require.NoError(t, s.SetQuantity(5))

	_, err := s.SaveMovement(asUser(testutil.AcmeAuthID))
	require.Error(t, err)
	v := s.State()
	assert.True(t, v.Dialog.Open)
	assert.NotEmpty(t, v.Dialog.Error)
	assert.Equal(t, PhaseSettled, v.Phase)
	assert.Equal(t, OutcomeFailed, v.Outcome)
	assert.Equal(t, notify.SeverityError, v.Notification.Severity)
	assert.Zero(t, f.store.Calls("movements.create"))
}

func TestSession_SaveFailureThenRetry(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	require.NoError(t, s.OpenMovementDialog(entity.MovementKindOut))
	require.NoError(t, s.SelectProduct(testutil.WidgetID))
	require.NoError(t, s.SetQuantity(1))

	_, err := s.SaveMovement(asUser(testutil.AcmeAuthID))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, s.State().Dialog.Open)

	require.NoError(t, s.SetQuantity(0))
	assert.Equal(t, PhaseCollectingInput, s.State().Phase)
	assert.Empty(t, s.State().Dialog.Error)
}

func TestSession_RefreshFailureStillRecords(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	f.store.FailOn("movements.kardex", errors.New("rpc caído"))

	record(t, s, entity.MovementKindIn, testutil.WidgetID, 2)
	v := s.State()
	assert.Len(t, f.store.Movements(), 1)
	assert.Equal(t, OutcomeSuccess, v.Outcome)
	assert.False(t, v.Dialog.Open)
	assert.Equal(t, notify.SeverityInfo, v.Notification.Severity)
	assert.Contains(t, v.Notification.Message, "Movimiento registrado")
}

func TestSession_SelectUnknownProduct(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	require.NoError(t, s.OpenMovementDialog(entity.MovementKindIn))
	err := s.SelectProduct(testutil.OtherWidgetID)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestSession_EditWithoutDialog(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	assert.Error(t, s.SetQuantity(1))
	_, err := s.SaveMovement(asUser(testutil.AcmeAuthID))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestSession_FilteredProductsIdempotent(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	first := s.FilteredProducts("")
	second := s.FilteredProducts("")
	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Len(t, s.FilteredProducts("gadget"), 0)
	assert.Len(t, s.FilteredProducts("GÁD"), 1)
}

func TestSession_FilteredDetailsJoinsBrandAndCategory(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	details := s.FilteredDetails("widget")
	require.Len(t, details, 1)
	assert.Equal(t, testutil.WidgetID, details[0].Product.ID)
	require.NotNil(t, details[0].Brand)
	assert.Equal(t, "Marca Acme", details[0].Brand.Description)
	require.NotNil(t, details[0].Category)
	assert.Equal(t, "#ff0000", details[0].Category.Color)
}

func TestSession_DismissDialog(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	require.NoError(t, s.OpenMovementDialog(entity.MovementKindIn))
	s.DismissDialog()
	v := s.State()
	assert.False(t, v.Dialog.Open)
	assert.Equal(t, PhaseIdle, v.Phase)
}

func TestSession_RemoteChangesPropagate(t *testing.T) {
	f := newFixture()
	viewer := startSession(t, f, testutil.AcmeAuthID)
	writer := NewSession("writer", f.deps)
	require.NoError(t, writer.Start(asUser(testutil.AcmeAuthID)))
	defer writer.Close()
	outsider := startSession(t, f, testutil.OtherAuthID)

	record(t, writer, entity.MovementKindIn, testutil.WidgetID, 6)

	v := viewer.State()
	require.Len(t, v.Ledger, 1)
	assert.Equal(t, int64(6), v.Ledger[0].Balance)
	assert.Equal(t, "Widget", v.Ledger[0].ProductDescription)
	assert.Equal(t, int64(6), stockOf(v, testutil.WidgetID))
	assert.Empty(t, outsider.State().Ledger)

	// Borrado remoto de un id inexistente: sin cambios.
	f.feed.Emit(realtime.ChangeEvent{Table: realtime.TableKardex, Type: realtime.EventDelete, CompanyID: testutil.AcmeID, Old: []byte(`{"id":999999}`)})
	assert.Len(t, viewer.State().Ledger, 1)
}

func TestSession_MessagesPropagate(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	require.NoError(t, f.store.Messages().Create(context.Background(), &entity.Message{CompanyID: testutil.AcmeID, Author: "ana", Content: "inventario listo"}))
	require.NoError(t, f.store.Messages().Create(context.Background(), &entity.Message{CompanyID: testutil.OtherID, Author: "gus", Content: "otro tenant"}))
	msgs := s.State().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, "inventario listo", msgs[0].Content)
}

func TestSession_ReopenDuringSaveKeepsNewDialog(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)

	writing := make(chan struct{})
	release := make(chan struct{})
	f.engine.now = func() time.Time {
		close(writing)
		<-release
		return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	}

	require.NoError(t, s.OpenMovementDialog(entity.MovementKindIn))
	require.NoError(t, s.SelectProduct(testutil.WidgetID))
	require.NoError(t, s.SetQuantity(5))
	done := make(chan error, 1)
	go func() {
		_, err := s.SaveMovement(asUser(testutil.AcmeAuthID))
		done <- err
	}()
	<-writing

	s.DismissDialog()
	require.NoError(t, s.OpenMovementDialog(entity.MovementKindOut))
	require.NoError(t, s.SelectProduct(testutil.GadgetID))
	require.NoError(t, s.SetQuantity(2))

	close(release)
	require.NoError(t, <-done)

	v := s.State()
	assert.True(t, v.Dialog.Open, "el diálogo reabierto sigue abierto")
	assert.Equal(t, entity.MovementKindOut, v.Dialog.Kind)
	assert.Equal(t, testutil.GadgetID, v.Dialog.ProductID)
	assert.Equal(t, int64(2), v.Dialog.Quantity)
	assert.Equal(t, PhaseCollectingInput, v.Phase)
	assert.Equal(t, int64(5), stockOf(v, testutil.WidgetID), "el primer movimiento quedó registrado")
}

func TestSession_ConcurrentSaves(t *testing.T) {
	f := newFixture()
	var wg sync.WaitGroup
	for range 5 {
		s := startSession(t, f, testutil.AcmeAuthID)
		require.NoError(t, s.OpenMovementDialog(entity.MovementKindIn))
		require.NoError(t, s.SelectProduct(testutil.WidgetID))
		require.NoError(t, s.SetQuantity(2))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.SaveMovement(asUser(testutil.AcmeAuthID))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, f.store.Movements(), 5)
	p, _ := f.store.Product(testutil.WidgetID)
	assert.Equal(t, int64(10), p.Stock)
}

func TestSession_CloseReleasesSubscriptions(t *testing.T) {
	f := newFixture()
	s := NewSession("c", f.deps)
	require.NoError(t, s.Start(asUser(testutil.AcmeAuthID)))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Zero(t, f.feed.Subscribers(realtime.TableKardex))
	assert.Zero(t, f.feed.Subscribers(realtime.TableMessages))
	assert.ErrorIs(t, s.OpenMovementDialog(entity.MovementKindIn), domain.ErrSessionClosed)
}

func TestSession_RefreshCatalog(t *testing.T) {
	f := newFixture()
	s := startSession(t, f, testutil.AcmeAuthID)
	f.store.AddProduct(entity.Product{ID: 150, Description: "Tornillo", CompanyID: testutil.AcmeID})
	assert.Len(t, s.FilteredProducts(""), 2)
	require.NoError(t, s.RefreshCatalog(context.Background()))
	assert.Len(t, s.FilteredProducts(""), 3)

	f.store.FailOn("brands.list", errors.New("timeout"))
	require.Error(t, s.RefreshCatalog(context.Background()))
	assert.Len(t, s.FilteredProducts(""), 3)
}
