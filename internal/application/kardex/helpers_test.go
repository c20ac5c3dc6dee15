package kardex

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Kardex-api/internal/application/auth"
	"github.com/jhoicas/Kardex-api/internal/application/catalog"
	"github.com/jhoicas/Kardex-api/internal/application/tenant"
	"github.com/jhoicas/Kardex-api/internal/testutil"
)

type fixture struct {
	store    *testutil.Store
	feed     *testutil.Feed
	resolver *tenant.Resolver
	engine   *Engine
	deps     SessionDeps
}

func newFixture() *fixture {
	store := testutil.NewStore()
	testutil.SeedAcme(store)
	feed := testutil.NewFeed()
	store.Feed = feed
	resolver := tenant.NewResolver(store.Users(), store.Companies(), time.Minute, zerolog.Nop())
	engine := NewEngine(testutil.NewTxRunner(store), store.MovementRepo(), resolver, zerolog.Nop())
	return &fixture{
		store:    store,
		feed:     feed,
		resolver: resolver,
		engine:   engine,
		deps: SessionDeps{
			Engine:         engine,
			Resolver:       resolver,
			Catalog:        catalog.NewCache(store.Products(), store.Brands(), store.Categories()),
			Messages:       store.Messages(),
			Feed:           feed,
			NotifyDuration: time.Minute,
			Log:            zerolog.Nop(),
		},
	}
}

func asUser(externalID string) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{ExternalID: externalID})
}

func (f *fixture) acmeContext() tenant.SessionContext {
	sc, err := f.resolver.Resolve(asUser(testutil.AcmeAuthID))
	if err != nil {
		panic(err)
	}
	return sc
}
