package kardex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/application/realtime"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/testutil"
)

func TestRegistry_OwnerScoping(t *testing.T) {
	f := newFixture()
	r := NewRegistry(f.deps)
	defer r.CloseAll()

	s, err := r.Create(asUser(testutil.AcmeAuthID))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get(s.ID(), testutil.AcmeAuthID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = r.Get(s.ID(), testutil.OtherAuthID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.Close(s.ID(), testutil.OtherAuthID), domain.ErrNotFound)

	require.NoError(t, r.Close(s.ID(), testutil.AcmeAuthID))
	assert.Zero(t, r.Len())
	assert.Zero(t, f.feed.Subscribers(realtime.TableKardex))
}

func TestRegistry_CreateFailureLeavesNothing(t *testing.T) {
	f := newFixture()
	r := NewRegistry(f.deps)
	_, err := r.Create(asUser(testutil.OrphanAuthID))
	assert.Equal(t, domain.KindTenantResolution, domain.KindOf(err))
	assert.Zero(t, r.Len())

	_, err = r.Create(context.Background())
	assert.Equal(t, domain.KindAuth, domain.KindOf(err))
	assert.Zero(t, f.feed.Subscribers(realtime.TableKardex))
}

func TestRegistry_SweepAndCloseAll(t *testing.T) {
	f := newFixture()
	r := NewRegistry(f.deps)
	_, err := r.Create(asUser(testutil.AcmeAuthID))
	require.NoError(t, err)
	_, err = r.Create(asUser(testutil.OtherAuthID))
	require.NoError(t, err)

	assert.Zero(t, r.Sweep(time.Hour))
	assert.Equal(t, 2, r.Len())

	assert.Equal(t, 2, r.Sweep(-time.Second))
	assert.Zero(t, r.Len())

	_, err = r.Create(asUser(testutil.AcmeAuthID))
	require.NoError(t, err)
	r.CloseAll()
	assert.Zero(t, r.Len())
	assert.Zero(t, f.feed.Subscribers(realtime.TableKardex))
}
