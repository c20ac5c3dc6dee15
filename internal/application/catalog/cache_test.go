package catalog

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/testutil"
)

func newCache() (*Cache, *testutil.Store) {
	store := testutil.NewStore()
	testutil.SeedAcme(store)
	return NewCache(store.Products(), store.Brands(), store.Categories()), store
}

func descriptions(seq func(func(entity.Product) bool)) []string {
	var out []string
	for p := range seq {
		out = append(out, p.Description)
	}
	return out
}

func TestLoad_ScopedToCompany(t *testing.T) {
	c, _ := newCache()
	snap, err := c.Load(context.Background(), testutil.AcmeID)
	require.NoError(t, err)
	assert.Len(t, snap.Products, 2)
	assert.Len(t, snap.Brands, 1)
	assert.Len(t, snap.Categories, 1)
	assert.False(t, snap.LoadedAt.IsZero())
	assert.Nil(t, snap.Product(testutil.OtherWidgetID))
	require.NotNil(t, snap.Product(testutil.WidgetID))
}

func TestLoad_AnyFailureNoSnapshot(t *testing.T) {
	for _, op := range []string{"products.list", "brands.list", "categories.list"} {
		t.Run(op, func(t *testing.T) {
			c, store := newCache()
			store.FailOn(op, errors.New("timeout"))
			snap, err := c.Load(context.Background(), testutil.AcmeID)
			require.Error(t, err)
			assert.Nil(t, snap)
			assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
		})
	}
}

func TestLoad_RequiresCompany(t *testing.T) {
	c, _ := newCache()
	_, err := c.Load(context.Background(), 0)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestFilter_EmptyQueryIsIdempotent(t *testing.T) {
	c, _ := newCache()
	snap, err := c.Load(context.Background(), testutil.AcmeID)
	require.NoError(t, err)
	before := slices.Clone(snap.Products)

	first := descriptions(snap.Filter(""))
	second := descriptions(snap.Filter(""))
	assert.Equal(t, []string{"Widget", "Gádget Eléctrico"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, before, snap.Products)
}

func TestFilter_CaseInsensitiveUnicode(t *testing.T) {
	c, _ := newCache()
	snap, err := c.Load(context.Background(), testutil.AcmeID)
	require.NoError(t, err)

	assert.Equal(t, []string{"Widget"}, descriptions(snap.Filter("WIDG")))
	assert.Equal(t, []string{"Gádget Eléctrico"}, descriptions(snap.Filter("ELÉCTRICO")))
	assert.Empty(t, descriptions(snap.Filter("tornillo")))
}

func TestFilter_RestartableAndEarlyStop(t *testing.T) {
	snap := NewSnapshot(1, []entity.Product{{ID: 1, Description: "a1"}, {ID: 2, Description: "a2"}, {ID: 3, Description: "a3"}}, nil, nil)
	seq := snap.Filter("a")
	for p := range seq {
		assert.Equal(t, int64(1), p.ID)
		break
	}
	assert.Len(t, descriptions(seq), 3)
}

func TestDetails_JoinsBrandAndCategory(t *testing.T) {
	c, _ := newCache()
	snap, err := c.Load(context.Background(), testutil.AcmeID)
	require.NoError(t, err)
	details := snap.Details()
	require.Len(t, details, 2)
	require.NotNil(t, details[0].Brand)
	require.NotNil(t, details[0].Category)
	assert.Equal(t, "Marca Acme", details[0].Brand.Description)
	assert.Equal(t, "#ff0000", details[0].Category.Color)
}

func TestNilSnapshot(t *testing.T) {
	var snap *Snapshot
	assert.Nil(t, snap.Product(1))
	assert.Empty(t, descriptions(snap.Filter("")))
	assert.Nil(t, snap.Details())
}
