package testutil

import (
	"context"
	"maps"
	"sync"

	"github.com/jhoicas/Kardex-api/internal/application/realtime"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// TxRunner ejecuta la función sobre el Store y deshace movimientos y stock si devuelve error.
// Los eventos del feed se publican solo después del commit.
type TxRunner struct {
	s    *Store
	lock sync.Mutex // equivale al bloqueo de fila de SELECT FOR UPDATE
}

// NewTxRunner construye el runner en memoria.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run aplica fn de forma atómica respecto de movimientos y stock.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.s.mu.Lock()
	if err := r.s.enter("tx.begin"); err != nil {
		r.s.mu.Unlock()
		return err
	}
	movLen := len(r.s.movements)
	products := maps.Clone(r.s.products)
	r.s.mu.Unlock()

	var pending []realtime.ChangeEvent
	err := fn(movementRepo{s: r.s, pending: &pending}, productRepo{r.s})
	if err == nil {
		r.s.mu.Lock()
		err = r.s.enter("tx.commit")
		r.s.mu.Unlock()
	}
	if err != nil {
		r.s.mu.Lock()
		r.s.movements = r.s.movements[:movLen]
		r.s.products = products
		r.s.mu.Unlock()
		return err
	}

	if feed := r.s.Feed; feed != nil {
		for _, evt := range pending {
			feed.Emit(evt)
		}
	}
	return nil
}
