// Package testutil contiene dobles en memoria de los repositorios, la transacción y el
// feed de cambios para las pruebas de la capa de aplicación y HTTP.
package testutil

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Kardex-api/internal/application/realtime"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// Store es un almacén en memoria que imita las tablas de la aplicación.
// Cuando Feed no es nil, publica los INSERT de kardex y messages como lo hacen los triggers.
type Store struct {
	mu          sync.Mutex
	companies   map[int64]entity.Company
	users       map[int64]entity.User
	assignments map[int64]int64 // usuario -> empresa
	permissions map[int64][]string
	brands      []entity.Brand
	categories  []entity.Category
	products    map[int64]entity.Product
	movements   []entity.Movement
	messages    []entity.Message
	nextID      int64
	calls       map[string]int
	failures    map[string]error

	Feed *Feed
	Now  func() time.Time
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		companies:   make(map[int64]entity.Company),
		users:       make(map[int64]entity.User),
		assignments: make(map[int64]int64),
		permissions: make(map[int64][]string),
		products:    make(map[int64]entity.Product),
		calls:       make(map[string]int),
		failures:    make(map[string]error),
		nextID:      1000,
		Now:         time.Now,
	}
}

// AddCompany registra una empresa.
func (s *Store) AddCompany(c entity.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = c
}

// AddUser registra un usuario y, si companyID != 0, su asignación de empresa.
func (s *Store) AddUser(u entity.User, companyID int64, modules ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	if companyID != 0 {
		s.assignments[u.ID] = companyID
	}
	s.permissions[u.ID] = append(s.permissions[u.ID], modules...)
}

// AddBrand registra una marca.
func (s *Store) AddBrand(b entity.Brand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brands = append(s.brands, b)
}

// AddCategory registra una categoría.
func (s *Store) AddCategory(c entity.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
}

// AddProduct registra un producto.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// AddMovement inserta un movimiento histórico sin tocar la columna de stock.
func (s *Store) AddMovement(m entity.Movement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, m)
}

// Product devuelve el producto tal como está almacenado.
func (s *Store) Product(id int64) (entity.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

// Movements devuelve una copia de los movimientos almacenados.
func (s *Store) Movements() []entity.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.movements)
}

// FailOn hace que la operación op devuelva err (nil la restablece).
// Operaciones: "products.list", "products.get_for_update", "products.update_stock",
// "brands.list", "categories.list", "movements.create", "movements.kardex",
// "movements.stock_totals", "messages.create", "messages.list", "users.get_by_auth_id",
// "companies.get_by_user_id".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls cantidad de invocaciones de la operación op.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter registra la llamada y devuelve la falla inyectada. Requiere s.mu tomado.
func (s *Store) enter(op string) error {
	s.calls[op]++
	return s.failures[op]
}

// Repositorios

// Companies devuelve el repositorio de empresas.
func (s *Store) Companies() repository.CompanyRepository { return companyRepo{s} }

// Users devuelve el repositorio de usuarios.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Products devuelve el repositorio de productos.
func (s *Store) Products() repository.ProductRepository { return productRepo{s} }

// Brands devuelve el repositorio de marcas.
func (s *Store) Brands() repository.BrandRepository { return brandRepo{s} }

// Categories devuelve el repositorio de categorías.
func (s *Store) Categories() repository.CategoryRepository { return categoryRepo{s} }

// MovementRepo devuelve el repositorio del kardex.
func (s *Store) MovementRepo() repository.MovementRepository { return movementRepo{s: s} }

// Messages devuelve el repositorio de mensajes.
func (s *Store) Messages() repository.MessageRepository { return messageRepo{s} }

type companyRepo struct{ s *Store }

func (r companyRepo) GetByID(_ context.Context, id int64) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r companyRepo) GetByUserID(_ context.Context, userID int64) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("companies.get_by_user_id"); err != nil {
		return nil, err
	}
	cid, ok := r.s.assignments[userID]
	if !ok {
		return nil, nil
	}
	c, ok := r.s.companies[cid]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r companyRepo) ListIDs(_ context.Context) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]int64, 0, len(r.s.companies))
	for id := range r.s.companies {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) GetByAuthID(_ context.Context, authID string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("users.get_by_auth_id"); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.AuthID == authID {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) HasModule(_ context.Context, userID int64, moduleName string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Contains(r.s.permissions[userID], moduleName), nil
}

type productRepo struct{ s *Store }

func (r productRepo) ListByCompany(_ context.Context, companyID int64) ([]entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("products.list"); err != nil {
		return nil, err
	}
	var out []entity.Product
	for _, p := range r.s.products {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r productRepo) GetForUpdate(_ context.Context, companyID, productID int64) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("products.get_for_update"); err != nil {
		return nil, err
	}
	p, ok := r.s.products[productID]
	if !ok || p.CompanyID != companyID {
		return nil, nil
	}
	return &p, nil
}

func (r productRepo) UpdateStock(_ context.Context, productID, stock int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("products.update_stock"); err != nil {
		return err
	}
	p, ok := r.s.products[productID]
	if !ok {
		return nil
	}
	p.Stock = stock
	r.s.products[productID] = p
	return nil
}

type brandRepo struct{ s *Store }

func (r brandRepo) ListByCompany(_ context.Context, companyID int64) ([]entity.Brand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("brands.list"); err != nil {
		return nil, err
	}
	var out []entity.Brand
	for _, b := range r.s.brands {
		if b.CompanyID == companyID {
			out = append(out, b)
		}
	}
	return out, nil
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) ListByCompany(_ context.Context, companyID int64) ([]entity.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("categories.list"); err != nil {
		return nil, err
	}
	var out []entity.Category
	for _, c := range r.s.categories {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

type movementRepo struct {
	s       *Store
	pending *[]realtime.ChangeEvent // no nil dentro de una transacción
}

func (r movementRepo) Create(_ context.Context, m *entity.Movement) error {
	r.s.mu.Lock()
	if err := r.s.enter("movements.create"); err != nil {
		r.s.mu.Unlock()
		return err
	}
	r.s.nextID++
	m.ID = r.s.nextID
	r.s.movements = append(r.s.movements, *m)
	feed := r.s.Feed
	r.s.mu.Unlock()

	evt := realtime.ChangeEvent{
		Table:           realtime.TableKardex,
		Type:            realtime.EventInsert,
		CompanyID:       m.CompanyID,
		New:             MovementRow(*m),
		CommitTimestamp: m.Date,
	}
	switch {
	case r.pending != nil:
		*r.pending = append(*r.pending, evt)
	case feed != nil:
		feed.Emit(evt)
	}
	return nil
}

func (r movementRepo) ListKardexByCompany(_ context.Context, companyID int64) ([]entity.KardexEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("movements.kardex"); err != nil {
		return nil, err
	}
	var out []entity.KardexEntry
	for _, m := range r.s.movements {
		if m.CompanyID != companyID {
			continue
		}
		out = append(out, entity.KardexEntry{
			Movement:           m,
			ProductDescription: r.s.products[m.ProductID].Description,
			UserName:           r.s.users[m.UserID].Name,
		})
	}
	return out, nil
}

func (r movementRepo) StockTotals(_ context.Context, companyID int64) (map[int64]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("movements.stock_totals"); err != nil {
		return nil, err
	}
	totals := make(map[int64]int64)
	for _, m := range r.s.movements {
		if m.CompanyID == companyID {
			totals[m.ProductID] += m.Delta()
		}
	}
	return totals, nil
}

type messageRepo struct{ s *Store }

func (r messageRepo) Create(_ context.Context, m *entity.Message) error {
	r.s.mu.Lock()
	if err := r.s.enter("messages.create"); err != nil {
		r.s.mu.Unlock()
		return err
	}
	r.s.nextID++
	m.ID = r.s.nextID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.s.Now()
	}
	r.s.messages = append(r.s.messages, *m)
	feed := r.s.Feed
	r.s.mu.Unlock()

	if feed != nil {
		raw, _ := json.Marshal(map[string]any{
			"id": m.ID, "id_empresa": m.CompanyID, "autor": m.Author,
			"contenido": m.Content, "created_at": m.CreatedAt,
		})
		feed.Emit(realtime.ChangeEvent{
			Table:           realtime.TableMessages,
			Type:            realtime.EventInsert,
			CompanyID:       m.CompanyID,
			New:             raw,
			CommitTimestamp: m.CreatedAt,
		})
	}
	return nil
}

func (r messageRepo) ListByCompany(_ context.Context, companyID int64, limit int) ([]entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.enter("messages.list"); err != nil {
		return nil, err
	}
	var out []entity.Message
	for _, m := range r.s.messages {
		if m.CompanyID == companyID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// MovementRow serializa un movimiento con las columnas de la tabla kardex.
func MovementRow(m entity.Movement) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		"id":          m.ID,
		"fecha":       m.Date,
		"tipo":        string(m.Kind),
		"cantidad":    m.Quantity,
		"id_producto": m.ProductID,
		"id_empresa":  m.CompanyID,
		"id_usuario":  m.UserID,
		"detalle":     m.Detail,
		"estado":      m.Status,
	})
	return raw
}
