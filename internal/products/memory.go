package products

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/valeevte/PriceOptimizer/internal/pricing"
)

var _ pricing.Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory pricing.Store. It is safe for concurrent use
// and is intended for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	clock    pricing.Clock
	nextID   int
	products map[int]pricing.Product
	quotes   []pricing.CompetitorQuote
	history  []pricing.PricePoint
}

func NewMemoryStore(clock pricing.Clock) *MemoryStore {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStore{
		clock:    clock,
		nextID:   1,
		products: make(map[int]pricing.Product),
	}
}

func (m *MemoryStore) id() int {
	id := m.nextID
	m.nextID++
	return id
}

func (m *MemoryStore) CreateProduct(_ context.Context, np pricing.NewProduct) (pricing.Product, error) {
	if err := np.Validate(); err != nil {
		return pricing.Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.SKU == np.SKU {
			return pricing.Product{}, errors.Wrapf(pricing.ErrInvalidInput, "sku %q already exists", np.SKU)
		}
	}
	p := pricing.Product{
		ID:           m.id(),
		Name:         np.Name,
		SKU:          np.SKU,
		Category:     np.Category,
		CurrentPrice: np.Price,
		Status:       pricing.StatusUnknown,
		UpdatedAt:    m.clock(),
	}
	m.products[p.ID] = p
	return p, nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id int) (pricing.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return pricing.Product{}, errors.Wrapf(pricing.ErrNotFound, "product %d", id)
	}
	return p, nil
}

func (m *MemoryStore) ListProducts(_ context.Context) ([]pricing.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pricing.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b pricing.Product) int { return a.ID - b.ID })
	return out, nil
}

func (m *MemoryStore) UpdateProduct(_ context.Context, id int, u pricing.ProductUpdate) (pricing.Product, error) {
	if err := u.Validate(); err != nil {
		return pricing.Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return pricing.Product{}, errors.Wrapf(pricing.ErrNotFound, "product %d", id)
	}
	if u.ExpectedPrice != nil && *u.ExpectedPrice != p.CurrentPrice {
		return pricing.Product{}, errors.Wrapf(pricing.ErrConflict, "product %d price is %s, expected %s", id, p.CurrentPrice, *u.ExpectedPrice)
	}
	if u.SKU != nil && *u.SKU != p.SKU {
		for _, other := range m.products {
			if other.SKU == *u.SKU {
				return pricing.Product{}, errors.Wrapf(pricing.ErrInvalidInput, "sku %q already exists", *u.SKU)
			}
		}
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = m.clock()
	}
	p = u.Apply(p)
	m.products[id] = p
	return p, nil
}

func (m *MemoryStore) DeleteProduct(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return errors.Wrapf(pricing.ErrNotFound, "product %d", id)
	}
	delete(m.products, id)
	m.quotes = slices.DeleteFunc(m.quotes, func(q pricing.CompetitorQuote) bool { return q.ProductID == id })
	m.history = slices.DeleteFunc(m.history, func(p pricing.PricePoint) bool { return p.ProductID == id })
	return nil
}

func (m *MemoryStore) CreateCompetitorQuote(_ context.Context, q pricing.CompetitorQuote) (pricing.CompetitorQuote, error) {
	q, err := pricing.NewCompetitorQuote(q.ProductID, q.Competitor, q.Price, orNow(q.Timestamp, m.clock))
	if err != nil {
		return pricing.CompetitorQuote{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[q.ProductID]; !ok {
		return pricing.CompetitorQuote{}, errors.Wrapf(pricing.ErrNotFound, "product %d", q.ProductID)
	}
	q.ID = m.id()
	m.quotes = append(m.quotes, q)
	return q, nil
}

func (m *MemoryStore) LatestCompetitorQuotes(_ context.Context, productID int) ([]pricing.CompetitorQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.products[productID]; !ok {
		return nil, errors.Wrapf(pricing.ErrNotFound, "product %d", productID)
	}
	return m.latest(productID), nil
}

func (m *MemoryStore) AllLatestCompetitorQuotes(_ context.Context) ([]pricing.CompetitorQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var out []pricing.CompetitorQuote
	for _, id := range ids {
		out = append(out, m.latest(id)...)
	}
	return out, nil
}

// latest picks the newest quote per competitor; on equal timestamps the one
// inserted last wins. Caller holds the lock.
func (m *MemoryStore) latest(productID int) []pricing.CompetitorQuote {
	newest := make(map[pricing.Competitor]pricing.CompetitorQuote)
	for _, q := range m.quotes {
		if q.ProductID != productID {
			continue
		}
		if cur, ok := newest[q.Competitor]; !ok || !q.Timestamp.Before(cur.Timestamp) {
			newest[q.Competitor] = q
		}
	}
	out := make([]pricing.CompetitorQuote, 0, len(newest))
	for _, c := range pricing.Competitors() {
		if q, ok := newest[c]; ok {
			out = append(out, q)
		}
	}
	return out
}

func (m *MemoryStore) CreatePricePoints(_ context.Context, points ...pricing.PricePoint) error {
	validated := make([]pricing.PricePoint, 0, len(points))
	for _, p := range points {
		v, err := pricing.NewPricePoint(p.ProductID, p.Source, p.Price, orNow(p.Date, m.clock))
		if err != nil {
			return err
		}
		validated = append(validated, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range validated {
		if _, ok := m.products[p.ProductID]; !ok {
			return errors.Wrapf(pricing.ErrNotFound, "product %d", p.ProductID)
		}
	}
	for _, p := range validated {
		p.ID = m.id()
		m.history = append(m.history, p)
	}
	return nil
}

func (m *MemoryStore) PriceHistory(_ context.Context, productID int, since time.Time) ([]pricing.PricePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.products[productID]; !ok {
		return nil, errors.Wrapf(pricing.ErrNotFound, "product %d", productID)
	}
	var out []pricing.PricePoint
	for _, p := range m.history {
		if p.ProductID == productID && !p.Date.Before(since) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b pricing.PricePoint) int { return a.Date.Compare(b.Date) })
	return out, nil
}

func orNow(t time.Time, clock pricing.Clock) time.Time {
	if t.IsZero() {
		return clock()
	}
	return t
}
