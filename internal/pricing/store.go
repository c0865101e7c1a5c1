package pricing

import (
	"context"
	"time"
)

// Store is the persistence the service depends on. Implementations return
// ErrNotFound for unknown product ids and ErrConflict when a conditional
// update (ProductUpdate.ExpectedPrice) does not match.
type Store interface {
	CreateProduct(ctx context.Context, p NewProduct) (Product, error)
	GetProduct(ctx context.Context, id int) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	UpdateProduct(ctx context.Context, id int, u ProductUpdate) (Product, error)
	// DeleteProduct also removes the product's quotes and history.
	DeleteProduct(ctx context.Context, id int) error

	CreateCompetitorQuote(ctx context.Context, q CompetitorQuote) (CompetitorQuote, error)
	// LatestCompetitorQuotes returns at most one quote per competitor, the one
	// with the latest timestamp.
	LatestCompetitorQuotes(ctx context.Context, productID int) ([]CompetitorQuote, error)
	// AllLatestCompetitorQuotes is LatestCompetitorQuotes across the catalog.
	AllLatestCompetitorQuotes(ctx context.Context) ([]CompetitorQuote, error)

	CreatePricePoints(ctx context.Context, points ...PricePoint) error
	// PriceHistory returns points dated at or after since, ascending by date.
	PriceHistory(ctx context.Context, productID int, since time.Time) ([]PricePoint, error)
}
