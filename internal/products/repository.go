package products

import (
	"context"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/valeevte/PriceOptimizer/internal/pricing"
)

var _ pricing.Store = (*Repository)(nil)

// Repository is the Postgres pricing.Store. Prices live in NUMERIC(10,2)
// columns and are read back as text to stay exact.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, name, sku, category, price::text, optimal_price::text, status, updated_at`

func scanProduct(row pgx.Row) (pricing.Product, error) {
	var (
		p       pricing.Product
		price   string
		optimal *string
		status  string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &price, &optimal, &status, &p.UpdatedAt); err != nil {
		return pricing.Product{}, err
	}
	var err error
	if p.CurrentPrice, err = pricing.ParsePrice(price); err != nil {
		return pricing.Product{}, err
	}
	if optimal != nil {
		v, err := pricing.ParsePrice(*optimal)
		if err != nil {
			return pricing.Product{}, err
		}
		p.OptimalPrice = &v
	}
	if p.Status, err = pricing.ParseStatus(status); err != nil {
		return pricing.Product{}, err
	}
	return p, nil
}

// mapErr translates driver errors into the pricing sentinels.
func mapErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return errors.Wrapf(pricing.ErrNotFound, format, args...)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return errors.Wrapf(pricing.ErrNotFound, format, args...)
		case "23505": // unique_violation
			return errors.Wrapf(errors.Wrap(pricing.ErrInvalidInput, pgErr.Detail), format, args...)
		}
	}
	return errors.Wrapf(err, format, args...)
}

func (r *Repository) CreateProduct(ctx context.Context, np pricing.NewProduct) (pricing.Product, error) {
	if err := np.Validate(); err != nil {
		return pricing.Product{}, err
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO products (name, sku, category, price, status)
VALUES ($1, $2, $3, $4::numeric, $5)
RETURNING `+productColumns,
		np.Name, np.SKU, np.Category, np.Price.String(), string(pricing.StatusUnknown))
	p, err := scanProduct(row)
	if err != nil {
		return pricing.Product{}, mapErr(err, "insert product %q", np.SKU)
	}
	return p, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int) (pricing.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return pricing.Product{}, mapErr(err, "product %d", id)
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]pricing.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	var res []pricing.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return res, nil
}

func priceArg(p *pricing.Price) *string {
	if p == nil {
		return nil
	}
	s := p.String()
	return &s
}

func (r *Repository) UpdateProduct(ctx context.Context, id int, u pricing.ProductUpdate) (pricing.Product, error) {
	if err := u.Validate(); err != nil {
		return pricing.Product{}, err
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now()
	}
	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}

	const q = `
UPDATE products SET
    name          = COALESCE($2, name),
    sku           = COALESCE($3, sku),
    category      = COALESCE($4, category),
    price         = COALESCE($5::numeric, price),
    optimal_price = COALESCE($6::numeric, optimal_price),
    status        = COALESCE($7, status),
    updated_at    = $8
WHERE id = $1 AND ($9::numeric IS NULL OR price = $9::numeric)
RETURNING ` + productColumns
	p, err := scanProduct(r.db.QueryRow(ctx, q, id,
		u.Name, u.SKU, u.Category, priceArg(u.CurrentPrice), priceArg(u.OptimalPrice), status,
		u.UpdatedAt, priceArg(u.ExpectedPrice)))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) || u.ExpectedPrice == nil {
		return pricing.Product{}, mapErr(err, "update product %d", id)
	}

	// No row matched: either the product is gone or its price moved.
	if err := r.ensureProduct(ctx, id); err != nil {
		return pricing.Product{}, err
	}
	return pricing.Product{}, errors.Wrapf(pricing.ErrConflict, "product %d price is no longer %s", id, *u.ExpectedPrice)
}

func (r *Repository) DeleteProduct(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete product %d", id)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(pricing.ErrNotFound, "product %d", id)
	}
	return nil
}

func (r *Repository) ensureProduct(ctx context.Context, id int) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return errors.Wrapf(err, "check product %d", id)
	}
	if !exists {
		return errors.Wrapf(pricing.ErrNotFound, "product %d", id)
	}
	return nil
}

func (r *Repository) CreateCompetitorQuote(ctx context.Context, q pricing.CompetitorQuote) (pricing.CompetitorQuote, error) {
	if q.Timestamp.IsZero() {
		q.Timestamp = time.Now()
	}
	q, err := pricing.NewCompetitorQuote(q.ProductID, q.Competitor, q.Price, q.Timestamp)
	if err != nil {
		return pricing.CompetitorQuote{}, err
	}
	err = r.db.QueryRow(ctx,
		`INSERT INTO competitor_prices (product_id, competitor, price, "timestamp")
VALUES ($1, $2, $3::numeric, $4) RETURNING id`,
		q.ProductID, string(q.Competitor), q.Price.String(), q.Timestamp).Scan(&q.ID)
	if err != nil {
		return pricing.CompetitorQuote{}, mapErr(err, "insert %s quote for product %d", q.Competitor, q.ProductID)
	}
	return q, nil
}

func scanQuotes(rows pgx.Rows) ([]pricing.CompetitorQuote, error) {
	defer rows.Close()
	var out []pricing.CompetitorQuote
	for rows.Next() {
		var (
			q          pricing.CompetitorQuote
			competitor string
			price      string
		)
		if err := rows.Scan(&q.ID, &q.ProductID, &competitor, &price, &q.Timestamp); err != nil {
			return nil, errors.Wrap(err, "scan quote")
		}
		var err error
		if q.Competitor, err = pricing.ParseCompetitor(competitor); err != nil {
			return nil, err
		}
		if q.Price, err = pricing.ParsePrice(price); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read quotes")
	}
	sortQuotes(out)
	return out, nil
}

// sortQuotes orders quotes by product, then by the fixed competitor order.
func sortQuotes(qs []pricing.CompetitorQuote) {
	rank := make(map[pricing.Competitor]int)
	for i, c := range pricing.Competitors() {
		rank[c] = i
	}
	slices.SortStableFunc(qs, func(a, b pricing.CompetitorQuote) int {
		if a.ProductID != b.ProductID {
			return a.ProductID - b.ProductID
		}
		return rank[a.Competitor] - rank[b.Competitor]
	})
}

func (r *Repository) LatestCompetitorQuotes(ctx context.Context, productID int) ([]pricing.CompetitorQuote, error) {
	if err := r.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
SELECT DISTINCT ON (competitor) id, product_id, competitor, price::text, "timestamp"
FROM competitor_prices
WHERE product_id = $1
ORDER BY competitor, "timestamp" DESC, id DESC`, productID)
	if err != nil {
		return nil, errors.Wrapf(err, "latest quotes for product %d", productID)
	}
	return scanQuotes(rows)
}

func (r *Repository) AllLatestCompetitorQuotes(ctx context.Context) ([]pricing.CompetitorQuote, error) {
	rows, err := r.db.Query(ctx, `
SELECT DISTINCT ON (product_id, competitor) id, product_id, competitor, price::text, "timestamp"
FROM competitor_prices
ORDER BY product_id, competitor, "timestamp" DESC, id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "latest quotes")
	}
	return scanQuotes(rows)
}

func (r *Repository) CreatePricePoints(ctx context.Context, points ...pricing.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range points {
		if p.Date.IsZero() {
			p.Date = time.Now()
		}
		v, err := pricing.NewPricePoint(p.ProductID, p.Source, p.Price, p.Date)
		if err != nil {
			return err
		}
		batch.Queue(`INSERT INTO price_history (product_id, source, price, date) VALUES ($1, $2, $3::numeric, $4)`,
			v.ProductID, string(v.Source), v.Price.String(), v.Date)
	}

	// A batch runs as one implicit transaction: either all points land or none.
	results := r.db.SendBatch(ctx, batch)
	for _, p := range points {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return mapErr(err, "insert price point for product %d", p.ProductID)
		}
	}
	if err := results.Close(); err != nil {
		return mapErr(err, "insert price points for product %d", points[0].ProductID)
	}
	return nil
}

func (r *Repository) PriceHistory(ctx context.Context, productID int, since time.Time) ([]pricing.PricePoint, error) {
	if err := r.ensureProduct(ctx, productID); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx, `
SELECT id, product_id, source, price::text, date
FROM price_history
WHERE product_id = $1 AND date >= $2
ORDER BY date, id`, productID, since)
	if err != nil {
		return nil, errors.Wrapf(err, "history for product %d", productID)
	}
	defer rows.Close()

	var out []pricing.PricePoint
	for rows.Next() {
		var (
			p      pricing.PricePoint
			source string
			price  string
		)
		if err := rows.Scan(&p.ID, &p.ProductID, &source, &price, &p.Date); err != nil {
			return nil, errors.Wrap(err, "scan price point")
		}
		if p.Source, err = pricing.ParseSource(source); err != nil {
			return nil, err
		}
		if p.Price, err = pricing.ParsePrice(price); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "history for product %d", productID)
	}
	return out, nil
}
