package pricing

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/valeevte/PriceOptimizer/internal/logger"
	"github.com/valeevte/PriceOptimizer/internal/metrics"
)

const (
	maxOptimizeAttempts = 3
	catalogHistoryDays  = 7
)

type Options struct {
	Rand  Rand
	Clock Clock
	Log   *logger.Entry
	// Workers bounds the fan-out of OptimizeAll.
	Workers int
	// SeedDays is the history depth synthesized for a newly created product.
	SeedDays int
	// BackfillOnRead synthesizes missing older days when ChartSeries is asked
	// for a window deeper than the stored history.
	BackfillOnRead bool
}

// Service runs the pricing workflows against a Store.
type Service struct {
	store    Store
	sim      *Simulator
	clock    Clock
	synth    *Synthesizer
	agg      *Aggregator
	log      *logger.Entry
	workers  int
	seedDays int
	backfill bool
	locks    keyedMutex
}

func NewService(store Store, opts Options) *Service {
	if opts.Rand == nil {
		opts.Rand = NewRand(0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Log == nil {
		opts.Log = logger.Nop().WithComponent("pricing")
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.SeedDays <= 0 {
		opts.SeedDays = 30
	}
	sim := NewSimulator(opts.Rand)
	return &Service{
		store:    store,
		sim:      sim,
		clock:    opts.Clock,
		synth:    NewSynthesizer(sim, opts.Clock),
		agg:      NewAggregator(opts.Clock),
		log:      opts.Log,
		workers:  opts.Workers,
		seedDays: opts.SeedDays,
		backfill: opts.BackfillOnRead,
	}
}

// ProductWithQuotes is a product together with its current competitor quotes.
type ProductWithQuotes struct {
	Product
	CompetitorPrices map[Competitor]CompetitorQuote `json:"competitor_prices"`
}

type Stats struct {
	TotalProducts       int        `json:"total_products"`
	CompetitiveProducts int        `json:"competitive_products"`
	NeedsAdjustment     int        `json:"needs_adjustment"`
	LastUpdated         *time.Time `json:"last_updated"`
}

// OptimizeOne recomputes the optimal price and status of one product from its
// latest competitor quotes. A product without quotes is left untouched.
func (s *Service) OptimizeOne(ctx context.Context, id int) error {
	unlock := s.locks.lock(id)
	defer unlock()

	for attempt := 0; attempt < maxOptimizeAttempts; attempt++ {
		product, err := s.store.GetProduct(ctx, id)
		if err != nil {
			s.recordOptimizeErr(err)
			return errors.Wrapf(err, "optimize product %d", id)
		}
		quotes, err := s.store.LatestCompetitorQuotes(ctx, id)
		if err != nil {
			s.recordOptimizeErr(err)
			return errors.Wrapf(err, "optimize product %d: load quotes", id)
		}
		if len(quotes) == 0 {
			metrics.RecordOptimization("no_data", "")
			return nil
		}

		prices := make([]Price, 0, len(quotes))
		for _, q := range quotes {
			prices = append(prices, q.Price)
		}
		optimal := ComputeOptimalPrice(product.CurrentPrice, prices)
		status := ClassifyStatus(product.CurrentPrice, optimal)
		current := product.CurrentPrice

		_, err = s.store.UpdateProduct(ctx, id, ProductUpdate{
			OptimalPrice:  optimal,
			Status:        &status,
			ExpectedPrice: &current,
			UpdatedAt:     s.clock(),
		})
		if errors.Is(err, ErrConflict) {
			s.log.WithField("product_id", id).WithField("attempt", attempt+1).Debug("price changed during optimization, retrying")
			continue
		}
		if err != nil {
			s.recordOptimizeErr(err)
			return errors.Wrapf(err, "optimize product %d: save", id)
		}

		metrics.RecordOptimization("updated", string(status))
		s.log.WithFields(logger.Fields{
			"product_id":    id,
			"current_price": current.String(),
			"optimal_price": optimal.String(),
			"status":        status,
		}).Debug("product optimized")
		return nil
	}
	metrics.RecordOptimization("error", "")
	return errors.Wrapf(ErrConflict, "optimize product %d: price kept changing", id)
}

func (s *Service) recordOptimizeErr(err error) {
	if errors.Is(err, ErrNotFound) {
		metrics.RecordOptimization("not_found", "")
		return
	}
	metrics.RecordOptimization("error", "")
}

// OptimizeAll runs OptimizeOne over the whole catalog. Products deleted while
// the batch runs are skipped; any other failure aborts the batch.
func (s *Service) OptimizeAll(ctx context.Context) error {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return errors.Wrap(err, "optimize all: list products")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, p := range products {
		g.Go(func() error {
			err := s.OptimizeOne(gctx, p.ID)
			if errors.Is(err, ErrNotFound) {
				s.log.WithField("product_id", p.ID).Warn("product vanished during optimization, skipping")
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.log.WithField("products", len(products)).Info("catalog optimized")
	return nil
}

// SeedHistory synthesizes days+1 daily price points per source ending today.
func (s *Service) SeedHistory(ctx context.Context, id, days int) error {
	if days < 0 {
		return invalidf("days must not be negative, got %d", days)
	}
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "seed history for product %d", id)
	}
	return s.synthesize(ctx, s.synth, product, days)
}

func (s *Service) synthesize(ctx context.Context, synth *Synthesizer, product Product, days int) error {
	bases, err := s.basePrices(ctx, product)
	if err != nil {
		return err
	}
	points, err := synth.Generate(product.ID, product.CurrentPrice, bases, days)
	if err != nil {
		return err
	}
	if err := s.store.CreatePricePoints(ctx, points...); err != nil {
		return errors.Wrapf(err, "store history for product %d", product.ID)
	}
	s.log.WithFields(logger.Fields{"product_id": product.ID, "days": days, "points": len(points)}).Debug("history synthesized")
	return nil
}

// basePrices maps every tracked competitor to its latest quote, falling back
// to the product's own price for competitors without one.
func (s *Service) basePrices(ctx context.Context, product Product) (map[Competitor]Price, error) {
	quotes, err := s.store.LatestCompetitorQuotes(ctx, product.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "load quotes for product %d", product.ID)
	}
	bases := make(map[Competitor]Price, len(competitors))
	for _, c := range competitors {
		bases[c] = product.CurrentPrice
	}
	for _, q := range quotes {
		bases[q.Competitor] = q.Price
	}
	return bases, nil
}

// RefreshCompetitorPrices advances every existing competitor quote by one
// simulated step, records the new prices in the history and re-optimizes
// the catalog.
func (s *Service) RefreshCompetitorPrices(ctx context.Context) error {
	start := time.Now()
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return errors.Wrap(err, "refresh competitors: list products")
	}

	simulated := 0
	for _, p := range products {
		n, err := s.refreshProduct(ctx, p.ID)
		simulated += n
		if errors.Is(err, ErrNotFound) {
			s.log.WithField("product_id", p.ID).Warn("product vanished during refresh, skipping")
			continue
		}
		if err != nil {
			return err
		}
	}
	metrics.RecordRefresh(time.Since(start), simulated)
	s.log.WithFields(logger.Fields{"products": len(products), "quotes": simulated}).Info("competitor prices refreshed")

	return s.OptimizeAll(ctx)
}

func (s *Service) refreshProduct(ctx context.Context, id int) (int, error) {
	quotes, err := s.store.LatestCompetitorQuotes(ctx, id)
	if err != nil {
		return 0, errors.Wrapf(err, "refresh product %d", id)
	}
	now := s.clock()
	points := make([]PricePoint, 0, len(quotes))
	for _, q := range quotes {
		next := s.sim.NextPrice(q.Price, -RefreshBandPct, RefreshBandPct)
		nq, err := NewCompetitorQuote(id, q.Competitor, next, now)
		if err != nil {
			return len(points), err
		}
		if _, err := s.store.CreateCompetitorQuote(ctx, nq); err != nil {
			return len(points), errors.Wrapf(err, "refresh product %d", id)
		}
		pp, err := NewPricePoint(id, SourceFor(q.Competitor), next, now)
		if err != nil {
			return len(points), err
		}
		points = append(points, pp)
	}
	if err := s.store.CreatePricePoints(ctx, points...); err != nil {
		return len(points), errors.Wrapf(err, "refresh product %d: history", id)
	}
	return len(points), nil
}

// ChartSeries returns the product's history over the last windowDays days
// laid out for charting.
func (s *Service) ChartSeries(ctx context.Context, id, windowDays int) (ChartSeries, error) {
	if windowDays <= 0 {
		return ChartSeries{}, invalidf("window must be positive, got %d days", windowDays)
	}
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return ChartSeries{}, errors.Wrapf(err, "chart for product %d", id)
	}
	now := s.clock()
	since := now.AddDate(0, 0, -windowDays)
	points, err := s.store.PriceHistory(ctx, id, since)
	if err != nil {
		return ChartSeries{}, errors.Wrapf(err, "chart for product %d: history", id)
	}

	if s.backfill {
		filled, err := s.backfillHistory(ctx, product, points, since, now)
		if err != nil {
			return ChartSeries{}, err
		}
		if filled {
			if points, err = s.store.PriceHistory(ctx, id, since); err != nil {
				return ChartSeries{}, errors.Wrapf(err, "chart for product %d: history", id)
			}
		}
	}
	return s.agg.Build(points, windowDays), nil
}

// backfillHistory synthesizes the whole days between since and the oldest
// stored point. It reports whether anything was written.
func (s *Service) backfillHistory(ctx context.Context, product Product, points []PricePoint, since, now time.Time) (bool, error) {
	end, days := now, calendarDays(since, now)
	if len(points) > 0 {
		oldest := points[0].Date
		gap := calendarDays(since, oldest)
		if oldest.AddDate(0, 0, -gap).Before(since) {
			gap--
		}
		if gap < 1 {
			return false, nil
		}
		end, days = oldest.AddDate(0, 0, -1), gap-1
	}
	synth := NewSynthesizer(s.sim, func() time.Time { return end })
	if err := s.synthesize(ctx, synth, product, days); err != nil {
		return false, err
	}
	return true, nil
}

// calendarDays counts date boundaries from from to to in from's location,
// so a day lost or gained to a DST switch still counts as one.
func calendarDays(from, to time.Time) int {
	y1, m1, d1 := from.Date()
	y2, m2, d2 := to.In(from.Location()).Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// CreateProduct registers a product, seeds a quote per competitor within
// ±10% of its price, computes its optimal price and synthesizes its history.
func (s *Service) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	return s.createProduct(ctx, np, s.seedDays)
}

func (s *Service) createProduct(ctx context.Context, np NewProduct, historyDays int) (Product, error) {
	if err := np.Validate(); err != nil {
		return Product{}, err
	}
	product, err := s.store.CreateProduct(ctx, np)
	if err != nil {
		return Product{}, errors.Wrap(err, "create product")
	}

	now := s.clock()
	points := make([]PricePoint, 0, len(competitors))
	for _, c := range competitors {
		price := s.sim.NextPrice(product.CurrentPrice, -SeedBandPct, SeedBandPct)
		q, err := NewCompetitorQuote(product.ID, c, price, now)
		if err != nil {
			return Product{}, err
		}
		if _, err := s.store.CreateCompetitorQuote(ctx, q); err != nil {
			return Product{}, errors.Wrapf(err, "seed %s quote for product %d", c, product.ID)
		}
		pp, err := NewPricePoint(product.ID, SourceFor(c), price, now)
		if err != nil {
			return Product{}, err
		}
		points = append(points, pp)
	}
	if err := s.store.CreatePricePoints(ctx, points...); err != nil {
		return Product{}, errors.Wrapf(err, "record quotes for product %d", product.ID)
	}
	if err := s.OptimizeOne(ctx, product.ID); err != nil {
		return Product{}, err
	}
	if err := s.SeedHistory(ctx, product.ID, historyDays); err != nil {
		return Product{}, err
	}

	s.log.WithFields(logger.Fields{"product_id": product.ID, "sku": product.SKU}).Info("product created")
	return s.store.GetProduct(ctx, product.ID)
}

// InitializeCatalog loads catalog into an empty store. It returns how many
// products were created; a non-empty store is left alone.
func (s *Service) InitializeCatalog(ctx context.Context, catalog []NewProduct) (int, error) {
	existing, err := s.store.ListProducts(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "initialize catalog")
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, np := range catalog {
		if _, err := s.createProduct(ctx, np, catalogHistoryDays); err != nil {
			return i, errors.Wrapf(err, "initialize catalog: %s", np.SKU)
		}
	}
	s.log.WithField("products", len(catalog)).Info("catalog initialized")
	return len(catalog), nil
}

func (s *Service) GetProduct(ctx context.Context, id int) (Product, error) {
	return s.store.GetProduct(ctx, id)
}

// ListProducts returns the catalog with each product's latest quotes.
func (s *Service) ListProducts(ctx context.Context) ([]ProductWithQuotes, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	quotes, err := s.store.AllLatestCompetitorQuotes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list competitor quotes")
	}
	byProduct := make(map[int]map[Competitor]CompetitorQuote, len(products))
	for _, q := range quotes {
		if byProduct[q.ProductID] == nil {
			byProduct[q.ProductID] = make(map[Competitor]CompetitorQuote, len(competitors))
		}
		byProduct[q.ProductID][q.Competitor] = q
	}

	out := make([]ProductWithQuotes, 0, len(products))
	for _, p := range products {
		cp := byProduct[p.ID]
		if cp == nil {
			cp = map[Competitor]CompetitorQuote{}
		}
		out = append(out, ProductWithQuotes{Product: p, CompetitorPrices: cp})
	}
	return out, nil
}

// UpdateProduct applies a partial update. A price change is recorded in the
// history and the product is re-optimized against the new price.
func (s *Service) UpdateProduct(ctx context.Context, id int, u ProductUpdate) (Product, error) {
	u.OptimalPrice, u.Status, u.ExpectedPrice = nil, nil, nil
	if err := u.Validate(); err != nil {
		return Product{}, err
	}
	u.UpdatedAt = s.clock()
	updated, err := s.store.UpdateProduct(ctx, id, u)
	if err != nil {
		return Product{}, errors.Wrapf(err, "update product %d", id)
	}
	if u.CurrentPrice == nil {
		return updated, nil
	}

	pp, err := NewPricePoint(id, SourceYourPrice, *u.CurrentPrice, u.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if err := s.store.CreatePricePoints(ctx, pp); err != nil {
		return Product{}, errors.Wrapf(err, "record price for product %d", id)
	}
	if err := s.OptimizeOne(ctx, id); err != nil {
		return Product{}, err
	}
	return s.store.GetProduct(ctx, id)
}

func (s *Service) UpdatePrice(ctx context.Context, id int, price Price) (Product, error) {
	return s.UpdateProduct(ctx, id, ProductUpdate{CurrentPrice: &price})
}

func (s *Service) DeleteProduct(ctx context.Context, id int) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return errors.Wrapf(err, "delete product %d", id)
	}
	s.log.WithField("product_id", id).Info("product deleted")
	return nil
}

// CompetitorQuotes returns the latest quote of every competitor for every product.
func (s *Service) CompetitorQuotes(ctx context.Context) ([]CompetitorQuote, error) {
	return s.store.AllLatestCompetitorQuotes(ctx)
}

// Categories lists distinct categories in catalog order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "stats")
	}
	st := Stats{TotalProducts: len(products)}
	for _, p := range products {
		if p.Status == StatusCompetitive {
			st.CompetitiveProducts++
		} else {
			st.NeedsAdjustment++
		}
		if st.LastUpdated == nil || p.UpdatedAt.After(*st.LastUpdated) {
			t := p.UpdatedAt
			st.LastUpdated = &t
		}
	}
	return st, nil
}
