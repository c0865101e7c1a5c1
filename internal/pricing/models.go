package pricing

import (
	"strings"
	"time"
)

type Product struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	SKU          string    `json:"sku"`
	Category     string    `json:"category"`
	CurrentPrice Price     `json:"current_price"`
	OptimalPrice *Price    `json:"optimal_price"` // nil until competitor data exists
	Status       Status    `json:"status"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewProduct holds the fields a caller supplies when registering a product.
type NewProduct struct {
	Name     string
	SKU      string
	Category string
	Price    Price
}

func (n NewProduct) Validate() error {
	if strings.TrimSpace(n.Name) == "" || strings.TrimSpace(n.SKU) == "" || strings.TrimSpace(n.Category) == "" {
		return invalidf("name, sku and category are required")
	}
	if !n.Price.Valid() {
		return invalidf("price %s is out of range", n.Price)
	}
	return nil
}

// ProductUpdate is a partial update. Nil fields are left untouched.
// When ExpectedPrice is set the store applies the update only if the stored
// current price still equals it, and returns ErrConflict otherwise.
type ProductUpdate struct {
	Name          *string
	SKU           *string
	Category      *string
	CurrentPrice  *Price
	OptimalPrice  *Price
	Status        *Status
	ExpectedPrice *Price
	UpdatedAt     time.Time
}

func (u ProductUpdate) Validate() error {
	if u.CurrentPrice != nil && !u.CurrentPrice.Valid() {
		return invalidf("price %s is out of range", *u.CurrentPrice)
	}
	if u.OptimalPrice != nil && !u.OptimalPrice.Valid() {
		return invalidf("optimal price %s is out of range", *u.OptimalPrice)
	}
	if u.Status != nil {
		if _, err := ParseStatus(string(*u.Status)); err != nil {
			return err
		}
	}
	for _, s := range []*string{u.Name, u.SKU, u.Category} {
		if s != nil && strings.TrimSpace(*s) == "" {
			return invalidf("name, sku and category must not be blank")
		}
	}
	return nil
}

// Apply returns p with the update's non-nil fields written over it.
func (u ProductUpdate) Apply(p Product) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.SKU != nil {
		p.SKU = *u.SKU
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.CurrentPrice != nil {
		p.CurrentPrice = *u.CurrentPrice
	}
	if u.OptimalPrice != nil {
		v := *u.OptimalPrice
		p.OptimalPrice = &v
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	p.UpdatedAt = u.UpdatedAt
	return p
}

type CompetitorQuote struct {
	ID         int        `json:"id"`
	ProductID  int        `json:"product_id"`
	Competitor Competitor `json:"competitor"`
	Price      Price      `json:"price"`
	Timestamp  time.Time  `json:"timestamp"`
}

func NewCompetitorQuote(productID int, competitor Competitor, price Price, ts time.Time) (CompetitorQuote, error) {
	if !competitor.Valid() {
		return CompetitorQuote{}, invalidf("unknown competitor %q", competitor)
	}
	if !price.Valid() {
		return CompetitorQuote{}, invalidf("quote price %s is out of range", price)
	}
	if ts.IsZero() {
		return CompetitorQuote{}, invalidf("quote timestamp is required")
	}
	return CompetitorQuote{ProductID: productID, Competitor: competitor, Price: price, Timestamp: ts}, nil
}

type PricePoint struct {
	ID        int       `json:"id"`
	ProductID int       `json:"product_id"`
	Source    Source    `json:"source"`
	Price     Price     `json:"price"`
	Date      time.Time `json:"date"`
}

func NewPricePoint(productID int, source Source, price Price, date time.Time) (PricePoint, error) {
	if !source.Valid() {
		return PricePoint{}, invalidf("unknown source %q", source)
	}
	if !price.Valid() {
		return PricePoint{}, invalidf("price point %s is out of range", price)
	}
	if date.IsZero() {
		return PricePoint{}, invalidf("price point date is required")
	}
	return PricePoint{ProductID: productID, Source: source, Price: price, Date: date}, nil
}

// ChartSeries is the label-aligned form of a price history. Every slice in
// Series has len(Labels) entries; missing observations are zero.
type ChartSeries struct {
	Labels []string           `json:"labels"`
	Series map[Source][]Price `json:"datasets"`
}
