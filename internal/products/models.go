package products

import (
	"github.com/shopspring/decimal"

	"github.com/valeevte/PriceOptimizer/internal/pricing"
)

// CreateProductRequest is the body of POST /api/products. Price accepts a
// JSON number or a decimal string.
type CreateProductRequest struct {
	Name     string           `json:"name" binding:"required"`
	SKU      string           `json:"sku" binding:"required"`
	Category string           `json:"category" binding:"required"`
	Price    *decimal.Decimal `json:"price" binding:"required"`
}

func (r CreateProductRequest) toNewProduct() (pricing.NewProduct, error) {
	price, err := pricing.NewPrice(*r.Price)
	if err != nil {
		return pricing.NewProduct{}, err
	}
	np := pricing.NewProduct{Name: r.Name, SKU: r.SKU, Category: r.Category, Price: price}
	return np, np.Validate()
}

// UpdateProductRequest is the body of PUT /api/products/:id. At least one
// field must be present.
type UpdateProductRequest struct {
	Name     *string          `json:"name"`
	SKU      *string          `json:"sku"`
	Category *string          `json:"category"`
	Price    *decimal.Decimal `json:"price"`
}

func (r UpdateProductRequest) toUpdate() (pricing.ProductUpdate, error) {
	if r.Name == nil && r.SKU == nil && r.Category == nil && r.Price == nil {
		return pricing.ProductUpdate{}, errNoFields
	}
	u := pricing.ProductUpdate{Name: r.Name, SKU: r.SKU, Category: r.Category}
	if r.Price != nil {
		price, err := pricing.NewPrice(*r.Price)
		if err != nil {
			return pricing.ProductUpdate{}, err
		}
		u.CurrentPrice = &price
	}
	return u, u.Validate()
}

type UpdatePriceRequest struct {
	Price *decimal.Decimal `json:"price" binding:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}
