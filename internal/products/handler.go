package products

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/valeevte/PriceOptimizer/internal/logger"
	"github.com/valeevte/PriceOptimizer/internal/metrics"
	"github.com/valeevte/PriceOptimizer/internal/pricing"
)

const (
	defaultHistoryDays = 7
	maxHistoryDays     = 365
)

var errNoFields = errors.Wrap(pricing.ErrInvalidInput, "at least one field to update is required")

type Handler struct {
	svc *pricing.Service
	log *logger.Entry
}

func NewHandler(svc *pricing.Service, log *logger.Entry) *Handler {
	return &Handler{svc: svc, log: log}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/products", h.ListProducts)
		api.POST("/products", h.CreateProduct)
		api.GET("/products/:id", h.GetProduct)
		api.PUT("/products/:id", h.UpdateProduct)
		api.DELETE("/products/:id", h.DeleteProduct)
		api.PATCH("/products/:id/price", h.UpdatePrice)
		api.GET("/products/:id/history", h.GetPriceHistory)
		api.POST("/products/:id/history/seed", h.SeedHistory)

		api.GET("/categories", h.ListCategories)
		api.GET("/stats", h.GetStats)

		api.POST("/optimize-prices", h.OptimizeAll)
		api.POST("/optimize-prices/:id", h.OptimizeOne)

		api.GET("/competitor-data", h.ListCompetitorData)
		api.POST("/competitor-data/refresh", h.RefreshCompetitorData)
	}
}

// fail maps service errors onto status codes; unexpected errors are logged
// and reported generically.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, pricing.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, pricing.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, pricing.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse{Error: "product changed concurrently, retry"})
	default:
		h.log.WithError(err).WithField("op", op).WithField("request_id", c.GetString(requestIDKey)).Error("request failed")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to " + op})
	}
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return 0, false
	}
	return id, true
}

func queryDays(c *gin.Context, def int) (int, bool) {
	raw := c.Query("days")
	if raw == "" {
		return def, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 || days > maxHistoryDays {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "days must be between 1 and " + strconv.Itoa(maxHistoryDays)})
		return 0, false
	}
	return days, true
}

func (h *Handler) ListProducts(c *gin.Context) {
	list, err := h.svc.ListProducts(c.Request.Context())
	if err != nil {
		h.fail(c, "fetch products", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "missing required fields"})
		return
	}
	np, err := req.toNewProduct()
	if err != nil {
		h.fail(c, "create product", err)
		return
	}
	p, err := h.svc.CreateProduct(c.Request.Context(), np)
	if err != nil {
		h.fail(c, "create product", err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "fetch product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	u, err := req.toUpdate()
	if err != nil {
		h.fail(c, "update product", err)
		return
	}
	p, err := h.svc.UpdateProduct(c.Request.Context(), id, u)
	if err != nil {
		h.fail(c, "update product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(c.Request.Context(), id); err != nil {
		h.fail(c, "delete product", err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "product deleted"})
}

func (h *Handler) UpdatePrice(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "valid price is required"})
		return
	}
	price, err := pricing.NewPrice(*req.Price)
	if err != nil {
		h.fail(c, "update price", err)
		return
	}
	p, err := h.svc.UpdatePrice(c.Request.Context(), id, price)
	if err != nil {
		h.fail(c, "update price", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPriceHistory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	days, ok := queryDays(c, defaultHistoryDays)
	if !ok {
		return
	}
	series, err := h.svc.ChartSeries(c.Request.Context(), id, days)
	if err != nil {
		h.fail(c, "fetch history", err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *Handler) SeedHistory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	days, ok := queryDays(c, defaultHistoryDays)
	if !ok {
		return
	}
	if err := h.svc.SeedHistory(c.Request.Context(), id, days); err != nil {
		h.fail(c, "seed history", err)
		return
	}
	c.JSON(http.StatusCreated, messageResponse{Message: "history seeded"})
}

func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, "fetch categories", err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

func (h *Handler) GetStats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, "fetch stats", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) OptimizeAll(c *gin.Context) {
	if err := h.svc.OptimizeAll(c.Request.Context()); err != nil {
		h.fail(c, "optimize prices", err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "prices optimized"})
}

func (h *Handler) OptimizeOne(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.OptimizeOne(c.Request.Context(), id); err != nil {
		h.fail(c, "optimize price", err)
		return
	}
	p, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "optimize price", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) ListCompetitorData(c *gin.Context) {
	quotes, err := h.svc.CompetitorQuotes(c.Request.Context())
	if err != nil {
		h.fail(c, "fetch competitor data", err)
		return
	}
	if quotes == nil {
		quotes = []pricing.CompetitorQuote{}
	}
	c.JSON(http.StatusOK, quotes)
}

func (h *Handler) RefreshCompetitorData(c *gin.Context) {
	if err := h.svc.RefreshCompetitorPrices(c.Request.Context()); err != nil {
		h.fail(c, "refresh competitor data", err)
		return
	}
	h.ListCompetitorData(c)
}
