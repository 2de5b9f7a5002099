package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pricewise/backend/internal/domain"
	"github.com/pricewise/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers. A nil service answers 501.
type Handler struct {
	catalog    *usecase.CatalogService
	lists      *usecase.ShoppingListService
	search     *usecase.ProductSearchService
	comparison *usecase.ComparisonService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *usecase.CatalogService,
	lists *usecase.ShoppingListService,
	search *usecase.ProductSearchService,
	comparison *usecase.ComparisonService,
) *Handler {
	return &Handler{
		catalog:    catalog,
		lists:      lists,
		search:     search,
		comparison: comparison,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricewise-backend",
		"version": "1.0.0",
	})
}

// Products

func (h *Handler) RegisterProduct(c *gin.Context) {
	if h.catalog == nil {
		respondNotConfigured(c, "catalog")
		return
	}
	var req domain.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := h.catalog.RegisterProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": product})
}

func (h *Handler) ListProducts(c *gin.Context) {
	if h.catalog == nil {
		respondNotConfigured(c, "catalog")
		return
	}
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

func (h *Handler) GetProduct(c *gin.Context) {
	if h.catalog == nil {
		respondNotConfigured(c, "catalog")
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

// SearchProducts handles GET /products/search?q=&limit=
func (h *Handler) SearchProducts(c *gin.Context) {
	if h.search == nil {
		respondNotConfigured(c, "product search")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	matches, err := h.search.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": matches})
}

// Prices

func (h *Handler) RecordPrice(c *gin.Context) {
	if h.catalog == nil {
		respondNotConfigured(c, "catalog")
		return
	}
	var req domain.RecordPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Price == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: price is required"})
		return
	}
	var observedAt time.Time
	if req.ObservedAt != nil {
		observedAt = *req.ObservedAt
	}

	obs, err := h.catalog.RecordPrice(c.Request.Context(), c.Param("barcode"), req.SupermarketLabel, *req.Price, observedAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": obs})
}

func (h *Handler) PriceHistory(c *gin.Context) {
	if h.catalog == nil {
		respondNotConfigured(c, "catalog")
		return
	}
	history, err := h.catalog.PriceHistory(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": history})
}

// Supermarkets

func (h *Handler) RegisterSupermarket(c *gin.Context) {
	if h.catalog == nil {
		respondNotConfigured(c, "catalog")
		return
	}
	var req domain.Supermarket
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	market, err := h.catalog.RegisterSupermarket(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": market})
}

func (h *Handler) ListSupermarkets(c *gin.Context) {
	if h.catalog == nil {
		respondNotConfigured(c, "catalog")
		return
	}
	markets, err := h.catalog.ListSupermarkets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": markets})
}

// Shopping lists

func (h *Handler) CreateList(c *gin.Context) {
	if h.lists == nil {
		respondNotConfigured(c, "shopping lists")
		return
	}
	var req domain.CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	list, err := h.lists.CreateList(c.Request.Context(), req.OwnerID, req.Name, req.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": list})
}

// ListLists handles GET /lists?owner=
func (h *Handler) ListLists(c *gin.Context) {
	if h.lists == nil {
		respondNotConfigured(c, "shopping lists")
		return
	}
	lists, err := h.lists.ListByOwner(c.Request.Context(), c.Query("owner"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": lists})
}

func (h *Handler) GetList(c *gin.Context) {
	if h.lists == nil {
		respondNotConfigured(c, "shopping lists")
		return
	}
	list, err := h.lists.GetList(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *Handler) DeleteList(c *gin.Context) {
	if h.lists == nil {
		respondNotConfigured(c, "shopping lists")
		return
	}
	if err := h.lists.DeleteList(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddItem(c *gin.Context) {
	if h.lists == nil {
		respondNotConfigured(c, "shopping lists")
		return
	}
	var req domain.ShoppingListItem
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	list, err := h.lists.AddItem(c.Request.Context(), c.Param("id"), req.ProductName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *Handler) RemoveItem(c *gin.Context) {
	if h.lists == nil {
		respondNotConfigured(c, "shopping lists")
		return
	}
	list, err := h.lists.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// Comparison

// compareListRequest is the optional body of POST /lists/:id/compare
type compareListRequest struct {
	Origin *domain.GeoPoint `json:"origin,omitempty"`
}

func (h *Handler) CompareList(c *gin.Context) {
	if h.comparison == nil {
		respondNotConfigured(c, "comparison")
		return
	}
	var req compareListRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}
	result, err := h.comparison.CompareList(c.Request.Context(), c.Param("id"), req.Origin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// Compare handles ad-hoc comparisons of items that are not stored as a list
func (h *Handler) Compare(c *gin.Context) {
	if h.comparison == nil {
		respondNotConfigured(c, "comparison")
		return
	}
	var req domain.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.comparison.CompareItems(c.Request.Context(), req.Items, req.Origin)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
