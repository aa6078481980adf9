package item

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"coinvault/internal/api"
	"coinvault/internal/logger"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type CreateItemRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Category  string          `json:"category" validate:"required,oneof=classic legend mythic"`
	PriceGold decimal.Decimal `json:"price_gold" validate:"required"`
}

type BulkCreateItemsRequest struct {
	Items []CreateItemRequest `json:"items" validate:"required,min=1,dive"`
}

// @Summary      List purchasable items
// @Tags         items
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /items [get]
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		logger.Errorf("failed to list items: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary      Create an item
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body CreateItemRequest true "Item"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/items [post]
func (h *Handler) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid payload"})
		return
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	it, err := h.repo.Create(c.Request.Context(), req.Name, req.Category, req.PriceGold)
	if err != nil {
		logger.Errorf("failed to create item: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create item"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "item created successfully",
		"item":    it,
	})
}

// @Summary      Create items in bulk
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body BulkCreateItemsRequest true "Items"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} api.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/items/bulk [post]
func (h *Handler) CreateBulkItems(c *gin.Context) {
	var req BulkCreateItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid payload"})
		return
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, Item{Name: it.Name, Category: it.Category, PriceGold: it.PriceGold})
	}

	created, err := h.repo.CreateBulk(c.Request.Context(), items)
	if err != nil {
		logger.Errorf("failed to bulk create items: %v", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to create items"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": strconv.Itoa(len(created)) + " items created successfully",
		"total":   len(created),
		"items":   created,
	})
}
