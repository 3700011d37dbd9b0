package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/inventory"
	"github.com/andresuchdata/stockwatch/internal/service"
)

type InventoryHandler struct {
	service *service.InventoryService
}

func NewInventoryHandler(service *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) ListItems(c *gin.Context) {
	filter := domain.ItemFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Status: strings.TrimSpace(c.DefaultQuery("status", "all")),
	}

	items := h.service.ListItems(c.Request.Context(), filter)
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

func (h *InventoryHandler) GetItem(c *gin.Context) {
	item, err := h.service.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to fetch item")
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) CreateItem(c *gin.Context) {
	fields, err := bindItemFields(c)
	if err != nil {
		respondError(c, err, "invalid request body")
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), fields)
	if err != nil {
		respondError(c, err, "failed to create item")
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	fields, err := bindItemFields(c)
	if err != nil {
		respondError(c, err, "invalid request body")
		return
	}

	item, err := h.service.UpdateItem(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, err, "failed to update item")
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	if err := h.service.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "failed to delete item")
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAlerts runs the alert pass and returns the alerts that fired now along
// with every item's current status.
func (h *InventoryHandler) GetAlerts(c *gin.Context) {
	eval, err := h.service.Evaluate(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to evaluate alerts")
		return
	}

	c.JSON(http.StatusOK, eval)
}

func (h *InventoryHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch dashboard")
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	filter := domain.TransactionFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Type:   strings.TrimSpace(c.DefaultQuery("type", "all")),
	}

	txs := h.service.Transactions(c.Request.Context(), filter)
	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"total":        len(txs),
	})
}

func (h *InventoryHandler) GetTransactionSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.TransactionSummary(c.Request.Context()))
}

// itemRequest is the create/update body. Counts are pointers so an omitted
// field is rejected instead of read as zero.
type itemRequest struct {
	ProductName string `json:"productName"`
	Category    string `json:"category"`
	Quantity    *int   `json:"quantity" validate:"required"`
	MinStock    *int   `json:"minStock" validate:"required"`
	ExpiryDate  string `json:"expiryDate"`
}

func bindItemFields(c *gin.Context) (domain.ItemFields, error) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			reason := "must be a string"
			if typeErr.Type != nil && typeErr.Type.Kind() == reflect.Int {
				reason = "must be a non-negative integer"
			}
			return domain.ItemFields{}, &domain.ValidationError{Field: typeErr.Field, Reason: reason}
		}
		return domain.ItemFields{}, &domain.ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	if err := inventory.ValidateStruct(req); err != nil {
		return domain.ItemFields{}, err
	}

	return domain.ItemFields{
		ProductName: req.ProductName,
		Category:    req.Category,
		Quantity:    *req.Quantity,
		MinStock:    *req.MinStock,
		ExpiryDate:  req.ExpiryDate,
	}, nil
}

func respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
