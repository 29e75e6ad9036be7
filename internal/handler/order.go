package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"delivery/internal/domain"
	"delivery/internal/repository"
)

// OrderHandler handles HTTP requests for orders. Order management proper
// lives in the surrounding marketplace; this exists so delivery creation
// has orders to reference.
type OrderHandler struct {
	orderRepo repository.OrderRepository
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderRepo repository.OrderRepository) *OrderHandler {
	return &OrderHandler{orderRepo: orderRepo}
}

// CreateOrderRequest is the HTTP request body for registering an order.
type CreateOrderRequest struct {
	CustomerID   string  `json:"customer_id"`
	RestaurantID string  `json:"restaurant_id"`
	Total        float64 `json:"total"`
}

// OrderResponse is the HTTP representation of an order.
type OrderResponse struct {
	ID           string  `json:"id"`
	CustomerID   string  `json:"customer_id"`
	RestaurantID string  `json:"restaurant_id"`
	Total        float64 `json:"total"`
	CreatedAt    string  `json:"created_at"`
}

// Create handles POST /v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.CustomerID == "" || req.RestaurantID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "customer_id and restaurant_id are required"})
		return
	}

	order := &domain.Order{
		ID:           uuid.New().String(),
		CustomerID:   req.CustomerID,
		RestaurantID: req.RestaurantID,
		Total:        req.Total,
		CreatedAt:    time.Now(),
	}

	if err := h.orderRepo.Create(c.Request.Context(), order); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toOrderResponse(order))
}

// Get handles GET /v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrderResponse(order))
}

func toOrderResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:           order.ID,
		CustomerID:   order.CustomerID,
		RestaurantID: order.RestaurantID,
		Total:        order.Total,
		CreatedAt:    order.CreatedAt.Format(time.RFC3339),
	}
}
