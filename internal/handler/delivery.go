package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"delivery/internal/domain"
	"delivery/internal/repository"
	"delivery/internal/service"
)

// DeliveryHandler handles HTTP requests for deliveries.
type DeliveryHandler struct {
	deliveryService *service.DeliveryService
	dispatchService *service.DispatchService
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(deliveryService *service.DeliveryService, dispatchService *service.DispatchService) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
		dispatchService: dispatchService,
	}
}

// CreateDeliveryRequest is the HTTP request body for creating a delivery.
type CreateDeliveryRequest struct {
	OrderID    string  `json:"order_id"`
	DistanceKm float64 `json:"distance_km"`
}

// AssignCourierRequest is the HTTP request body for assigning a courier.
type AssignCourierRequest struct {
	CourierID string `json:"courier_id"`
}

// AutoAssignRequest is the HTTP request body for auto-assignment.
type AutoAssignRequest struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm float64 `json:"radius_km,omitempty"`
}

// UpdateStatusRequest is the HTTP request body for a status transition.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// RateDeliveryRequest is the HTTP request body for rating a delivery.
type RateDeliveryRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

// DeliveryResponse is the HTTP representation of a delivery.
type DeliveryResponse struct {
	ID               string  `json:"id"`
	OrderID          string  `json:"order_id"`
	Status           string  `json:"status"`
	Fee              float64 `json:"fee"`
	DistanceKm       float64 `json:"distance_km"`
	EstimatedMinutes int     `json:"estimated_minutes"`
	CourierID        string  `json:"courier_id,omitempty"`
	StartTime        string  `json:"start_time,omitempty"`
	EndTime          string  `json:"end_time,omitempty"`
	CustomerRating   int     `json:"customer_rating,omitempty"`
	CustomerFeedback string  `json:"customer_feedback,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// ListDeliveriesResponse is the paginated list response.
type ListDeliveriesResponse struct {
	Items []DeliveryResponse `json:"items"`
	Total int                `json:"total"`
}

// RateDeliveryResponse is the HTTP response for rating a delivery.
type RateDeliveryResponse struct {
	Delivery      DeliveryResponse `json:"delivery"`
	CourierRating float64          `json:"courier_rating"`
}

func toDeliveryResponse(d *domain.Delivery) DeliveryResponse {
	resp := DeliveryResponse{
		ID:               d.ID,
		OrderID:          d.OrderID,
		Status:           string(d.Status),
		Fee:              d.Fee,
		DistanceKm:       d.DistanceKm,
		EstimatedMinutes: d.EstimatedMinutes,
		CourierID:        d.CourierID,
		CustomerRating:   d.CustomerRating,
		CustomerFeedback: d.CustomerFeedback,
		CreatedAt:        d.CreatedAt.Format(time.RFC3339),
	}
	if !d.StartTime.IsZero() {
		resp.StartTime = d.StartTime.Format(time.RFC3339)
	}
	if !d.EndTime.IsZero() {
		resp.EndTime = d.EndTime.Format(time.RFC3339)
	}
	return resp
}

// Create handles POST /v1/deliveries
func (h *DeliveryHandler) Create(c *gin.Context) {
	var req CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	delivery, err := h.deliveryService.CreateDelivery(c.Request.Context(), service.CreateDeliveryRequest{
		OrderID:    req.OrderID,
		DistanceKm: req.DistanceKm,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDeliveryResponse(delivery))
}

// Get handles GET /v1/deliveries/:id
func (h *DeliveryHandler) Get(c *gin.Context) {
	delivery, err := h.deliveryService.GetDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDeliveryResponse(delivery))
}

// List handles GET /v1/deliveries
func (h *DeliveryHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	deliveries, total, err := h.deliveryService.ListDeliveries(c.Request.Context(), repository.DeliveryFilter{
		Status:    domain.DeliveryStatus(c.Query("status")),
		CourierID: c.Query("courier_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		items = append(items, toDeliveryResponse(d))
	}

	respondJSON(c, http.StatusOK, ListDeliveriesResponse{Items: items, Total: total})
}

// ListPending handles GET /v1/deliveries/pending
func (h *DeliveryHandler) ListPending(c *gin.Context) {
	deliveries, err := h.deliveryService.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]DeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		items = append(items, toDeliveryResponse(d))
	}

	respondJSON(c, http.StatusOK, items)
}

// Assign handles POST /v1/deliveries/:id/assign
func (h *DeliveryHandler) Assign(c *gin.Context) {
	var req AssignCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	delivery, err := h.deliveryService.AssignCourier(c.Request.Context(), service.AssignCourierRequest{
		DeliveryID: c.Param("id"),
		CourierID:  req.CourierID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDeliveryResponse(delivery))
}

// AutoAssign handles POST /v1/deliveries/:id/auto-assign
func (h *DeliveryHandler) AutoAssign(c *gin.Context) {
	var req AutoAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	delivery, err := h.dispatchService.AssignNearest(c.Request.Context(), service.AssignNearestRequest{
		DeliveryID: c.Param("id"),
		Lat:        req.Lat,
		Lng:        req.Lng,
		RadiusKm:   req.RadiusKm,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDeliveryResponse(delivery))
}

// UpdateStatus handles POST /v1/deliveries/:id/status
func (h *DeliveryHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	delivery, err := h.deliveryService.UpdateStatus(c.Request.Context(), service.UpdateStatusRequest{
		DeliveryID: c.Param("id"),
		Status:     domain.DeliveryStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDeliveryResponse(delivery))
}

// Rate handles POST /v1/deliveries/:id/rate
func (h *DeliveryHandler) Rate(c *gin.Context) {
	var req RateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.deliveryService.RateDelivery(c.Request.Context(), service.RateDeliveryRequest{
		DeliveryID: c.Param("id"),
		Rating:     req.Rating,
		Feedback:   req.Feedback,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, RateDeliveryResponse{
		Delivery:      toDeliveryResponse(result.Delivery),
		CourierRating: result.CourierRating,
	})
}
