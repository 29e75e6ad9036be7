package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"delivery/internal/domain"
	"delivery/internal/repository"
	"delivery/internal/service"
)

// CourierHandler handles HTTP requests for couriers.
type CourierHandler struct {
	courierService *service.CourierService
	courierRepo    repository.CourierRepository
}

// NewCourierHandler creates a new CourierHandler.
func NewCourierHandler(courierService *service.CourierService, courierRepo repository.CourierRepository) *CourierHandler {
	return &CourierHandler{
		courierService: courierService,
		courierRepo:    courierRepo,
	}
}

// RegisterCourierRequest is the HTTP request body for courier registration.
type RegisterCourierRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CourierLocationRequest is the HTTP request body for a location report.
type CourierLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CourierStatusRequest is the HTTP request body for a status change.
type CourierStatusRequest struct {
	Status string `json:"status"`
}

// CourierResponse is the HTTP representation of a courier.
type CourierResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Phone           string  `json:"phone"`
	Status          string  `json:"status"`
	Rating          float64 `json:"rating"`
	TotalDeliveries int     `json:"total_deliveries"`
}

func toCourierResponse(courier *domain.Courier) CourierResponse {
	return CourierResponse{
		ID:              courier.ID,
		Name:            courier.Name,
		Phone:           courier.Phone,
		Status:          string(courier.Status),
		Rating:          courier.Rating,
		TotalDeliveries: courier.TotalDeliveries,
	}
}

// Register handles POST /v1/couriers/register
func (h *CourierHandler) Register(c *gin.Context) {
	var req RegisterCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Name == "" || req.Phone == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name and phone are required"})
		return
	}

	// Check if courier already exists
	existing, err := h.courierRepo.GetByPhone(c.Request.Context(), req.Phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}

	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{
			"message": "Courier already registered",
			"courier": toCourierResponse(existing),
		})
		return
	}

	courier := &domain.Courier{
		ID:     uuid.New().String(),
		Name:   req.Name,
		Phone:  req.Phone,
		Status: domain.CourierStatusOffline,
	}

	if err := h.courierRepo.Create(c.Request.Context(), courier); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toCourierResponse(courier))
}

// GetAll handles GET /v1/couriers
func (h *CourierHandler) GetAll(c *gin.Context) {
	couriers, err := h.courierRepo.GetAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]CourierResponse, 0, len(couriers))
	for _, courier := range couriers {
		response = append(response, toCourierResponse(courier))
	}

	respondJSON(c, http.StatusOK, response)
}

// UpdateLocation handles POST /v1/couriers/:id/location
func (h *CourierHandler) UpdateLocation(c *gin.Context) {
	var req CourierLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.courierService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		CourierID: c.Param("id"),
		Lat:       req.Lat,
		Lng:       req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": "location updated"})
}

// SetStatus handles POST /v1/couriers/:id/status
func (h *CourierHandler) SetStatus(c *gin.Context) {
	var req CourierStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.courierService.SetStatus(c.Request.Context(), c.Param("id"), domain.CourierStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"status": req.Status})
}
