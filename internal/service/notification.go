package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"delivery/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationCourierAssigned   NotificationType = "COURIER_ASSIGNED"
	NotificationDeliveryDelivered NotificationType = "DELIVERY_DELIVERED"
	NotificationDeliveryCancelled NotificationType = "DELIVERY_CANCELLED"
	NotificationDeliveryRated     NotificationType = "DELIVERY_RATED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // Customer or Courier ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - WebSocket connections for real-time
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyCourierAssigned notifies the courier about their new delivery.
func (s *NotificationService) NotifyCourierAssigned(ctx context.Context, delivery *domain.Delivery, courier *domain.Courier) error {
	s.send(ctx, Notification{
		Type:        NotificationCourierAssigned,
		RecipientID: courier.ID,
		Title:       "New Delivery",
		Message:     fmt.Sprintf("You have been assigned delivery %s (%.1f km, ETA %d min)", delivery.ID, delivery.DistanceKm, delivery.EstimatedMinutes),
		Data: map[string]interface{}{
			"delivery_id": delivery.ID,
			"order_id":    delivery.OrderID,
			"distance_km": delivery.DistanceKm,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyDelivered notifies the courier that the delivery is complete.
func (s *NotificationService) NotifyDelivered(ctx context.Context, delivery *domain.Delivery) error {
	s.send(ctx, Notification{
		Type:        NotificationDeliveryDelivered,
		RecipientID: delivery.CourierID,
		Title:       "Delivery Complete",
		Message:     fmt.Sprintf("Delivery %s completed. You are available again.", delivery.ID),
		Data: map[string]interface{}{
			"delivery_id": delivery.ID,
			"fee":         delivery.Fee,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyCancelled notifies the courier that the delivery was cancelled.
func (s *NotificationService) NotifyCancelled(ctx context.Context, delivery *domain.Delivery) error {
	s.send(ctx, Notification{
		Type:        NotificationDeliveryCancelled,
		RecipientID: delivery.CourierID,
		Title:       "Delivery Cancelled",
		Message:     fmt.Sprintf("Delivery %s was cancelled.", delivery.ID),
		Data: map[string]interface{}{
			"delivery_id": delivery.ID,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// NotifyRated notifies the courier about a new customer rating.
func (s *NotificationService) NotifyRated(ctx context.Context, delivery *domain.Delivery) error {
	s.send(ctx, Notification{
		Type:        NotificationDeliveryRated,
		RecipientID: delivery.CourierID,
		Title:       "New Rating",
		Message:     fmt.Sprintf("A customer rated delivery %s: %d/5", delivery.ID, delivery.CustomerRating),
		Data: map[string]interface{}{
			"delivery_id": delivery.ID,
			"rating":      delivery.CustomerRating,
		},
		CreatedAt: time.Now(),
	})
	return nil
}

// send delivers the notification. Currently logs; in production this would
// push via FCM/APNS or similar.
func (s *NotificationService) send(ctx context.Context, n Notification) {
	log.Printf("[NOTIFICATION] type=%s recipient=%s title=%q message=%q",
		n.Type, n.RecipientID, n.Title, n.Message)
}
