package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"gatehouse-backend/internal/model"
)

// Event is the kind of vehicle notification being sent.
type Event string

const (
	// EventAvailable announces a vehicle returning to the available pool.
	EventAvailable Event = "available"
	// EventOverdue flags a vehicle whose checkout exceeded the ceiling.
	EventOverdue Event = "overdue"
)

// Job is one notification request for a single vehicle.
type Job struct {
	VehicleID string
	Event     Event
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size), // Buffered channel
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			log.Printf("Worker %d processing vehicle %s (%s)", id, job.VehicleID, job.Event)
			wp.sendNotificationsForVehicle(ctx, job)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(job Job) {
	wp.jobs <- job
}

// VehicleAvailable implements the ledger.Notifier interface.
func (wp *WorkerPool) VehicleAvailable(vehicleID string) {
	wp.Dispatch(Job{VehicleID: vehicleID, Event: EventAvailable})
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

// sendNotificationsForVehicle fetches subscriptions and sends notifications
// for a given vehicle.
func (wp *WorkerPool) sendNotificationsForVehicle(ctx context.Context, job Job) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_vehicle_mapping svm ON svm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("svm.vehicle_id = ?", job.VehicleID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for vehicle %s: %v", job.VehicleID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications for vehicle %s", len(subscriptions), job.VehicleID)

	var vehicle model.Vehicle
	vehicleLabel := job.VehicleID
	if err := wp.db.WithContext(ctx).
		Select("registration", "display_name").
		First(&vehicle, "id = ?", job.VehicleID).Error; err != nil {
		log.Printf("Error fetching vehicle %s: %v", job.VehicleID, err)
	} else if vehicle.DisplayName != "" {
		vehicleLabel = vehicle.DisplayName
	} else if vehicle.Registration != "" {
		vehicleLabel = vehicle.Registration
	}

	var message string
	switch job.Event {
	case EventOverdue:
		message = fmt.Sprintf("Vehicle %s is overdue for check-in", vehicleLabel)
	default:
		message = fmt.Sprintf("Vehicle %s is now available", vehicleLabel)
	}
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	// Manually construct the webpush.Subscription object
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == 410 {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
