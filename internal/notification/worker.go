package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"spot-attendance-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SeatEventKind says what happened to a student's seat.
type SeatEventKind int

const (
	// SeatAssigned means a teacher placed the student at DisplayID.
	SeatAssigned SeatEventKind = iota
	// SeatEvicted means the student lost the seat at DisplayID.
	SeatEvicted
)

// SeatEvent is a seat change a student should hear about.
type SeatEvent struct {
	Kind      SeatEventKind
	StudentID int64
	SectionID int64
	DisplayID string
}

// QueueSize bounds the seat events waiting for a worker.
const QueueSize = 256

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan SeatEvent
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan SeatEvent, QueueSize),
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
		case event := <-wp.jobs:
			log.Printf("Worker %d processing seat event for student %d in section %d", id, event.StudentID, event.SectionID)
			wp.sendNotificationsForEvent(ctx, event)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a job for the worker pool without blocking the caller.
// The event is dropped when the queue is full.
func (wp *WorkerPool) Dispatch(event SeatEvent) {
	select {
	case wp.jobs <- event:
	default:
		log.Printf("Warning: notification queue full, dropping seat event for student %d in section %d", event.StudentID, event.SectionID)
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan SeatEvent {
	return wp.jobs
}

// sendNotificationsForEvent fetches the student's subscriptions and notifies each of them.
func (wp *WorkerPool) sendNotificationsForEvent(ctx context.Context, event SeatEvent) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Where("student_id = ?", event.StudentID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("Error fetching subscriptions for student %d: %v", event.StudentID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d notifications to student %d", len(subscriptions), event.StudentID)

	var section model.Section
	sectionLabel := fmt.Sprintf("section %d", event.SectionID)
	if err := wp.db.WithContext(ctx).
		Select("course_code", "name").
		First(&section, event.SectionID).Error; err != nil {
		log.Printf("Error fetching section %d: %v", event.SectionID, err)
	} else if section.CourseCode != "" {
		sectionLabel = section.CourseCode + " " + section.Name
	}

	message := eventMessage(event, sectionLabel)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func eventMessage(event SeatEvent, sectionLabel string) string {
	if event.Kind == SeatEvicted {
		return fmt.Sprintf("Your seat %s in %s was reassigned by your teacher.", event.DisplayID, sectionLabel)
	}
	return fmt.Sprintf("Your teacher moved you to seat %s in %s.", event.DisplayID, sectionLabel)
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
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
