package notify

import (
	"context"
	"log"
	"time"

	"github.com/campuslink-app/backend/internal/models"
	"github.com/campuslink-app/backend/internal/repositories"
)

// EventNewNotification is the websocket event name pushed to recipients.
const EventNewNotification = "newNotification"

// fanOutBatchSize bounds how many users are held in memory per scan page.
const fanOutBatchSize = 500

// Pusher delivers a low-latency hint to a user's connected sessions. The
// durable notification row is the system of record; pushes to disconnected
// users are dropped.
type Pusher interface {
	EmitToUser(userID uint, event string, payload interface{})
}

// Engine materializes one notification row per existing user whenever a
// post or poll is created, then nudges connected recipients over the push
// channel.
type Engine struct {
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	pusher        Pusher
	timeout       time.Duration
}

// NewEngine creates a fan-out engine
func NewEngine(users repositories.UserRepository, notifications repositories.NotificationRepository, pusher Pusher) *Engine {
	return &Engine{
		users:         users,
		notifications: notifications,
		pusher:        pusher,
		timeout:       30 * time.Second,
	}
}

// Dispatch runs the fan-out in the background. Content creation has already
// been acknowledged to the client by the time this is called; a fan-out
// failure is logged and swallowed, never propagated, so the content item
// survives regardless.
func (e *Engine) Dispatch(contentID, contentType string, priority bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if err := e.NotifyAllUsers(ctx, contentID, contentType, priority); err != nil {
			log.Printf("notify: fan-out failed for %s %s: %v", contentType, contentID, err)
		}
	}()
}

// NotifyAllUsers scans the user set in batches, bulk-inserts one row per
// user seen (the author's own row included; it is filtered at serving time),
// and pushes an event to each connected recipient. Users registered after
// the scan snapshot receive nothing; the enumeration happens exactly once at
// creation time.
func (e *Engine) NotifyAllUsers(ctx context.Context, contentID, contentType string, priority bool) error {
	createdAt := time.Now()
	return e.users.ForEachUserBatch(fanOutBatchSize, func(users []models.User) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		notifications := make([]models.Notification, len(users))
		for i, user := range users {
			notifications[i] = models.Notification{
				RecipientID: user.ID,
				ContentType: contentType,
				ContentID:   contentID,
				Priority:    priority,
				CreatedAt:   createdAt,
			}
		}
		if err := e.notifications.CreateBatch(notifications); err != nil {
			return err
		}

		for _, n := range notifications {
			e.pusher.EmitToUser(n.RecipientID, EventNewNotification, n)
		}
		return nil
	})
}
