package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/campuslink-app/backend/internal/models"
	"github.com/campuslink-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	resolvers              map[string]contentResolver
}

// contentResolver loads one content item for display and reports its author.
type contentResolver func(ctx context.Context, contentID string) (content interface{}, authorID uint, err error)

// NewNotificationHandler creates a new NotificationHandler. Content lookup
// is dispatched on the notification's content type tag, one resolver per
// collection.
func NewNotificationHandler(
	notifRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
	pollRepo repositories.PollRepository,
) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		resolvers: map[string]contentResolver{
			models.ContentTypePost: func(ctx context.Context, contentID string) (interface{}, uint, error) {
				post, err := postRepo.GetPostByID(ctx, contentID)
				if err != nil {
					return nil, 0, err
				}
				return post, post.AuthorID, nil
			},
			models.ContentTypePoll: func(ctx context.Context, contentID string) (interface{}, uint, error) {
				poll, err := pollRepo.GetPollByID(ctx, contentID)
				if err != nil {
					return nil, 0, err
				}
				return poll, poll.AuthorID, nil
			},
		},
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// EnrichedNotification joins the durable row with its content item and the
// content author's compact profile
type EnrichedNotification struct {
	ID          uint               `json:"id"`
	ContentType string             `json:"content_type"`
	Content     interface{}        `json:"content"`
	Author      models.UserCompact `json:"author"`
	Priority    bool               `json:"priority"`
	Read        bool               `json:"read"`
	CreatedAt   time.Time          `json:"created_at"`
}

// serveNotifications resolves rows for display. Rows whose content item no
// longer exists (cascade lag) or whose content the recipient authored are
// dropped, never surfaced. Other lookup failures abort the request; an
// unreachable content store must not masquerade as an empty inbox. The
// returned unread count reflects the served rows only, so the badge never
// counts a user's own content.
func (h *NotificationHandler) serveNotifications(ctx context.Context, userID uint, rows []models.Notification) ([]EnrichedNotification, int, error) {
	served := make([]EnrichedNotification, 0, len(rows))
	unread := 0
	authorCache := make(map[uint]models.UserCompact)

	for _, row := range rows {
		resolve, ok := h.resolvers[row.ContentType]
		if !ok {
			continue
		}
		content, authorID, err := resolve(ctx, row.ContentID)
		if err != nil {
			if err == repositories.ErrNotFound {
				continue
			}
			return nil, 0, err
		}
		if authorID == userID {
			continue
		}

		author, ok := authorCache[authorID]
		if !ok {
			user, err := h.userRepository.GetUserByID(authorID)
			if err == nil {
				author = user.ToCompact()
			}
			authorCache[authorID] = author
		}

		if poll, isPoll := content.(*models.Poll); isPoll {
			content = poll.View(userID)
		}

		served = append(served, EnrichedNotification{
			ID:          row.ID,
			ContentType: row.ContentType,
			Content:     content,
			Author:      author,
			Priority:    row.Priority,
			Read:        row.IsRead,
			CreatedAt:   row.CreatedAt,
		})
		if !row.IsRead {
			unread++
		}
	}
	return served, unread, nil
}

// GetNotifications returns the caller's notifications, priority first then
// newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	rows, err := h.notificationRepository.GetByRecipientID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	served, unread, err := h.serveNotifications(c.Request().Context(), currentUserID, rows)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"notifications": served,
		"unread_count":  unread,
	})
}

// GetUnreadCount returns the unread badge count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	rows, err := h.notificationRepository.GetByRecipientID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	_, unread, err := h.serveNotifications(c.Request().Context(), currentUserID, rows)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"count": unread})
}

// MarkAsRead marks one notification as read. Recipient-only; marking an
// already-read notification is a no-op success.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	notification, err := h.notificationRepository.GetByID(uint(notifID))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if notification.RecipientID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to modify this notification")
	}

	if err := h.notificationRepository.MarkAsRead(uint(notifID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	notification.IsRead = true
	return c.JSON(http.StatusOK, notification)
}

// MarkAllAsRead bulk-flips all of the caller's unread rows
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.notificationRepository.MarkAllAsRead(currentUserID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "All notifications marked as read"})
}
