package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campuslink-app/backend/internal/models"
	"github.com/campuslink-app/backend/internal/notify"
	"github.com/campuslink-app/backend/internal/repositories"
	"github.com/campuslink-app/backend/pkg/storage"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	fanOut                 *notify.Engine
	storage                storage.Storage
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	fanOut *notify.Engine,
	store storage.Storage,
) *PostHandler {
	return &PostHandler{
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		fanOut:                 fanOut,
		storage:                store,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.GET("/posts", h.GetPosts)
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.PATCH("/posts/:id/timer", h.UpdateTimer)
	g.POST("/posts/:id/like", h.LikePost)
	g.POST("/posts/:id/unlike", h.UnlikePost)
	g.POST("/posts/:id/comments", h.AddComment)
	g.DELETE("/posts/:id/comments/:comment_id", h.DeleteComment)
	g.GET("/posts/user/:username", h.GetPostsByUsername)
}

// EnrichedPost is a post with its author's compact profile
type EnrichedPost struct {
	models.Post
	Author models.UserCompact `json:"author"`
}

func (h *PostHandler) enrichPosts(posts []models.Post) []EnrichedPost {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.AuthorID
	}
	authors := enrichAuthors(h.userRepository, ids)

	enriched := make([]EnrichedPost, len(posts))
	for i, p := range posts {
		enriched[i] = EnrichedPost{Post: p, Author: authors[p.AuthorID]}
	}
	return enriched
}

// parseTimerForm reads the optional timer fields from a multipart create
// request.
func parseTimerForm(c echo.Context) (models.ContentTimer, error) {
	if c.FormValue("timer_enabled") != "true" {
		return models.DisabledTimer(), nil
	}
	duration, err := strconv.ParseFloat(c.FormValue("timer_duration"), 64)
	if err != nil || duration <= 0 {
		return models.ContentTimer{}, echo.NewHTTPError(http.StatusBadRequest, "Timer duration must be a positive number of days")
	}
	return models.NewTimer(time.Now(), duration), nil
}

// CreatePost creates a new post from a multipart form (content, optional
// image, optional timer) and dispatches notification fan-out.
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	content := c.FormValue("content")
	imageFile, imageErr := c.FormFile("image")
	if content == "" && imageErr != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Post must have content or an image")
	}
	if len(content) > 2000 {
		return echo.NewHTTPError(http.StatusBadRequest, "Post content is limited to 2000 characters")
	}

	timer, err := parseTimerForm(c)
	if err != nil {
		return err
	}

	author, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}

	var imageRef string
	if imageErr == nil {
		imageRef, err = saveImageUpload(c, h.storage, imageFile, "posts")
		if err != nil {
			return err
		}
	}

	post := &models.Post{
		AuthorID: currentUserID,
		Content:  content,
		Image:    imageRef,
		Timer:    timer,
	}

	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Fan-out runs in the background; its failure never affects this
	// response.
	h.fanOut.Dispatch(post.ID.Hex(), models.ContentTypePost, author.Role == models.RoleFaculty)

	return c.JSON(http.StatusCreated, EnrichedPost{Post: *post, Author: author.ToCompact()})
}

// GetPosts returns all currently visible posts, newest first
func (h *PostHandler) GetPosts(c echo.Context) error {
	posts, err := h.postRepository.GetVisiblePosts(c.Request().Context(), time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.enrichPosts(posts))
}

// GetPost retrieves a post by ID. Direct fetches return the stored document
// even after its timer has elapsed.
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postRepository.GetPostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.enrichPosts([]models.Post{*post})[0])
}

// GetPostsByUsername returns all posts authored by the named user
func (h *PostHandler) GetPostsByUsername(c echo.Context) error {
	user, err := h.userRepository.GetUserByUsername(c.Param("username"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	posts, err := h.postRepository.GetPostsByAuthor(c.Request().Context(), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.enrichPosts(posts))
}

// DeletePost deletes a post and cascades to its notification rows and image
// blob. Owner-only.
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if post.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this post")
	}

	if err := h.postRepository.DeletePost(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Cascade: notification rows referencing this post must never be served
	// again.
	if err := h.notificationRepository.DeleteByContent(models.ContentTypePost, postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if post.Image != "" {
		// Best effort; an orphaned blob is harmless.
		h.storage.Delete(c.Request().Context(), post.Image)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Post removed"})
}

// UpdateTimer toggles the post's expiry timer. Owner-only. Enabling computes
// the expiry instant now; disabling clears it.
func (h *PostHandler) UpdateTimer(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	var req models.UpdateTimerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if post.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized")
	}

	timer, err := timerFromConfig(req.Timer)
	if err != nil {
		return err
	}

	if err := h.postRepository.SetTimer(c.Request().Context(), postID, timer); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post.Timer = timer
	return c.JSON(http.StatusOK, post)
}

// timerFromConfig maps the PATCH body to the stored timer state
func timerFromConfig(cfg models.TimerConfig) (models.ContentTimer, error) {
	if !cfg.Enabled {
		return models.DisabledTimer(), nil
	}
	if cfg.Duration <= 0 {
		return models.ContentTimer{}, echo.NewHTTPError(http.StatusBadRequest, "Timer duration must be a positive number of days")
	}
	return models.NewTimer(time.Now(), cfg.Duration), nil
}

// LikePost adds the caller to the post's like set
func (h *PostHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	liked, err := h.postRepository.AddLike(c.Request().Context(), postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !liked {
		return echo.NewHTTPError(http.StatusBadRequest, "Post already liked")
	}

	post.Likes = append(post.Likes, currentUserID)
	return c.JSON(http.StatusOK, post.Likes)
}

// UnlikePost removes the caller from the post's like set
func (h *PostHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	removed, err := h.postRepository.RemoveLike(c.Request().Context(), postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !removed {
		return echo.NewHTTPError(http.StatusBadRequest, "Post has not yet been liked")
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, post.Likes)
}

// AddComment appends a comment to the post
func (h *PostHandler) AddComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")

	var req models.AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment := &models.Comment{UserID: currentUserID, Text: req.Text}
	if err := h.postRepository.AddComment(c.Request().Context(), postID, comment); err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, post.Comments)
}

// DeleteComment removes a comment. Comment-author-only.
func (h *PostHandler) DeleteComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID := c.Param("id")
	commentID := c.Param("comment_id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var found *models.Comment
	for i := range post.Comments {
		if post.Comments[i].ID.Hex() == commentID {
			found = &post.Comments[i]
			break
		}
	}
	if found == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}
	if found.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	removed, err := h.postRepository.RemoveComment(c.Request().Context(), postID, commentID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}

	post, err = h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, post.Comments)
}
