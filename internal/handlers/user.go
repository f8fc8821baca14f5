package handlers

import (
	"net/http"
	"strconv"

	"github.com/campuslink-app/backend/internal/models"
	"github.com/campuslink-app/backend/internal/repositories"
	"github.com/campuslink-app/backend/pkg/storage"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
	storage        storage.Storage
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, store storage.Storage) *UserHandler {
	return &UserHandler{userRepository: userRepo, storage: store}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.PUT("/users/profile", h.UpdateProfile)
	g.GET("/users/:id", h.GetUser)
}

// GetUser returns another user's public profile by ID
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	user, err := h.userRepository.GetUserByID(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user.ToCompact())
}

// UpdateProfile updates the authenticated user's username and/or profile
// picture. Multipart form: optional "username" field, optional "profilePic"
// file.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if username := c.FormValue("username"); username != "" && username != user.Username {
		if len(username) < 2 || len(username) > 30 {
			return echo.NewHTTPError(http.StatusBadRequest, "Username must be 2-30 characters")
		}
		if _, err := h.userRepository.GetUserByUsername(username); err == nil {
			return echo.NewHTTPError(http.StatusConflict, "Username already taken")
		}
		user.Username = username
	}

	if file, err := c.FormFile("profilePic"); err == nil {
		ref, err := saveImageUpload(c, h.storage, file, "profiles")
		if err != nil {
			return err
		}
		if user.ProfilePic != "" {
			// Best effort; the new picture reference is already committed.
			h.storage.Delete(c.Request().Context(), user.ProfilePic)
		}
		user.ProfilePic = ref
	}

	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, user)
}

// enrichAuthors resolves author IDs to compact profiles, caching lookups per
// request.
func enrichAuthors(userRepo repositories.UserRepository, ids []uint) map[uint]models.UserCompact {
	authors := make(map[uint]models.UserCompact, len(ids))
	for _, id := range ids {
		if _, ok := authors[id]; ok {
			continue
		}
		if user, err := userRepo.GetUserByID(id); err == nil {
			authors[id] = user.ToCompact()
		}
	}
	return authors
}
