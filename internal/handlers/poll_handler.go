package handlers

import (
	"net/http"
	"time"

	"github.com/campuslink-app/backend/internal/models"
	"github.com/campuslink-app/backend/internal/notify"
	"github.com/campuslink-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PollHandler handles HTTP requests related to polls
type PollHandler struct {
	pollRepository         repositories.PollRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	fanOut                 *notify.Engine
}

// NewPollHandler creates a new PollHandler
func NewPollHandler(
	pollRepo repositories.PollRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	fanOut *notify.Engine,
) *PollHandler {
	return &PollHandler{
		pollRepository:         pollRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		fanOut:                 fanOut,
	}
}

// RegisterPollRoutes registers poll-related routes
func (h *PollHandler) RegisterPollRoutes(g *echo.Group) {
	g.GET("/polls", h.GetPolls)
	g.POST("/polls", h.CreatePoll)
	g.GET("/polls/:id", h.GetPoll)
	g.POST("/polls/:id/vote", h.CastVote)
	g.DELETE("/polls/:id", h.DeletePoll)
	g.PATCH("/polls/:id/timer", h.UpdateTimer)
}

// EnrichedPoll is a poll view with its author's compact profile
type EnrichedPoll struct {
	models.PollView
	Author models.UserCompact `json:"author"`
}

func (h *PollHandler) enrichPolls(polls []models.Poll, viewerID uint) []EnrichedPoll {
	ids := make([]uint, len(polls))
	for i, p := range polls {
		ids[i] = p.AuthorID
	}
	authors := enrichAuthors(h.userRepository, ids)

	enriched := make([]EnrichedPoll, len(polls))
	for i, p := range polls {
		enriched[i] = EnrichedPoll{PollView: p.View(viewerID), Author: authors[p.AuthorID]}
	}
	return enriched
}

// CreatePoll creates a poll with at least two distinct options and
// dispatches notification fan-out
func (h *PollHandler) CreatePoll(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreatePollRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	seen := make(map[string]bool, len(req.Options))
	for _, text := range req.Options {
		if seen[text] {
			return echo.NewHTTPError(http.StatusBadRequest, "Poll options must be distinct")
		}
		seen[text] = true
	}

	timer := models.DisabledTimer()
	if req.Timer != nil {
		var err error
		if timer, err = timerFromConfig(*req.Timer); err != nil {
			return err
		}
	}

	author, err := h.userRepository.GetUserByID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Authenticated user not found in database")
	}

	options := make([]models.PollOption, len(req.Options))
	for i, text := range req.Options {
		options[i] = models.PollOption{Text: text}
	}

	poll := &models.Poll{
		AuthorID: currentUserID,
		Question: req.Question,
		Options:  options,
		Timer:    timer,
	}

	if err := h.pollRepository.CreatePoll(c.Request().Context(), poll); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.fanOut.Dispatch(poll.ID.Hex(), models.ContentTypePoll, author.Role == models.RoleFaculty)

	return c.JSON(http.StatusCreated, EnrichedPoll{PollView: poll.View(currentUserID), Author: author.ToCompact()})
}

// GetPolls returns all currently visible polls, newest first
func (h *PollHandler) GetPolls(c echo.Context) error {
	polls, err := h.pollRepository.GetVisiblePolls(c.Request().Context(), time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.enrichPolls(polls, getUserIDFromContext(c)))
}

// GetPoll retrieves a poll by ID
func (h *PollHandler) GetPoll(c echo.Context) error {
	poll, err := h.pollRepository.GetPollByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Poll not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.enrichPolls([]models.Poll{*poll}, getUserIDFromContext(c))[0])
}

// CastVote records a vote. Preconditions are checked in order: the poll
// exists, is still visible, the option index is in bounds, and the caller
// has not voted yet. The final membership check is enforced again inside the
// repository's conditional update, so a racing duplicate from the same user
// resolves to exactly one recorded vote.
func (h *PollHandler) CastVote(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	pollID := c.Param("id")

	var req models.CastVoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	optionIndex := *req.OptionIndex

	poll, err := h.pollRepository.GetPollByID(c.Request().Context(), pollID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Poll not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !poll.Visible(time.Now()) {
		return echo.NewHTTPError(http.StatusBadRequest, "Poll is closed")
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid option")
	}
	if poll.HasVoted(currentUserID) {
		return echo.NewHTTPError(http.StatusBadRequest, "You have already voted on this poll")
	}

	voted, err := h.pollRepository.CastVote(c.Request().Context(), pollID, optionIndex, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !voted {
		// Either a racing duplicate from the same user won, or the poll was
		// deleted between the precondition fetch and the update.
		if _, err := h.pollRepository.GetPollByID(c.Request().Context(), pollID); err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Poll not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "You have already voted on this poll")
	}

	poll, err = h.pollRepository.GetPollByID(c.Request().Context(), pollID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, h.enrichPolls([]models.Poll{*poll}, currentUserID)[0])
}

// DeletePoll deletes a poll and cascades to its notification rows.
// Owner-only.
func (h *PollHandler) DeletePoll(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	pollID := c.Param("id")

	poll, err := h.pollRepository.GetPollByID(c.Request().Context(), pollID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Poll not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if poll.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this poll")
	}

	if err := h.pollRepository.DeletePoll(c.Request().Context(), pollID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.notificationRepository.DeleteByContent(models.ContentTypePoll, pollID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Poll removed"})
}

// UpdateTimer toggles the poll's expiry timer. Owner-only.
func (h *PollHandler) UpdateTimer(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	pollID := c.Param("id")

	var req models.UpdateTimerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	poll, err := h.pollRepository.GetPollByID(c.Request().Context(), pollID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Poll not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if poll.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized")
	}

	timer, err := timerFromConfig(req.Timer)
	if err != nil {
		return err
	}

	if err := h.pollRepository.SetTimer(c.Request().Context(), pollID, timer); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	poll.Timer = timer
	return c.JSON(http.StatusOK, h.enrichPolls([]models.Poll{*poll}, currentUserID)[0])
}
