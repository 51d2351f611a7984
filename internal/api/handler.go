package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"spot-attendance-backend/internal/notification"
	"spot-attendance-backend/internal/schedule"
	"spot-attendance-backend/internal/seat"
	"spot-attendance-backend/internal/store"
)

// SeatPlanLoader produces a section's seat plan.
type SeatPlanLoader interface {
	Load(ctx context.Context, req seat.LoadRequest) seat.Result
}

// Notifier queues seat change notices.
type Notifier interface {
	Dispatch(event notification.SeatEvent)
}

// SeatDefaults is the grid shape given to sections created without one.
type SeatDefaults struct {
	Rows    int
	Columns int
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	loader   SeatPlanLoader
	matcher  *schedule.Matcher
	notifier Notifier
	webpush  *webpush.Options
	defaults SeatDefaults
	cache    *cache.Cache
}

// NewHandler creates a new API handler. notifier may be nil.
func NewHandler(s store.Store, loader SeatPlanLoader, matcher *schedule.Matcher, notifier Notifier, webpushOptions *webpush.Options, defaults SeatDefaults) *Handler {
	return &Handler{
		store:    s,
		loader:   loader,
		matcher:  matcher,
		notifier: notifier,
		webpush:  webpushOptions,
		defaults: defaults,
	}
}

func sectionIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("section_id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid section ID"})
		return 0, false
	}
	return id, true
}

// abortWithStoreError maps store failures onto HTTP responses.
func abortWithStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "section not found"})
	case errors.Is(err, store.ErrNotEnrolled):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not enrolled"})
	case errors.Is(err, store.ErrNotSectionTeacher):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not the teacher of this section"})
	case errors.Is(err, store.ErrSeatTaken):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "seat is already taken"})
	case errors.Is(err, store.ErrOutOfGrid):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "seat is outside the section grid"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// requireEnrollment aborts the request unless studentID is enrolled in the section.
func (h *Handler) requireEnrollment(c *gin.Context, sectionID, studentID int64) bool {
	enrolled, err := h.store.IsEnrolled(c.Request.Context(), sectionID, studentID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not verify enrollment"})
		return false
	}
	if !enrolled {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not enrolled"})
		return false
	}
	return true
}
