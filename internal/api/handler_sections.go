package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spot-attendance-backend/internal/model"
	"spot-attendance-backend/internal/schedule"
	"spot-attendance-backend/internal/store"
)

type putSectionRequest struct {
	CourseCode   string           `json:"course_code" binding:"required"`
	CourseName   string           `json:"course_name"`
	Name         string           `json:"name" binding:"required"`
	TeacherID    *int64           `json:"teacher_id"`
	ScheduleText string           `json:"schedule_text"`
	SeatRows     int              `json:"seat_rows" binding:"omitempty,min=1,max=26"`
	SeatColumns  int              `json:"seat_columns" binding:"omitempty,min=1,max=26"`
	Schedules    []schedule.Entry `json:"schedules"`
}

// PutSection creates or replaces a section and its weekly schedule.
func (h *Handler) PutSection(c *gin.Context) {
	sectionID, ok := sectionIDParam(c)
	if !ok {
		return
	}

	var req putSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	windows := make([]schedule.Window, 0, len(req.Schedules))
	for i, entry := range req.Schedules {
		w, err := entry.Resolve()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("schedules[%d]: %v", i, err)})
			return
		}
		windows = append(windows, w)
	}

	section := model.Section{
		ID:           sectionID,
		CourseCode:   req.CourseCode,
		CourseName:   req.CourseName,
		Name:         req.Name,
		TeacherID:    req.TeacherID,
		ScheduleText: req.ScheduleText,
		SeatRows:     req.SeatRows,
		SeatColumns:  req.SeatColumns,
	}
	if section.SeatRows == 0 {
		section.SeatRows = h.defaults.Rows
	}
	if section.SeatColumns == 0 {
		section.SeatColumns = h.defaults.Columns
	}
	if section.ScheduleText == "" {
		section.ScheduleText = schedule.FormatLegacy(windows)
	}
	for _, w := range windows {
		section.Schedules = append(section.Schedules, model.ClassSchedule{
			DayOfWeek:    int(w.Day),
			TimeStart:    w.Start.String(),
			TimeEnd:      w.End.String(),
			Room:         w.Room,
			ScheduleType: w.Kind,
		})
	}

	if err := h.store.UpsertSection(c.Request.Context(), &section); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.cache != nil {
		h.cache.Delete(scheduleCacheKey(sectionID))
	}

	c.JSON(http.StatusOK, gin.H{
		"section_id":   section.ID,
		"schedule":     section.ScheduleText,
		"entries":      len(section.Schedules),
		"seat_rows":    section.SeatRows,
		"seat_columns": section.SeatColumns,
	})
}

// PutEnrollment enrolls a student in a section.
func (h *Handler) PutEnrollment(c *gin.Context) {
	sectionID, ok := sectionIDParam(c)
	if !ok {
		return
	}
	studentID, err := strconv.ParseInt(c.Param("student_id"), 10, 64)
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
		return
	}

	if _, err := h.store.GetSection(c.Request.Context(), sectionID); err != nil {
		abortWithStoreError(c, err)
		return
	}
	if err := h.store.Enroll(c.Request.Context(), sectionID, studentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

type scheduleEntryResponse struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
	Room  string `json:"room"`
	Kind  string `json:"kind"`
}

type scheduleResponse struct {
	SectionID  int64                   `json:"section_id"`
	CourseCode string                  `json:"course_code"`
	Name       string                  `json:"name"`
	Schedule   string                  `json:"schedule"`
	Entries    []scheduleEntryResponse `json:"entries"`
}

func scheduleCacheKey(sectionID int64) string {
	return fmt.Sprintf("schedule:%d", sectionID)
}

// scheduleKey normalizes the section id so every spelling of a section's
// schedule URL shares one cache entry that PutSection can invalidate.
func scheduleKey(c *gin.Context) (string, bool) {
	id, err := strconv.ParseInt(c.Param("section_id"), 10, 64)
	if err != nil || id <= 0 {
		return "", false
	}
	return scheduleCacheKey(id), true
}

// GetSchedule handles the GET /api/sections/{section_id}/schedule request.
func (h *Handler) GetSchedule(c *gin.Context) {
	sectionID, ok := sectionIDParam(c)
	if !ok {
		return
	}

	section, err := h.store.GetSection(c.Request.Context(), sectionID)
	if err != nil {
		abortWithStoreError(c, err)
		return
	}

	windows := schedule.ResolveAll(store.ScheduleOf(section).Entries)
	resp := scheduleResponse{
		SectionID:  section.ID,
		CourseCode: section.CourseCode,
		Name:       section.Name,
		Schedule:   section.ScheduleText,
		Entries:    make([]scheduleEntryResponse, 0, len(windows)),
	}
	if len(windows) > 0 {
		resp.Schedule = schedule.FormatLegacy(windows)
	}
	for _, w := range windows {
		resp.Entries = append(resp.Entries, scheduleEntryResponse{
			Day:   w.Day.String(),
			Start: w.Start.String(),
			End:   w.End.String(),
			Room:  w.Room,
			Kind:  w.Kind,
		})
	}

	c.JSON(http.StatusOK, resp)
}
