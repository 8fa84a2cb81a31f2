package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"schoolmanager-server-go/db"
	"schoolmanager-server-go/division"
	"schoolmanager-server-go/metrics"
	"schoolmanager-server-go/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StateStore is the storage the handlers read from and write to.
type StateStore interface {
	GetState(ctx context.Context) (models.State, error)
	ApplyAssignments(ctx context.Context, request models.Request) (division.Result, error)
	ImportPupilsFromExcel(ctx context.Context, file io.Reader) (int, error)
	GetAllClasses(ctx context.Context) ([]models.Class, error)
	GetClassByID(ctx context.Context, classID int) (*models.Class, error)
	GetPupilsByClassID(ctx context.Context, classID int) ([]models.Pupil, error)
	AddClass(ctx context.Context, class models.Class) (models.Class, error)
}

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Store   StateStore
	Metrics *metrics.Collector
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(store StateStore, collector *metrics.Collector) *APIHandler {
	return &APIHandler{
		Store:   store,
		Metrics: collector,
	}
}

// RegisterRoutes mounts the API under /api.
func (h *APIHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	{
		// State routes
		api.GET("/state", h.GetState)
		api.PATCH("/state", h.UpdateState)
		api.POST("/state/preview", h.PreviewState)
		api.GET("/state/export", h.ExportState)

		// Class routes
		api.GET("/classes", h.GetAllClasses)
		api.GET("/classes/:classId", h.GetClassByID)
		api.POST("/classes", h.AddClass)
		api.GET("/classes/:classId/pupils", h.GetPupilsByClass)

		// Import route
		api.POST("/import/pupils", h.ImportPupils)

		api.GET("/ping", PingHandler)
	}
}

// --- State Handlers ---

// GetState handles GET /api/state
func (h *APIHandler) GetState(c *gin.Context) {
	state, err := h.Store.GetState(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve state"})
		return
	}

	c.JSON(http.StatusOK, state)
}

// UpdateState handles PATCH /api/state
func (h *APIHandler) UpdateState(c *gin.Context) {
	start := time.Now()

	var req models.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Metrics.ObserveRequest(metrics.OutcomeRejected, time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{"error": TranslateValidationError(err)})
		return
	}

	res, err := h.Store.ApplyAssignments(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, start)
		return
	}

	h.Metrics.ObserveRequest(metrics.OutcomeApplied, time.Since(start))
	h.Metrics.ObserveChanges(len(res.UpdatedPupils), len(res.UpdatedClasses))

	c.JSON(http.StatusOK, gin.H{
		"message":        "Pupils assigned successfully",
		"newState":       res.State,
		"updatedPupils":  res.UpdatedPupils,
		"updatedClasses": res.UpdatedClasses,
	})
}

// PreviewState handles POST /api/state/preview. It computes the same result as
// PATCH /api/state without storing it.
func (h *APIHandler) PreviewState(c *gin.Context) {
	start := time.Now()

	var req models.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Metrics.ObserveRequest(metrics.OutcomeRejected, time.Since(start))
		c.JSON(http.StatusBadRequest, gin.H{"error": TranslateValidationError(err)})
		return
	}

	state, err := h.Store.GetState(c.Request.Context())
	if err != nil {
		h.respondError(c, err, start)
		return
	}

	res, err := division.Reassign(state, req)
	if err != nil {
		h.respondError(c, err, start)
		return
	}

	h.Metrics.ObserveRequest(metrics.OutcomePreview, time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"message":        "Preview only, nothing was stored",
		"newState":       res.State,
		"updatedPupils":  res.UpdatedPupils,
		"updatedClasses": res.UpdatedClasses,
	})
}

// ExportState handles GET /api/state/export
func (h *APIHandler) ExportState(c *gin.Context) {
	state, err := h.Store.GetState(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load state for export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve state"})
		return
	}

	f, err := db.WriteStateWorkbook(state)
	if err != nil {
		log.Error().Err(err).Msg("failed to build workbook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export state"})
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="state.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		log.Error().Err(err).Msg("failed to write workbook")
	}
}

// --- Class Handlers ---

// GetAllClasses handles GET /api/classes
func (h *APIHandler) GetAllClasses(c *gin.Context) {
	classes, err := h.Store.GetAllClasses(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load classes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve classes"})
		return
	}
	if classes == nil {
		// Return empty list instead of null for JSON consistency
		c.JSON(http.StatusOK, []models.Class{})
		return
	}
	c.JSON(http.StatusOK, classes)
}

// GetClassByID handles GET /api/classes/:classId
func (h *APIHandler) GetClassByID(c *gin.Context) {
	classID, ok := classIDParam(c)
	if !ok {
		return
	}

	class, err := h.Store.GetClassByID(c.Request.Context(), classID)
	if err != nil {
		log.Error().Err(err).Int("class_id", classID).Msg("failed to load class")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve class details"})
		return
	}
	if class == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found", "code": "class_not_found"})
		return
	}

	c.JSON(http.StatusOK, class)
}

// AddClass handles POST /api/classes
func (h *APIHandler) AddClass(c *gin.Context) {
	var newClass models.Class
	if err := c.ShouldBindJSON(&newClass); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": TranslateValidationError(err)})
		return
	}

	added, err := h.Store.AddClass(c.Request.Context(), newClass)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, added)
	case errors.Is(err, division.ErrInvalidClass):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_class"})
	case errors.Is(err, division.ErrClassExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "class_exists"})
	case errors.Is(err, db.ErrStateConflict):
		log.Warn().Err(err).Msg("add class lost to concurrent writers")
		c.JSON(http.StatusConflict, gin.H{"error": "State changed concurrently, please retry", "code": "state_conflict"})
	default:
		log.Error().Err(err).Msg("failed to add class")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add class"})
	}
}

// GetPupilsByClass handles GET /api/classes/:classId/pupils. Pupils are
// ordered by follow-up number.
func (h *APIHandler) GetPupilsByClass(c *gin.Context) {
	classID, ok := classIDParam(c)
	if !ok {
		return
	}

	class, err := h.Store.GetClassByID(c.Request.Context(), classID)
	if err != nil {
		log.Error().Err(err).Int("class_id", classID).Msg("failed to verify class")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify class"})
		return
	}
	if class == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Class not found", "code": "class_not_found"})
		return
	}

	pupils, err := h.Store.GetPupilsByClassID(c.Request.Context(), classID)
	if err != nil {
		log.Error().Err(err).Int("class_id", classID).Msg("failed to load pupils for class")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve pupils for the class"})
		return
	}
	if pupils == nil {
		c.JSON(http.StatusOK, []models.Pupil{})
		return
	}

	c.JSON(http.StatusOK, pupils)
}

func classIDParam(c *gin.Context) (int, bool) {
	classID, err := strconv.Atoi(c.Param("classId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Class ID must be an integer"})
		return 0, false
	}

	return classID, true
}

// --- Import Handler ---

// ImportPupils handles POST /api/import/pupils
func (h *APIHandler) ImportPupils(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		log.Warn().Err(err).Msg("error getting form file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	log.Info().Str("file", header.Filename).Msg("received pupil import")

	importedCount, err := h.Store.ImportPupilsFromExcel(c.Request.Context(), file)
	if err != nil {
		log.Error().Err(err).Str("file", header.Filename).Msg("error importing pupils")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import pupils: " + err.Error()})
		return
	}
	h.Metrics.ObserveImport(importedCount)

	c.JSON(http.StatusOK, gin.H{
		"message":       "Import successful",
		"importedCount": importedCount,
	})
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}

// respondError maps processing and storage errors onto HTTP responses.
func (h *APIHandler) respondError(c *gin.Context, err error, start time.Time) {
	var ae *division.AssignmentError
	if errors.As(err, &ae) {
		h.Metrics.ObserveRequest(metrics.OutcomeRejected, time.Since(start))
		log.Info().Err(err).Int("pupil_id", ae.PupilID).Int("class_id", ae.ClassID).Msg("assignment request rejected")
		c.JSON(statusFor(ae.Kind), gin.H{"error": ae.Error(), "code": codeFor(ae.Kind)})
		return
	}

	h.Metrics.ObserveRequest(metrics.OutcomeFailed, time.Since(start))
	if errors.Is(err, db.ErrStateConflict) {
		log.Warn().Err(err).Msg("assignment request lost to concurrent writers")
		c.JSON(http.StatusConflict, gin.H{"error": "State changed concurrently, please retry", "code": "state_conflict"})
		return
	}

	log.Error().Err(err).Msg("assignment request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update state"})
}

func statusFor(kind error) int {
	switch kind {
	case division.ErrClassNotFound, division.ErrPupilNotFound:
		return http.StatusNotFound
	case division.ErrDuplicateAssignment:
		return http.StatusBadRequest
	case division.ErrIncompleteAssignment:
		return http.StatusUnprocessableEntity
	case division.ErrClassCapacityExceeded:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func codeFor(kind error) string {
	switch kind {
	case division.ErrClassNotFound:
		return "class_not_found"
	case division.ErrPupilNotFound:
		return "pupil_not_found"
	case division.ErrDuplicateAssignment:
		return "duplicate_assignment"
	case division.ErrIncompleteAssignment:
		return "incomplete_assignment"
	case division.ErrClassCapacityExceeded:
		return "class_capacity_exceeded"
	default:
		return "internal"
	}
}
