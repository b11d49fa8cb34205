package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/peixeiro/internal/domain/models"
	"github.com/mamadbah2/peixeiro/internal/service/export"
	"github.com/mamadbah2/peixeiro/internal/service/sharing"
	"github.com/mamadbah2/peixeiro/internal/service/simulation"
	"github.com/mamadbah2/peixeiro/internal/validation"
	"github.com/mamadbah2/peixeiro/pkg/metrics"
)

// UserIDHeader carries the caller identity set by the upstream auth gateway.
const UserIDHeader = "X-User-ID"

const userIDKey = "userID"

// SimulationHandler exposes the feeding engine and saved simulations over HTTP.
type SimulationHandler struct {
	svc       *simulation.Service
	exporter  *export.Service
	sharer    sharing.MessagingService
	validator *validation.Validator
	metrics   *metrics.Collector
	logger    *zap.Logger
	started   time.Time
}

// NewSimulationHandler constructs the HTTP handler adapter. exporter and sharer
// may be nil when the matching integration is not configured.
func NewSimulationHandler(
	svc *simulation.Service,
	exporter *export.Service,
	sharer sharing.MessagingService,
	collector *metrics.Collector,
	logger *zap.Logger,
) *SimulationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulationHandler{
		svc:       svc,
		exporter:  exporter,
		sharer:    sharer,
		validator: validation.New(),
		metrics:   collector,
		logger:    logger,
		started:   time.Now(),
	}
}

// RequireUser rejects requests without a caller identity.
func (h *SimulationHandler) RequireUser(c *gin.Context) {
	userID := c.GetHeader(UserIDHeader)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

// Calculate runs the engine on the posted input without storing anything.
func (h *SimulationHandler) Calculate(c *gin.Context) {
	var req models.CalculateRequest
	bindErr := bindJSON(c, &req)
	input, err := h.validator.Decoded(req.Input, bindErr)
	if err != nil {
		h.respondInputError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.Calculate(input))
}

// Save validates and stores a named simulation for the caller.
func (h *SimulationHandler) Save(c *gin.Context) {
	var req models.SaveSimulationRequest
	bindErr := bindJSON(c, &req)
	input, err := h.validator.Decoded(req.Input, bindErr)
	if err != nil {
		h.respondInputError(c, err)
		return
	}

	sim, err := h.svc.Save(c.Request.Context(), c.GetString(userIDKey), req.Name, input)
	if err != nil {
		if errors.Is(err, simulation.ErrInvalidArguments) {
			c.JSON(http.StatusBadRequest, gin.H{
				"message": "Invalid input",
				"errors":  []models.FieldError{{Field: "name", Message: "Nome é obrigatório"}},
			})
			return
		}
		h.logger.Error("failed saving simulation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to save simulation"})
		return
	}

	c.JSON(http.StatusCreated, sim)
}

// List returns the caller's saved simulations, newest first.
func (h *SimulationHandler) List(c *gin.Context) {
	userID := c.GetString(userIDKey)
	if c.Param("userId") != userID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	sims, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed listing simulations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to list simulations"})
		return
	}
	if sims == nil {
		sims = []models.Simulation{}
	}

	c.JSON(http.StatusOK, sims)
}

// Delete removes one of the caller's simulations.
func (h *SimulationHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportCSV streams the weekly projections of a saved simulation as CSV.
func (h *SimulationHandler) ExportCSV(c *gin.Context) {
	userID := c.GetString(userIDKey)
	if c.Param("userId") != userID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return
	}

	sim, err := h.svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+sim.ID+`-projections.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := export.WriteProjectionsCSV(c.Writer, sim.Output.Projections); err != nil {
		h.logger.Error("failed writing projections csv", zap.String("id", sim.ID), zap.Error(err))
	}
}

// ExportSheets appends a saved simulation's projections to Google Sheets.
func (h *SimulationHandler) ExportSheets(c *gin.Context) {
	if !h.exporter.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Google Sheets export is not configured"})
		return
	}

	sim, err := h.svc.Get(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	rows, err := h.exporter.ExportToSheets(c.Request.Context(), sim)
	if err != nil {
		h.logger.Error("failed exporting to sheets", zap.String("id", sim.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Unable to export simulation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// Share sends a saved simulation summary over WhatsApp.
func (h *SimulationHandler) Share(c *gin.Context) {
	if h.sharer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "WhatsApp sharing is not configured"})
		return
	}

	var req models.ShareSimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	sim, err := h.svc.Get(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	switch err := h.sharer.ShareSimulation(c.Request.Context(), req.To, sim); {
	case err == nil:
		c.Status(http.StatusAccepted)
	case errors.Is(err, sharing.ErrSharingDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "WhatsApp sharing is not configured"})
	case errors.Is(err, sharing.ErrInvalidRecipient):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid input",
			"errors":  []models.FieldError{{Field: "to", Message: "Número de telefone inválido"}},
		})
	default:
		h.logger.Error("failed sharing simulation", zap.String("id", sim.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"message": "Unable to send message"})
	}
}

// Engine reports the running engine version and table fingerprint.
func (h *SimulationHandler) Engine(c *gin.Context) {
	info := simulation.EngineInfo(h.started)
	c.JSON(http.StatusOK, gin.H{
		"version":   info.Version,
		"logicHash": info.LogicHash,
		"status":    info.Status,
	})
}

// Health is the liveness probe.
func (h *SimulationHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Seconds(),
	})
}

// bindJSON decodes the request body into obj. An empty body is not an error.
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *SimulationHandler) respondInputError(c *gin.Context, err error) {
	if errors.Is(err, validation.ErrMissingInput) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing input payload"})
		return
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			h.metrics.RecordValidationFailure(fe.Field)
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input", "errors": fieldErrs})
		return
	}

	h.logger.Warn("invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
}

func (h *SimulationHandler) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, models.ErrSimulationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Simulation not found"})
		return
	}
	h.logger.Error("simulation lookup failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}
