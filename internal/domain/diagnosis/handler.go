package diagnosis

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler provides HTTP endpoints for recording and reading diagnoses.
type Handler struct {
	svc *Service
}

// NewHandler creates a new diagnosis handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers diagnosis routes. The bare /record-diagnosis
// endpoint is kept alongside the versioned API for compatibility with
// existing clients.
func (h *Handler) RegisterRoutes(e *echo.Echo, api *echo.Group) {
	e.POST("/record-diagnosis", h.Record)

	api.POST("/diagnoses", h.Record)
	api.GET("/diagnoses/:id", h.Get)
	api.GET("/patients/:id/diagnoses", h.ListByPatient)
	api.POST("/diagnostic-reports", h.CreateReport)
}

// Record handles POST /record-diagnosis.
func (h *Handler) Record(c echo.Context) error {
	var in RecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rec, err := h.svc.Record(c.Request().Context(), &in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"diagnosis": rec,
		"condition": rec.ToFHIR(),
	})
}

// Get handles GET /api/v1/diagnoses/:id.
func (h *Handler) Get(c echo.Context) error {
	rec, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "diagnosis not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

// ListByPatient handles GET /api/v1/patients/:id/diagnoses.
func (h *Handler) ListByPatient(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	recs, err := h.svc.ListByPatient(c.Request().Context(), c.Param("id"), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if recs == nil {
		recs = []*Record{}
	}
	return c.JSON(http.StatusOK, recs)
}

// CreateReport handles POST /api/v1/diagnostic-reports.
func (h *Handler) CreateReport(c echo.Context) error {
	var in ReportInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	report, err := h.svc.BuildReport(c.Request().Context(), &in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, report)
}
