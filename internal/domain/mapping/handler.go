package mapping

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ayushbridge/bridge/internal/platform/fhir"
)

// Handler provides REST and FHIR endpoints for code mappings.
type Handler struct {
	svc *Service
}

// NewHandler creates a new mapping handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers mapping routes on the API and FHIR groups.
func (h *Handler) RegisterRoutes(api *echo.Group, fhirGroup *echo.Group) {
	api.GET("/mappings/:code", h.ListForCode)

	fhirGroup.POST("/ConceptMap/$translate", h.FHIRTranslate)
	fhirGroup.GET("/ConceptMap/$translate", h.FHIRTranslate)
}

// ListForCode handles GET /api/v1/mappings/:code.
func (h *Handler) ListForCode(c echo.Context) error {
	mappings, err := h.svc.ListForCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if mappings == nil {
		mappings = []*CodeMapping{}
	}
	return c.JSON(http.StatusOK, mappings)
}

// FHIRTranslate handles GET/POST /fhir/ConceptMap/$translate.
func (h *Handler) FHIRTranslate(c echo.Context) error {
	var req TranslateRequest
	if c.Request().Method == http.MethodGet {
		req.System = c.QueryParam("system")
		req.Code = c.QueryParam("code")
	} else if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}

	resp, err := h.svc.Translate(c.Request().Context(), &req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	return c.JSON(http.StatusOK, resp)
}
