package terminology

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ayushbridge/bridge/internal/platform/fhir"
)

// Handler provides REST and FHIR endpoints for terminology search.
type Handler struct {
	svc *Service
}

// NewHandler creates a new terminology handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers terminology routes. The bare /terminology/search
// route is the contract consumed by the browser front end; the api group
// carries the query-parameter form.
func (h *Handler) RegisterRoutes(e *echo.Echo, api *echo.Group, fhirGroup *echo.Group) {
	e.POST("/terminology/search", h.Search)

	api.POST("/terminology/search", h.Search)
	api.GET("/terminology/search", h.SearchQuery)
	api.GET("/terminology/systems", h.ListSystems)

	fhirGroup.POST("/CodeSystem/$lookup", h.FHIRLookup)
	fhirGroup.POST("/CodeSystem/$validate-code", h.FHIRValidateCode)
	fhirGroup.GET("/ValueSet/$expand", h.ExpandValueSet)
	fhirGroup.POST("/ValueSet/$expand", h.ExpandValueSet)
}

// searchResult is the wire form of a concept in search responses.
type searchResult struct {
	System     string `json:"system"`
	Code       string `json:"code"`
	Display    string `json:"display"`
	Definition string `json:"definition"`
}

func toSearchResults(concepts []*Concept) []searchResult {
	results := make([]searchResult, 0, len(concepts))
	for _, c := range concepts {
		results = append(results, searchResult{
			System:     c.System,
			Code:       c.Code,
			Display:    c.Display,
			Definition: c.Definition,
		})
	}
	return results
}

// Search handles POST /terminology/search with a JSON body.
func (h *Handler) Search(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	concepts, err := h.svc.Search(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrUnknownSystem) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	return c.JSON(http.StatusOK, toSearchResults(concepts))
}

// SearchQuery handles GET /api/v1/terminology/search?q=...&system=...
func (h *Handler) SearchQuery(c echo.Context) error {
	req := SearchRequest{Query: c.QueryParam("q")}
	if systems := c.QueryParam("system"); systems != "" {
		req.Systems = strings.Split(systems, ",")
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil {
		req.Limit = limit
	}

	concepts, err := h.svc.Search(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrUnknownSystem) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	return c.JSON(http.StatusOK, toSearchResults(concepts))
}

// ListSystems handles GET /api/v1/terminology/systems.
func (h *Handler) ListSystems(c echo.Context) error {
	type system struct {
		ID  string `json:"id"`
		URI string `json:"uri"`
	}
	var systems []system
	for _, id := range AllSystems() {
		systems = append(systems, system{ID: id, URI: SystemURI(id)})
	}
	return c.JSON(http.StatusOK, systems)
}

// FHIRLookup handles POST /fhir/CodeSystem/$lookup.
func (h *Handler) FHIRLookup(c echo.Context) error {
	var req LookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	resp, err := h.svc.Lookup(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, ErrUnknownSystem) {
			return c.JSON(http.StatusBadRequest, fhir.ValidationOutcome(err.Error()))
		}
		return c.JSON(http.StatusNotFound, fhir.NotFoundOutcome(err.Error()))
	}
	return c.JSON(http.StatusOK, resp)
}

// FHIRValidateCode handles POST /fhir/CodeSystem/$validate-code.
func (h *Handler) FHIRValidateCode(c echo.Context) error {
	var req ValidateCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	resp, err := h.svc.ValidateCode(c.Request().Context(), &req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	return c.JSON(http.StatusOK, resp)
}

// ExpandValueSet handles GET/POST /fhir/ValueSet/$expand. The url parameter
// selects the code system by canonical URI; filter narrows the expansion.
func (h *Handler) ExpandValueSet(c echo.Context) error {
	url := c.QueryParam("url")
	filter := c.QueryParam("filter")

	count := 100
	if v, err := strconv.Atoi(c.QueryParam("count")); err == nil && v > 0 {
		count = v
	}
	offset := 0
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}

	system := SystemForURI(url)
	if system == "" {
		return c.JSON(http.StatusBadRequest, fhir.ValidationOutcome("unsupported value set url: "+url))
	}

	concepts, err := h.svc.Expand(c.Request().Context(), system, filter, count, offset)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrUnknownSystem) {
			return c.JSON(http.StatusBadRequest, fhir.ValidationOutcome(err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, fhir.ErrorOutcome(err.Error()))
	}

	contains := []map[string]interface{}{}
	for _, concept := range concepts {
		contains = append(contains, map[string]interface{}{
			"system":  SystemURI(concept.System),
			"code":    concept.Code,
			"display": concept.Display,
		})
	}

	result := map[string]interface{}{
		"resourceType": "ValueSet",
		"url":          url,
		"expansion": map[string]interface{}{
			"identifier": uuid.New().String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"total":      len(contains),
			"offset":     offset,
			"contains":   contains,
		},
	}
	return c.JSON(http.StatusOK, result)
}
