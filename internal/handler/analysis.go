package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/excellense/internal/middleware"
	"github.com/iliyamo/excellense/internal/service"
)

// AnalysisHandler serves /chart-analysis.
type AnalysisHandler struct {
	Analyses *service.AnalysisService
	Logger   *zap.Logger
}

func NewAnalysisHandler(analyses *service.AnalysisService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{Analyses: analyses, Logger: logger}
}

// Create saves a chart analysis.  The client auto-saves after every
// settled edit, so repeated identical saves are expected.
func (h *AnalysisHandler) Create(c echo.Context) error {
	var req service.AnalysisInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	me, _ := middleware.CurrentUser(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	a, err := h.Analyses.Save(ctx, me, req)
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to save chart analysis")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Chart analysis saved successfully", "id": a.ID})
}

// ListByUser returns the analyses of :email, newest first.  With
// ?unique=true only the latest analysis of each chart is returned.
func (h *AnalysisHandler) ListByUser(c echo.Context) error {
	me, _ := middleware.CurrentUser(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Analyses.ListByUser(ctx, me, c.Param("email"))
	if err != nil {
		return respondError(c, h.Logger, err, "Failed to fetch analysis history")
	}
	if unique, _ := strconv.ParseBool(c.QueryParam("unique")); unique {
		list = service.Deduplicate(list)
	}
	return c.JSON(http.StatusOK, list)
}

// Delete removes one analysis.
func (h *AnalysisHandler) Delete(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Analysis not found"})
	}
	me, _ := middleware.CurrentUser(c)
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Analyses.Delete(ctx, me, id); err != nil {
		return respondError(c, h.Logger, err, "Failed to delete analysis")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Deleted successfully"})
}
