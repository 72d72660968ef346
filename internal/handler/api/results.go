package api

import (
	"errors"
	"sort"

	models "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/models"
	domrepo "github.com/Dvipg/e-commerce-demand-forecasting/internal/domain/repository"
	"github.com/Dvipg/e-commerce-demand-forecasting/internal/usecase"
	xhttp "github.com/Dvipg/e-commerce-demand-forecasting/pkg/http"
	xlogger "github.com/Dvipg/e-commerce-demand-forecasting/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ResultsHandler exposes the batch pipeline over HTTP.
type ResultsHandler struct {
	logger *xlogger.Logger
	runner *usecase.BatchRunner
	store  domrepo.ResultStore
}

func NewResultsHandler(logger *xlogger.Logger, runner *usecase.BatchRunner, store domrepo.ResultStore) *ResultsHandler {
	return &ResultsHandler{logger: logger, runner: runner, store: store}
}

func (h *ResultsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.POST("/batch/run", h.RunBatch)
	g.GET("/batch/report", h.Report)
	g.GET("/series", h.Series)
	g.GET("/series/:id/result", h.SeriesResult)
	g.GET("/series/:id/anomalies", h.SeriesAnomalies)
}

// RunBatch executes a batch synchronously and returns the report.
func (h *ResultsHandler) RunBatch(c echo.Context) error {
	req := &models.RunBatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.runner.RunBatch(c.Request().Context(), req.Keys)
	if err != nil {
		if errors.Is(err, usecase.ErrRunInProgress) {
			return xhttp.AppErrorResponse(c, xhttp.ConflictError("a batch run is already in progress"))
		}
		h.logger.Error("batch run failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("batch run: %v", err).WithError(err))
	}
	return xhttp.SuccessResponse(c, report)
}

// Report returns the report of the most recent completed run.
func (h *ResultsHandler) Report(c echo.Context) error {
	report, err := h.runner.LastReport()
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no batch has completed yet"))
	}
	return xhttp.SuccessResponse(c, report)
}

// Series lists every series ID present in the result store.
func (h *ResultsHandler) Series(c echo.Context) error {
	ids, err := h.store.Keys(c.Request().Context())
	if err != nil {
		h.logger.Error("list series failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, ids, int64(len(ids)))
}

// SeriesResult returns the stored pipeline output for one series.
func (h *ResultsHandler) SeriesResult(c echo.Context) error {
	id := models.SeriesID(c.Param("id"))
	if _, err := models.ParseSeriesID(id); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid series id %q", id))
	}

	res, err := h.runner.GetSeriesResult(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("series %q has no stored result", id))
		}
		h.logger.Error("get series result failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// SeriesAnomalies returns the top flagged anomalies of one series, highest
// score first.
func (h *ResultsHandler) SeriesAnomalies(c echo.Context) error {
	id := models.SeriesID(c.Param("id"))
	if _, err := models.ParseSeriesID(id); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid series id %q", id))
	}
	req := &models.AnomalyQueryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.runner.GetSeriesResult(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("series %q has no stored result", id))
		}
		h.logger.Error("get series anomalies failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	flagged := make([]models.AnomalyRecord, 0, len(res.Anomalies))
	for _, a := range res.Anomalies {
		if a.Flagged {
			flagged = append(flagged, a)
		}
	}
	sort.Slice(flagged, func(i, j int) bool { return flagged[i].Score > flagged[j].Score })
	if len(flagged) > req.Top {
		flagged = flagged[:req.Top]
	}
	return xhttp.ListResponse(c, flagged, int64(len(flagged)))
}

// Health reports result-store liveness.
func (h *ResultsHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalErrorf("store unhealthy: %v", err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
