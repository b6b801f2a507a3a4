package api

import (
	"errors"

	"Kronos/internal/domain/models"
	"Kronos/internal/usecase"
	xhttp "Kronos/pkg/http"
	applogger "Kronos/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ForecastEchoHandler exposes the forecast pipeline over HTTP. The dashboard
// consumes exactly these endpoints; everything else it renders client-side.
type ForecastEchoHandler struct {
	logger  *applogger.Logger
	predict *usecase.PredictUseCase
	data    *usecase.DataUseCase
}

func NewForecastEchoHandler(logger *applogger.Logger, predict *usecase.PredictUseCase, data *usecase.DataUseCase) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, predict: predict, data: data}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	g := e.Group("/api")
	g.POST("/predict", h.Predict)
	g.POST("/refresh/:code", h.Refresh)
	g.GET("/symbols", h.Symbols)
	g.GET("/history/:code", h.History)
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "healthy"})
}

func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.predict.Predict(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("predict usecase error",
			applogger.String("symbol", req.StockCode), applogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Refresh(c echo.Context) error {
	code := c.Param("code")
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.data.Refresh(c.Request().Context(), code, req.Period)
	if err != nil {
		h.logger.Error("refresh usecase error",
			applogger.String("symbol", code), applogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Symbols(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbols": h.data.Symbols(c.Request().Context()),
	})
}

func (h *ForecastEchoHandler) History(c echo.Context) error {
	code := c.Param("code")
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 20)

	records, err := h.data.History(c.Request().Context(), code, limit)
	if err != nil {
		h.logger.Error("history usecase error",
			applogger.String("symbol", code), applogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":  code,
		"records": records,
	})
}

// mapDomainError translates pipeline errors into HTTP error envelopes.
func mapDomainError(err error) error {
	var unavailable *models.DataUnavailableError
	switch {
	case errors.Is(err, models.ErrInvalidSymbol):
		return xhttp.BadRequestErrorf("unrecognized ticker: %v", err).WithError(err)
	case errors.As(err, &unavailable):
		return xhttp.NotFoundErrorf("no data for %s", unavailable.Symbol).
			WithParam("available_symbols", unavailable.Available).
			WithError(err)
	case errors.Is(err, models.ErrDataUnavailable):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrModelCallFailed):
		return xhttp.BadGatewayError("forecasting model unavailable").WithError(err)
	default:
		return err
	}
}
