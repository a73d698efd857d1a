package httpapi

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/weather-forecast/internal/forecast"
)

var validate = validator.New()

// RunIDHeader carries the id a forecast run was logged under.
const RunIDHeader = "X-Forecast-Run-Id"

// Forecaster produces rolling forecasts for a station.
type Forecaster interface {
	Forecast(ctx context.Context, stationID string, horizon int) ([]forecast.ForecastPoint, error)
}

// StationLister exposes the station registry.
type StationLister interface {
	forecast.StationResolver
	All() []forecast.Station
}

// Limits bounds the forecast horizon accepted over HTTP.
type Limits struct {
	DefaultHours int
	MaxHours     int
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, forecaster Forecaster, stations StationLister, limits Limits) {
	v1 := app.Group("/api/v1")

	v1.Get("/stations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"stations": stations.All(),
		})
	})

	v1.Get("/stations/:id", func(c *fiber.Ctx) error {
		st, err := stations.Lookup(c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(st)
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := req.bind(c, limits); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Hours > limits.MaxHours {
			return fiber.NewError(fiber.StatusBadRequest, "hours must be at most "+strconv.Itoa(limits.MaxHours))
		}

		st, err := stations.Lookup(req.StationID)
		if err != nil {
			return mapError(err)
		}

		runID := uuid.NewString()
		c.Set(RunIDHeader, runID)

		points, err := forecaster.Forecast(forecast.WithRunID(c.UserContext(), runID), req.StationID, req.Hours)
		if err != nil {
			log.Printf("ERROR: forecast %s for station %s failed: %v", runID, req.StationID, err)
			return mapError(err)
		}

		return c.JSON(fiber.Map{
			"run_id":   runID,
			"station":  st,
			"hours":    req.Hours,
			"forecast": points,
		})
	})
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	StationID string `validate:"required"`
	Hours     int    `validate:"gte=0"`
}

func (q *forecastQuery) bind(c *fiber.Ctx, limits Limits) error {
	q.StationID = c.Query("station_id")
	q.Hours = limits.DefaultHours

	if raw := c.Query("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.New("hours must be an integer")
		}
		q.Hours = n
	}

	return validate.Struct(q)
}

// mapError translates forecasting failures into HTTP errors.
func mapError(err error) error {
	var (
		unknown      *forecast.UnknownStationError
		insufficient *forecast.InsufficientHistoryError
		inference    *forecast.ModelInferenceError
	)
	switch {
	case errors.As(err, &unknown):
		return fiber.NewError(fiber.StatusNotFound, unknown.Error())
	case errors.Is(err, forecast.ErrInvalidHorizon):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.As(err, &insufficient):
		return fiber.NewError(fiber.StatusBadGateway, insufficient.Error())
	case errors.As(err, &inference):
		return fiber.NewError(fiber.StatusInternalServerError, "model inference failed")
	default:
		return fiber.NewError(fiber.StatusBadGateway, "failed to load station history")
	}
}
