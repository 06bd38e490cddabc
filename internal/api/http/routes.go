package httpapi

import (
	"bytes"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/atmoslab/upperair/internal/profile"
	"github.com/atmoslab/upperair/internal/sounding"
	"github.com/atmoslab/upperair/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *sounding.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/soundings/latest", func(c *fiber.Ctx) error {
		station, err := parseStationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snd, err := service.Latest(station)
		if err != nil {
			return mapServiceError(err)
		}
		return respondSounding(c, snd)
	})

	v1.Get("/soundings/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snds, err := service.Range(req.Station, req.From, req.To)
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(fiber.Map{
			"station":   req.Station,
			"from":      req.From,
			"to":        req.To,
			"soundings": snds,
		})
	})

	v1.Get("/soundings/resampled", func(c *fiber.Ctx) error {
		var req resampleQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snd, err := service.Resampled(req.Station, profile.Axis(req.Axis), req.Step)
		if err != nil {
			return mapServiceError(err)
		}
		return respondSounding(c, snd)
	})
}

// mapServiceError translates store and profile sentinel errors into HTTP
// status codes.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no sounding data for requested station")
	case errors.Is(err, profile.ErrInvalidResolution), errors.Is(err, profile.ErrInvalidAxis):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, profile.ErrInsufficientData):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch sounding data")
	}
}

// respondSounding writes the sounding as JSON, or as the delimited profile
// file when format=csv is requested.
func respondSounding(c *fiber.Ctx, snd sounding.Sounding) error {
	if c.Query("format") == "csv" {
		var buf bytes.Buffer
		if err := profile.WriteCSV(&buf, snd.Profile); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to encode profile")
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition,
			`attachment; filename="`+snd.Station.ID+"_"+snd.ObservedAt.Format("2006010215")+`.csv"`)
		return c.Send(buf.Bytes())
	}
	return c.JSON(snd)
}

func parseStationQuery(c *fiber.Ctx) (string, error) {
	q := struct {
		Station string `validate:"required"`
	}{Station: c.Query("station")}

	if err := validate.Struct(q); err != nil {
		return "", err
	}
	return q.Station, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Station string    `validate:"required"`
	From    time.Time `validate:"required"`
	To      time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	station, err := parseStationQuery(c)
	if err != nil {
		return err
	}
	h.Station = station

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// resampleQuery holds query parameters for the resampled-profile endpoint.
type resampleQuery struct {
	Station string  `validate:"required"`
	Axis    string  `validate:"required,oneof=pressure height"`
	Step    float64 `validate:"required,gt=0"`
}

func (r *resampleQuery) bind(c *fiber.Ctx) error {
	station, err := parseStationQuery(c)
	if err != nil {
		return err
	}
	r.Station = station
	r.Axis = c.Query("axis", string(profile.AxisPressure))

	stepStr := c.Query("step")
	if stepStr == "" {
		return errors.New("step query parameter is required")
	}
	step, err := strconv.ParseFloat(stepStr, 64)
	if err != nil {
		return errors.New("invalid step; must be a positive number")
	}
	r.Step = step
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
