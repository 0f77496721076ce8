package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/pwshub/weathercloud-hub/internal/service"
	"github.com/pwshub/weathercloud-hub/internal/store"
	"github.com/pwshub/weathercloud-hub/internal/weathercloud"
)

var validate = validator.New()

// NewApp builds the Fiber app with the hub's middleware, error shape and
// routes. Every failure leaves the API as a JSON {"error": cause} body;
// the nearest endpoint wraps it in an array to match its list result.
func NewApp(svc *service.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weathercloud-hub",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weathercloud-hub",
		})
	})

	RegisterRoutes(app, svc)
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc *service.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/:id", func(c *fiber.Ctx) error {
		report, err := svc.FetchAndStore(c.Context(), c.Params("id"))
		if err != nil {
			return apiError(err)
		}
		return c.JSON(report)
	})

	v1.Get("/weather/:id/latest", func(c *fiber.Ctx) error {
		entry, err := svc.Latest(c.Params("id"))
		if err != nil {
			return apiError(err)
		}
		return c.JSON(entry)
	})

	v1.Get("/weather/:id/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		id := c.Params("id")
		entries, err := svc.History(id, req.From, req.To)
		if err != nil {
			return apiError(err)
		}

		return c.JSON(fiber.Map{
			"station": id,
			"from":    req.From,
			"to":      req.To,
			"entries": entries,
		})
	})

	v1.Get("/status/:id", func(c *fiber.Ctx) error {
		rows, err := svc.Client().StationStatus(c.Context(), c.Params("id"))
		if err != nil {
			return apiError(err)
		}
		return c.JSON(rows)
	})

	v1.Get("/statistics/:id", func(c *fiber.Ctx) error {
		stats, err := svc.Client().Statistics(c.Context(), c.Params("id"))
		if err != nil {
			return apiError(err)
		}
		return c.JSON(stats)
	})

	v1.Get("/nearest", func(c *fiber.Ctx) error {
		req, err := parseNearestQuery(c)
		if err != nil {
			return nearestError(c, fiber.StatusBadRequest, err)
		}

		var list *weathercloud.DeviceList
		if req.byCity() {
			list, err = svc.NearestByCity(c.Context(), req.City, req.Country, req.Radius)
		} else {
			list, err = svc.Client().Nearest(c.Context(), *req.Lat, *req.Lon, req.Radius)
		}
		if err != nil {
			fe := apiError(err)
			return nearestError(c, fe.Code, fe)
		}

		return c.JSON(list)
	})

	v1.Get("/top/:kind", func(c *fiber.Ctx) error {
		country := c.Query("country")
		if country == "" {
			return fiber.NewError(fiber.StatusBadRequest, "country query parameter is required")
		}

		kind := weathercloud.TopKind(c.Params("kind"))
		switch kind {
		case weathercloud.TopNewest, weathercloud.TopFollowers, weathercloud.TopPopular:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "unknown ranking kind")
		}

		list, err := svc.Client().Top(c.Context(), kind, country, c.Query("period"))
		if err != nil {
			return apiError(err)
		}
		return c.JSON(list)
	})

	v1.Get("/devices/own", func(c *fiber.Ctx) error {
		own, err := svc.Client().Own(c.Context())
		if err != nil {
			return apiError(err)
		}
		return c.JSON(own)
	})

	v1.Post("/session/login", func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := svc.Client().Login(c.Context(), req.Mail, req.Password, req.Remember); err != nil {
			// A rejected pair comes back as a fetch failure; report it
			// as unauthorized rather than a bad upstream.
			if errors.Is(err, weathercloud.ErrFetchFailed) {
				return fiber.NewError(fiber.StatusUnauthorized, err.Error())
			}
			return apiError(err)
		}

		return c.JSON(fiber.Map{"authenticated": true})
	})

	v1.Delete("/session", func(c *fiber.Ctx) error {
		if err := svc.Client().Logout(); err != nil {
			return apiError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// apiError maps the client's error kinds onto HTTP statuses.
func apiError(err error) *fiber.Error {
	switch {
	case errors.Is(err, weathercloud.ErrInvalidID),
		errors.Is(err, weathercloud.ErrPeriodRequired),
		errors.Is(err, service.ErrNoGeocoder):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weathercloud.ErrSessionRequired):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, weathercloud.ErrInvalidData),
		errors.Is(err, weathercloud.ErrFetchFailed):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

// nearestError answers with the list-shaped error body the nearest
// endpoint uses.
func nearestError(c *fiber.Ctx, code int, err error) error {
	return c.Status(code).JSON([]fiber.Map{{"error": err.Error()}})
}

// loginRequest is the sign-in payload.
type loginRequest struct {
	Mail     string `json:"mail" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

// nearestQuery holds the query parameters of the nearest search; either
// a coordinate pair or a city name must be present.
type nearestQuery struct {
	Lat, Lon *float64
	City     string
	Country  string
	Radius   float64 `validate:"required,gt=0"`
}

func (q nearestQuery) byCity() bool {
	return q.City != ""
}

func parseNearestQuery(c *fiber.Ctx) (nearestQuery, error) {
	var q nearestQuery

	q.City = c.Query("city")
	q.Country = c.Query("country")

	if raw := c.Query("lat"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, errors.New("invalid lat query parameter")
		}
		q.Lat = &v
	}
	if raw := c.Query("lon"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, errors.New("invalid lon query parameter")
		}
		q.Lon = &v
	}

	if raw := c.Query("radius"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, errors.New("invalid radius query parameter")
		}
		q.Radius = v
	}

	if !q.byCity() && (q.Lat == nil || q.Lon == nil) {
		return q, errors.New("either lat/lon or city is required")
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}

	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
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
