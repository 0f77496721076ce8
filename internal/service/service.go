package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/pwshub/weathercloud-hub/internal/store"
	"github.com/pwshub/weathercloud-hub/internal/weathercloud"
)

// ErrNoGeocoder is returned by NearestByCity when no geocoder API key is
// configured.
var ErrNoGeocoder = errors.New("geocoder api key not configured")

// ReportStore persists assembled reports per station.
type ReportStore interface {
	SaveReport(id string, report *weathercloud.WeatherReport)
	Latest(id string) (store.Entry, error)
	Range(id string, from, to time.Time) ([]store.Entry, error)
}

// Publisher fans a fresh report out to subscribers.
type Publisher interface {
	PublishReport(id string, report *weathercloud.WeatherReport) error
}

// Service ties the remote client to the local store and the optional
// fan-out.
type Service struct {
	client    *weathercloud.Client
	store     ReportStore
	publisher Publisher
	logger    *slog.Logger
}

// New creates a Service. publisher may be nil when fan-out is disabled.
func New(client *weathercloud.Client, st ReportStore, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:    client,
		store:     st,
		publisher: publisher,
		logger:    logger,
	}
}

// Client exposes the remote client for the query paths that bypass the
// store.
func (s *Service) Client() *weathercloud.Client {
	return s.client
}

// FetchAndStore assembles a fresh report for a station, stores it and
// fans it out. Publishing is best effort; a failed publish never fails
// the fetch.
func (s *Service) FetchAndStore(ctx context.Context, id string) (*weathercloud.WeatherReport, error) {
	report, err := s.client.Weather(ctx, id)
	if err != nil {
		return nil, err
	}

	s.store.SaveReport(id, report)

	if s.publisher != nil {
		if err := s.publisher.PublishReport(id, report); err != nil {
			s.logger.Warn("report publish failed", "station", id, "error", err)
		}
	}

	return report, nil
}

// Latest delegates to the underlying store.
func (s *Service) Latest(id string) (store.Entry, error) {
	return s.store.Latest(id)
}

// History delegates to the underlying store.
func (s *Service) History(id string, from, to time.Time) ([]store.Entry, error) {
	return s.store.Range(id, from, to)
}

// NearestByCity resolves a city name to coordinates and searches around
// them. Needs the geocoder API key; callers that already have
// coordinates should go straight to the client.
func (s *Service) NearestByCity(ctx context.Context, city, country string, radius float64) (*weathercloud.DeviceList, error) {
	if geocoder.ApiKey == "" {
		return nil, ErrNoGeocoder
	}

	location, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", city, err)
	}

	s.logger.Debug("geocoded city",
		"city", city, "lat", location.Latitude, "lon", location.Longitude)

	return s.client.Nearest(ctx, location.Latitude, location.Longitude, radius)
}

// RestoreSession signs in again with remembered credentials, if any.
func (s *Service) RestoreSession(ctx context.Context) {
	ok, err := s.client.LoginRemembered(ctx)
	switch {
	case err != nil:
		s.logger.Warn("remembered sign-in failed", "error", err)
	case ok:
		s.logger.Info("session restored from remembered credentials")
	default:
		s.logger.Debug("no remembered credentials")
	}
}
