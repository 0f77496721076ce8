package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kelvins/geocoder"

	"github.com/pwshub/weathercloud-hub/internal/config"
	"github.com/pwshub/weathercloud-hub/internal/logging"
	"github.com/pwshub/weathercloud-hub/internal/service"
	"github.com/pwshub/weathercloud-hub/internal/store"
	"github.com/pwshub/weathercloud-hub/internal/weathercloud"
)

// hub bundles the pieces every command needs.
type hub struct {
	cfg     *config.AppConfig
	logger  *slog.Logger
	client  *weathercloud.Client
	creds   *store.CredentialStore
	store   *store.MemoryStore
	service *service.Service
}

func newHub() (*hub, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(cfg, "weathercloud-hub")
	slog.SetDefault(logger)

	geocoder.ApiKey = cfg.GeocoderAPIKey

	creds, err := store.OpenCredentialStore(cfg.CredentialsDB)
	if err != nil {
		return nil, err
	}

	client := weathercloud.NewClient(weathercloud.NewSession(creds),
		weathercloud.WithBaseURL(cfg.BaseURL),
		weathercloud.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		weathercloud.WithLogger(logger),
	)

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	return &hub{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		creds:   creds,
		store:   memStore,
		service: service.New(client, memStore, nil, logger),
	}, nil
}

func (h *hub) Close() {
	if h.creds != nil {
		h.creds.Close()
	}
}

// printJSON renders a result the way the HTTP surface would.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
