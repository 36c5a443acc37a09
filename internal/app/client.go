package app

import (
	"fmt"

	"github.com/samvad-hq/seoul-parking-map/internal/config"
	"github.com/samvad-hq/seoul-parking-map/internal/logger"
	"github.com/samvad-hq/seoul-parking-map/pkg/httpclient"
	"github.com/samvad-hq/seoul-parking-map/pkg/seoulapi"
)

// newParkingClient builds the Seoul Open API client shared by both runtimes.
func newParkingClient(cfg *config.Config, log logger.Logger) (*seoulapi.Client, error) {
	client, err := seoulapi.New(cfg.APIKey,
		seoulapi.WithBaseURL(cfg.APIBaseURL),
		seoulapi.WithPage(cfg.PageStart, cfg.PageEnd),
		seoulapi.WithHTTPClient(httpclient.NewRestyClient(cfg.HTTPTimeout)),
		seoulapi.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("init parking api client: %w", err)
	}
	return client, nil
}
