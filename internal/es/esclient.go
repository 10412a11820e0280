package es

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/shophub/storefront/pkg/config"
)

// NewClient connects to the search cluster and checks it answers.
func NewClient(ctx context.Context, cfg config.Config, l *slog.Logger) (*elasticsearch.Client, error) {
	l.Info("connecting to elasticsearch", "url", cfg.ESURL, "user", cfg.ESUser)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("es: info: %s: %s", res.Status(), body)
	}

	l.Info("connected to elasticsearch")
	return client, nil
}
