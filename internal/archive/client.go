package archive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/amirb101/three-sided-sub001/internal/config"
	"github.com/amirb101/three-sided-sub001/internal/logger"
)

// DefaultPingTimeout bounds the startup connection check.
const DefaultPingTimeout = 5 * time.Second

// NewClient creates an Elasticsearch client for the problem archive and
// verifies the connection with a ping.
func NewClient(ctx context.Context, cfg config.ArchiveConfig, log logger.Logger) (*es.Client, error) {
	url := normalizeURL(cfg.URL)

	clientConfig := es.Config{
		Addresses: []string{url},
	}

	// API key wins over basic auth when both are configured.
	if cfg.APIKey != "" {
		clientConfig.APIKey = cfg.APIKey
	} else if cfg.Username != "" && cfg.Password != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client: %w", err)
	}

	if err := ping(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}

	log.Info("Archive connection established", logger.String("url", url))
	return client, nil
}

// normalizeURL adds the http:// prefix when missing.
func normalizeURL(url string) string {
	if url == "" {
		return "http://localhost:9200"
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

func ping(ctx context.Context, client *es.Client) error {
	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	res, err := client.Ping(client.Ping.WithContext(pingCtx))
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("ping returned error [%s]: %s", res.Status(), string(body))
	}
	return nil
}
