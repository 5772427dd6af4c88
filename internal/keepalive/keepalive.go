// Package keepalive periodically pings the service's own health endpoint.
// Hosting platforms that idle out inactive containers keep the instance warm
// as long as traffic arrives.
package keepalive

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Service pings baseURL/health on an interval.
type Service struct {
	baseURL  string
	interval time.Duration
	client   *http.Client
	logger   *zap.Logger
}

// New builds a Service. An empty baseURL disables it.
func New(baseURL string, interval time.Duration, logger *zap.Logger) *Service {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Service{
		baseURL:  strings.TrimRight(baseURL, "/"),
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

// Enabled reports whether a target URL is configured.
func (s *Service) Enabled() bool {
	return s.baseURL != ""
}

// Run pings until the context is canceled. Failed pings are logged and the
// loop carries on.
func (s *Service) Run(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("keepalive started",
		zap.String("target", s.baseURL),
		zap.Duration("interval", s.interval),
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("keepalive stopped")
			return
		case <-ticker.C:
			if err := s.ping(ctx); err != nil {
				s.logger.Warn("keepalive ping failed", zap.Error(err))
			}
		}
	}
}

func (s *Service) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping health endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}
	return nil
}
