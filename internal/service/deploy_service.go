package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrBuildWebhookNotConfigured is returned when no webhook URL is set.
var ErrBuildWebhookNotConfigured = errors.New("build webhook not configured")

// DeployService signals the external rebuild pipeline with an empty-body POST.
type DeployService struct {
	logger     *zap.Logger
	webhookURL string
	client     *http.Client
}

func NewDeployService(logger *zap.Logger, webhookURL string) *DeployService {
	return &DeployService{
		logger:     logger,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *DeployService) TriggerBuild(ctx context.Context) error {
	if s.webhookURL == "" {
		return ErrBuildWebhookNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger build: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("trigger build: status=%d", resp.StatusCode)
	}

	s.logger.Info("build triggered", zap.Int("status", resp.StatusCode))
	return nil
}
