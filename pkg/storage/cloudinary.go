// Package storage resolves opaque document references to viewable URLs via
// Cloudinary. Paths are namespaced by entity kind and id (assignments/...,
// submissions/...) but the namespace is a backend convention the gateway
// does not enforce.
package storage

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Service exchanges storage paths for signed, time-limited delivery URLs.
type Service struct {
	client *cloudinary.Cloudinary
	logger zerolog.Logger
}

// New constructs a Cloudinary-backed storage service.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		logger: logger.With().Str("component", "storage").Logger(),
	}, nil
}

// SignedURL exchanges a storage path for a signed delivery URL. The asset is
// delivered as authenticated so the URL stops working once the signature
// lapses.
func (s *Service) SignedURL(ctx context.Context, path string) (string, error) {
	file, err := s.client.File(path)
	if err != nil {
		return "", fmt.Errorf("failed to address asset %s: %w", path, err)
	}

	file.DeliveryType = "authenticated"
	file.Config.URL.SignURL = true

	url, err := file.String()
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", path, err)
	}

	s.logger.Debug().Str("path", path).Msg("resolved storage url")

	return url, nil
}

// Disabled is the resolver used when no storage credentials are configured.
// Every resolution fails, which callers surface as a degraded view.
type Disabled struct{}

// SignedURL always reports that storage is not configured.
func (Disabled) SignedURL(ctx context.Context, path string) (string, error) {
	return "", fmt.Errorf("document storage is not configured")
}
