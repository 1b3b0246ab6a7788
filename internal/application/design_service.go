package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxShareTokenAttempts bounds the retries after a share token collision
const maxShareTokenAttempts = 3

// SaveDesignInput is a design to persist
type SaveDesignInput struct {
	Name          string
	Description   string
	IsPublic      bool
	Configuration domain.DesignConfiguration
}

// DesignService stores and shares configurator designs
type DesignService struct {
	designs       ports.DesignRepository
	metrics       ports.Metrics
	logger        zerolog.Logger
	now           func() time.Time
	generateToken func() (string, error)
}

// NewDesignService creates a new design service
func NewDesignService(designs ports.DesignRepository, metrics ports.Metrics, logger zerolog.Logger) *DesignService {
	return &DesignService{
		designs:       designs,
		metrics:       metricsOrNop(metrics),
		logger:        logger,
		now:           time.Now,
		generateToken: domain.GenerateShareToken,
	}
}

// Save persists a design under a fresh share token
func (s *DesignService) Save(ctx context.Context, in SaveDesignInput) (*domain.SavedDesign, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: design name is required", domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	design := &domain.SavedDesign{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		IsPublic:      in.IsPublic,
		Configuration: in.Configuration,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for attempt := 1; attempt <= maxShareTokenAttempts; attempt++ {
		token, err := s.generateToken()
		if err != nil {
			s.metrics.DesignSaved("error")
			return nil, fmt.Errorf("failed to generate share token: %w", err)
		}
		design.ShareToken = token

		err = s.designs.CreateDesign(ctx, design)
		if err == nil {
			s.metrics.DesignSaved("ok")
			s.logger.Info().Str("designId", design.ID).Bool("public", design.IsPublic).Msg("Saved design")
			return design, nil
		}
		if !errors.Is(err, domain.ErrDuplicateShareToken) {
			s.metrics.DesignSaved("error")
			return nil, fmt.Errorf("failed to save design: %w", err)
		}
		s.logger.Warn().Int("attempt", attempt).Msg("Share token collision, retrying")
	}

	s.metrics.DesignSaved("collision")
	return nil, fmt.Errorf("failed to save design: %w", domain.ErrDuplicateShareToken)
}

// Load returns the public design behind a share token and counts the view.
// The view update is best effort: on failure the design is returned as read.
func (s *DesignService) Load(ctx context.Context, token string) (*domain.SavedDesign, error) {
	token = strings.TrimSpace(token)
	if !domain.IsValidShareToken(token) {
		s.metrics.DesignLoaded("not_found")
		return nil, domain.ErrDesignNotFound
	}

	design, err := s.designs.GetPublicDesignByToken(ctx, token)
	if err != nil {
		s.metrics.DesignLoaded("error")
		return nil, fmt.Errorf("failed to load design: %w", err)
	}
	if design == nil {
		s.metrics.DesignLoaded("not_found")
		return nil, domain.ErrDesignNotFound
	}

	viewedAt := s.now().UTC()
	views, err := s.designs.IncrementDesignView(ctx, design.ID, viewedAt)
	if err != nil {
		s.logger.Warn().Err(err).Str("designId", design.ID).Msg("Failed to record design view")
	} else {
		design.ViewCount = views
		design.LastViewedAt = &viewedAt
	}

	s.metrics.DesignLoaded("ok")
	return design, nil
}
