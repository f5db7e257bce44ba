package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/app/repositories"
	"github.com/yigit/facultycredits/internal/pkg/apperrors"
)

// CreateTitleInput carries the fields of a new catalog title
type CreateTitleInput struct {
	Title       string
	Points      int64
	Sign        models.Sign
	Description string
}

// CatalogService manages the credit title catalog
type CatalogService interface {
	CreateTitle(ctx context.Context, actor models.Actor, input CreateTitleInput) (*models.CreditTitle, error)
	DeactivateTitle(ctx context.Context, actor models.Actor, titleID int64) error
	ListTitles(ctx context.Context, filter models.TitleFilter) ([]*models.CreditTitle, error)
	GetTitle(ctx context.Context, titleID int64) (*models.CreditTitle, error)
}

type catalogServiceImpl struct {
	titles TitleStore
	opts   Options
	logger zerolog.Logger
}

// NewCatalogService creates a new catalog service instance
func NewCatalogService(titles TitleStore, opts Options) CatalogService {
	opts = opts.withDefaults()
	return &catalogServiceImpl{
		titles: titles,
		opts:   opts,
		logger: opts.Logger.With().Str("service", "catalog").Logger(),
	}
}

func validateTitleInput(input *CreateTitleInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)

	if input.Title == "" {
		return apperrors.NewValidationError("title cannot be empty")
	}
	if input.Points == 0 {
		return apperrors.NewValidationError("points must be nonzero")
	}
	if !input.Sign.Valid() {
		return apperrors.NewValidationError("sign must be %q or %q", models.SignPositive, models.SignNegative)
	}
	if !input.Sign.Matches(input.Points) {
		return apperrors.NewValidationError("points %d do not match sign %q", input.Points, input.Sign)
	}
	return nil
}

// CreateTitle adds a title to the catalog. Only admins may do so.
func (s *catalogServiceImpl) CreateTitle(ctx context.Context, actor models.Actor, input CreateTitleInput) (*models.CreditTitle, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.NewForbiddenError("only admins can manage the credit catalog")
	}
	if err := validateTitleInput(&input); err != nil {
		return nil, err
	}

	exists, err := s.titles.ExistsActiveByTitle(ctx, input.Title)
	if err != nil {
		return nil, fmt.Errorf("error checking credit title: %w", err)
	}
	if exists {
		return nil, apperrors.NewValidationError("an active credit title named %q already exists", input.Title)
	}

	title := &models.CreditTitle{
		Title:       input.Title,
		Points:      input.Points,
		Sign:        input.Sign,
		Description: input.Description,
		Active:      true,
		CreatedAt:   s.opts.Now().UTC(),
	}
	id, err := s.titles.Create(ctx, title)
	if err != nil {
		// The partial unique index catches a concurrent create of the same name
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewValidationError("an active credit title named %q already exists", input.Title)
		}
		return nil, fmt.Errorf("error creating credit title: %w", err)
	}
	title.ID = id

	s.logger.Info().
		Int64("creditTitleID", id).
		Int64("actorID", actor.ID).
		Str("sign", string(title.Sign)).
		Int64("points", title.Points).
		Msg("Credit title created")
	return title, nil
}

// DeactivateTitle hides a title from new entries. Deactivating twice succeeds.
func (s *catalogServiceImpl) DeactivateTitle(ctx context.Context, actor models.Actor, titleID int64) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbiddenError("only admins can manage the credit catalog")
	}
	if titleID <= 0 {
		return apperrors.NewValidationError("invalid credit title id")
	}

	if err := s.titles.Deactivate(ctx, titleID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewResourceNotFoundError(fmt.Sprintf("credit title %d not found", titleID))
		}
		return fmt.Errorf("error deactivating credit title: %w", err)
	}

	s.logger.Info().Int64("creditTitleID", titleID).Int64("actorID", actor.ID).Msg("Credit title deactivated")
	return nil
}

// ListTitles returns catalog titles in insertion order
func (s *catalogServiceImpl) ListTitles(ctx context.Context, filter models.TitleFilter) ([]*models.CreditTitle, error) {
	if filter.Sign != "" && !filter.Sign.Valid() {
		return nil, apperrors.NewValidationError("unknown sign %q", filter.Sign)
	}
	titles, err := s.titles.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing credit titles: %w", err)
	}
	return titles, nil
}

// GetTitle retrieves a title, active or not
func (s *catalogServiceImpl) GetTitle(ctx context.Context, titleID int64) (*models.CreditTitle, error) {
	if titleID <= 0 {
		return nil, apperrors.NewValidationError("invalid credit title id")
	}
	title, err := s.titles.GetByID(ctx, titleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("credit title %d not found", titleID))
		}
		return nil, fmt.Errorf("error getting credit title: %w", err)
	}
	return title, nil
}
