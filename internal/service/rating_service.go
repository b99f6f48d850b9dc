package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"matka/internal/cache"
	"matka/internal/models"
	"matka/internal/repository"
	"matka/internal/settlement"
)

const (
	cacheKeyRatingsAll    = "ratings:all"
	cacheKeyRatingsActive = "ratings:active"
)

type RatingService struct {
	Repo  repository.RatingRepository
	Cache *cache.Catalog
}

type RatingInput struct {
	Name     string
	Type     string
	ConvertA *decimal.Decimal
	ConvertB *decimal.Decimal
	IsActive *bool
}

func (s *RatingService) Create(ctx context.Context, in RatingInput) (*models.Rating, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("rating service not configured")
	}
	if in.ConvertA == nil || in.ConvertB == nil {
		return nil, fmt.Errorf("%w: convert_a and convert_b are required", ErrInvalidInput)
	}
	r := &models.Rating{ID: uuid.NewString(), IsActive: true}
	if err := applyRatingInput(r, in); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateRating(ctx, r); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return r, nil
}

// Update edits a rating in place. Pending bets settle against the values at
// sweep time, not at placement time.
func (s *RatingService) Update(ctx context.Context, id string, in RatingInput) (*models.Rating, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("rating service not configured")
	}
	r, err := s.Repo.GetRatingByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRatingNotFound
	}
	if err := applyRatingInput(r, in); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateRating(ctx, r); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return r, nil
}

func (s *RatingService) Get(ctx context.Context, id string) (*models.Rating, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("rating service not configured")
	}
	r, err := s.Repo.GetRatingByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRatingNotFound
	}
	return r, nil
}

func (s *RatingService) List(ctx context.Context, activeOnly bool) ([]models.Rating, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("rating service not configured")
	}
	key := cacheKeyRatingsAll
	if activeOnly {
		key = cacheKeyRatingsActive
	}
	return cache.Load(ctx, s.Cache, key, func(ctx context.Context) ([]models.Rating, error) {
		return s.Repo.ListRatings(ctx, repository.ListRatingsParams{
			Limit:      500,
			ActiveOnly: activeOnly,
			OrderBy:    "name",
		})
	})
}

func (s *RatingService) invalidate(ctx context.Context) {
	s.Cache.Invalidate(ctx, cacheKeyRatingsAll, cacheKeyRatingsActive)
}

// applyRatingInput stores the canonical type name so settlement never sees an
// unknown type written through this path.
func applyRatingInput(r *models.Rating, in RatingInput) error {
	if name := strings.TrimSpace(in.Name); name != "" {
		r.Name = name
	}
	if r.Name == "" {
		return fmt.Errorf("%w: rating name is required", ErrInvalidInput)
	}
	if t := strings.TrimSpace(in.Type); t != "" {
		rt, err := settlement.ParseRatingType(t)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		r.Type = rt.String()
	}
	if r.Type == "" {
		return fmt.Errorf("%w: rating type is required", ErrInvalidInput)
	}
	if in.ConvertA != nil {
		r.ConvertA = *in.ConvertA
	}
	if in.ConvertB != nil {
		r.ConvertB = *in.ConvertB
	}
	if err := settlement.ValidateConvert(r.ConvertA, r.ConvertB); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
	}
	return nil
}
