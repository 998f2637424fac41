package service

import (
	"context"
	"errors"
	"fmt"
	"pb-tracker/internal/catalog"
	"pb-tracker/internal/constants"
	"pb-tracker/internal/domain"
	"pb-tracker/internal/mercy"
	"pb-tracker/internal/repository"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type MercyService struct {
	counters *repository.MercyCounterRepository
	catalog  *catalog.Catalog
	locks    *keyLock
	now      func() time.Time
	logger   zerolog.Logger
}

func NewMercyService(counters *repository.MercyCounterRepository, cat *catalog.Catalog, logger zerolog.Logger) *MercyService {
	return &MercyService{
		counters: counters,
		catalog:  cat,
		locks:    newKeyLock(),
		now:      time.Now,
		logger:   logger,
	}
}

// Add adds n pulls to every counter behind category and returns their
// updated status. Counters never drop below zero.
func (s *MercyService) Add(ctx context.Context, playerID, category string, n int64) ([]mercy.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	cats, err := s.expand(playerID, category)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	out := make([]mercy.Status, 0, len(cats))
	for _, cat := range cats {
		counter, err := s.add(ctx, playerID, cat, n, now)
		if err != nil {
			return nil, err
		}
		out = append(out, s.evaluate(cat, counter.Pulls))
	}

	s.logger.Info().
		Str("player_id", playerID).
		Str("category", category).
		Int64("pulls", n).
		Msg("mercy pulls added")
	return out, nil
}

func (s *MercyService) add(ctx context.Context, playerID, category string, n int64, now time.Time) (*domain.MercyCounter, error) {
	unlock := s.locks.Lock("mercy:" + playerID + "/" + category)
	defer unlock()

	counter, err := s.counters.Add(ctx, playerID, category, n, now)
	if err != nil {
		return nil, fmt.Errorf("failed to add pulls to %s: %w", category, err)
	}
	return counter, nil
}

// Reset zeroes the counters behind category. For a composite category a
// subtype narrows the reset to that member; it is ignored otherwise.
func (s *MercyService) Reset(ctx context.Context, playerID, category, subtype string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var cats []string
	if s.catalog.IsComposite(category) && strings.TrimSpace(subtype) != "" {
		if strings.TrimSpace(playerID) == "" {
			return nil, fmt.Errorf("%w: missing player id", domain.ErrInvalidInput)
		}
		cat, err := s.catalog.SubCategory(category, subtype)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		cats = []string{cat}
	} else {
		var err error
		if cats, err = s.expand(playerID, category); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	for _, cat := range cats {
		if err := s.reset(ctx, playerID, cat, now); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("player_id", playerID).
		Strs("categories", cats).
		Msg("mercy reset")
	return cats, nil
}

func (s *MercyService) reset(ctx context.Context, playerID, category string, now time.Time) error {
	unlock := s.locks.Lock("mercy:" + playerID + "/" + category)
	defer unlock()

	if err := s.counters.Reset(ctx, playerID, category, now); err != nil {
		return fmt.Errorf("failed to reset %s: %w", category, err)
	}
	return nil
}

// Status reports every counter behind category. Missing counters read as
// zero pulls.
func (s *MercyService) Status(ctx context.Context, playerID, category string) ([]mercy.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	cats, err := s.expand(playerID, category)
	if err != nil {
		return nil, err
	}

	out := make([]mercy.Status, len(cats))
	g, gctx := errgroup.WithContext(ctx)
	for i, cat := range cats {
		g.Go(func() error {
			var pulls int64
			c, err := s.counters.Get(gctx, playerID, cat)
			switch {
			case errors.Is(err, domain.ErrNotFound):
			case err != nil:
				return fmt.Errorf("failed to read %s: %w", cat, err)
			default:
				pulls = c.Pulls
			}
			out[i] = s.evaluate(cat, pulls)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusAll reports every counter the player has touched, sorted by category.
func (s *MercyService) StatusAll(ctx context.Context, playerID string) ([]mercy.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	counters, err := s.counters.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mercy counters: %w", err)
	}

	out := make([]mercy.Status, 0, len(counters))
	for _, c := range counters {
		if _, ok := s.catalog.MercyRule(c.Category); !ok {
			s.logger.Warn().Str("category", c.Category).Msg("stored counter has no rule, skipping")
			continue
		}
		out = append(out, s.evaluate(c.Category, c.Pulls))
	}
	return out, nil
}

func (s *MercyService) expand(playerID, category string) ([]string, error) {
	if strings.TrimSpace(playerID) == "" {
		return nil, fmt.Errorf("%w: missing player id", domain.ErrInvalidInput)
	}
	cats, err := s.catalog.Expand(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return cats, nil
}

func (s *MercyService) evaluate(category string, pulls int64) mercy.Status {
	m, _ := s.catalog.MercyRule(category)
	g, _ := s.catalog.GuaranteedRule(category)
	return mercy.Evaluate(category, m, g, pulls)
}
