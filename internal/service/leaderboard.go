package service

import (
	"context"
	"fmt"
	"pb-tracker/internal/catalog"
	"pb-tracker/internal/constants"
	"pb-tracker/internal/domain"
	"pb-tracker/internal/repository"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type LeaderboardService struct {
	records *repository.PBRecordRepository
	catalog *catalog.Catalog
	logger  zerolog.Logger
}

func NewLeaderboardService(records *repository.PBRecordRepository, cat *catalog.Catalog, logger zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{records: records, catalog: cat, logger: logger}
}

// Board is one ranked difficulty of a boss.
type Board struct {
	Boss       string
	Difficulty string
	Entries    []domain.LeaderboardEntry
}

// Top ranks the records of one board. An empty clan means no filter; the
// filter runs before truncation so a clan board is still full.
func (s *LeaderboardService) Top(ctx context.Context, boss, difficulty string, limit int, clan string) ([]domain.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	b, d, err := s.catalog.Resolve(boss, difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	clan, err = s.clanFilter(clan)
	if err != nil {
		return nil, err
	}
	return s.top(ctx, b, d, clampLimit(limit), clan)
}

// TopAll builds the board of every difficulty of boss concurrently and
// returns them in catalog order.
func (s *LeaderboardService) TopAll(ctx context.Context, boss string, limit int, clan string) ([]Board, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	b, ok := s.catalog.Boss(boss)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", domain.ErrInvalidInput, catalog.ErrUnknownBoss, boss)
	}
	clan, err := s.clanFilter(clan)
	if err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	difficulties := b.Difficulties
	if len(difficulties) == 0 {
		difficulties = []string{""}
	}

	boards := make([]Board, len(difficulties))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range difficulties {
		g.Go(func() error {
			entries, err := s.top(gctx, b.Code, d, limit, clan)
			if err != nil {
				return err
			}
			boards[i] = Board{Boss: b.Code, Difficulty: d, Entries: entries}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Str("boss", b.Code).Msg("failed to build leaderboards")
		return nil, err
	}
	return boards, nil
}

func (s *LeaderboardService) top(ctx context.Context, boss, difficulty string, limit int, clan string) ([]domain.LeaderboardEntry, error) {
	fetch := limit
	if clan != "" {
		fetch = -1
	}
	records, err := s.records.Leaderboard(ctx, boss, difficulty, fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard %s/%s: %w", boss, difficulty, err)
	}

	entries := make([]domain.LeaderboardEntry, 0, min(len(records), limit))
	for _, r := range records {
		if len(entries) == limit {
			break
		}
		tag, _ := s.catalog.ClanOf(r.DisplayName)
		if clan != "" && tag != clan {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:        len(entries) + 1,
			PlayerID:    r.PlayerID,
			DisplayName: r.DisplayName,
			Clan:        tag,
			Damage:      r.BestDamage,
			RecordedAt:  r.RecordedAt,
		})
	}

	s.logger.Debug().
		Str("boss", boss).
		Str("difficulty", difficulty).
		Str("clan", clan).
		Int("entries", len(entries)).
		Msg("leaderboard built")
	return entries, nil
}

func (s *LeaderboardService) clanFilter(clan string) (string, error) {
	clan = strings.ToUpper(strings.Trim(strings.TrimSpace(clan), "[]"))
	if clan == "" {
		return "", nil
	}
	if !s.catalog.HasClan(clan) {
		return "", fmt.Errorf("%w: unknown clan %q", domain.ErrInvalidInput, clan)
	}
	return clan, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultLeaderboardLimit
	}
	return min(limit, constants.MaxLeaderboardLimit)
}
