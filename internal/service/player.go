package service

import (
	"context"
	"fmt"
	"pb-tracker/internal/constants"
	"pb-tracker/internal/domain"
	"pb-tracker/internal/repository"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

var mentionRe = regexp.MustCompile(`^<@!?([0-9]+)>$`)

// AmbiguousPlayerError lists the players a name could refer to.
type AmbiguousPlayerError struct {
	Query      string
	Candidates []domain.Player
}

func (e *AmbiguousPlayerError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, p := range e.Candidates {
		names[i] = p.DisplayName
	}
	return fmt.Sprintf("%q matches %s", e.Query, strings.Join(names, ", "))
}

func (e *AmbiguousPlayerError) Unwrap() error {
	return domain.ErrAmbiguousPlayer
}

type PlayerService struct {
	repo   *repository.PlayerRepository
	logger zerolog.Logger
}

func NewPlayerService(repo *repository.PlayerRepository, logger zerolog.Logger) *PlayerService {
	return &PlayerService{repo: repo, logger: logger}
}

// Resolve finds a player by numeric id, mention or display name. A name
// must identify exactly one player.
func (s *PlayerService) Resolve(ctx context.Context, query string) (*domain.Player, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty player query", domain.ErrInvalidInput)
	}

	if id, ok := playerID(query); ok {
		s.logger.Debug().Str("player_id", id).Msg("resolving player by id")
		return s.repo.Get(ctx, id)
	}

	players, err := s.repo.FindByName(ctx, query, constants.PlayerSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search players: %w", err)
	}

	switch len(players) {
	case 0:
		return nil, fmt.Errorf("player %q: %w", query, domain.ErrNotFound)
	case 1:
		return &players[0], nil
	default:
		s.logger.Debug().Str("query", query).Int("matches", len(players)).Msg("ambiguous player name")
		return nil, &AmbiguousPlayerError{Query: query, Candidates: players}
	}
}

func playerID(query string) (string, bool) {
	if m := mentionRe.FindStringSubmatch(query); m != nil {
		return m[1], true
	}
	for _, r := range query {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return query, true
}
