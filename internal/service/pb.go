package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"pb-tracker/internal/catalog"
	"pb-tracker/internal/constants"
	"pb-tracker/internal/domain"
	"pb-tracker/internal/repository"
	"pb-tracker/internal/storage"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EvidenceStore persists screenshot blobs next to PB records.
type EvidenceStore interface {
	Save(ctx context.Context, key domain.PBKey, name string, data []byte) (string, error)
	Delete(key domain.PBKey, ref string) error
	Path(key domain.PBKey, ref string) (string, error)
	Exists(key domain.PBKey, ref string) bool
}

// AttachmentFetcher downloads evidence given by URL.
type AttachmentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Evidence is the screenshot attached to a submission. Data wins over URL
// when both are set.
type Evidence struct {
	Filename string
	Data     []byte
	URL      string
}

type SubmitRequest struct {
	PlayerID    string
	DisplayName string
	Boss        string
	Difficulty  string
	Damage      int64
	Evidence    Evidence
}

type PBService struct {
	records *repository.PBRecordRepository
	catalog *catalog.Catalog
	store   EvidenceStore
	fetcher AttachmentFetcher
	locks   *keyLock
	now     func() time.Time
	logger  zerolog.Logger
}

func NewPBService(
	records *repository.PBRecordRepository,
	cat *catalog.Catalog,
	store EvidenceStore,
	fetcher AttachmentFetcher,
	logger zerolog.Logger,
) *PBService {
	return &PBService{
		records: records,
		catalog: cat,
		store:   store,
		fetcher: fetcher,
		locks:   newKeyLock(),
		now:     time.Now,
		logger:  logger,
	}
}

// Submit records damage as the new personal best when it beats the stored
// one. The evidence is stored before the database changes, and the
// superseded screenshot is removed only after the commit succeeded.
func (s *PBService) Submit(ctx context.Context, req SubmitRequest) (*domain.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	key, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	ext := filepath.Ext(req.Evidence.Filename)

	log := s.logger.With().
		Str("player_id", key.PlayerID).
		Str("boss", key.Boss).
		Str("difficulty", key.Difficulty).
		Int64("damage", req.Damage).
		Logger()

	unlock := s.locks.Lock("pb:" + key.String())
	defer unlock()

	current, err := s.records.Get(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to read current pb: %w", err)
	}
	var best int64
	if current != nil {
		best = current.BestDamage
	}

	if req.Damage <= best {
		log.Info().Int64("best", best).Msg("submission does not beat current pb")
		return notImproved(current), nil
	}

	data := req.Evidence.Data
	if len(data) == 0 {
		data, err = s.fetcher.Fetch(ctx, req.Evidence.URL)
		if err != nil {
			log.Error().Err(err).Str("url", req.Evidence.URL).Msg("failed to fetch evidence")
			return nil, fmt.Errorf("%w: fetch: %w", domain.ErrStorageFailed, err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: fetched evidence is empty", domain.ErrStorageFailed)
		}
	}

	now := s.now().UTC()
	name, err := storage.Name(req.DisplayName, req.Damage, now, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}
	ref, err := s.store.Save(ctx, key, name, data)
	if err != nil {
		log.Error().Err(err).Msg("failed to store evidence")
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}

	_, err = s.records.CommitImprovement(ctx, repository.Improvement{
		Key:          key,
		DisplayName:  req.DisplayName,
		Damage:       req.Damage,
		PreviousBest: best,
		EvidenceRef:  ref,
		At:           now,
	})
	if err != nil {
		if delErr := s.store.Delete(key, ref); delErr != nil {
			log.Warn().Err(delErr).Str("ref", ref).Msg("failed to remove orphaned evidence")
		}
		if errors.Is(err, repository.ErrStaleRecord) {
			// the database already holds an equal or better record
			latest, getErr := s.records.Get(ctx, key)
			if getErr != nil {
				return nil, fmt.Errorf("failed to reread pb: %w", getErr)
			}
			log.Info().Int64("best", latest.BestDamage).Msg("submission lost to a stored pb")
			return notImproved(latest), nil
		}
		log.Error().Err(err).Msg("failed to commit pb")
		return nil, fmt.Errorf("failed to commit pb: %w", err)
	}

	if current != nil && current.EvidenceRef != "" && current.EvidenceRef != ref {
		if err := s.store.Delete(key, current.EvidenceRef); err != nil {
			log.Warn().Err(err).Str("ref", current.EvidenceRef).Msg("failed to remove superseded evidence")
		}
	}

	var attempts int64 = 1
	if current != nil {
		attempts = current.AttemptCount + 1
	}
	record := &domain.PBRecord{
		PBKey:        key,
		DisplayName:  req.DisplayName,
		BestDamage:   req.Damage,
		EvidenceRef:  ref,
		RecordedAt:   now,
		AttemptCount: attempts,
	}

	log.Info().Int64("previous", best).Str("ref", ref).Msg("pb improved")
	return &domain.Outcome{
		Status:       domain.Improved,
		PreviousBest: best,
		NewBest:      req.Damage,
		Improvement:  req.Damage - best,
		Record:       record,
	}, nil
}

// validate checks the attachment first so a bad screenshot is reported as
// such whatever else is wrong with the request.
func (s *PBService) validate(req SubmitRequest) (domain.PBKey, error) {
	ev := req.Evidence
	if !s.catalog.AcceptsExtension(filepath.Ext(ev.Filename)) {
		return domain.PBKey{}, fmt.Errorf("%w: unsupported file %q", domain.ErrRejectedEvidence, ev.Filename)
	}
	if len(ev.Data) == 0 && ev.URL == "" {
		return domain.PBKey{}, fmt.Errorf("%w: no screenshot attached", domain.ErrRejectedEvidence)
	}
	if len(ev.Data) > constants.MaxEvidenceBytes {
		return domain.PBKey{}, fmt.Errorf("%w: screenshot is %d bytes", domain.ErrRejectedEvidence, len(ev.Data))
	}

	if strings.TrimSpace(req.PlayerID) == "" {
		return domain.PBKey{}, fmt.Errorf("%w: missing player id", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return domain.PBKey{}, fmt.Errorf("%w: missing display name", domain.ErrInvalidInput)
	}
	if req.Damage <= 0 {
		return domain.PBKey{}, fmt.Errorf("%w: damage must be positive", domain.ErrInvalidInput)
	}
	boss, difficulty, err := s.catalog.Resolve(req.Boss, req.Difficulty)
	if err != nil {
		return domain.PBKey{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	return domain.PBKey{PlayerID: req.PlayerID, Boss: boss, Difficulty: difficulty}, nil
}

func notImproved(current *domain.PBRecord) *domain.Outcome {
	out := &domain.Outcome{Status: domain.NotImproved}
	if current != nil {
		out.PreviousBest = current.BestDamage
		out.NewBest = current.BestDamage
		out.Record = current
	}
	return out
}

// Lookup returns the stored PB, or ErrNotFound when there is none.
func (s *PBService) Lookup(ctx context.Context, playerID, boss, difficulty string) (*domain.PBRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	b, d, err := s.catalog.Resolve(boss, difficulty)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	rec, err := s.records.Get(ctx, domain.PBKey{PlayerID: playerID, Boss: b, Difficulty: d})
	if err != nil {
		return nil, err
	}
	if rec.BestDamage <= 0 {
		return nil, fmt.Errorf("pb %s: %w", rec.PBKey, domain.ErrNotFound)
	}
	return rec, nil
}

// All returns every non-zero record of a player.
func (s *PBService) All(ctx context.Context, playerID string) (map[domain.PBKey]domain.PBRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	records, err := s.records.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pbs: %w", err)
	}

	out := make(map[domain.PBKey]domain.PBRecord, len(records))
	for _, r := range records {
		if r.BestDamage > 0 {
			out[r.PBKey] = r
		}
	}
	return out, nil
}

// History lists accepted submissions of a player, newest first.
func (s *PBService) History(ctx context.Context, playerID string, limit int) ([]domain.PBHistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 || limit > constants.MaxHistoryLimit {
		limit = constants.MaxHistoryLimit
	}
	return s.records.History(ctx, playerID, limit)
}

// EvidencePath resolves the screenshot file of a record.
func (s *PBService) EvidencePath(rec domain.PBRecord) (string, error) {
	if rec.EvidenceRef == "" || !s.store.Exists(rec.PBKey, rec.EvidenceRef) {
		return "", fmt.Errorf("evidence for %s: %w", rec.PBKey, domain.ErrNotFound)
	}
	return s.store.Path(rec.PBKey, rec.EvidenceRef)
}
