package server

import (
	"context"
	"errors"
	"fmt"
	"pb-tracker/internal/catalog"
	"pb-tracker/internal/damage"
	"pb-tracker/internal/domain"
	"pb-tracker/internal/service"
	"sort"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

type TrackerServer struct {
	pbSvc          *service.PBService
	leaderboardSvc *service.LeaderboardService
	mercySvc       *service.MercyService
	playerSvc      *service.PlayerService
	catalog        *catalog.Catalog
}

func NewTrackerServer(
	pbSvc *service.PBService,
	leaderboardSvc *service.LeaderboardService,
	mercySvc *service.MercyService,
	playerSvc *service.PlayerService,
	cat *catalog.Catalog,
) *TrackerServer {
	return &TrackerServer{
		pbSvc:          pbSvc,
		leaderboardSvc: leaderboardSvc,
		mercySvc:       mercySvc,
		playerSvc:      playerSvc,
		catalog:        cat,
	}
}

func (s *TrackerServer) SubmitPB(ctx context.Context, req *connect.Request[SubmitPBRequest]) (*connect.Response[SubmitPBResponse], error) {
	defer timed(ctx, "SubmitPB")()

	var amount int64
	switch tok := damage.Parse(req.Msg.Damage).(type) {
	case damage.Amount:
		amount = int64(tok)
	case damage.NotAnAmount:
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("%w: %q is not a damage amount", domain.ErrInvalidInput, string(tok)))
	}

	out, err := s.pbSvc.Submit(ctx, service.SubmitRequest{
		PlayerID:    req.Msg.PlayerID,
		DisplayName: req.Msg.DisplayName,
		Boss:        req.Msg.Boss,
		Difficulty:  req.Msg.Difficulty,
		Damage:      amount,
		Evidence: service.Evidence{
			Filename: req.Msg.Evidence.Filename,
			Data:     req.Msg.Evidence.Data,
			URL:      req.Msg.Evidence.URL,
		},
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &SubmitPBResponse{
		Status:       string(out.Status),
		PreviousBest: out.PreviousBest,
		NewBest:      out.NewBest,
		Improvement:  out.Improvement,
		Display:      damage.Format(out.NewBest),
	}
	if out.Record != nil {
		rec := toPBRecord(*out.Record, s.catalog.DifficultyName(out.Record.Difficulty))
		resp.Record = &rec
	}
	return connect.NewResponse(resp), nil
}

func (s *TrackerServer) GetPB(ctx context.Context, req *connect.Request[GetPBRequest]) (*connect.Response[GetPBResponse], error) {
	defer timed(ctx, "GetPB")()

	rec, err := s.pbSvc.Lookup(ctx, req.Msg.PlayerID, req.Msg.Boss, req.Msg.Difficulty)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &GetPBResponse{Record: toPBRecord(*rec, s.catalog.DifficultyName(rec.Difficulty))}
	if path, err := s.pbSvc.EvidencePath(*rec); err == nil {
		resp.EvidencePath = path
	} else {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", rec.PBKey.String()).Msg("pb has no readable evidence")
	}
	return connect.NewResponse(resp), nil
}

func (s *TrackerServer) GetAllPBs(ctx context.Context, req *connect.Request[GetAllPBsRequest]) (*connect.Response[GetAllPBsResponse], error) {
	defer timed(ctx, "GetAllPBs")()

	all, err := s.pbSvc.All(ctx, req.Msg.PlayerID)
	if err != nil {
		return nil, toConnectError(err)
	}

	records := make([]PBRecord, 0, len(all))
	for _, r := range all {
		records = append(records, toPBRecord(r, s.catalog.DifficultyName(r.Difficulty)))
	}
	order := s.difficultyOrder()
	sort.Slice(records, func(i, j int) bool {
		if records[i].Boss != records[j].Boss {
			return records[i].Boss < records[j].Boss
		}
		return order[records[i].Boss+"/"+records[i].Difficulty] < order[records[j].Boss+"/"+records[j].Difficulty]
	})

	return connect.NewResponse(&GetAllPBsResponse{Records: records}), nil
}

func (s *TrackerServer) GetHistory(ctx context.Context, req *connect.Request[GetHistoryRequest]) (*connect.Response[GetHistoryResponse], error) {
	defer timed(ctx, "GetHistory")()

	entries, err := s.pbSvc.History(ctx, req.Msg.PlayerID, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = HistoryEntry{
			ID:           e.ID,
			Boss:         e.Boss,
			Difficulty:   e.Difficulty,
			Damage:       e.Damage,
			PreviousBest: e.PreviousBest,
			CreatedAt:    e.CreatedAt,
		}
	}
	return connect.NewResponse(&GetHistoryResponse{Entries: out}), nil
}

func (s *TrackerServer) Leaderboard(ctx context.Context, req *connect.Request[LeaderboardRequest]) (*connect.Response[LeaderboardResponse], error) {
	defer timed(ctx, "Leaderboard")()

	msg := req.Msg
	if msg.AllDifficulties {
		boards, err := s.leaderboardSvc.TopAll(ctx, msg.Boss, msg.Limit, msg.Clan)
		if err != nil {
			return nil, toConnectError(err)
		}
		out := make([]Board, len(boards))
		for i, b := range boards {
			out[i] = Board{
				Boss:           b.Boss,
				Difficulty:     b.Difficulty,
				DifficultyName: s.catalog.DifficultyName(b.Difficulty),
				Entries:        toEntries(b.Entries),
			}
		}
		return connect.NewResponse(&LeaderboardResponse{Boards: out}), nil
	}

	entries, err := s.leaderboardSvc.Top(ctx, msg.Boss, msg.Difficulty, msg.Limit, msg.Clan)
	if err != nil {
		return nil, toConnectError(err)
	}
	boss, difficulty, _ := s.catalog.Resolve(msg.Boss, msg.Difficulty)
	return connect.NewResponse(&LeaderboardResponse{Boards: []Board{{
		Boss:           boss,
		Difficulty:     difficulty,
		DifficultyName: s.catalog.DifficultyName(difficulty),
		Entries:        toEntries(entries),
	}}}), nil
}

func (s *TrackerServer) ResolvePlayer(ctx context.Context, req *connect.Request[ResolvePlayerRequest]) (*connect.Response[ResolvePlayerResponse], error) {
	defer timed(ctx, "ResolvePlayer")()

	player, err := s.playerSvc.Resolve(ctx, req.Msg.Query)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ResolvePlayerResponse{
		PlayerID:    player.ID,
		DisplayName: player.DisplayName,
	}), nil
}

func (s *TrackerServer) MercyAdd(ctx context.Context, req *connect.Request[MercyAddRequest]) (*connect.Response[MercyStatusResponse], error) {
	defer timed(ctx, "MercyAdd")()

	statuses, err := s.mercySvc.Add(ctx, req.Msg.PlayerID, req.Msg.Category, req.Msg.Pulls)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MercyStatusResponse{Statuses: statuses}), nil
}

func (s *TrackerServer) MercyReset(ctx context.Context, req *connect.Request[MercyResetRequest]) (*connect.Response[MercyResetResponse], error) {
	defer timed(ctx, "MercyReset")()

	reset, err := s.mercySvc.Reset(ctx, req.Msg.PlayerID, req.Msg.Category, req.Msg.Subtype)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&MercyResetResponse{Reset: reset}), nil
}

func (s *TrackerServer) MercyStatus(ctx context.Context, req *connect.Request[MercyStatusRequest]) (*connect.Response[MercyStatusResponse], error) {
	defer timed(ctx, "MercyStatus")()

	var (
		resp MercyStatusResponse
		err  error
	)
	if req.Msg.Category == "" {
		resp.Statuses, err = s.mercySvc.StatusAll(ctx, req.Msg.PlayerID)
	} else {
		resp.Statuses, err = s.mercySvc.Status(ctx, req.Msg.PlayerID, req.Msg.Category)
	}
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&resp), nil
}

// difficultyOrder ranks boss/difficulty pairs in catalog order.
func (s *TrackerServer) difficultyOrder() map[string]int {
	order := make(map[string]int)
	for _, b := range s.catalog.Bosses() {
		order[b.Code+"/"] = 0
		for i, d := range b.Difficulties {
			order[b.Code+"/"+d] = i
		}
	}
	return order
}

func toConnectError(err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrRejectedEvidence):
		code = connect.CodeInvalidArgument
	case errors.Is(err, domain.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, domain.ErrAmbiguousPlayer):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, domain.ErrStorageFailed):
		code = connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	default:
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}

func timed(ctx context.Context, method string) func() {
	start := time.Now()
	return func() {
		zerolog.Ctx(ctx).Debug().
			Str("method", method).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("rpc finished")
	}
}
