package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"pb-tracker/internal/catalog"
	"pb-tracker/internal/domain"
	"pb-tracker/internal/repository"
	"pb-tracker/internal/service"
	"pb-tracker/internal/storage"
	"pb-tracker/internal/testutil"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopFetcher struct{}

func (nopFetcher) Fetch(context.Context, string) ([]byte, error) {
	return nil, errors.New("offline")
}

func newTestTracker(t *testing.T) *TrackerServer {
	t.Helper()

	sqlDB, queries := testutil.OpenTestDB(t)
	cat, err := catalog.Load("")
	require.NoError(t, err)
	store, err := storage.NewScreenshotStoreAt(filepath.Join(t.TempDir(), "shots"), zerolog.Nop())
	require.NoError(t, err)

	log := zerolog.Nop()
	records := repository.NewPBRecordRepository(sqlDB, queries, log)
	players := repository.NewPlayerRepository(sqlDB, queries, log)
	counters := repository.NewMercyCounterRepository(sqlDB, queries, log)

	return NewTrackerServer(
		service.NewPBService(records, cat, store, nopFetcher{}, log),
		service.NewLeaderboardService(records, cat, log),
		service.NewMercyService(counters, cat, log),
		service.NewPlayerService(players, log),
		cat,
	)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	path, handler := NewTrackerHandler(newTestTracker(t))
	assert.Equal(t, "/pbtracker.v1.Tracker/", path)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func call[Req, Res any](t *testing.T, srv *httptest.Server, procedure string, req *Req) (*Res, error) {
	t.Helper()
	client := connect.NewClient[Req, Res](srv.Client(), srv.URL+procedure, connect.WithCodec(JSONCodec{}))
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func TestSubmitAndLookupOverRPC(t *testing.T) {
	srv := newTestServer(t)

	submit := func(dmg string) (*SubmitPBResponse, error) {
		return call[SubmitPBRequest, SubmitPBResponse](t, srv, SubmitPBProcedure, &SubmitPBRequest{
			PlayerID:    "42",
			DisplayName: "[RTF] Alice",
			Boss:        "hydra",
			Difficulty:  "nm",
			Damage:      dmg,
			Evidence:    Evidence{Filename: "shot.png", Data: []byte("img")},
		})
	}

	resp, err := submit("1.5M")
	require.NoError(t, err)
	assert.Equal(t, "improved", resp.Status)
	assert.Equal(t, int64(1_500_000), resp.NewBest)
	assert.Equal(t, "1.5M", resp.Display)
	require.NotNil(t, resp.Record)
	assert.Equal(t, "Nightmare", resp.Record.DifficultyName)

	resp, err = submit("1200000")
	require.NoError(t, err)
	assert.Equal(t, "not_improved", resp.Status)
	assert.Equal(t, int64(1_500_000), resp.NewBest)

	_, err = submit("Alice")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	pb, err := call[GetPBRequest, GetPBResponse](t, srv, GetPBProcedure, &GetPBRequest{
		PlayerID: "42", Boss: "hydra", Difficulty: "nightmare",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000), pb.Record.BestDamage)
	assert.NotEmpty(t, pb.EvidencePath)

	_, err = call[GetPBRequest, GetPBResponse](t, srv, GetPBProcedure, &GetPBRequest{
		PlayerID: "42", Boss: "hydra", Difficulty: "hard",
	})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	all, err := call[GetAllPBsRequest, GetAllPBsResponse](t, srv, GetAllPBsProcedure, &GetAllPBsRequest{PlayerID: "42"})
	require.NoError(t, err)
	assert.Len(t, all.Records, 1)

	history, err := call[GetHistoryRequest, GetHistoryResponse](t, srv, GetHistoryProcedure, &GetHistoryRequest{PlayerID: "42"})
	require.NoError(t, err)
	assert.Len(t, history.Entries, 1)

	board, err := call[LeaderboardRequest, LeaderboardResponse](t, srv, LeaderboardProcedure, &LeaderboardRequest{
		Boss: "hydra", Difficulty: "nightmare", Clan: "RTF",
	})
	require.NoError(t, err)
	require.Len(t, board.Boards, 1)
	require.Len(t, board.Boards[0].Entries, 1)
	assert.Equal(t, "RTF", board.Boards[0].Entries[0].Clan)
	assert.Equal(t, 1, board.Boards[0].Entries[0].Rank)

	boards, err := call[LeaderboardRequest, LeaderboardResponse](t, srv, LeaderboardProcedure, &LeaderboardRequest{
		Boss: "hydra", AllDifficulties: true,
	})
	require.NoError(t, err)
	assert.Len(t, boards.Boards, 4)

	player, err := call[ResolvePlayerRequest, ResolvePlayerResponse](t, srv, ResolvePlayerProcedure, &ResolvePlayerRequest{Query: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "42", player.PlayerID)
}

func TestSubmitRejectsBadEvidenceOverRPC(t *testing.T) {
	srv := newTestServer(t)

	_, err := call[SubmitPBRequest, SubmitPBResponse](t, srv, SubmitPBProcedure, &SubmitPBRequest{
		PlayerID: "1", DisplayName: "Alice", Boss: "hydra", Difficulty: "hard", Damage: "10K",
		Evidence: Evidence{Filename: "photo.txt", Data: []byte("x")},
	})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = call[SubmitPBRequest, SubmitPBResponse](t, srv, SubmitPBProcedure, &SubmitPBRequest{
		PlayerID: "1", DisplayName: "Alice", Boss: "hydra", Difficulty: "hard", Damage: "10K",
		Evidence: Evidence{Filename: "shot.png", URL: "https://cdn.example/shot.png"},
	})
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))
}

func TestMercyOverRPC(t *testing.T) {
	srv := newTestServer(t)

	added, err := call[MercyAddRequest, MercyStatusResponse](t, srv, MercyAddProcedure, &MercyAddRequest{
		PlayerID: "1", Category: "primal", Pulls: 80,
	})
	require.NoError(t, err)
	require.Len(t, added.Statuses, 2)
	assert.InDelta(t, 5.0, added.Statuses[0].ChancePercent, 1e-9)

	reset, err := call[MercyResetRequest, MercyResetResponse](t, srv, MercyResetProcedure, &MercyResetRequest{
		PlayerID: "1", Category: "primal", Subtype: "mythical",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"primal_mythical"}, reset.Reset)

	status, err := call[MercyStatusRequest, MercyStatusResponse](t, srv, MercyStatusProcedure, &MercyStatusRequest{PlayerID: "1"})
	require.NoError(t, err)
	require.Len(t, status.Statuses, 2)
	assert.Equal(t, int64(80), status.Statuses[0].Pulls)
	assert.Equal(t, int64(0), status.Statuses[1].Pulls)

	_, err = call[MercyAddRequest, MercyStatusResponse](t, srv, MercyAddProcedure, &MercyAddRequest{
		PlayerID: "1", Category: "nope", Pulls: 1,
	})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestHandlersLogDuration(t *testing.T) {
	tracker := newTestTracker(t)

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	_, err := tracker.GetHistory(ctx, connect.NewRequest(&GetHistoryRequest{PlayerID: "1"}))
	require.NoError(t, err)
	_, err = tracker.ResolvePlayer(ctx, connect.NewRequest(&ResolvePlayerRequest{Query: "nobody"}))
	require.Error(t, err)
	_, err = tracker.MercyStatus(ctx, connect.NewRequest(&MercyStatusRequest{PlayerID: "1"}))
	require.NoError(t, err)

	for _, method := range []string{"GetHistory", "ResolvePlayer", "MercyStatus"} {
		assert.Contains(t, buf.String(), `"method":"`+method+`"`)
	}
	assert.Equal(t, 3, strings.Count(buf.String(), "rpc finished"))
}

func TestToConnectError(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{fmt.Errorf("x: %w", domain.ErrInvalidInput), connect.CodeInvalidArgument},
		{domain.ErrRejectedEvidence, connect.CodeInvalidArgument},
		{domain.ErrNotFound, connect.CodeNotFound},
		{&service.AmbiguousPlayerError{Query: "a"}, connect.CodeFailedPrecondition},
		{domain.ErrStorageFailed, connect.CodeUnavailable},
		{context.DeadlineExceeded, connect.CodeDeadlineExceeded},
		{errors.New("boom"), connect.CodeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, connect.CodeOf(toConnectError(tt.err)), tt.err.Error())
	}
}

func TestJSONCodec(t *testing.T) {
	var c JSONCodec
	assert.Equal(t, "json", c.Name())

	var req GetPBRequest
	require.NoError(t, c.Unmarshal(nil, &req))
	require.NoError(t, c.Unmarshal([]byte(`{"player_id":"7","boss":"cvc"}`), &req))
	assert.Equal(t, GetPBRequest{PlayerID: "7", Boss: "cvc"}, req)

	err := c.Unmarshal([]byte(`{"player_id":7}`), &req)
	assert.ErrorContains(t, err, "GetPBRequest")
}
