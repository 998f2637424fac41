package server

import (
	"net/http"

	"connectrpc.com/connect"
)

const TrackerServiceName = "pbtracker.v1.Tracker"

const (
	SubmitPBProcedure      = "/" + TrackerServiceName + "/SubmitPB"
	GetPBProcedure         = "/" + TrackerServiceName + "/GetPB"
	GetAllPBsProcedure     = "/" + TrackerServiceName + "/GetAllPBs"
	GetHistoryProcedure    = "/" + TrackerServiceName + "/GetHistory"
	LeaderboardProcedure   = "/" + TrackerServiceName + "/Leaderboard"
	ResolvePlayerProcedure = "/" + TrackerServiceName + "/ResolvePlayer"
	MercyAddProcedure      = "/" + TrackerServiceName + "/MercyAdd"
	MercyResetProcedure    = "/" + TrackerServiceName + "/MercyReset"
	MercyStatusProcedure   = "/" + TrackerServiceName + "/MercyStatus"
)

// NewTrackerHandler builds the HTTP handler for every tracker procedure and
// returns the path prefix to mount it on.
func NewTrackerHandler(s *TrackerServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SubmitPBProcedure, connect.NewUnaryHandler(SubmitPBProcedure, s.SubmitPB, opts...))
	mux.Handle(GetPBProcedure, connect.NewUnaryHandler(GetPBProcedure, s.GetPB, opts...))
	mux.Handle(GetAllPBsProcedure, connect.NewUnaryHandler(GetAllPBsProcedure, s.GetAllPBs, opts...))
	mux.Handle(GetHistoryProcedure, connect.NewUnaryHandler(GetHistoryProcedure, s.GetHistory, opts...))
	mux.Handle(LeaderboardProcedure, connect.NewUnaryHandler(LeaderboardProcedure, s.Leaderboard, opts...))
	mux.Handle(ResolvePlayerProcedure, connect.NewUnaryHandler(ResolvePlayerProcedure, s.ResolvePlayer, opts...))
	mux.Handle(MercyAddProcedure, connect.NewUnaryHandler(MercyAddProcedure, s.MercyAdd, opts...))
	mux.Handle(MercyResetProcedure, connect.NewUnaryHandler(MercyResetProcedure, s.MercyReset, opts...))
	mux.Handle(MercyStatusProcedure, connect.NewUnaryHandler(MercyStatusProcedure, s.MercyStatus, opts...))

	return "/" + TrackerServiceName + "/", mux
}
