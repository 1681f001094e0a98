package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/fekuna/pantry-service/internal/auth"
	"github.com/fekuna/pantry-service/internal/priority"
	"github.com/fekuna/pantry-service/internal/rpc"
)

const ServiceName = "pantry.v1.PriorityService"

// Ranker is implemented by priority.Scorer.
type Ranker interface {
	Rank(ctx context.Context, ownerID string, windowDays int) ([]priority.Entry, error)
	Summary(ctx context.Context, ownerID string, windowDays int) (*priority.Summary, error)
}

type PriorityHandler struct {
	ranker Ranker
}

func NewPriorityHandler(ranker Ranker) *PriorityHandler {
	return &PriorityHandler{ranker: ranker}
}

func (h *PriorityHandler) ServiceDesc() *grpc.ServiceDesc {
	return rpc.ServiceDesc(ServiceName,
		rpc.Unary("Rank", h.Rank),
		rpc.Unary("Summary", h.Summary),
	)
}

type RankRequest struct {
	WindowDays int `json:"window_days"`
}

type RankResponse struct {
	Entries []priority.Entry `json:"entries"`
}

func (h *PriorityHandler) Rank(ctx context.Context, req *RankRequest) (*RankResponse, error) {
	entries, err := h.ranker.Rank(ctx, auth.GetOwnerID(ctx), req.WindowDays)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &RankResponse{Entries: entries}, nil
}

func (h *PriorityHandler) Summary(ctx context.Context, req *RankRequest) (*priority.Summary, error) {
	summary, err := h.ranker.Summary(ctx, auth.GetOwnerID(ctx), req.WindowDays)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return summary, nil
}
