package handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/fekuna/pantry-service/internal/auth"
	"github.com/fekuna/pantry-service/internal/cook"
	"github.com/fekuna/pantry-service/internal/cook/dto"
	invhandler "github.com/fekuna/pantry-service/internal/inventory/handler"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/reconcile"
	"github.com/fekuna/pantry-service/internal/rpc"
)

const ServiceName = "pantry.v1.CookService"

type CookHandler struct {
	repo   cook.Repository
	engine reconcile.Reconciler
	logger logger.ZapLogger
}

func NewCookHandler(repo cook.Repository, engine reconcile.Reconciler, log logger.ZapLogger) *CookHandler {
	return &CookHandler{repo: repo, engine: engine, logger: log}
}

func (h *CookHandler) ServiceDesc() *grpc.ServiceDesc {
	return rpc.ServiceDesc(ServiceName,
		rpc.Unary("Cook", h.Cook),
		rpc.Unary("ListHistory", h.ListHistory),
		rpc.Unary("GetHistory", h.GetHistory),
	)
}

type CookRequest struct {
	Title string              `json:"title"`
	Lines []reconcile.RawLine `json:"lines"`
}

type CookResponse struct {
	History  *model.CookHistory `json:"history"`
	Consumed int                `json:"consumed"`
	*invhandler.LinesResponse
}

type HistoryRequest struct {
	ID string `json:"id"`
}

type ListHistoryRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type ListHistoryResponse struct {
	History []model.CookHistory `json:"history"`
	Total   int                 `json:"total"`
}

func (h *CookHandler) Cook(ctx context.Context, req *CookRequest) (*CookResponse, error) {
	history, results, err := h.engine.Cook(ctx, auth.GetOwnerID(ctx), req.Title, req.Lines)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &CookResponse{
		History:       history,
		Consumed:      history.ConsumedCount(),
		LinesResponse: invhandler.NewLinesResponse(results),
	}, nil
}

func (h *CookHandler) ListHistory(ctx context.Context, req *ListHistoryRequest) (*ListHistoryResponse, error) {
	history, total, err := h.repo.FindAll(ctx, &dto.HistoryFilters{
		OwnerID:  auth.GetOwnerID(ctx),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &ListHistoryResponse{History: history, Total: total}, nil
}

func (h *CookHandler) GetHistory(ctx context.Context, req *HistoryRequest) (*model.CookHistory, error) {
	history, err := h.repo.GetByID(ctx, auth.GetOwnerID(ctx), req.ID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	if history == nil {
		return nil, rpc.Error(model.ErrNotFound)
	}
	return history, nil
}
