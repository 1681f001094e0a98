package handler

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/fekuna/pantry-service/internal/assistant"
	"github.com/fekuna/pantry-service/internal/auth"
	invhandler "github.com/fekuna/pantry-service/internal/inventory/handler"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/reconcile"
	"github.com/fekuna/pantry-service/internal/rpc"
	"github.com/fekuna/pantry-service/internal/shopping"
	"github.com/fekuna/pantry-service/internal/shopping/dto"
)

const ServiceName = "pantry.v1.ShoppingService"

type ShoppingHandler struct {
	uc     shopping.UseCase
	engine reconcile.Reconciler
	logger logger.ZapLogger
}

func NewShoppingHandler(uc shopping.UseCase, engine reconcile.Reconciler, log logger.ZapLogger) *ShoppingHandler {
	return &ShoppingHandler{uc: uc, engine: engine, logger: log}
}

func (h *ShoppingHandler) ServiceDesc() *grpc.ServiceDesc {
	return rpc.ServiceDesc(ServiceName,
		rpc.Unary("CreateTask", h.CreateTask),
		rpc.Unary("GetTask", h.GetTask),
		rpc.Unary("ListTasks", h.ListTasks),
		rpc.Unary("UpdateTask", h.UpdateTask),
		rpc.Unary("DeleteTask", h.DeleteTask),
		rpc.Unary("Summary", h.Summary),
		rpc.Unary("PurchaseTask", h.PurchaseTask),
		rpc.Unary("PurchaseBatch", h.PurchaseBatch),
		rpc.Unary("GenerateLowStock", h.GenerateLowStock),
		rpc.Unary("AddLines", h.AddLines),
		rpc.Unary("SuggestRestock", h.SuggestRestock),
	)
}

type TaskRequest struct {
	ID string `json:"id"`
}

type CreateTaskRequest struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Source   string          `json:"source"`
	DueDate  string          `json:"due_date"`
	ItemID   *string         `json:"item_id"`
}

type UpdateTaskRequest struct {
	ID       string           `json:"id"`
	Name     *string          `json:"name"`
	Quantity *decimal.Decimal `json:"quantity"`
	Unit     *string          `json:"unit"`
	DueDate  string           `json:"due_date"`
	ItemID   *string          `json:"item_id"`
}

type ListTasksRequest struct {
	Status   string `json:"status"`
	Source   string `json:"source"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type ListTasksResponse struct {
	Tasks []model.ShoppingTask `json:"tasks"`
	Total int                  `json:"total"`
}

type PurchaseRequest struct {
	TaskID     string           `json:"task_id"`
	Quantity   *decimal.Decimal `json:"quantity"`
	ExpiryDate string           `json:"expiry_date"`
}

type PurchaseBatchRequest struct {
	Purchases []PurchaseRequest `json:"purchases"`
}

type AddLinesRequest struct {
	Source string              `json:"source"`
	Lines  []reconcile.RawLine `json:"lines"`
}

type SuggestRestockRequest struct {
	HorizonDays int `json:"horizon_days"`
	// Materialize adds the suggestions to the list as ai tasks.
	Materialize bool `json:"materialize"`
}

type SuggestRestockResponse struct {
	Suggestions []assistant.Suggestion `json:"suggestions"`
	*invhandler.LinesResponse
}

func (h *ShoppingHandler) CreateTask(ctx context.Context, req *CreateTaskRequest) (*model.ShoppingTask, error) {
	due, err := rpc.ParseDate(req.DueDate)
	if err != nil {
		return nil, rpc.Error(err)
	}
	task, err := h.uc.CreateTask(ctx, &dto.CreateTaskInput{
		OwnerID:  auth.GetOwnerID(ctx),
		ItemID:   req.ItemID,
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Source:   model.TaskSource(req.Source),
		DueDate:  due,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return task, nil
}

func (h *ShoppingHandler) GetTask(ctx context.Context, req *TaskRequest) (*model.ShoppingTask, error) {
	task, err := h.uc.GetTask(ctx, auth.GetOwnerID(ctx), req.ID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return task, nil
}

func (h *ShoppingHandler) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	tasks, total, err := h.uc.ListTasks(ctx, &dto.TaskFilters{
		OwnerID:  auth.GetOwnerID(ctx),
		Status:   req.Status,
		Source:   req.Source,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &ListTasksResponse{Tasks: tasks, Total: total}, nil
}

func (h *ShoppingHandler) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*model.ShoppingTask, error) {
	due, err := rpc.ParseDate(req.DueDate)
	if err != nil {
		return nil, rpc.Error(err)
	}
	task, err := h.uc.UpdateTask(ctx, &dto.UpdateTaskInput{
		OwnerID:  auth.GetOwnerID(ctx),
		ID:       req.ID,
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		DueDate:  due,
		ItemID:   req.ItemID,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return task, nil
}

func (h *ShoppingHandler) DeleteTask(ctx context.Context, req *TaskRequest) (*rpc.Empty, error) {
	if err := h.uc.DeleteTask(ctx, auth.GetOwnerID(ctx), req.ID); err != nil {
		return nil, rpc.Error(err)
	}
	return &rpc.Empty{}, nil
}

func (h *ShoppingHandler) Summary(ctx context.Context, _ *rpc.Empty) (*dto.Summary, error) {
	summary, err := h.uc.Summary(ctx, auth.GetOwnerID(ctx))
	if err != nil {
		return nil, rpc.Error(err)
	}
	return summary, nil
}

func (h *ShoppingHandler) PurchaseTask(ctx context.Context, req *PurchaseRequest) (*reconcile.LineResult, error) {
	input, err := req.input()
	if err != nil {
		return nil, rpc.Error(err)
	}
	res, err := h.engine.PurchaseTask(ctx, auth.GetOwnerID(ctx), input)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &res, nil
}

// PurchaseBatch rejects the whole request when any expiry date is malformed;
// otherwise every purchase is attempted on its own.
func (h *ShoppingHandler) PurchaseBatch(ctx context.Context, req *PurchaseBatchRequest) (*invhandler.LinesResponse, error) {
	inputs := make([]dto.PurchaseInput, 0, len(req.Purchases))
	for _, p := range req.Purchases {
		input, err := p.input()
		if err != nil {
			return nil, rpc.Error(err)
		}
		inputs = append(inputs, input)
	}
	return invhandler.NewLinesResponse(h.engine.PurchaseBatch(ctx, auth.GetOwnerID(ctx), inputs)), nil
}

func (h *ShoppingHandler) GenerateLowStock(ctx context.Context, _ *rpc.Empty) (*ListTasksResponse, error) {
	tasks, err := h.engine.GenerateLowStockTasks(ctx, auth.GetOwnerID(ctx))
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &ListTasksResponse{Tasks: tasks, Total: len(tasks)}, nil
}

func (h *ShoppingHandler) AddLines(ctx context.Context, req *AddLinesRequest) (*invhandler.LinesResponse, error) {
	source := model.TaskSource(req.Source)
	if source == "" {
		source = model.SourcePlan
	}
	if !source.Valid() {
		return nil, rpc.Error(model.ErrInvalidLine)
	}
	return invhandler.NewLinesResponse(h.engine.AddShoppingLines(ctx, auth.GetOwnerID(ctx), source, req.Lines)), nil
}

func (h *ShoppingHandler) SuggestRestock(ctx context.Context, req *SuggestRestockRequest) (*SuggestRestockResponse, error) {
	ownerID := auth.GetOwnerID(ctx)
	suggestions, err := h.uc.SuggestRestock(ctx, ownerID, req.HorizonDays)
	if err != nil {
		h.logger.Error("failed to suggest restock", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, rpc.Error(err)
	}

	resp := &SuggestRestockResponse{Suggestions: suggestions, LinesResponse: invhandler.NewLinesResponse(nil)}
	if req.Materialize && len(suggestions) > 0 {
		lines := reconcile.LinesFromSuggestions(suggestions)
		resp.LinesResponse = invhandler.NewLinesResponse(h.engine.AddShoppingLines(ctx, ownerID, model.SourceAI, lines))
	}
	return resp, nil
}

func (p PurchaseRequest) input() (dto.PurchaseInput, error) {
	expiry, err := rpc.ParseDate(p.ExpiryDate)
	if err != nil {
		return dto.PurchaseInput{}, err
	}
	return dto.PurchaseInput{TaskID: p.TaskID, Quantity: p.Quantity, ExpiryDate: expiry}, nil
}
