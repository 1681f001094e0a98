package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/fekuna/pantry-service/internal/assistant"
	"github.com/fekuna/pantry-service/internal/auth"
	"github.com/fekuna/pantry-service/internal/inventory"
	"github.com/fekuna/pantry-service/internal/inventory/dto"
	ledgerdto "github.com/fekuna/pantry-service/internal/ledger/dto"
	"github.com/fekuna/pantry-service/internal/logger"
	"github.com/fekuna/pantry-service/internal/model"
	"github.com/fekuna/pantry-service/internal/reconcile"
	"github.com/fekuna/pantry-service/internal/rpc"
)

const ServiceName = "pantry.v1.InventoryService"

// TextParser turns free text into item records; see assistant.Assistant.
type TextParser interface {
	ParseItems(ctx context.Context, text string) ([]assistant.ParsedItem, error)
}

type InventoryHandler struct {
	uc     inventory.UseCase
	engine reconcile.Reconciler
	parser TextParser
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, engine reconcile.Reconciler, parser TextParser, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		engine: engine,
		parser: parser,
		logger: log,
	}
}

func (h *InventoryHandler) ServiceDesc() *grpc.ServiceDesc {
	return rpc.ServiceDesc(ServiceName,
		rpc.Unary("CreateItem", h.CreateItem),
		rpc.Unary("GetItem", h.GetItem),
		rpc.Unary("ListItems", h.ListItems),
		rpc.Unary("UpdateItem", h.UpdateItem),
		rpc.Unary("DeleteItem", h.DeleteItem),
		rpc.Unary("AdjustItem", h.AdjustItem),
		rpc.Unary("ListLowStock", h.ListLowStock),
		rpc.Unary("ListEvents", h.ListEvents),
		rpc.Unary("QuickAdd", h.QuickAdd),
		rpc.Unary("BulkCreate", h.BulkCreate),
		rpc.Unary("ImportText", h.ImportText),
	)
}

type ItemRequest struct {
	ID string `json:"id"`
}

type ItemFields struct {
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Location   string          `json:"location"`
	Container  string          `json:"container"`
	Unit       string          `json:"unit"`
	MinStock   decimal.Decimal `json:"min_stock"`
	Barcode    string          `json:"barcode"`
	Brand      string          `json:"brand"`
	Tags       string          `json:"tags"`
	Notes      string          `json:"notes"`
	ExpiryType string          `json:"expiry_type"`
	ExpiryDate string          `json:"expiry_date"`
}

type CreateItemRequest struct {
	ItemFields
	Quantity decimal.Decimal `json:"quantity"`
}

type UpdateItemRequest struct {
	ID string `json:"id"`
	ItemFields
}

type ListItemsRequest struct {
	Query     string `json:"q"`
	Category  string `json:"category"`
	Location  string `json:"location"`
	Container string `json:"container"`
	Unit      string `json:"unit"`
	Expired   bool   `json:"expired"`
	DaysTo    *int   `json:"days_to"` // expiring within this many days
	LowStock  bool   `json:"low_stock"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

type ListItemsResponse struct {
	Items []model.InventoryItem `json:"items"`
	Total int                   `json:"total"`
}

type AdjustItemRequest struct {
	ID     string          `json:"id"`
	Delta  decimal.Decimal `json:"delta"`
	Action string          `json:"action"`
	Note   string          `json:"note"`
}

type ListEventsRequest struct {
	ItemID    string `json:"item_id"`
	Action    string `json:"action"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

type ListEventsResponse struct {
	Events []model.ConsumptionEvent `json:"events"`
	Total  int                      `json:"total"`
}

type LinesRequest struct {
	Lines []reconcile.RawLine `json:"lines"`
}

type LinesResponse struct {
	Results []reconcile.LineResult `json:"results"`
	Applied int                    `json:"applied"`
	Skipped int                    `json:"skipped"`
	Failed  int                    `json:"failed"`
}

func NewLinesResponse(results []reconcile.LineResult) *LinesResponse {
	applied, skipped, failed := reconcile.Tally(results)
	return &LinesResponse{Results: results, Applied: applied, Skipped: skipped, Failed: failed}
}

type ImportTextRequest struct {
	Text   string `json:"text"`
	DryRun bool   `json:"dry_run"`
}

type ImportTextResponse struct {
	Parsed []assistant.ParsedItem `json:"parsed"`
	*LinesResponse
}

func (h *InventoryHandler) CreateItem(ctx context.Context, req *CreateItemRequest) (*model.InventoryItem, error) {
	expiry, err := rpc.ParseDate(req.ExpiryDate)
	if err != nil {
		return nil, rpc.Error(err)
	}
	item, err := h.engine.CreateItem(ctx, &dto.CreateItemInput{
		OwnerID:    auth.GetOwnerID(ctx),
		Name:       req.Name,
		Category:   req.Category,
		Location:   req.Location,
		Container:  req.Container,
		Quantity:   req.Quantity,
		Unit:       req.Unit,
		MinStock:   req.MinStock,
		Barcode:    req.Barcode,
		Brand:      req.Brand,
		Tags:       req.Tags,
		Notes:      req.Notes,
		ExpiryType: model.ExpiryType(req.ExpiryType),
		ExpiryDate: expiry,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return item, nil
}

func (h *InventoryHandler) GetItem(ctx context.Context, req *ItemRequest) (*model.InventoryItem, error) {
	item, err := h.uc.GetItem(ctx, auth.GetOwnerID(ctx), req.ID)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return item, nil
}

func (h *InventoryHandler) ListItems(ctx context.Context, req *ListItemsRequest) (*ListItemsResponse, error) {
	today := model.DateOf(time.Now().UTC())
	filters := &dto.InventoryFilters{
		OwnerID:   auth.GetOwnerID(ctx),
		Query:     req.Query,
		Category:  req.Category,
		Location:  req.Location,
		Container: req.Container,
		Unit:      req.Unit,
		Expired:   req.Expired,
		LowStock:  req.LowStock,
		Today:     today,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if req.DaysTo != nil {
		by := today.AddDate(0, 0, *req.DaysTo)
		filters.ExpiresBy = &by
	}

	items, total, err := h.uc.ListItems(ctx, filters)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &ListItemsResponse{Items: items, Total: total}, nil
}

func (h *InventoryHandler) UpdateItem(ctx context.Context, req *UpdateItemRequest) (*model.InventoryItem, error) {
	expiry, err := rpc.ParseDate(req.ExpiryDate)
	if err != nil {
		return nil, rpc.Error(err)
	}
	item, err := h.uc.UpdateItem(ctx, &dto.UpdateItemInput{
		ID:         req.ID,
		OwnerID:    auth.GetOwnerID(ctx),
		Name:       req.Name,
		Category:   req.Category,
		Location:   req.Location,
		Container:  req.Container,
		Unit:       req.Unit,
		MinStock:   req.MinStock,
		Barcode:    req.Barcode,
		Brand:      req.Brand,
		Tags:       req.Tags,
		Notes:      req.Notes,
		ExpiryType: model.ExpiryType(req.ExpiryType),
		ExpiryDate: expiry,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return item, nil
}

func (h *InventoryHandler) DeleteItem(ctx context.Context, req *ItemRequest) (*rpc.Empty, error) {
	if err := h.uc.DeleteItem(ctx, auth.GetOwnerID(ctx), req.ID); err != nil {
		return nil, rpc.Error(err)
	}
	return &rpc.Empty{}, nil
}

func (h *InventoryHandler) AdjustItem(ctx context.Context, req *AdjustItemRequest) (*model.InventoryItem, error) {
	item, err := h.engine.Adjust(ctx, &dto.AdjustInput{
		OwnerID: auth.GetOwnerID(ctx),
		ItemID:  req.ID,
		Delta:   req.Delta,
		Action:  model.EventAction(req.Action),
		Note:    req.Note,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return item, nil
}

func (h *InventoryHandler) ListLowStock(ctx context.Context, req *ListItemsRequest) (*ListItemsResponse, error) {
	items, total, err := h.uc.ListLowStock(ctx, auth.GetOwnerID(ctx), req.Page, req.PageSize)
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &ListItemsResponse{Items: items, Total: total}, nil
}

func (h *InventoryHandler) ListEvents(ctx context.Context, req *ListEventsRequest) (*ListEventsResponse, error) {
	start, err := rpc.ParseDate(req.StartDate)
	if err != nil {
		return nil, rpc.Error(err)
	}
	end, err := rpc.ParseDate(req.EndDate)
	if err != nil {
		return nil, rpc.Error(err)
	}
	if end != nil {
		// inclusive of the whole end day
		e := end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		end = &e
	}

	events, total, err := h.uc.ListEvents(ctx, &ledgerdto.EventFilters{
		OwnerID:   auth.GetOwnerID(ctx),
		ItemID:    req.ItemID,
		Action:    req.Action,
		StartDate: start,
		EndDate:   end,
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		return nil, rpc.Error(err)
	}
	return &ListEventsResponse{Events: events, Total: total}, nil
}

func (h *InventoryHandler) QuickAdd(ctx context.Context, req *LinesRequest) (*LinesResponse, error) {
	return NewLinesResponse(h.engine.QuickAdd(ctx, auth.GetOwnerID(ctx), req.Lines)), nil
}

func (h *InventoryHandler) BulkCreate(ctx context.Context, req *LinesRequest) (*LinesResponse, error) {
	return NewLinesResponse(h.engine.BulkCreate(ctx, auth.GetOwnerID(ctx), req.Lines)), nil
}

// ImportText parses free text and, unless DryRun is set, adds the result to
// stock.
func (h *InventoryHandler) ImportText(ctx context.Context, req *ImportTextRequest) (*ImportTextResponse, error) {
	ownerID := auth.GetOwnerID(ctx)
	parsed, err := h.parser.ParseItems(ctx, req.Text)
	if err != nil {
		h.logger.Error("failed to parse import text", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, rpc.Error(err)
	}

	resp := &ImportTextResponse{Parsed: parsed, LinesResponse: NewLinesResponse(nil)}
	if req.DryRun || len(parsed) == 0 {
		return resp, nil
	}
	resp.LinesResponse = NewLinesResponse(h.engine.Import(ctx, ownerID, reconcile.LinesFromParsed(parsed)))
	return resp, nil
}
