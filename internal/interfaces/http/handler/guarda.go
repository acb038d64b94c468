package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/dto"
	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/middleware"
)

// ReceiptService is the receipt side of the guarda application layer
type ReceiptService interface {
	CreateLocal(ctx context.Context, cmd appguarda.CreateReceiptCommand) (*appguarda.ReceiptView, error)
	List(ctx context.Context, stockerCode string) (*appguarda.ReceiptList, error)
	Get(ctx context.Context, id int64) (*appguarda.ReceiptDetail, error)
	Start(ctx context.Context, id int64) (*appguarda.ReceiptProgress, error)
	Finish(ctx context.Context, id int64) (*appguarda.ReceiptProgress, error)
	Counts(ctx context.Context, id int64) (*appguarda.ScanCounts, error)
	ListLineItems(ctx context.Context, id int64) (*appguarda.LineItemList, error)
	StoreCode() string
}

// ScanService confirms and resets scans
type ScanService interface {
	Scan(ctx context.Context, cmd appguarda.ScanCommand) (*appguarda.ScanResult, error)
	ScanLineItem(ctx context.Context, cmd appguarda.LineScanCommand) (*appguarda.ScanResult, error)
	Reset(ctx context.Context, lineItemID int64) (*appguarda.ScanResult, error)
	ResetReceipt(ctx context.Context, receiptID int64) (*appguarda.ResetAllResult, error)
}

// SyncTrigger runs a reconciliation on demand
type SyncTrigger interface {
	RunOnce(ctx context.Context) (appguarda.SyncResult, error)
}

// GuardaHandler serves the /guardas endpoints
type GuardaHandler struct {
	BaseHandler
	receipts ReceiptService
	scans    ScanService
	sync     SyncTrigger
}

// NewGuardaHandler creates a new GuardaHandler. region fills the metadata
// block of store-scoped answers.
func NewGuardaHandler(receipts ReceiptService, scans ScanService, sync SyncTrigger, region string) *GuardaHandler {
	return &GuardaHandler{
		BaseHandler: newBaseHandler(region),
		receipts:    receipts,
		scans:       scans,
		sync:        sync,
	}
}

// CreateReceiptItemRequest is an optional product line of a local receipt
type CreateReceiptItemRequest struct {
	ProductCode string `json:"cd_produto" binding:"required,max=20"`
	Quantity    int    `json:"quantidade" binding:"required,gte=1"`
}

// CreateReceiptRequest creates a receipt that does not exist in SIAC
type CreateReceiptRequest struct {
	SupplierCode  string                     `json:"cd_fornece" binding:"required,max=10"`
	Series        string                     `json:"sg_serie" binding:"required,max=3"`
	InvoiceNumber string                     `json:"nu_nota" binding:"required,max=10"`
	StockerCode   string                     `json:"codoper" binding:"required,max=10"`
	Items         []CreateReceiptItemRequest `json:"itens" binding:"omitempty,dive"`
}

// createReceiptEnvelope accepts the body nested under the key older
// clients still send.
type createReceiptEnvelope struct {
	Nested *CreateReceiptRequest `json:"createGuardaSeederDto"`
}

// ScanLineRequest confirms a scan addressed by line item id. Quantity
// defaults to what is left to scan.
type ScanLineRequest struct {
	Quantity  *int   `json:"quantidade"`
	Address   string `json:"endereco"`
	ReceiptID *int64 `json:"guardaId"`
}

// Create handles POST /guardas/create
func (h *GuardaHandler) Create(c *gin.Context) {
	var envelope createReceiptEnvelope
	if err := c.ShouldBindBodyWith(&envelope, binding.JSON); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	req := envelope.Nested
	if req == nil {
		req = &CreateReceiptRequest{}
		if err := c.ShouldBindBodyWith(req, binding.JSON); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	cmd := appguarda.CreateReceiptCommand{
		SupplierCode:  req.SupplierCode,
		Series:        req.Series,
		InvoiceNumber: req.InvoiceNumber,
		StockerCode:   req.StockerCode,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, appguarda.CreateReceiptItem{
			ProductCode: item.ProductCode,
			Quantity:    item.Quantity,
		})
	}

	view, err := h.receipts.CreateLocal(c.Request.Context(), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, view)
}

// List handles GET /guardas?cd_usuario=
func (h *GuardaHandler) List(c *gin.Context) {
	list, err := h.receipts.List(c.Request.Context(), c.Query("cd_usuario"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithStore(c, list, list.StoreCode)
}

// Get handles GET /guardas/:sq_guarda and its /prod alias
func (h *GuardaHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "sq_guarda")
	if !ok {
		return
	}

	detail, err := h.receipts.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithStore(c, gin.H{"data": detail}, detail.StoreCode)
}

// Start handles POST /guardas/:sq_guarda/iniciar
func (h *GuardaHandler) Start(c *gin.Context) {
	h.progress(c, h.receipts.Start)
}

// Finish handles POST /guardas/:sq_guarda/finalizar
func (h *GuardaHandler) Finish(c *gin.Context) {
	h.progress(c, h.receipts.Finish)
}

func (h *GuardaHandler) progress(c *gin.Context, op func(context.Context, int64) (*appguarda.ReceiptProgress, error)) {
	id, ok := h.pathID(c, "sq_guarda")
	if !ok {
		return
	}

	progress, err := op(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithStore(c, gin.H{"data": progress}, h.receipts.StoreCode())
}

// Counts handles GET /guardas/:sq_guarda/contagem-bipados
func (h *GuardaHandler) Counts(c *gin.Context) {
	id, ok := h.pathID(c, "sq_guarda")
	if !ok {
		return
	}

	counts, err := h.receipts.Counts(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithStore(c, counts, h.receipts.StoreCode())
}

// LineItems handles GET /guardas/:sq_guarda/produtos
func (h *GuardaHandler) LineItems(c *gin.Context) {
	id, ok := h.pathID(c, "sq_guarda")
	if !ok {
		return
	}

	list, err := h.receipts.ListLineItems(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: list.Data, Metadata: list.Metadata})
}

// ScanLine handles POST /guardas/produtos/:id/bipar. The body is optional:
// an empty body scans the remaining quantity with no address, which the
// scan engine rejects with its own error.
func (h *GuardaHandler) ScanLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req ScanLineRequest
	if c.Request.ContentLength != 0 {
		if !h.bindJSON(c, &req) {
			return
		}
	}

	res, err := h.scans.ScanLineItem(c.Request.Context(), appguarda.LineScanCommand{
		LineItemID: id,
		ReceiptID:  req.ReceiptID,
		Quantity:   req.Quantity,
		Address:    req.Address,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ResetLine handles POST /guardas/produtos/:id/resetar
func (h *GuardaHandler) ResetLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.scans.Reset(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ResetReceipt handles POST /guardas/:sq_guarda/desbipar-todos
func (h *GuardaHandler) ResetReceipt(c *gin.Context) {
	id, ok := h.pathID(c, "sq_guarda")
	if !ok {
		return
	}

	res, err := h.scans.ResetReceipt(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMessageResponse(
		fmt.Sprintf("Todos os produtos da guarda %d foram desbipados", res.ReceiptID), res))
}

// Sync handles POST /guardas/sync-siac
func (h *GuardaHandler) Sync(c *gin.Context) {
	res, err := h.sync.RunOnce(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewMessageResponse("Sincronização com SIAC concluída", res))
}
