package guarda

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/logger"
)

// ReceiptService handles receipt creation, queries and the start/finish
// lifecycle.
type ReceiptService struct {
	receipts        guarda.ReceiptRepository
	lineItems       guarda.LineItemRepository
	masterData      guarda.MasterData
	gateway         guarda.LegacyGateway
	txScope         TransactionScope
	storeCode       string
	defaultUserCode string
	logger          *zap.Logger
	now             func() time.Time
}

// ReceiptServiceConfig holds the store defaults applied to local receipts
type ReceiptServiceConfig struct {
	StoreCode       string
	DefaultUserCode string
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(
	receipts guarda.ReceiptRepository,
	lineItems guarda.LineItemRepository,
	masterData guarda.MasterData,
	gateway guarda.LegacyGateway,
	txScope TransactionScope,
	cfg ReceiptServiceConfig,
	log *zap.Logger,
) *ReceiptService {
	return &ReceiptService{
		receipts:        receipts,
		lineItems:       lineItems,
		masterData:      masterData,
		gateway:         gateway,
		txScope:         txScope,
		storeCode:       cfg.StoreCode,
		defaultUserCode: cfg.DefaultUserCode,
		logger:          log.Named("receipt"),
		now:             time.Now,
	}
}

// StoreCode is the store this service operates for
func (s *ReceiptService) StoreCode() string {
	return s.storeCode
}

// CreateLocal creates a receipt that does not exist in SIAC, linked to the
// stocker identified by cmd.StockerCode.
func (s *ReceiptService) CreateLocal(ctx context.Context, cmd CreateReceiptCommand) (*ReceiptView, error) {
	stocker, err := s.masterData.FindStocker(ctx, cmd.StockerCode)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, guarda.ErrStockerNotFound.WithMessage(fmt.Sprintf("Estoquista com codoper %s não encontrado", cmd.StockerCode))
	}
	if err != nil {
		return nil, guarda.WrapPersistence("find stocker", err)
	}

	lines := make([]*guarda.LineItem, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		line, err := s.localLine(ctx, item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	receipt := guarda.NewLocalReceipt(s.storeCode, cmd.SupplierCode, cmd.Series, cmd.InvoiceNumber, s.defaultUserCode, s.now())
	receipt.LinkStocker(*stocker)

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Receipts().Create(ctx, receipt); err != nil {
			return guarda.WrapPersistence("create receipt", err)
		}
		if err := repos.Receipts().LinkStocker(ctx, receipt.ID, stocker.Code); err != nil {
			return guarda.WrapPersistence("link stocker", err)
		}
		for _, line := range lines {
			line.ReceiptID = receipt.ID
			if err := repos.LineItems().Create(ctx, line); err != nil {
				return guarda.WrapPersistence("create line item", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx, s.logger).Info("Local receipt created",
		zap.Int64("sq_guarda", receipt.ID),
		zap.String("nu_nota", receipt.InvoiceNumber),
		zap.String("codoper", stocker.Code),
	)
	return toReceiptView(receipt, len(lines)), nil
}

func (s *ReceiptService) localLine(ctx context.Context, item CreateReceiptItem) (*guarda.LineItem, error) {
	if item.Quantity <= 0 {
		return nil, guarda.ErrInvalidQuantity
	}
	info, err := s.masterData.GetProductInfo(ctx, item.ProductCode)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, guarda.ErrLineItemNotFound.WithMessage(fmt.Sprintf("Produto %s nao encontrado", item.ProductCode))
	}
	if err != nil {
		return nil, guarda.WrapPersistence("find product", err)
	}

	placement, err := s.masterData.GetPlacementAddress(ctx, item.ProductCode, s.storeCode)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, guarda.WrapPersistence("find placement", err)
	}

	line := &guarda.LineItem{
		Source:      guarda.SourceLocal,
		ProductCode: info.Code,
		ProductName: info.Name,
		Address:     guarda.FormatCompactAddress(placement),
		Quantity:    item.Quantity,
	}
	if info.Barcode != "" {
		line.Barcodes = []string{info.Barcode}
	}
	return line, nil
}

// List returns the receipts linked to a stocker, newest emission first
func (s *ReceiptService) List(ctx context.Context, stockerCode string) (*ReceiptList, error) {
	receipts, err := s.receipts.FindAll(ctx, guarda.ReceiptFilter{StockerCode: stockerCode})
	if err != nil {
		return nil, guarda.WrapPersistence("list receipts", err)
	}

	ids := make([]int64, len(receipts))
	suppliers := make([]string, 0, len(receipts))
	for i, r := range receipts {
		ids[i] = r.ID
		suppliers = append(suppliers, r.SupplierCode)
	}
	counts, err := s.lineItems.CountByReceipts(ctx, ids)
	if err != nil {
		return nil, guarda.WrapPersistence("count line items", err)
	}
	names, err := s.masterData.GetSupplierNames(ctx, suppliers)
	if err != nil {
		return nil, guarda.WrapPersistence("load suppliers", err)
	}

	list := &ReceiptList{Data: make([]ReceiptSummary, 0, len(receipts)), StoreCode: s.storeCode}
	for i := range receipts {
		r := &receipts[i]
		list.Data = append(list.Data, toSummary(r, names[r.SupplierCode], counts[r.ID]))
	}
	list.Total = len(list.Data)
	return list, nil
}

// Get returns the full detail of a receipt
func (s *ReceiptService) Get(ctx context.Context, id int64) (*ReceiptDetail, error) {
	receipt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	lines, err := s.lineItems.FindByReceipt(ctx, id)
	if err != nil {
		return nil, guarda.WrapPersistence("load line items", err)
	}
	names, err := s.masterData.GetSupplierNames(ctx, []string{receipt.SupplierCode})
	if err != nil {
		return nil, guarda.WrapPersistence("load supplier", err)
	}

	addresses := make([]string, 0, len(lines))
	for _, l := range lines {
		addresses = append(addresses, l.Address)
	}
	addressIDs, err := s.masterData.FindAddressIDs(ctx, addresses)
	if err != nil {
		return nil, guarda.WrapPersistence("resolve address ids", err)
	}

	detail := &ReceiptDetail{
		ReceiptSummary: toSummary(receipt, names[receipt.SupplierCode], len(lines)),
		LineItems:      make([]DetailLine, 0, len(lines)),
		Stockers:       make([]StockerView, 0, len(receipt.Stockers)),
		StoreCode:      receipt.StoreCode,
	}
	for i, l := range lines {
		addressID := fmt.Sprintf("END_%d", i+1)
		if id, ok := addressIDs[l.Address]; ok {
			addressID = strconv.Itoa(id)
		}
		barcodes := l.Barcodes
		if barcodes == nil {
			barcodes = []string{}
		}
		detail.LineItems = append(detail.LineItems, DetailLine{
			ID:              l.ID,
			ProductCode:     l.ProductCode,
			ProductName:     l.ProductName,
			Quantity:        l.Quantity,
			ScannedQuantity: l.ScannedQuantity,
			Barcodes:        barcodes,
			Address:         l.Address,
			FactoryCode:     l.FactoryCode,
			AddressID:       addressID,
			Item:            l.LegacyLineID,
			Completed:       l.Completed,
		})
	}
	for _, st := range receipt.Stockers {
		detail.Stockers = append(detail.Stockers, StockerView{Code: st.Code, Name: st.Name})
	}
	return detail, nil
}

// Start marks the beginning of put-away. SIAC receipts are started in SIAC
// first; if that fails nothing is stored locally.
func (s *ReceiptService) Start(ctx context.Context, id int64) (*ReceiptProgress, error) {
	receipt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if receipt.IsLegacy() {
		if err := s.gateway.StartReceipt(ctx, *receipt.LegacyID); err != nil {
			return nil, err
		}
	}

	receipt.Start(s.now())
	if err := s.saveProgress(ctx, receipt); err != nil {
		return nil, err
	}

	logger.L(ctx, s.logger).Info("Receipt started", zap.Int64("sq_guarda", id), zap.Bool("siac", receipt.IsLegacy()))
	return toProgress(receipt), nil
}

// Finish marks the end of put-away. SIAC receipts are finished in SIAC
// first; if that fails nothing is stored locally.
func (s *ReceiptService) Finish(ctx context.Context, id int64) (*ReceiptProgress, error) {
	receipt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if receipt.IsLegacy() {
		if err := s.gateway.FinishReceipt(ctx, *receipt.LegacyID); err != nil {
			return nil, err
		}
	}

	receipt.Finish(s.now())
	if err := s.saveProgress(ctx, receipt); err != nil {
		return nil, err
	}

	logger.L(ctx, s.logger).Info("Receipt finished", zap.Int64("sq_guarda", id), zap.Bool("siac", receipt.IsLegacy()))
	return toProgress(receipt), nil
}

// Counts sums expected and scanned quantities of a receipt
func (s *ReceiptService) Counts(ctx context.Context, id int64) (*ScanCounts, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	totals, err := s.lineItems.Totals(ctx, id)
	if err != nil {
		return nil, guarda.WrapPersistence("sum quantities", err)
	}

	counts := &ScanCounts{
		Scanned:    totals.Scanned,
		NotScanned: totals.Expected - totals.Scanned,
		Total:      totals.Expected,
	}
	if totals.Expected > 0 {
		counts.Percentage = decimal.NewFromInt(int64(totals.Scanned)).
			Div(decimal.NewFromInt(int64(totals.Expected))).
			Mul(decimal.NewFromInt(100)).
			Round(2).
			InexactFloat64()
	}
	return counts, nil
}

// ListLineItems returns the line items of a receipt
func (s *ReceiptService) ListLineItems(ctx context.Context, id int64) (*LineItemList, error) {
	receipt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.lineItems.FindByReceipt(ctx, id)
	if err != nil {
		return nil, guarda.WrapPersistence("load line items", err)
	}

	out := &LineItemList{
		Data: make([]LineItemView, 0, len(lines)),
		Metadata: LineListMetadata{
			ReceiptID: id,
			Kind:      string(receipt.Source()),
			Total:     len(lines),
		},
	}
	for i := range lines {
		out.Data = append(out.Data, ToLineItemView(&lines[i]))
	}
	return out, nil
}

// saveProgress never recreates a receipt that reconciliation deleted while
// the SIAC call was running.
func (s *ReceiptService) saveProgress(ctx context.Context, receipt *guarda.Receipt) error {
	err := s.receipts.UpdateProgress(ctx, receipt)
	if errors.Is(err, shared.ErrNotFound) {
		return guarda.ErrReceiptNotFound
	}
	if err != nil {
		return guarda.WrapPersistence("save receipt", err)
	}
	return nil
}

func (s *ReceiptService) load(ctx context.Context, id int64) (*guarda.Receipt, error) {
	receipt, err := s.receipts.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, guarda.ErrReceiptNotFound
	}
	if err != nil {
		return nil, guarda.WrapPersistence("load receipt", err)
	}
	return receipt, nil
}
