package guarda

import (
	"strconv"
	"time"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
)

// SyncResult summarizes one reconciliation run
type SyncResult struct {
	Synced   int    `json:"synced"`
	Skipped  int    `json:"skipped"`
	Errors   int    `json:"errors"`
	Removed  int    `json:"removed"`
	Duration string `json:"duration"`
}

// LineItemView is the operator-facing shape of a line item
type LineItemView struct {
	ID               int64      `json:"id"`
	Item             string     `json:"item"`
	ProductCode      string     `json:"cd_produto"`
	ProductName      string     `json:"no_produto"`
	FactoryCode      string     `json:"cd_fabrica"`
	Barcodes         []string   `json:"cod_barras"`
	Address          string     `json:"endereco"`
	Quantity         int        `json:"quantidade"`
	ScannedQuantity  int        `json:"qtde_bipada"`
	Completed        bool       `json:"bipado"`
	ConfirmedAddress *string    `json:"endereco_confirmado"`
	LastScanAt       *time.Time `json:"dt_bipagem"`
	Source           string     `json:"origem"`
	ReceiptID        int64      `json:"sq_guarda"`
}

// ToLineItemView converts a line item to its view
func ToLineItemView(l *guarda.LineItem) LineItemView {
	v := LineItemView{
		ID:              l.ID,
		Item:            l.LegacyLineID,
		ProductCode:     l.ProductCode,
		ProductName:     l.ProductName,
		FactoryCode:     l.FactoryCode,
		Barcodes:        l.Barcodes,
		Address:         l.Address,
		Quantity:        l.Quantity,
		ScannedQuantity: l.ScannedQuantity,
		Completed:       l.Completed,
		LastScanAt:      l.LastScanAt,
		Source:          string(l.Source),
		ReceiptID:       l.ReceiptID,
	}
	if v.Barcodes == nil {
		v.Barcodes = []string{}
	}
	if l.ConfirmedAddress != "" {
		addr := l.ConfirmedAddress
		v.ConfirmedAddress = &addr
	}
	return v
}

// ScanResult is returned by scan and reset operations
type ScanResult struct {
	Success bool         `json:"success"`
	Data    LineItemView `json:"data"`
	Message string       `json:"message"`
}

// ScanCommand is a scan addressed by product code within a receipt
type ScanCommand struct {
	ReceiptID   int64
	ProductCode string
	Quantity    int
	Address     string
}

// LineScanCommand is a scan addressed by line item id. A nil Quantity scans
// the remaining quantity; a nil ReceiptID uses the line's own receipt.
type LineScanCommand struct {
	LineItemID int64
	ReceiptID  *int64
	Quantity   *int
	Address    string
}

// ResetAllResult reports a receipt-wide reset
type ResetAllResult struct {
	ReceiptID int64 `json:"sq_guarda"`
	Reset     int   `json:"total"`
}

// CreateReceiptCommand creates a local receipt
type CreateReceiptCommand struct {
	SupplierCode  string
	Series        string
	InvoiceNumber string
	StockerCode   string
	Items         []CreateReceiptItem
}

// CreateReceiptItem is an optional product line of a local receipt
type CreateReceiptItem struct {
	ProductCode string
	Quantity    int
}

// ReceiptSummary is one row of the receipt listing
type ReceiptSummary struct {
	ID            string  `json:"sq_guarda"`
	InvoiceNumber string  `json:"nu_nota"`
	Series        string  `json:"sg_serie"`
	SupplierCode  string  `json:"cd_fornece"`
	SupplierName  string  `json:"fornecedor"`
	EntryDate     *string `json:"dt_entrada"`
	EntryTime     *string `json:"hr_entrada"`
	StartDate     *string `json:"dt_iniguar"`
	StartTime     *string `json:"hr_iniguar"`
	FinishDate    *string `json:"dt_fimguar"`
	FinishTime    *string `json:"hr_fimguar"`
	SKUs          int     `json:"SKUs"`
	Status        string  `json:"status"`
}

// ReceiptList is the receipt listing with its total
type ReceiptList struct {
	Data      []ReceiptSummary `json:"data"`
	Total     int              `json:"total"`
	StoreCode string           `json:"-"`
}

// DetailLine is a line item as shown in the receipt detail
type DetailLine struct {
	ID              int64    `json:"id"`
	ProductCode     string   `json:"cd_produto"`
	ProductName     string   `json:"no_produto"`
	Quantity        int      `json:"quantidade"`
	ScannedQuantity int      `json:"qtde_bipada"`
	Barcodes        []string `json:"cod_barras"`
	Address         string   `json:"endereco"`
	FactoryCode     string   `json:"cd_fabrica"`
	AddressID       string   `json:"id_endereco"`
	Item            string   `json:"item"`
	Completed       bool     `json:"bipado"`
}

// StockerView is a stocker linked to a receipt
type StockerView struct {
	Code string `json:"codoper"`
	Name string `json:"nome"`
}

// ReceiptDetail is the full view of one receipt
type ReceiptDetail struct {
	ReceiptSummary
	LineItems []DetailLine  `json:"produtos"`
	Stockers  []StockerView `json:"estoquistas"`
	StoreCode string        `json:"-"`
}

// ReceiptView is the receipt as created
type ReceiptView struct {
	ID            int64      `json:"sq_guarda"`
	LegacyID      *string    `json:"sq_guarda_siac"`
	StoreCode     string     `json:"cd_loja"`
	SupplierCode  string     `json:"cd_fornece"`
	Series        string     `json:"sg_serie"`
	InvoiceNumber string     `json:"nu_nota"`
	EmittedAt     *time.Time `json:"dt_emissao"`
	EmittedTime   string     `json:"hr_emissao"`
	Kind          string     `json:"in_tipogua"`
	UserCode      string     `json:"cd_usuario"`
	AppFlag       string     `json:"in_app"`
	Status        string     `json:"status"`
	LineCount     int        `json:"SKUs"`
}

// ReceiptProgress is returned by start and finish
type ReceiptProgress struct {
	ID            int64      `json:"sq_guarda"`
	StartedAt     *time.Time `json:"dt_iniguar"`
	StartedTime   *string    `json:"hr_iniguar"`
	FinishedAt    *time.Time `json:"dt_fimguar"`
	FinishedTime  *string    `json:"hr_fimguar"`
	FinishedInApp *string    `json:"in_fimapp"`
	Status        string     `json:"status"`
}

// ScanCounts summarizes scan progress of a receipt in quantities
type ScanCounts struct {
	Scanned    int     `json:"bipados"`
	NotScanned int     `json:"naoBipados"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentualBipado"`
}

// LineItemList is the line listing of a receipt
type LineItemList struct {
	Data     []LineItemView   `json:"data"`
	Metadata LineListMetadata `json:"metadata"`
}

// LineListMetadata describes a line listing
type LineListMetadata struct {
	ReceiptID int64  `json:"guardaId"`
	Kind      string `json:"tipo"`
	Total     int    `json:"total"`
}

// AddressChangeResult echoes the SIAC answer to a placement change
type AddressChangeResult struct {
	Status          string `json:"status"`
	Message         string `json:"mensagem"`
	PreviousAddress string `json:"endereco_anterior"`
	NewAddress      string `json:"endereco_novo"`
}

// AddressCheckResult tells whether an address id matches a placement
type AddressCheckResult struct {
	Match   bool   `json:"status"`
	Address string `json:"endereco"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toSummary(r *guarda.Receipt, supplierName string, lineCount int) ReceiptSummary {
	return ReceiptSummary{
		ID:            strconv.FormatInt(r.ID, 10),
		InvoiceNumber: r.InvoiceNumber,
		Series:        r.Series,
		SupplierCode:  r.SupplierCode,
		SupplierName:  supplierName,
		EntryDate:     optional(guarda.FormatDate(r.EmittedAt)),
		EntryTime:     optional(r.EmittedTime),
		StartDate:     optional(guarda.FormatDate(r.StartedAt)),
		StartTime:     optional(r.StartedTime),
		FinishDate:    optional(guarda.FormatDate(r.FinishedAt)),
		FinishTime:    optional(r.FinishedTime),
		SKUs:          lineCount,
		Status:        string(r.Status()),
	}
}

func toReceiptView(r *guarda.Receipt, lineCount int) *ReceiptView {
	return &ReceiptView{
		ID:            r.ID,
		LegacyID:      r.LegacyID,
		StoreCode:     r.StoreCode,
		SupplierCode:  r.SupplierCode,
		Series:        r.Series,
		InvoiceNumber: r.InvoiceNumber,
		EmittedAt:     r.EmittedAt,
		EmittedTime:   r.EmittedTime,
		Kind:          r.Kind,
		UserCode:      r.UserCode,
		AppFlag:       r.AppFlag,
		Status:        string(r.Status()),
		LineCount:     lineCount,
	}
}

func toProgress(r *guarda.Receipt) *ReceiptProgress {
	return &ReceiptProgress{
		ID:            r.ID,
		StartedAt:     r.StartedAt,
		StartedTime:   optional(r.StartedTime),
		FinishedAt:    r.FinishedAt,
		FinishedTime:  optional(r.FinishedTime),
		FinishedInApp: optional(r.FinishedInApp),
		Status:        string(r.Status()),
	}
}
