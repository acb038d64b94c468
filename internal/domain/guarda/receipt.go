package guarda

import (
	"time"
)

// ReceiptStatus is the derived progress of a receipt
type ReceiptStatus string

const (
	StatusPending  ReceiptStatus = "Pendente"
	StatusStarted  ReceiptStatus = "Iniciado"
	StatusFinished ReceiptStatus = "Finalizado"
)

const (
	// ReceiptKindPurchase is the only receipt kind the app creates
	ReceiptKindPurchase = "C"
	flagYes             = "S"
	timeLayout          = "15:04:05"
	dateLayout          = "2006-01-02"
)

// Receipt is one goods-receipt event tied to a purchase document.
// LegacyID is set for receipts mirrored from SIAC and nil for receipts
// created locally.
type Receipt struct {
	ID            int64
	LegacyID      *string
	StoreCode     string
	SupplierCode  string
	Series        string
	InvoiceNumber string
	EmittedAt     *time.Time
	EmittedTime   string
	Kind          string
	StartedAt     *time.Time
	StartedTime   string
	FinishedAt    *time.Time
	FinishedTime  string
	UserCode      string
	AppFlag       string
	FinishedInApp string
	Stockers      []Stocker
}

// Stocker is a warehouse operator linked to a receipt
type Stocker struct {
	Code string
	Name string
}

// NewLocalReceipt builds a receipt created from the app, not mirrored from SIAC
func NewLocalReceipt(storeCode, supplierCode, series, invoiceNumber, userCode string, now time.Time) *Receipt {
	emitted := now
	return &Receipt{
		StoreCode:     storeCode,
		SupplierCode:  supplierCode,
		Series:        series,
		InvoiceNumber: invoiceNumber,
		EmittedAt:     &emitted,
		EmittedTime:   now.Format(timeLayout),
		Kind:          ReceiptKindPurchase,
		UserCode:      userCode,
		AppFlag:       flagYes,
	}
}

// NewLegacyReceipt builds the local mirror of a SIAC receipt
func NewLegacyReceipt(src LegacyReceipt, series string) *Receipt {
	legacyID := src.LegacyID
	if series == "" {
		series = src.Series
	}
	return &Receipt{
		LegacyID:      &legacyID,
		StoreCode:     src.StoreCode,
		SupplierCode:  src.SupplierCode,
		Series:        series,
		InvoiceNumber: src.InvoiceNumber,
		EmittedAt:     ParseLegacyDate(src.EmittedDate),
		EmittedTime:   src.EmittedTime,
		Kind:          ReceiptKindPurchase,
		AppFlag:       flagYes,
	}
}

// IsLegacy reports whether the receipt is mirrored from SIAC
func (r *Receipt) IsLegacy() bool {
	return r.LegacyID != nil && *r.LegacyID != ""
}

// Source returns the line-item source matching the receipt origin
func (r *Receipt) Source() LineSource {
	if r.IsLegacy() {
		return SourceSIAC
	}
	return SourceLocal
}

// Start records the start of put-away. A start timestamp already set is kept.
func (r *Receipt) Start(now time.Time) {
	if r.StartedAt != nil {
		return
	}
	started := now
	r.StartedAt = &started
	r.StartedTime = now.Format(timeLayout)
}

// Finish records the end of put-away from the app
func (r *Receipt) Finish(now time.Time) {
	finished := now
	r.FinishedAt = &finished
	r.FinishedTime = now.Format(timeLayout)
	r.FinishedInApp = flagYes
}

// Status derives the receipt progress from its timestamps
func (r *Receipt) Status() ReceiptStatus {
	if r.FinishedInApp == flagYes && r.FinishedAt != nil {
		return StatusFinished
	}
	if r.StartedAt != nil && r.StartedTime != "" {
		return StatusStarted
	}
	return StatusPending
}

// LinkStocker attaches a stocker once
func (r *Receipt) LinkStocker(s Stocker) {
	for _, existing := range r.Stockers {
		if existing.Code == s.Code {
			return
		}
	}
	r.Stockers = append(r.Stockers, s)
}

// FormatDate renders a timestamp as YYYY-MM-DD, or "" when absent
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
