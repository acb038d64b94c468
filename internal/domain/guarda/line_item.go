package guarda

import (
	"fmt"
	"time"
)

// LineSource tags where a line item came from. Business rules are the
// same for both; the tag only selects which master data to consult.
type LineSource string

const (
	SourceSIAC  LineSource = "SIAC"
	SourceLocal LineSource = "LOCAL"
)

// LineStatus is the scan progress of a line item
type LineStatus string

const (
	LinePending          LineStatus = "PENDING"
	LinePartiallyScanned LineStatus = "PARTIALLY_SCANNED"
	LineCompleted        LineStatus = "COMPLETED"
)

// LineItem is one product line of a receipt.
//
// Invariants: 0 <= ScannedQuantity <= Quantity, and Completed holds exactly
// when ScannedQuantity == Quantity. ScanCycle starts at zero and grows on
// every reset; partial confirmations are attributed to the cycle they were
// recorded in.
type LineItem struct {
	ID               int64
	ReceiptID        int64
	Source           LineSource
	LegacyLineID     string
	MergedLineIDs    []string
	ProductCode      string
	ProductName      string
	FactoryCode      string
	Barcodes         []string
	Address          string
	Quantity         int
	ScannedQuantity  int
	Completed        bool
	LastScanAt       *time.Time
	ConfirmedAddress string
	ScanCycle        int
}

// NewLineItemFromAggregate creates an unscanned SIAC line item
func NewLineItemFromAggregate(receiptID int64, agg AggregatedLineItem) *LineItem {
	return &LineItem{
		ReceiptID:     receiptID,
		Source:        SourceSIAC,
		LegacyLineID:  agg.LegacyLineID,
		MergedLineIDs: append([]string(nil), agg.MergedLineIDs...),
		ProductCode:   agg.ProductCode,
		ProductName:   agg.ProductName,
		FactoryCode:   agg.FactoryCode,
		Barcodes:      append([]string(nil), agg.Barcodes...),
		Address:       agg.Address,
		Quantity:      agg.Quantity,
	}
}

// Status reports the line's position in Pending → PartiallyScanned → Completed
func (l *LineItem) Status() LineStatus {
	switch {
	case l.Completed:
		return LineCompleted
	case l.ScannedQuantity > 0:
		return LinePartiallyScanned
	default:
		return LinePending
	}
}

// Remaining is the quantity still to be scanned
func (l *LineItem) Remaining() int {
	return l.Quantity - l.ScannedQuantity
}

// CheckScan validates a scan of qty against the line state and the sum of
// partial confirmations already recorded in the current cycle.
func (l *LineItem) CheckScan(qty, priorPartial int) error {
	if l.Completed {
		return ErrAlreadyCompleted
	}
	if qty <= 0 || qty > l.Quantity || qty+priorPartial > l.Quantity {
		return ErrInvalidQuantity
	}
	return nil
}

// ApplyScan applies a validated scan. When the scan does not complete the
// line it returns the partial confirmation that must be appended to the
// ledger in the same transaction.
func (l *LineItem) ApplyScan(qty, priorPartial int, address string, now time.Time) (*PartialConfirmation, error) {
	if err := l.CheckScan(qty, priorPartial); err != nil {
		return nil, err
	}

	scannedAt := now
	l.ScannedQuantity += qty
	l.LastScanAt = &scannedAt

	if qty+priorPartial == l.Quantity {
		l.Completed = true
		l.ConfirmedAddress = address
		return nil, nil
	}

	return &PartialConfirmation{
		LineItemID:  l.ID,
		Address:     address,
		Quantity:    qty,
		ScanCycle:   l.ScanCycle,
		ConfirmedAt: now,
	}, nil
}

// Reset returns the line to Pending and opens a new scan cycle. Ledger rows
// of earlier cycles stay untouched and no longer count towards new scans.
func (l *LineItem) Reset() {
	l.ScannedQuantity = 0
	l.Completed = false
	l.LastScanAt = nil
	l.ConfirmedAddress = ""
	l.ScanCycle++
}

// ScanMessage is the confirmation shown to the operator after a scan
func (l *LineItem) ScanMessage() string {
	return fmt.Sprintf("Produto bipado (%d/%d)", l.ScannedQuantity, l.Quantity)
}
