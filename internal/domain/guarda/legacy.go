package guarda

import "context"

// LegacyReceipt is a receipt as listed by SIAC
type LegacyReceipt struct {
	LegacyID      string
	StoreCode     string
	SupplierCode  string
	SupplierName  string
	Series        string
	InvoiceNumber string
	EmittedDate   string
	EmittedTime   string
	ItemCount     int
	Status        string
	StockerCode   string
	// Unfit says why the receipt cannot be stored locally, empty when it can
	Unfit string
}

// LegacyStocker is a stocker assignment reported in a receipt detail
type LegacyStocker struct {
	Code      string
	Name      string
	ItemCount int
}

// LegacyReceiptDetail is the full SIAC view of one receipt
type LegacyReceiptDetail struct {
	SupplierCode  string
	SupplierName  string
	StoreCode     string
	InvoiceNumber string
	EmittedDate   string
	EmittedTime   string
	StartedDate   string
	StartedTime   string
	FinishedDate  string
	FinishedTime  string
	Stockers      []LegacyStocker
	LineItems     []RawLineItem
}

// AddressChange is the SIAC answer to a placement change
type AddressChange struct {
	Status          string
	Message         string
	PreviousAddress string
	NewAddress      string
}

// Succeeded reports whether SIAC accepted the change
func (c *AddressChange) Succeeded() bool {
	return c.Status == "OK"
}

// LegacyGateway is the SIAC boundary. Implementations apply a fixed timeout,
// never retry and fail with ErrUpstreamTimeout, *UpstreamError or
// *TransportError.
type LegacyGateway interface {
	ListReceipts(ctx context.Context, userCode string) ([]LegacyReceipt, error)
	GetReceiptDetail(ctx context.Context, legacyID string) (*LegacyReceiptDetail, error)
	StartReceipt(ctx context.Context, legacyID string) error
	FinishReceipt(ctx context.Context, legacyID string) error
	LookupAddress(ctx context.Context, address string) (string, error)
	ChangeProductAddress(ctx context.Context, productCode, address string) (*AddressChange, error)
	Ping(ctx context.Context) error
}
