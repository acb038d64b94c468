package guarda

import "context"

// ProductInfo is product master data
type ProductInfo struct {
	Code    string
	Name    string
	Barcode string
}

// MasterData is the read-mostly catalog the engine consults: products,
// store placements, the address id table, suppliers, purchases and
// stockers. Misses return shared.ErrNotFound.
type MasterData interface {
	GetProductInfo(ctx context.Context, productCode string) (*ProductInfo, error)
	// GetPlacementAddress returns the compact placement (e.g. B49060102)
	// of a product in a store.
	GetPlacementAddress(ctx context.Context, productCode, storeCode string) (string, error)
	UpdatePlacementAddress(ctx context.Context, productCode, storeCode, address string) error
	// GetAddressByID returns the dotted address registered under id.
	GetAddressByID(ctx context.Context, id int) (string, error)
	// FindAddressIDs maps dotted addresses to their numeric ids; unknown
	// addresses are absent from the result.
	FindAddressIDs(ctx context.Context, addresses []string) (map[string]int, error)
	GetSupplierNames(ctx context.Context, supplierCodes []string) (map[string]string, error)
	FindPurchaseSeries(ctx context.Context, invoiceNumber, supplierCode, storeCode string) (string, error)
	FindStocker(ctx context.Context, code string) (*Stocker, error)
}
