package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/persistence/models"
)

// GormMasterDataRepository reads products, placements, addresses,
// suppliers, purchases and stockers
type GormMasterDataRepository struct {
	db *gorm.DB
}

// NewGormMasterDataRepository creates a new GormMasterDataRepository
func NewGormMasterDataRepository(db *gorm.DB) *GormMasterDataRepository {
	return &GormMasterDataRepository{db: db}
}

// GetProductInfo returns catalog data of a product
func (r *GormMasterDataRepository) GetProductInfo(ctx context.Context, productCode string) (*guarda.ProductInfo, error) {
	var m models.ProductModel
	if err := r.first(ctx, &m, "codpro = ?", productCode); err != nil {
		return nil, err
	}
	info := &guarda.ProductInfo{Code: m.Codpro, Name: m.Produto}
	if m.CodBarra != nil {
		info.Barcode = *m.CodBarra
	}
	return info, nil
}

// GetPlacementAddress returns the compact placement of a product in a store
func (r *GormMasterDataRepository) GetPlacementAddress(ctx context.Context, productCode, storeCode string) (string, error) {
	var m models.PlacementModel
	if err := r.first(ctx, &m, "codpro = ? AND cd_loja = ?", productCode, storeCode); err != nil {
		return "", err
	}
	if m.Localiza == nil {
		return "", nil
	}
	return *m.Localiza, nil
}

// UpdatePlacementAddress sets the placement of a product in a store
func (r *GormMasterDataRepository) UpdatePlacementAddress(ctx context.Context, productCode, storeCode, address string) error {
	res := r.db.WithContext(ctx).
		Model(&models.PlacementModel{}).
		Where("codpro = ? AND cd_loja = ?", productCode, storeCode).
		Update("localiza", address)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GetAddressByID returns the dotted address registered under id
func (r *GormMasterDataRepository) GetAddressByID(ctx context.Context, id int) (string, error) {
	var m models.AddressIDModel
	if err := r.first(ctx, &m, "id = ?", id); err != nil {
		return "", err
	}
	return m.Endereco, nil
}

// FindAddressIDs maps dotted addresses to their ids
func (r *GormMasterDataRepository) FindAddressIDs(ctx context.Context, addresses []string) (map[string]int, error) {
	out := make(map[string]int, len(addresses))
	if len(addresses) == 0 {
		return out, nil
	}

	var ms []models.AddressIDModel
	if err := r.db.WithContext(ctx).Where("endereco IN ?", addresses).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	for _, m := range ms {
		if _, seen := out[m.Endereco]; !seen {
			out[m.Endereco] = m.ID
		}
	}
	return out, nil
}

// GetSupplierNames maps supplier codes to names
func (r *GormMasterDataRepository) GetSupplierNames(ctx context.Context, supplierCodes []string) (map[string]string, error) {
	out := make(map[string]string, len(supplierCodes))
	if len(supplierCodes) == 0 {
		return out, nil
	}

	var ms []models.SupplierModel
	if err := r.db.WithContext(ctx).Where("codfor IN ?", supplierCodes).Find(&ms).Error; err != nil {
		return nil, err
	}
	for _, m := range ms {
		out[m.Codfor] = m.Fornec
	}
	return out, nil
}

// FindPurchaseSeries returns the series of the purchase matching an invoice
func (r *GormMasterDataRepository) FindPurchaseSeries(ctx context.Context, invoiceNumber, supplierCode, storeCode string) (string, error) {
	var m models.PurchaseModel
	if err := r.first(ctx, &m, "numnot = ? AND codfor = ? AND cd_loja = ?", invoiceNumber, supplierCode, storeCode); err != nil {
		return "", err
	}
	if m.Serie == nil {
		return "", nil
	}
	return *m.Serie, nil
}

// FindStocker returns a stocker by operator code
func (r *GormMasterDataRepository) FindStocker(ctx context.Context, code string) (*guarda.Stocker, error) {
	var m models.StockerModel
	if err := r.first(ctx, &m, "codoper = ?", code); err != nil {
		return nil, err
	}
	return &guarda.Stocker{Code: m.Codoper, Name: m.Nome}, nil
}

func (r *GormMasterDataRepository) first(ctx context.Context, dest any, query string, args ...any) error {
	err := r.db.WithContext(ctx).Where(query, args...).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

var _ guarda.MasterData = (*GormMasterDataRepository)(nil)
