package guarda

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
)

// ----------------------------------------------------------------------------
// Repositories
// ----------------------------------------------------------------------------

type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) FindByID(ctx context.Context, id int64) (*guarda.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guarda.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindByIDForUpdate(ctx context.Context, id int64) (*guarda.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guarda.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	args := m.Called(ctx, legacyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReceiptRepository) FindLegacy(ctx context.Context) ([]guarda.Receipt, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]guarda.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindAll(ctx context.Context, filter guarda.ReceiptFilter) ([]guarda.Receipt, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]guarda.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) Create(ctx context.Context, r *guarda.Receipt) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReceiptRepository) UpdateProgress(ctx context.Context, r *guarda.Receipt) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReceiptRepository) LinkStocker(ctx context.Context, receiptID int64, stockerCode string) error {
	return m.Called(ctx, receiptID, stockerCode).Error(0)
}

func (m *MockReceiptRepository) UnlinkStockers(ctx context.Context, receiptID int64) error {
	return m.Called(ctx, receiptID).Error(0)
}

func (m *MockReceiptRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockLineItemRepository struct {
	mock.Mock
}

func (m *MockLineItemRepository) FindByID(ctx context.Context, id int64) (*guarda.LineItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guarda.LineItem), args.Error(1)
}

func (m *MockLineItemRepository) FindByIDForUpdate(ctx context.Context, id int64) (*guarda.LineItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guarda.LineItem), args.Error(1)
}

func (m *MockLineItemRepository) FindByReceiptAndProduct(ctx context.Context, receiptID int64, productCode string) (*guarda.LineItem, error) {
	args := m.Called(ctx, receiptID, productCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guarda.LineItem), args.Error(1)
}

func (m *MockLineItemRepository) FindByReceipt(ctx context.Context, receiptID int64) ([]guarda.LineItem, error) {
	args := m.Called(ctx, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]guarda.LineItem), args.Error(1)
}

func (m *MockLineItemRepository) FindByReceiptForUpdate(ctx context.Context, receiptID int64) ([]guarda.LineItem, error) {
	args := m.Called(ctx, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]guarda.LineItem), args.Error(1)
}

func (m *MockLineItemRepository) CountByReceipts(ctx context.Context, receiptIDs []int64) (map[int64]int, error) {
	args := m.Called(ctx, receiptIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]int), args.Error(1)
}

func (m *MockLineItemRepository) Totals(ctx context.Context, receiptID int64) (guarda.ScanTotals, error) {
	args := m.Called(ctx, receiptID)
	return args.Get(0).(guarda.ScanTotals), args.Error(1)
}

func (m *MockLineItemRepository) Create(ctx context.Context, item *guarda.LineItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockLineItemRepository) Save(ctx context.Context, item *guarda.LineItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockLineItemRepository) DeleteByReceipt(ctx context.Context, receiptID int64) error {
	return m.Called(ctx, receiptID).Error(0)
}

type MockPartialRepository struct {
	mock.Mock
}

func (m *MockPartialRepository) Append(ctx context.Context, c *guarda.PartialConfirmation) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockPartialRepository) SumForCycle(ctx context.Context, lineItemID int64, cycle int) (int, error) {
	args := m.Called(ctx, lineItemID, cycle)
	return args.Int(0), args.Error(1)
}

func (m *MockPartialRepository) FindByLineItems(ctx context.Context, lineItemIDs []int64) (map[int64][]guarda.PartialConfirmation, error) {
	args := m.Called(ctx, lineItemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64][]guarda.PartialConfirmation), args.Error(1)
}

func (m *MockPartialRepository) DeleteByLineItems(ctx context.Context, lineItemIDs []int64) error {
	return m.Called(ctx, lineItemIDs).Error(0)
}

type MockBackupRepository struct {
	mock.Mock
}

func (m *MockBackupRepository) Create(ctx context.Context, b *guarda.ReceiptBackup) error {
	return m.Called(ctx, b).Error(0)
}

type MockBackupArchive struct {
	mock.Mock
}

func (m *MockBackupArchive) Archive(ctx context.Context, b *guarda.ReceiptBackup) error {
	return m.Called(ctx, b).Error(0)
}

// ----------------------------------------------------------------------------
// Master data
// ----------------------------------------------------------------------------

type MockMasterData struct {
	mock.Mock
}

func (m *MockMasterData) GetProductInfo(ctx context.Context, productCode string) (*guarda.ProductInfo, error) {
	args := m.Called(ctx, productCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guarda.ProductInfo), args.Error(1)
}

func (m *MockMasterData) GetPlacementAddress(ctx context.Context, productCode, storeCode string) (string, error) {
	args := m.Called(ctx, productCode, storeCode)
	return args.String(0), args.Error(1)
}

func (m *MockMasterData) UpdatePlacementAddress(ctx context.Context, productCode, storeCode, address string) error {
	return m.Called(ctx, productCode, storeCode, address).Error(0)
}

func (m *MockMasterData) GetAddressByID(ctx context.Context, id int) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockMasterData) FindAddressIDs(ctx context.Context, addresses []string) (map[string]int, error) {
	args := m.Called(ctx, addresses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockMasterData) GetSupplierNames(ctx context.Context, supplierCodes []string) (map[string]string, error) {
	args := m.Called(ctx, supplierCodes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockMasterData) FindPurchaseSeries(ctx context.Context, invoiceNumber, supplierCode, storeCode string) (string, error) {
	args := m.Called(ctx, invoiceNumber, supplierCode, storeCode)
	return args.String(0), args.Error(1)
}

func (m *MockMasterData) FindStocker(ctx context.Context, code string) (*guarda.Stocker, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guarda.Stocker), args.Error(1)
}

// ----------------------------------------------------------------------------
// Gateway and locks
// ----------------------------------------------------------------------------

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListReceipts(ctx context.Context, userCode string) ([]guarda.LegacyReceipt, error) {
	args := m.Called(ctx, userCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]guarda.LegacyReceipt), args.Error(1)
}

func (m *MockGateway) GetReceiptDetail(ctx context.Context, legacyID string) (*guarda.LegacyReceiptDetail, error) {
	args := m.Called(ctx, legacyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guarda.LegacyReceiptDetail), args.Error(1)
}

func (m *MockGateway) StartReceipt(ctx context.Context, legacyID string) error {
	return m.Called(ctx, legacyID).Error(0)
}

func (m *MockGateway) FinishReceipt(ctx context.Context, legacyID string) error {
	return m.Called(ctx, legacyID).Error(0)
}

func (m *MockGateway) LookupAddress(ctx context.Context, address string) (string, error) {
	args := m.Called(ctx, address)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) ChangeProductAddress(ctx context.Context, productCode, address string) (*guarda.AddressChange, error) {
	args := m.Called(ctx, productCode, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guarda.AddressChange), args.Error(1)
}

func (m *MockGateway) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// passLocker grants every lock and counts releases
type passLocker struct {
	locked   []string
	released int
	fail     error
}

func (l *passLocker) Lock(_ context.Context, key string) (Unlock, error) {
	if l.fail != nil {
		return nil, l.fail
	}
	l.locked = append(l.locked, key)
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

func (l *passLocker) TryLock(ctx context.Context, key string) (Unlock, error) {
	return l.Lock(ctx, key)
}

// fixture bundles mocks wired through a NoOpTransactionScope
type fixture struct {
	receipts   *MockReceiptRepository
	lineItems  *MockLineItemRepository
	partials   *MockPartialRepository
	backups    *MockBackupRepository
	masterData *MockMasterData
	gateway    *MockGateway
	locker     *passLocker
	txScope    *NoOpTransactionScope
}

func newFixture() *fixture {
	f := &fixture{
		receipts:   new(MockReceiptRepository),
		lineItems:  new(MockLineItemRepository),
		partials:   new(MockPartialRepository),
		backups:    new(MockBackupRepository),
		masterData: new(MockMasterData),
		gateway:    new(MockGateway),
		locker:     &passLocker{},
	}
	f.txScope = NewNoOpTransactionScope(f.receipts, f.lineItems, f.partials, f.backups, f.masterData)
	return f
}
