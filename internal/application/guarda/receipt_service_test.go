package guarda

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
)

func newReceiptService(f *fixture) *ReceiptService {
	s := NewReceiptService(f.receipts, f.lineItems, f.masterData, f.gateway, f.txScope,
		ReceiptServiceConfig{StoreCode: testStore, DefaultUserCode: "8243"}, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

// ----------------------------------------------------------------------------
// CreateLocal
// ----------------------------------------------------------------------------

func TestReceiptService_CreateLocal(t *testing.T) {
	f := newFixture()
	f.masterData.On("FindStocker", mock.Anything, "E1").Return(&guarda.Stocker{Code: "E1", Name: "Ana"}, nil)
	f.masterData.On("GetProductInfo", mock.Anything, testProduct).Return(&guarda.ProductInfo{Code: testProduct, Name: "Filtro", Barcode: "789"}, nil)
	f.masterData.On("GetPlacementAddress", mock.Anything, testProduct, testStore).Return(testPlacement, nil)
	f.receipts.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*guarda.Receipt).ID = 50
	}).Return(nil)
	f.receipts.On("LinkStocker", mock.Anything, int64(50), "E1").Return(nil)
	f.lineItems.On("Create", mock.Anything, mock.MatchedBy(func(l *guarda.LineItem) bool {
		return l.ReceiptID == 50 && l.Source == guarda.SourceLocal && l.Address == testDotted &&
			l.Quantity == 3 && len(l.Barcodes) == 1
	})).Return(nil).Once()

	view, err := newReceiptService(f).CreateLocal(context.Background(), CreateReceiptCommand{
		SupplierCode:  "F1",
		Series:        "1",
		InvoiceNumber: "77",
		StockerCode:   "E1",
		Items:         []CreateReceiptItem{{ProductCode: testProduct, Quantity: 3}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(50), view.ID)
	assert.Nil(t, view.LegacyID)
	assert.Equal(t, testStore, view.StoreCode)
	assert.Equal(t, "8243", view.UserCode)
	assert.Equal(t, "C", view.Kind)
	assert.Equal(t, "Pendente", view.Status)
	assert.Equal(t, 1, view.LineCount)
	f.lineItems.AssertExpectations(t)
}

func TestReceiptService_CreateLocalUnknownStocker(t *testing.T) {
	f := newFixture()
	f.masterData.On("FindStocker", mock.Anything, "X9").Return(nil, shared.ErrNotFound)

	_, err := newReceiptService(f).CreateLocal(context.Background(), CreateReceiptCommand{StockerCode: "X9"})

	assert.ErrorIs(t, err, guarda.ErrStockerNotFound)
	assert.Contains(t, err.Error(), "codoper X9")
	f.receipts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReceiptService_CreateLocalRejectsZeroQuantity(t *testing.T) {
	f := newFixture()
	f.masterData.On("FindStocker", mock.Anything, "E1").Return(&guarda.Stocker{Code: "E1"}, nil)

	_, err := newReceiptService(f).CreateLocal(context.Background(), CreateReceiptCommand{
		StockerCode: "E1",
		Items:       []CreateReceiptItem{{ProductCode: testProduct, Quantity: 0}},
	})

	assert.ErrorIs(t, err, guarda.ErrInvalidQuantity)
}

// ----------------------------------------------------------------------------
// Queries
// ----------------------------------------------------------------------------

func TestReceiptService_List(t *testing.T) {
	f := newFixture()
	started := fixedNow
	receipts := []guarda.Receipt{
		{ID: 1, SupplierCode: "F1", InvoiceNumber: "10", StartedAt: &started, StartedTime: "10:00:00"},
		{ID: 2, SupplierCode: "F2", InvoiceNumber: "11"},
	}
	f.receipts.On("FindAll", mock.Anything, guarda.ReceiptFilter{StockerCode: "E1"}).Return(receipts, nil)
	f.lineItems.On("CountByReceipts", mock.Anything, []int64{1, 2}).Return(map[int64]int{1: 4}, nil)
	f.masterData.On("GetSupplierNames", mock.Anything, []string{"F1", "F2"}).Return(map[string]string{"F1": "Bosch"}, nil)

	list, err := newReceiptService(f).List(context.Background(), "E1")

	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, testStore, list.StoreCode)
	assert.Equal(t, "1", list.Data[0].ID)
	assert.Equal(t, "Bosch", list.Data[0].SupplierName)
	assert.Equal(t, 4, list.Data[0].SKUs)
	assert.Equal(t, "Iniciado", list.Data[0].Status)
	require.NotNil(t, list.Data[0].StartDate)
	assert.Equal(t, "2025-06-02", *list.Data[0].StartDate)
	assert.Equal(t, 0, list.Data[1].SKUs)
	assert.Equal(t, "Pendente", list.Data[1].Status)
	assert.Nil(t, list.Data[1].StartDate)
}

func TestReceiptService_GetResolvesAddressIDs(t *testing.T) {
	f := newFixture()
	f.receipts.On("FindByID", mock.Anything, int64(1)).Return(&guarda.Receipt{
		ID: 1, SupplierCode: "F1", StoreCode: testStore, Stockers: []guarda.Stocker{{Code: "E1", Name: "Ana"}},
	}, nil)
	f.lineItems.On("FindByReceipt", mock.Anything, int64(1)).Return([]guarda.LineItem{
		{ID: 10, ProductCode: "P1", Address: testDotted, LegacyLineID: "1"},
		{ID: 11, ProductCode: "P2", Address: "B.01.01.01.01"},
	}, nil)
	f.masterData.On("GetSupplierNames", mock.Anything, []string{"F1"}).Return(map[string]string{"F1": "Bosch"}, nil)
	f.masterData.On("FindAddressIDs", mock.Anything, []string{testDotted, "B.01.01.01.01"}).Return(map[string]int{testDotted: 321}, nil)

	detail, err := newReceiptService(f).Get(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, detail.LineItems, 2)
	assert.Equal(t, "321", detail.LineItems[0].AddressID)
	assert.Equal(t, "END_2", detail.LineItems[1].AddressID)
	assert.Equal(t, []string{}, detail.LineItems[1].Barcodes)
	assert.Equal(t, []StockerView{{Code: "E1", Name: "Ana"}}, detail.Stockers)
	assert.Equal(t, 2, detail.SKUs)
}

func TestReceiptService_GetNotFound(t *testing.T) {
	f := newFixture()
	f.receipts.On("FindByID", mock.Anything, int64(99)).Return(nil, shared.ErrNotFound)

	_, err := newReceiptService(f).Get(context.Background(), 99)

	assert.ErrorIs(t, err, guarda.ErrReceiptNotFound)
}

func TestReceiptService_Counts(t *testing.T) {
	tests := []struct {
		name   string
		totals guarda.ScanTotals
		want   ScanCounts
	}{
		{"empty receipt", guarda.ScanTotals{}, ScanCounts{}},
		{"one third", guarda.ScanTotals{Expected: 3, Scanned: 1}, ScanCounts{Scanned: 1, NotScanned: 2, Total: 3, Percentage: 33.33}},
		{"complete", guarda.ScanTotals{Expected: 8, Scanned: 8}, ScanCounts{Scanned: 8, Total: 8, Percentage: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.receipts.On("FindByID", mock.Anything, int64(1)).Return(&guarda.Receipt{ID: 1}, nil)
			f.lineItems.On("Totals", mock.Anything, int64(1)).Return(tt.totals, nil)

			got, err := newReceiptService(f).Counts(context.Background(), 1)

			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestReceiptService_ListLineItems(t *testing.T) {
	f := newFixture()
	legacyID := "1001"
	f.receipts.On("FindByID", mock.Anything, int64(1)).Return(&guarda.Receipt{ID: 1, LegacyID: &legacyID}, nil)
	f.lineItems.On("FindByReceipt", mock.Anything, int64(1)).Return([]guarda.LineItem{{ID: 5, ReceiptID: 1}}, nil)

	list, err := newReceiptService(f).ListLineItems(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, LineListMetadata{ReceiptID: 1, Kind: "SIAC", Total: 1}, list.Metadata)
	assert.Equal(t, int64(5), list.Data[0].ID)
}

// ----------------------------------------------------------------------------
// Lifecycle
// ----------------------------------------------------------------------------

func TestReceiptService_StartLegacyCallsSIACFirst(t *testing.T) {
	f := newFixture()
	legacyID := "1001"
	f.receipts.On("FindByID", mock.Anything, int64(1)).Return(&guarda.Receipt{ID: 1, LegacyID: &legacyID}, nil)
	f.gateway.On("StartReceipt", mock.Anything, "1001").Return(nil)
	f.receipts.On("UpdateProgress", mock.Anything, mock.Anything).Return(nil)

	progress, err := newReceiptService(f).Start(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "Iniciado", progress.Status)
	require.NotNil(t, progress.StartedTime)
	assert.Equal(t, "10:00:00", *progress.StartedTime)
}

func TestReceiptService_StartGatewayFailureStoresNothing(t *testing.T) {
	f := newFixture()
	legacyID := "1001"
	f.receipts.On("FindByID", mock.Anything, int64(1)).Return(&guarda.Receipt{ID: 1, LegacyID: &legacyID}, nil)
	f.gateway.On("StartReceipt", mock.Anything, "1001").Return(guarda.ErrUpstreamTimeout)

	_, err := newReceiptService(f).Start(context.Background(), 1)

	assert.ErrorIs(t, err, guarda.ErrUpstreamTimeout)
	f.receipts.AssertNotCalled(t, "UpdateProgress", mock.Anything, mock.Anything)
}

func TestReceiptService_FinishLocalSkipsSIAC(t *testing.T) {
	f := newFixture()
	f.receipts.On("FindByID", mock.Anything, int64(2)).Return(&guarda.Receipt{ID: 2}, nil)
	f.receipts.On("UpdateProgress", mock.Anything, mock.Anything).Return(nil)

	progress, err := newReceiptService(f).Finish(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, "Finalizado", progress.Status)
	require.NotNil(t, progress.FinishedInApp)
	assert.Equal(t, "S", *progress.FinishedInApp)
	f.gateway.AssertNotCalled(t, "FinishReceipt", mock.Anything, mock.Anything)
}

func TestReceiptService_StartReceiptDeletedMeanwhile(t *testing.T) {
	f := newFixture()
	legacyID := "1001"
	f.receipts.On("FindByID", mock.Anything, int64(1)).Return(&guarda.Receipt{ID: 1, LegacyID: &legacyID}, nil)
	f.gateway.On("StartReceipt", mock.Anything, "1001").Return(nil)
	f.receipts.On("UpdateProgress", mock.Anything, mock.Anything).Return(shared.ErrNotFound)

	_, err := newReceiptService(f).Start(context.Background(), 1)

	assert.ErrorIs(t, err, guarda.ErrReceiptNotFound)
}
