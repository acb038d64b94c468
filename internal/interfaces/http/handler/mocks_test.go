package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/scheduler"
)

type mockReceiptService struct {
	mock.Mock
}

func (m *mockReceiptService) CreateLocal(ctx context.Context, cmd appguarda.CreateReceiptCommand) (*appguarda.ReceiptView, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.ReceiptView), args.Error(1)
}

func (m *mockReceiptService) List(ctx context.Context, stockerCode string) (*appguarda.ReceiptList, error) {
	args := m.Called(ctx, stockerCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.ReceiptList), args.Error(1)
}

func (m *mockReceiptService) Get(ctx context.Context, id int64) (*appguarda.ReceiptDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.ReceiptDetail), args.Error(1)
}

func (m *mockReceiptService) Start(ctx context.Context, id int64) (*appguarda.ReceiptProgress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.ReceiptProgress), args.Error(1)
}

func (m *mockReceiptService) Finish(ctx context.Context, id int64) (*appguarda.ReceiptProgress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.ReceiptProgress), args.Error(1)
}

func (m *mockReceiptService) Counts(ctx context.Context, id int64) (*appguarda.ScanCounts, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.ScanCounts), args.Error(1)
}

func (m *mockReceiptService) ListLineItems(ctx context.Context, id int64) (*appguarda.LineItemList, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.LineItemList), args.Error(1)
}

func (m *mockReceiptService) StoreCode() string {
	return "01"
}

type mockScanService struct {
	mock.Mock
}

func (m *mockScanService) Scan(ctx context.Context, cmd appguarda.ScanCommand) (*appguarda.ScanResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.ScanResult), args.Error(1)
}

func (m *mockScanService) ScanLineItem(ctx context.Context, cmd appguarda.LineScanCommand) (*appguarda.ScanResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.ScanResult), args.Error(1)
}

func (m *mockScanService) Reset(ctx context.Context, lineItemID int64) (*appguarda.ScanResult, error) {
	args := m.Called(ctx, lineItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.ScanResult), args.Error(1)
}

func (m *mockScanService) ResetReceipt(ctx context.Context, receiptID int64) (*appguarda.ResetAllResult, error) {
	args := m.Called(ctx, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.ResetAllResult), args.Error(1)
}

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) ChangeAddress(ctx context.Context, productCode, address string) (*appguarda.AddressChangeResult, error) {
	args := m.Called(ctx, productCode, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.AddressChangeResult), args.Error(1)
}

func (m *mockProductService) CheckAddressID(ctx context.Context, id int, productCode string) (*appguarda.AddressCheckResult, error) {
	args := m.Called(ctx, id, productCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appguarda.AddressCheckResult), args.Error(1)
}

type mockSyncTrigger struct {
	mock.Mock
}

func (m *mockSyncTrigger) RunOnce(ctx context.Context) (appguarda.SyncResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(appguarda.SyncResult), args.Error(1)
}

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type stubSyncStatus struct {
	status scheduler.SyncStatus
}

func (s stubSyncStatus) Status() scheduler.SyncStatus {
	return s.status
}
