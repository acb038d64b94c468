package guarda

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
	"github.com/joaopxt/ze-do-bip-backend/internal/infrastructure/logger"
)

// ProductService handles product placement queries and changes
type ProductService struct {
	gateway    guarda.LegacyGateway
	masterData guarda.MasterData
	storeCode  string
	logger     *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(gateway guarda.LegacyGateway, masterData guarda.MasterData, storeCode string, log *zap.Logger) *ProductService {
	return &ProductService{
		gateway:    gateway,
		masterData: masterData,
		storeCode:  storeCode,
		logger:     log.Named("product"),
	}
}

// ChangeAddress moves a product to a new placement. SIAC must know the
// address and accept the change; the local placement then follows. No line
// item lock is involved, so scans are never blocked on these SIAC calls.
func (s *ProductService) ChangeAddress(ctx context.Context, productCode, address string) (*AddressChangeResult, error) {
	log := logger.L(ctx, s.logger).With(zap.String("codpro", productCode), zap.String("endereco", address))

	known, err := s.gateway.LookupAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if known != address {
		return nil, guarda.ErrInvalidAddress.WithMessage("Endereço não encontrado no SIAC")
	}

	change, err := s.gateway.ChangeProductAddress(ctx, productCode, address)
	if err != nil {
		return nil, err
	}

	if change.Succeeded() {
		newAddress := change.NewAddress
		if newAddress == "" {
			newAddress = address
		}
		if err := s.masterData.UpdatePlacementAddress(ctx, productCode, s.storeCode, newAddress); err != nil {
			log.Error("SIAC accepted the address change but the local placement was not updated", zap.Error(err))
		} else {
			log.Info("Product placement changed", zap.String("endereco_anterior", change.PreviousAddress))
		}
	} else {
		log.Warn("SIAC rejected the address change", zap.String("status", change.Status), zap.String("mensagem", change.Message))
	}

	return &AddressChangeResult{
		Status:          change.Status,
		Message:         change.Message,
		PreviousAddress: change.PreviousAddress,
		NewAddress:      change.NewAddress,
	}, nil
}

// CheckAddressID tells whether the address registered under id is the
// product's placement, ignoring separators.
func (s *ProductService) CheckAddressID(ctx context.Context, id int, productCode string) (*AddressCheckResult, error) {
	placement, err := s.masterData.GetPlacementAddress(ctx, productCode, s.storeCode)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrNotFound.WithMessage("PrdLoja nao encontrado")
	}
	if err != nil {
		return nil, guarda.WrapPersistence("find placement", err)
	}

	address, err := s.masterData.GetAddressByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrNotFound.WithMessage("Endereco nao encontrado")
	}
	if err != nil {
		return nil, guarda.WrapPersistence("find address id", err)
	}

	return &AddressCheckResult{
		Match:   guarda.StripSeparators(address) == guarda.StripSeparators(placement),
		Address: address,
	}, nil
}
