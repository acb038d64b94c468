package guarda

import (
	"context"
	"errors"
	"fmt"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
)

// ValidateScanAddress checks the address token an operator scanned against
// the product's placement in the store. The token is either a numeric
// address id, resolved through the address table, or a dotted address.
// Lookup misses fail with ErrAddressNotFound, a mismatch with
// ErrInvalidAddress.
func ValidateScanAddress(ctx context.Context, md guarda.MasterData, storeCode, productCode, token string) error {
	compact, err := md.GetPlacementAddress(ctx, productCode, storeCode)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return guarda.WrapPersistence("load placement", err)
	}
	if err != nil || compact == "" {
		return guarda.ErrAddressNotFound
	}
	expected := guarda.FormatCompactAddress(compact)

	scanned := token
	if id, ok := guarda.ParseAddressID(token); ok {
		scanned, err = md.GetAddressByID(ctx, id)
		if errors.Is(err, shared.ErrNotFound) {
			return guarda.ErrAddressNotFound.WithMessage(fmt.Sprintf("Endereço com ID %d não encontrado", id))
		}
		if err != nil {
			return guarda.WrapPersistence("load address id", err)
		}
	}

	if scanned != expected {
		return guarda.ErrInvalidAddress
	}
	return nil
}
