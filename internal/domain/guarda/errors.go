package guarda

import (
	"errors"
	"fmt"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
)

// Scan and lookup failures. Messages are shown to operators as is.
var (
	ErrReceiptNotFound  = shared.NewDomainError("RECEIPT_NOT_FOUND", "Guarda nao encontrada")
	ErrLineItemNotFound = shared.NewDomainError("LINE_ITEM_NOT_FOUND", "Produto nao encontrado")
	ErrLineItemMismatch = shared.NewDomainError("LINE_ITEM_MISMATCH", "Produto nao encontrado na guarda")
	ErrAlreadyCompleted = shared.NewDomainError("ALREADY_COMPLETED", "Produto ja bipado")
	ErrInvalidQuantity  = shared.NewDomainError("INVALID_QUANTITY", "Verifique a quantidade bipada")
	ErrInvalidAddress   = shared.NewDomainError("INVALID_ADDRESS", "Endereco inválido")
	ErrAddressNotFound  = shared.NewDomainError("ADDRESS_NOT_FOUND", "Endereço do produto não encontrado")
	ErrStockerNotFound  = shared.NewDomainError("STOCKER_NOT_FOUND", "Estoquista não encontrado")
	ErrPersistence      = shared.NewDomainError("PERSISTENCE_ERROR", "Erro ao gravar dados da guarda")
	ErrSyncInProgress   = shared.NewDomainError("SYNC_IN_PROGRESS", "Sincronização com SIAC já em andamento")
)

// ErrUpstreamTimeout means a SIAC call exceeded its deadline
var ErrUpstreamTimeout = shared.NewDomainError("UPSTREAM_TIMEOUT", "Timeout na conexão com SIAC")

// DefaultUpstreamMessage is used when SIAC fails without a message
const DefaultUpstreamMessage = "Erro na comunicação com SIAC"

// UpstreamError is a non-2xx or malformed response from SIAC
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("siac upstream error (status %d): %s", e.Status, e.Message)
}

// TransportError is a SIAC call that failed before any response arrived
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("siac transport error on %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// WrapPersistence converts a storage failure into ErrPersistence. Domain
// errors pass through so validation failures raised inside a transaction
// keep their kind.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	var ue *UpstreamError
	var te *TransportError
	if errors.As(err, &ue) || errors.As(err, &te) {
		return err
	}
	return ErrPersistence.Wrap(fmt.Errorf("%s: %w", op, err))
}

// IsGatewayError reports whether err came from the SIAC boundary
func IsGatewayError(err error) bool {
	var ue *UpstreamError
	var te *TransportError
	return errors.Is(err, ErrUpstreamTimeout) || errors.As(err, &ue) || errors.As(err, &te)
}
