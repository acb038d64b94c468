package guarda

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	BackupReasonNotFoundInSIAC = "NOT_FOUND_IN_SIAC"
	BackupSourceSIACSync       = "SIAC_SYNC"
)

// ReceiptBackup is the audit snapshot of a receipt removed by reconciliation
type ReceiptBackup struct {
	ID                int64
	OriginalReceiptID int64
	LegacyID          *string
	StoreCode         string
	InvoiceNumber     string
	SupplierCode      string
	Series            string
	EmittedAt         *time.Time
	StartedAt         *time.Time
	FinishedAt        *time.Time
	UserCode          string
	AppFlag           string
	FinishedInApp     string
	ReceiptSnapshot   json.RawMessage
	LineItemsSnapshot json.RawMessage
	DeletedAt         time.Time
	DeletedReason     string
	DeletedSource     string
}

type receiptSnapshot struct {
	SqGuarda     int64      `json:"sq_guarda"`
	SqGuardaSiac *string    `json:"sq_guarda_siac"`
	CdLoja       string     `json:"cd_loja"`
	CdFornece    string     `json:"cd_fornece"`
	SgSerie      string     `json:"sg_serie"`
	NuNota       string     `json:"nu_nota"`
	DtEmissao    *time.Time `json:"dt_emissao"`
	HrEmissao    string     `json:"hr_emissao"`
	InTipogua    string     `json:"in_tipogua"`
	DtIniguar    *time.Time `json:"dt_iniguar"`
	HrIniguar    string     `json:"hr_iniguar"`
	DtFimguar    *time.Time `json:"dt_fimguar"`
	HrFimguar    string     `json:"hr_fimguar"`
	CdUsuario    string     `json:"cd_usuario"`
	InApp        string     `json:"in_app"`
	InFimapp     string     `json:"in_fimapp"`
	Estoquistas  []string   `json:"estoquistas"`
}

type partialSnapshot struct {
	Endereco      string    `json:"endereco"`
	QtdeBipada    int       `json:"qtde_bipada"`
	Ciclo         int       `json:"ciclo_bipagem"`
	DtConfirmacao time.Time `json:"dt_confirmacao"`
}

type lineItemSnapshot struct {
	ID                 int64             `json:"id"`
	Origem             LineSource        `json:"origem"`
	IDSiac             string            `json:"id_siac"`
	IDsSiacAgregados   []string          `json:"ids_siac_agregados,omitempty"`
	CdProduto          string            `json:"cd_produto"`
	NoProduto          string            `json:"no_produto"`
	CdFabrica          string            `json:"cd_fabrica"`
	CodBarras          []string          `json:"cod_barras"`
	Endereco           string            `json:"endereco"`
	Quantidade         int               `json:"quantidade"`
	QtdeBipada         int               `json:"qtde_bipada"`
	Bipado             bool              `json:"bipado"`
	DtBipagem          *time.Time        `json:"dt_bipagem"`
	EnderecoConfirmado string            `json:"endereco_confirmado"`
	Ciclo              int               `json:"ciclo_bipagem"`
	Parciais           []partialSnapshot `json:"confirmacoes_parciais,omitempty"`
}

// NewReceiptBackup snapshots a receipt, its line items and their partial
// confirmations (keyed by line item id) before reconciliation removes them.
func NewReceiptBackup(r *Receipt, items []LineItem, partials map[int64][]PartialConfirmation, now time.Time) (*ReceiptBackup, error) {
	stockers := make([]string, 0, len(r.Stockers))
	for _, s := range r.Stockers {
		stockers = append(stockers, s.Code)
	}
	receiptJSON, err := json.Marshal(receiptSnapshot{
		SqGuarda:     r.ID,
		SqGuardaSiac: r.LegacyID,
		CdLoja:       r.StoreCode,
		CdFornece:    r.SupplierCode,
		SgSerie:      r.Series,
		NuNota:       r.InvoiceNumber,
		DtEmissao:    r.EmittedAt,
		HrEmissao:    r.EmittedTime,
		InTipogua:    r.Kind,
		DtIniguar:    r.StartedAt,
		HrIniguar:    r.StartedTime,
		DtFimguar:    r.FinishedAt,
		HrFimguar:    r.FinishedTime,
		CdUsuario:    r.UserCode,
		InApp:        r.AppFlag,
		InFimapp:     r.FinishedInApp,
		Estoquistas:  stockers,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot receipt %d: %w", r.ID, err)
	}

	lines := make([]lineItemSnapshot, 0, len(items))
	for _, it := range items {
		snap := lineItemSnapshot{
			ID:                 it.ID,
			Origem:             it.Source,
			IDSiac:             it.LegacyLineID,
			IDsSiacAgregados:   it.MergedLineIDs,
			CdProduto:          it.ProductCode,
			NoProduto:          it.ProductName,
			CdFabrica:          it.FactoryCode,
			CodBarras:          it.Barcodes,
			Endereco:           it.Address,
			Quantidade:         it.Quantity,
			QtdeBipada:         it.ScannedQuantity,
			Bipado:             it.Completed,
			DtBipagem:          it.LastScanAt,
			EnderecoConfirmado: it.ConfirmedAddress,
			Ciclo:              it.ScanCycle,
		}
		for _, p := range partials[it.ID] {
			snap.Parciais = append(snap.Parciais, partialSnapshot{
				Endereco:      p.Address,
				QtdeBipada:    p.Quantity,
				Ciclo:         p.ScanCycle,
				DtConfirmacao: p.ConfirmedAt,
			})
		}
		lines = append(lines, snap)
	}
	linesJSON, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("snapshot line items of receipt %d: %w", r.ID, err)
	}

	return &ReceiptBackup{
		OriginalReceiptID: r.ID,
		LegacyID:          r.LegacyID,
		StoreCode:         r.StoreCode,
		InvoiceNumber:     r.InvoiceNumber,
		SupplierCode:      r.SupplierCode,
		Series:            r.Series,
		EmittedAt:         r.EmittedAt,
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
		UserCode:          r.UserCode,
		AppFlag:           r.AppFlag,
		FinishedInApp:     r.FinishedInApp,
		ReceiptSnapshot:   receiptJSON,
		LineItemsSnapshot: linesJSON,
		DeletedAt:         now,
		DeletedReason:     BackupReasonNotFoundInSIAC,
		DeletedSource:     BackupSourceSIACSync,
	}, nil
}
