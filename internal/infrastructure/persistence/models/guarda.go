package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
)

// ReceiptModel is the persistence model for a Receipt
type ReceiptModel struct {
	SqGuarda     int64      `gorm:"column:sq_guarda;primaryKey;autoIncrement"`
	SqGuardaSiac *string    `gorm:"column:sq_guarda_siac;type:varchar(10);uniqueIndex"`
	CdLoja       string     `gorm:"column:cd_loja;type:varchar(2);not null"`
	DtEmissao    *time.Time `gorm:"column:dt_emissao"`
	HrEmissao    *string    `gorm:"column:hr_emissao;type:varchar(8)"`
	InTipogua    string     `gorm:"column:in_tipogua;type:varchar(1);not null"`
	CdFornece    string     `gorm:"column:cd_fornece;type:varchar(10);not null"`
	SgSerie      *string    `gorm:"column:sg_serie;type:varchar(3)"`
	NuNota       string     `gorm:"column:nu_nota;type:varchar(10);not null"`
	DtIniguar    *time.Time `gorm:"column:dt_iniguar"`
	HrIniguar    *string    `gorm:"column:hr_iniguar;type:varchar(8)"`
	DtFimguar    *time.Time `gorm:"column:dt_fimguar"`
	HrFimguar    *string    `gorm:"column:hr_fimguar;type:varchar(8)"`
	CdUsuario    *string    `gorm:"column:cd_usuario;type:varchar(10)"`
	InApp        *string    `gorm:"column:in_app;type:varchar(1)"`
	InFimapp     *string    `gorm:"column:in_fimapp;type:varchar(1)"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "guarda"
}

// ToDomain converts the persistence model to a domain Receipt.
// Stockers are loaded separately.
func (m *ReceiptModel) ToDomain() *guarda.Receipt {
	return &guarda.Receipt{
		ID:            m.SqGuarda,
		LegacyID:      m.SqGuardaSiac,
		StoreCode:     m.CdLoja,
		SupplierCode:  m.CdFornece,
		Series:        deref(m.SgSerie),
		InvoiceNumber: m.NuNota,
		EmittedAt:     m.DtEmissao,
		EmittedTime:   deref(m.HrEmissao),
		Kind:          m.InTipogua,
		StartedAt:     m.DtIniguar,
		StartedTime:   deref(m.HrIniguar),
		FinishedAt:    m.DtFimguar,
		FinishedTime:  deref(m.HrFimguar),
		UserCode:      deref(m.CdUsuario),
		AppFlag:       deref(m.InApp),
		FinishedInApp: deref(m.InFimapp),
	}
}

// ReceiptModelFromDomain converts a domain Receipt to its persistence model
func ReceiptModelFromDomain(r *guarda.Receipt) *ReceiptModel {
	return &ReceiptModel{
		SqGuarda:     r.ID,
		SqGuardaSiac: r.LegacyID,
		CdLoja:       r.StoreCode,
		DtEmissao:    r.EmittedAt,
		HrEmissao:    nullable(r.EmittedTime),
		InTipogua:    r.Kind,
		CdFornece:    r.SupplierCode,
		SgSerie:      nullable(r.Series),
		NuNota:       r.InvoiceNumber,
		DtIniguar:    r.StartedAt,
		HrIniguar:    nullable(r.StartedTime),
		DtFimguar:    r.FinishedAt,
		HrFimguar:    nullable(r.FinishedTime),
		CdUsuario:    nullable(r.UserCode),
		InApp:        nullable(r.AppFlag),
		InFimapp:     nullable(r.FinishedInApp),
	}
}

// StockerLinkModel links a stocker to a receipt
type StockerLinkModel struct {
	SqGuarda int64  `gorm:"column:sq_guarda;primaryKey"`
	Codoper  string `gorm:"column:codoper;type:varchar(10);primaryKey"`
}

// TableName returns the table name for GORM
func (StockerLinkModel) TableName() string {
	return "guarda_estoquista"
}

// LineItemModel is the persistence model for a LineItem
type LineItemModel struct {
	ID                 int64                       `gorm:"column:id;primaryKey;autoIncrement"`
	SqGuarda           int64                       `gorm:"column:sq_guarda;not null;uniqueIndex:uq_produtos_guarda_produto,priority:1"`
	Origem             string                      `gorm:"column:origem;type:varchar(5);not null"`
	IDSiac             *string                     `gorm:"column:id_siac;type:varchar(20)"`
	IDsSiacAgregados   datatypes.JSONSlice[string] `gorm:"column:ids_siac_agregados"`
	CdProduto          string                      `gorm:"column:cd_produto;type:varchar(20);not null;uniqueIndex:uq_produtos_guarda_produto,priority:2"`
	NoProduto          string                      `gorm:"column:no_produto"`
	CdFabrica          *string                     `gorm:"column:cd_fabrica"`
	CodBarras          datatypes.JSONSlice[string] `gorm:"column:cod_barras"`
	Endereco           *string                     `gorm:"column:endereco"`
	Quantidade         int                         `gorm:"column:quantidade;not null"`
	QtdeBipada         int                         `gorm:"column:qtde_bipada;not null;default:0"`
	Bipado             bool                        `gorm:"column:bipado;not null;default:false"`
	DtBipagem          *time.Time                  `gorm:"column:dt_bipagem"`
	EnderecoConfirmado *string                     `gorm:"column:endereco_confirmado"`
	CicloBipagem       int                         `gorm:"column:ciclo_bipagem;not null;default:0"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "produtos_guarda"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *LineItemModel) ToDomain() *guarda.LineItem {
	return &guarda.LineItem{
		ID:               m.ID,
		ReceiptID:        m.SqGuarda,
		Source:           guarda.LineSource(m.Origem),
		LegacyLineID:     deref(m.IDSiac),
		MergedLineIDs:    []string(m.IDsSiacAgregados),
		ProductCode:      m.CdProduto,
		ProductName:      m.NoProduto,
		FactoryCode:      deref(m.CdFabrica),
		Barcodes:         []string(m.CodBarras),
		Address:          deref(m.Endereco),
		Quantity:         m.Quantidade,
		ScannedQuantity:  m.QtdeBipada,
		Completed:        m.Bipado,
		LastScanAt:       m.DtBipagem,
		ConfirmedAddress: deref(m.EnderecoConfirmado),
		ScanCycle:        m.CicloBipagem,
	}
}

// LineItemModelFromDomain converts a domain LineItem to its persistence model
func LineItemModelFromDomain(l *guarda.LineItem) *LineItemModel {
	return &LineItemModel{
		ID:                 l.ID,
		SqGuarda:           l.ReceiptID,
		Origem:             string(l.Source),
		IDSiac:             nullable(l.LegacyLineID),
		IDsSiacAgregados:   datatypes.JSONSlice[string](l.MergedLineIDs),
		CdProduto:          l.ProductCode,
		NoProduto:          l.ProductName,
		CdFabrica:          nullable(l.FactoryCode),
		CodBarras:          datatypes.JSONSlice[string](l.Barcodes),
		Endereco:           nullable(l.Address),
		Quantidade:         l.Quantity,
		QtdeBipada:         l.ScannedQuantity,
		Bipado:             l.Completed,
		DtBipagem:          l.LastScanAt,
		EnderecoConfirmado: nullable(l.ConfirmedAddress),
		CicloBipagem:       l.ScanCycle,
	}
}

// PartialConfirmationModel is one row of the partial scan ledger
type PartialConfirmationModel struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ProdutoGuardaID int64     `gorm:"column:produto_guarda_id;not null;index:idx_bipagem_parcial_produto,priority:1"`
	Endereco        string    `gorm:"column:endereco;not null"`
	QtdeBipada      int       `gorm:"column:qtde_bipada;not null"`
	CicloBipagem    int       `gorm:"column:ciclo_bipagem;not null;default:0"`
	DtConfirmacao   time.Time `gorm:"column:dt_confirmacao;not null;index:idx_bipagem_parcial_produto,priority:2"`
}

// TableName returns the table name for GORM
func (PartialConfirmationModel) TableName() string {
	return "bipagem_parcial_endereco"
}

// ToDomain converts the persistence model to a domain PartialConfirmation
func (m *PartialConfirmationModel) ToDomain() guarda.PartialConfirmation {
	return guarda.PartialConfirmation{
		ID:          m.ID,
		LineItemID:  m.ProdutoGuardaID,
		Address:     m.Endereco,
		Quantity:    m.QtdeBipada,
		ScanCycle:   m.CicloBipagem,
		ConfirmedAt: m.DtConfirmacao,
	}
}

// PartialConfirmationModelFromDomain converts a domain PartialConfirmation
func PartialConfirmationModelFromDomain(c *guarda.PartialConfirmation) *PartialConfirmationModel {
	return &PartialConfirmationModel{
		ID:              c.ID,
		ProdutoGuardaID: c.LineItemID,
		Endereco:        c.Address,
		QtdeBipada:      c.Quantity,
		CicloBipagem:    c.ScanCycle,
		DtConfirmacao:   c.ConfirmedAt,
	}
}

// ReceiptBackupModel is the audit copy of a receipt removed by reconciliation
type ReceiptBackupModel struct {
	ID               int64          `gorm:"column:id;primaryKey;autoIncrement"`
	SqGuardaOriginal int64          `gorm:"column:sq_guarda_original;not null"`
	SqGuardaSiac     *string        `gorm:"column:sq_guarda_siac;type:varchar(10);index"`
	CdLoja           string         `gorm:"column:cd_loja"`
	NuNota           string         `gorm:"column:nu_nota"`
	CdFornece        string         `gorm:"column:cd_fornece"`
	SgSerie          *string        `gorm:"column:sg_serie"`
	DtEmissao        *time.Time     `gorm:"column:dt_emissao"`
	DtIniguar        *time.Time     `gorm:"column:dt_iniguar"`
	DtFimguar        *time.Time     `gorm:"column:dt_fimguar"`
	CdUsuario        *string        `gorm:"column:cd_usuario"`
	InApp            *string        `gorm:"column:in_app"`
	InFimapp         *string        `gorm:"column:in_fimapp"`
	GuardaSnapshot   datatypes.JSON `gorm:"column:guarda_snapshot;not null"`
	ProdutosSnapshot datatypes.JSON `gorm:"column:produtos_snapshot;not null"`
	DeletedAt        time.Time      `gorm:"column:deleted_at;not null"`
	DeletedReason    string         `gorm:"column:deleted_reason;not null"`
	DeletedSource    string         `gorm:"column:deleted_source;not null"`
}

// TableName returns the table name for GORM
func (ReceiptBackupModel) TableName() string {
	return "guarda_backup"
}

// ToDomain converts the persistence model to a domain ReceiptBackup
func (m *ReceiptBackupModel) ToDomain() guarda.ReceiptBackup {
	return guarda.ReceiptBackup{
		ID:                m.ID,
		OriginalReceiptID: m.SqGuardaOriginal,
		LegacyID:          m.SqGuardaSiac,
		StoreCode:         m.CdLoja,
		InvoiceNumber:     m.NuNota,
		SupplierCode:      m.CdFornece,
		Series:            deref(m.SgSerie),
		EmittedAt:         m.DtEmissao,
		StartedAt:         m.DtIniguar,
		FinishedAt:        m.DtFimguar,
		UserCode:          deref(m.CdUsuario),
		AppFlag:           deref(m.InApp),
		FinishedInApp:     deref(m.InFimapp),
		ReceiptSnapshot:   []byte(m.GuardaSnapshot),
		LineItemsSnapshot: []byte(m.ProdutosSnapshot),
		DeletedAt:         m.DeletedAt,
		DeletedReason:     m.DeletedReason,
		DeletedSource:     m.DeletedSource,
	}
}

// ReceiptBackupModelFromDomain converts a domain ReceiptBackup
func ReceiptBackupModelFromDomain(b *guarda.ReceiptBackup) *ReceiptBackupModel {
	return &ReceiptBackupModel{
		ID:               b.ID,
		SqGuardaOriginal: b.OriginalReceiptID,
		SqGuardaSiac:     b.LegacyID,
		CdLoja:           b.StoreCode,
		NuNota:           b.InvoiceNumber,
		CdFornece:        b.SupplierCode,
		SgSerie:          nullable(b.Series),
		DtEmissao:        b.EmittedAt,
		DtIniguar:        b.StartedAt,
		DtFimguar:        b.FinishedAt,
		CdUsuario:        nullable(b.UserCode),
		InApp:            nullable(b.AppFlag),
		InFimapp:         nullable(b.FinishedInApp),
		GuardaSnapshot:   datatypes.JSON(b.ReceiptSnapshot),
		ProdutosSnapshot: datatypes.JSON(b.LineItemsSnapshot),
		DeletedAt:        b.DeletedAt,
		DeletedReason:    b.DeletedReason,
		DeletedSource:    b.DeletedSource,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
