package siac

import (
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
)

// SIAC endpoints. All of them are called with POST and a JSON body.
const (
	EndpointListReceipts  = "/GUARDA_LISTA?"
	EndpointReceiptDetail = "/GUARDA_DETALHES?"
	EndpointStartReceipt  = "/GUARDA_INICIAR?"
	EndpointFinishReceipt = "/GUARDA_FINALIZAR?"
	EndpointLookupAddress = "/ENDERECO_CONSULTA?"
	EndpointChangeAddress = "/PRODUTO_ALTERAR_ENDERECO"
)

// envelope wraps list and detail payloads
type envelope[T any] struct {
	Data T `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
}

type listRequest struct {
	UserCode string `json:"cd_usuario,omitempty"`
}

type receiptRequest struct {
	LegacyID string `json:"sq_guarda"`
}

type addressRequest struct {
	StoreCode string `json:"cd_loja"`
	Address   string `json:"endereco"`
}

type changeAddressRequest struct {
	StoreCode   string `json:"cd_loja"`
	ProductCode string `json:"codpro"`
	Address     string `json:"endereco"`
}

type receiptDTO struct {
	LegacyID      string `json:"sq_guarda" validate:"required"`
	StoreCode     string `json:"cd_loja"`
	SupplierCode  string `json:"cd_fornece"`
	SupplierName  string `json:"no_fornecedor"`
	Series        string `json:"sg_serie"`
	InvoiceNumber string `json:"nu_nota"`
	EmittedDate   string `json:"dt_emissao"`
	EmittedTime   string `json:"hr_emissao"`
	ItemCount     int    `json:"qtd_itens" validate:"gte=0"`
	Status        string `json:"status"`
	StockerCode   string `json:"cd_estoqui"`
}

// receiptColumns mirrors the widths of the local guarda columns
type receiptColumns struct {
	LegacyID      string `validate:"max=10"`
	StoreCode     string `validate:"max=2"`
	SupplierCode  string `validate:"max=10"`
	Series        string `validate:"max=3"`
	InvoiceNumber string `validate:"max=10"`
	EmittedTime   string `validate:"max=8"`
}

func (d receiptDTO) columns() receiptColumns {
	return receiptColumns{
		LegacyID:      d.LegacyID,
		StoreCode:     d.StoreCode,
		SupplierCode:  d.SupplierCode,
		Series:        d.Series,
		InvoiceNumber: d.InvoiceNumber,
		EmittedTime:   d.EmittedTime,
	}
}

type stockerDTO struct {
	Code      string `json:"cd_estoquista"`
	Name      string `json:"estoquista"`
	ItemCount int    `json:"qt_itens"`
}

type productDTO struct {
	ID          string   `json:"id"`
	FactoryCode string   `json:"cd_fabrica"`
	ProductCode string   `json:"cd_produto" validate:"required"`
	Barcodes    []string `json:"cod_barras"`
	Address     string   `json:"endereco"`
	Name        string   `json:"no_produto"`
	Quantity    int      `json:"quantidade" validate:"gte=0"`
}

type detailDTO struct {
	SupplierCode  string       `json:"cd_fornece"`
	StoreCode     string       `json:"cd_loja"`
	EmittedDate   string       `json:"dt_emissao"`
	FinishedDate  string       `json:"dt_fimguar"`
	StartedDate   string       `json:"dt_iniguar"`
	Stockers      []stockerDTO `json:"estoquistas"`
	EmittedTime   string       `json:"hr_emissao"`
	FinishedTime  string       `json:"hr_fimguar"`
	StartedTime   string       `json:"hr_iniguar"`
	SupplierName  string       `json:"no_fornecedor"`
	InvoiceNumber string       `json:"nu_nota"`
	Products      []productDTO `json:"produtos" validate:"dive"`
}

type addressDTO struct {
	StoreCode   string `json:"cd_loja"`
	Address     string `json:"endereco"`
	Blocked     string `json:"bloqueado"`
	Kind        string `json:"in_tipoend"`
	Description string `json:"ds_tipoend"`
}

type addressChangeDTO struct {
	Status          string `json:"status" validate:"required"`
	Message         string `json:"mensagem"`
	PreviousAddress string `json:"endereco_anterior"`
	NewAddress      string `json:"endereco_novo"`
}

func (d receiptDTO) toDomain() guarda.LegacyReceipt {
	return guarda.LegacyReceipt{
		LegacyID:      d.LegacyID,
		StoreCode:     d.StoreCode,
		SupplierCode:  d.SupplierCode,
		SupplierName:  d.SupplierName,
		Series:        d.Series,
		InvoiceNumber: d.InvoiceNumber,
		EmittedDate:   d.EmittedDate,
		EmittedTime:   d.EmittedTime,
		ItemCount:     d.ItemCount,
		Status:        d.Status,
		StockerCode:   d.StockerCode,
	}
}

func (d detailDTO) toDomain() *guarda.LegacyReceiptDetail {
	out := &guarda.LegacyReceiptDetail{
		SupplierCode:  d.SupplierCode,
		SupplierName:  d.SupplierName,
		StoreCode:     d.StoreCode,
		InvoiceNumber: d.InvoiceNumber,
		EmittedDate:   d.EmittedDate,
		EmittedTime:   d.EmittedTime,
		StartedDate:   d.StartedDate,
		StartedTime:   d.StartedTime,
		FinishedDate:  d.FinishedDate,
		FinishedTime:  d.FinishedTime,
		Stockers:      make([]guarda.LegacyStocker, 0, len(d.Stockers)),
		LineItems:     make([]guarda.RawLineItem, 0, len(d.Products)),
	}
	for _, s := range d.Stockers {
		out.Stockers = append(out.Stockers, guarda.LegacyStocker{Code: s.Code, Name: s.Name, ItemCount: s.ItemCount})
	}
	for _, p := range d.Products {
		out.LineItems = append(out.LineItems, guarda.RawLineItem{
			LegacyLineID: p.ID,
			ProductCode:  p.ProductCode,
			ProductName:  p.Name,
			FactoryCode:  p.FactoryCode,
			Barcodes:     p.Barcodes,
			Address:      p.Address,
			Quantity:     p.Quantity,
		})
	}
	return out
}
