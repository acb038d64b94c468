package models

// The master data tables are maintained by the ERP replication and only
// read here, except prd_loja.localiza which follows SIAC placement changes.

// ProductModel is a catalog product
type ProductModel struct {
	Codpro   string  `gorm:"column:codpro;primaryKey"`
	Produto  string  `gorm:"column:produto"`
	CodBarra *string `gorm:"column:cod_barra"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "produto"
}

// PlacementModel is the placement of a product in a store
type PlacementModel struct {
	Codpro   string  `gorm:"column:codpro;primaryKey"`
	CdLoja   string  `gorm:"column:cd_loja;primaryKey"`
	Localiza *string `gorm:"column:localiza"`
}

// TableName returns the table name for GORM
func (PlacementModel) TableName() string {
	return "prd_loja"
}

// AddressIDModel maps numeric address ids to dotted addresses
type AddressIDModel struct {
	ID       int    `gorm:"column:id;primaryKey"`
	Endereco string `gorm:"column:endereco;index"`
}

// TableName returns the table name for GORM
func (AddressIDModel) TableName() string {
	return "enderecos_id"
}

// SupplierModel is a supplier
type SupplierModel struct {
	Codfor string `gorm:"column:codfor;primaryKey"`
	Fornec string `gorm:"column:fornec"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "fornecedor"
}

// PurchaseModel is a purchase document header
type PurchaseModel struct {
	Numnot string  `gorm:"column:numnot;primaryKey"`
	Codfor string  `gorm:"column:codfor;primaryKey"`
	CdLoja string  `gorm:"column:cd_loja;primaryKey"`
	Serie  *string `gorm:"column:serie"`
}

// TableName returns the table name for GORM
func (PurchaseModel) TableName() string {
	return "compra"
}

// StockerModel is a warehouse operator
type StockerModel struct {
	Codoper string `gorm:"column:codoper;primaryKey"`
	Nome    string `gorm:"column:nome"`
}

// TableName returns the table name for GORM
func (StockerModel) TableName() string {
	return "estoquista"
}

// GuardaModels lists the tables the service owns, in creation order
func GuardaModels() []any {
	return []any{
		&ReceiptModel{},
		&StockerLinkModel{},
		&LineItemModel{},
		&PartialConfirmationModel{},
		&ReceiptBackupModel{},
	}
}

// MasterDataModels lists the master data tables the service reads
func MasterDataModels() []any {
	return []any{
		&ProductModel{},
		&PlacementModel{},
		&AddressIDModel{},
		&SupplierModel{},
		&PurchaseModel{},
		&StockerModel{},
	}
}
