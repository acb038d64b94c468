package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
)

// ProductService changes and checks product placements
type ProductService interface {
	ChangeAddress(ctx context.Context, productCode, address string) (*appguarda.AddressChangeResult, error)
	CheckAddressID(ctx context.Context, id int, productCode string) (*appguarda.AddressCheckResult, error)
}

// ProductHandler serves the /produtos endpoints
type ProductHandler struct {
	BaseHandler
	products ProductService
	scans    ScanService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products ProductService, scans ScanService) *ProductHandler {
	return &ProductHandler{
		BaseHandler: newBaseHandler(""),
		products:    products,
		scans:       scans,
	}
}

// ScanProductRequest confirms incremento units of a product in a receipt
type ScanProductRequest struct {
	ReceiptID int64  `json:"sq_guarda" binding:"required,gt=0"`
	Increment int    `json:"incremento"`
	Address   string `json:"endereco"`
}

// ChangeAddressRequest moves a product to a new placement
type ChangeAddressRequest struct {
	NewAddress string `json:"enderecoNovo" binding:"required,max=20"`
}

// Scan handles POST /produtos/:cd_produto/bipar
func (h *ProductHandler) Scan(c *gin.Context) {
	var req ScanProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.scans.Scan(c.Request.Context(), appguarda.ScanCommand{
		ReceiptID:   req.ReceiptID,
		ProductCode: c.Param("cd_produto"),
		Quantity:    req.Increment,
		Address:     req.Address,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ChangeAddress handles PUT /produtos/alterar-endereco/:codpro
func (h *ProductHandler) ChangeAddress(c *gin.Context) {
	var req ChangeAddressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.products.ChangeAddress(c.Request.Context(), c.Param("codpro"), req.NewAddress)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CheckAddressID handles GET /produtos/get-endereco/:id/:codpro
func (h *ProductHandler) CheckAddressID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.HandleError(c, shared.ErrInvalidInput.WithMessage("id inválido"))
		return
	}

	res, err := h.products.CheckAddressID(c.Request.Context(), id, c.Param("codpro"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
