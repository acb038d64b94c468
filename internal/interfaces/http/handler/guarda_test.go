package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appguarda "github.com/joaopxt/ze-do-bip-backend/internal/application/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

var fixedNow = time.Date(2025, 6, 2, 13, 4, 5, 0, time.UTC)

type guardaFixture struct {
	receipts *mockReceiptService
	scans    *mockScanService
	sync     *mockSyncTrigger
	engine   *gin.Engine
}

func newGuardaFixture(t *testing.T) *guardaFixture {
	t.Helper()
	f := &guardaFixture{
		receipts: new(mockReceiptService),
		scans:    new(mockScanService),
		sync:     new(mockSyncTrigger),
		engine:   gin.New(),
	}
	h := NewGuardaHandler(f.receipts, f.scans, f.sync, "DF")
	h.now = func() time.Time { return fixedNow }

	g := f.engine.Group("/guardas")
	g.POST("/create", h.Create)
	g.POST("/sync-siac", h.Sync)
	g.GET("", h.List)
	g.GET("/prod/:sq_guarda", h.Get)
	g.GET("/:sq_guarda", h.Get)
	g.POST("/:sq_guarda/iniciar", h.Start)
	g.POST("/:sq_guarda/finalizar", h.Finish)
	g.GET("/:sq_guarda/contagem-bipados", h.Counts)
	g.GET("/:sq_guarda/produtos", h.LineItems)
	g.POST("/:sq_guarda/desbipar-todos", h.ResetReceipt)
	g.POST("/produtos/:id/bipar", h.ScanLine)
	g.POST("/produtos/:id/resetar", h.ResetLine)

	t.Cleanup(func() {
		f.receipts.AssertExpectations(t)
		f.scans.AssertExpectations(t)
		f.sync.AssertExpectations(t)
	})
	return f
}

func (f *guardaFixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "no error block in %v", body)
	return e["code"].(string)
}

// ----------------------------------------------------------------------------
// Create
// ----------------------------------------------------------------------------

func TestGuardaHandler_Create(t *testing.T) {
	t.Run("flat body", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.receipts.On("CreateLocal", mock.Anything, appguarda.CreateReceiptCommand{
			SupplierCode:  "F01",
			Series:        "1",
			InvoiceNumber: "123",
			StockerCode:   "77",
			Items:         []appguarda.CreateReceiptItem{{ProductCode: "P1", Quantity: 3}},
		}).Return(&appguarda.ReceiptView{ID: 9, Status: "Pendente"}, nil)

		w, body := f.do(t, http.MethodPost, "/guardas/create",
			`{"cd_fornece":"F01","sg_serie":"1","nu_nota":"123","codoper":"77","itens":[{"cd_produto":"P1","quantidade":3}]}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(9), body["data"].(map[string]any)["sq_guarda"])
	})

	t.Run("nested body from older clients", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.receipts.On("CreateLocal", mock.Anything, mock.MatchedBy(func(cmd appguarda.CreateReceiptCommand) bool {
			return cmd.InvoiceNumber == "555" && cmd.StockerCode == "12" && len(cmd.Items) == 0
		})).Return(&appguarda.ReceiptView{ID: 10}, nil)

		w, _ := f.do(t, http.MethodPost, "/guardas/create",
			`{"createGuardaSeederDto":{"cd_fornece":"F02","sg_serie":"U","nu_nota":"555","codoper":"12"}}`)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newGuardaFixture(t)

		w, body := f.do(t, http.MethodPost, "/guardas/create", `{"cd_fornece":"F01"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
	})

	t.Run("values wider than the receipt columns", func(t *testing.T) {
		for _, raw := range []string{
			`{"cd_fornece":"F01","sg_serie":"1","nu_nota":"12345678901","codoper":"77"}`,
			`{"cd_fornece":"F01","sg_serie":"1234","nu_nota":"123","codoper":"77"}`,
			`{"cd_fornece":"F0123456789","sg_serie":"1","nu_nota":"123","codoper":"77"}`,
		} {
			f := newGuardaFixture(t)

			w, body := f.do(t, http.MethodPost, "/guardas/create", raw)

			assert.Equal(t, http.StatusBadRequest, w.Code, raw)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
			f.receipts.AssertNotCalled(t, "CreateLocal", mock.Anything, mock.Anything)
		}
	})

	t.Run("unknown stocker", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.receipts.On("CreateLocal", mock.Anything, mock.Anything).Return(nil, guarda.ErrStockerNotFound)

		w, body := f.do(t, http.MethodPost, "/guardas/create",
			`{"cd_fornece":"F01","sg_serie":"1","nu_nota":"123","codoper":"404"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "STOCKER_NOT_FOUND", errorCode(t, body))
	})
}

// ----------------------------------------------------------------------------
// Queries
// ----------------------------------------------------------------------------

func TestGuardaHandler_List(t *testing.T) {
	f := newGuardaFixture(t)
	f.receipts.On("List", mock.Anything, "77").Return(&appguarda.ReceiptList{
		Data:      []appguarda.ReceiptSummary{{ID: "9", InvoiceNumber: "123", Status: "Pendente"}},
		Total:     1,
		StoreCode: "01",
	}, nil)

	w, body := f.do(t, http.MethodGet, "/guardas?cd_usuario=77", "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(1), data["total"])
	assert.Len(t, data["data"], 1)

	meta := body["metadata"].(map[string]any)
	assert.Equal(t, "01", meta["loja"])
	assert.Equal(t, "DF", meta["regiao"])
	assert.Equal(t, "2025-06-02T13:04:05Z", meta["timestamp"])
}

func TestGuardaHandler_Get(t *testing.T) {
	for _, path := range []string{"/guardas/9", "/guardas/prod/9"} {
		t.Run(path, func(t *testing.T) {
			f := newGuardaFixture(t)
			f.receipts.On("Get", mock.Anything, int64(9)).Return(&appguarda.ReceiptDetail{
				ReceiptSummary: appguarda.ReceiptSummary{ID: "9", Status: "Iniciado"},
				LineItems:      []appguarda.DetailLine{{ID: 1, ProductCode: "P1"}},
				Stockers:       []appguarda.StockerView{{Code: "77", Name: "Zé"}},
				StoreCode:      "02",
			}, nil)

			w, body := f.do(t, http.MethodGet, path, "")

			assert.Equal(t, http.StatusOK, w.Code)
			inner := body["data"].(map[string]any)["data"].(map[string]any)
			assert.Equal(t, "9", inner["sq_guarda"])
			assert.Len(t, inner["produtos"], 1)
			assert.Len(t, inner["estoquistas"], 1)
			assert.Equal(t, "02", body["metadata"].(map[string]any)["loja"])
		})
	}

	t.Run("invalid id", func(t *testing.T) {
		f := newGuardaFixture(t)

		w, body := f.do(t, http.MethodGet, "/guardas/abc", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", errorCode(t, body))
	})

	t.Run("not found", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.receipts.On("Get", mock.Anything, int64(404)).Return(nil, guarda.ErrReceiptNotFound)

		w, body := f.do(t, http.MethodGet, "/guardas/404", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "RECEIPT_NOT_FOUND", errorCode(t, body))
	})
}

func TestGuardaHandler_Counts(t *testing.T) {
	f := newGuardaFixture(t)
	f.receipts.On("Counts", mock.Anything, int64(9)).Return(&appguarda.ScanCounts{
		Scanned: 3, NotScanned: 1, Total: 4, Percentage: 75,
	}, nil)

	w, body := f.do(t, http.MethodGet, "/guardas/9/contagem-bipados", "")

	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(3), data["bipados"])
	assert.Equal(t, float64(75), data["percentualBipado"])
	assert.Equal(t, "01", body["metadata"].(map[string]any)["loja"])
}

func TestGuardaHandler_LineItems(t *testing.T) {
	f := newGuardaFixture(t)
	f.receipts.On("ListLineItems", mock.Anything, int64(9)).Return(&appguarda.LineItemList{
		Data:     []appguarda.LineItemView{{ID: 1, ProductCode: "P1", Barcodes: []string{}}},
		Metadata: appguarda.LineListMetadata{ReceiptID: 9, Kind: "SIAC", Total: 1},
	}, nil)

	w, body := f.do(t, http.MethodGet, "/guardas/9/produtos", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 1)
	meta := body["metadata"].(map[string]any)
	assert.Equal(t, float64(9), meta["guardaId"])
	assert.Equal(t, "SIAC", meta["tipo"])
}

// ----------------------------------------------------------------------------
// Lifecycle
// ----------------------------------------------------------------------------

func TestGuardaHandler_StartFinish(t *testing.T) {
	t.Run("start", func(t *testing.T) {
		f := newGuardaFixture(t)
		hr := "10:00:00"
		f.receipts.On("Start", mock.Anything, int64(9)).Return(&appguarda.ReceiptProgress{
			ID: 9, StartedTime: &hr, Status: "Iniciado",
		}, nil)

		w, body := f.do(t, http.MethodPost, "/guardas/9/iniciar", "")

		assert.Equal(t, http.StatusOK, w.Code)
		inner := body["data"].(map[string]any)["data"].(map[string]any)
		assert.Equal(t, "Iniciado", inner["status"])
		assert.Equal(t, "10:00:00", inner["hr_iniguar"])
	})

	t.Run("finish rejected upstream keeps the SIAC status", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.receipts.On("Finish", mock.Anything, int64(9)).Return(nil,
			&guarda.UpstreamError{Status: http.StatusUnprocessableEntity, Message: "Guarda já finalizada no SIAC"})

		w, body := f.do(t, http.MethodPost, "/guardas/9/finalizar", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "UPSTREAM_ERROR", errorCode(t, body))
		assert.Equal(t, "Guarda já finalizada no SIAC", body["error"].(map[string]any)["message"])
	})

	t.Run("finish times out upstream", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.receipts.On("Finish", mock.Anything, int64(9)).Return(nil, guarda.ErrUpstreamTimeout)

		w, _ := f.do(t, http.MethodPost, "/guardas/9/finalizar", "")

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})
}

// ----------------------------------------------------------------------------
// Scans
// ----------------------------------------------------------------------------

func TestGuardaHandler_ScanLine(t *testing.T) {
	t.Run("passes optional fields through", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.scans.On("ScanLineItem", mock.Anything, mock.MatchedBy(func(cmd appguarda.LineScanCommand) bool {
			return cmd.LineItemID == 5 && cmd.Quantity != nil && *cmd.Quantity == 2 &&
				cmd.ReceiptID != nil && *cmd.ReceiptID == 9 && cmd.Address == "A.01.02"
		})).Return(&appguarda.ScanResult{
			Success: true,
			Data:    appguarda.LineItemView{ID: 5, ScannedQuantity: 2, Barcodes: []string{}},
			Message: "Bipagem parcial registrada",
		}, nil)

		w, body := f.do(t, http.MethodPost, "/guardas/produtos/5/bipar",
			`{"quantidade":2,"endereco":"A.01.02","guardaId":9}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(2), body["data"].(map[string]any)["qtde_bipada"])
	})

	t.Run("empty body scans the remainder", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.scans.On("ScanLineItem", mock.Anything, appguarda.LineScanCommand{LineItemID: 5}).
			Return(nil, guarda.ErrInvalidAddress)

		w, body := f.do(t, http.MethodPost, "/guardas/produtos/5/bipar", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_ADDRESS", errorCode(t, body))
	})

	t.Run("receipt mismatch", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.scans.On("ScanLineItem", mock.Anything, mock.Anything).Return(nil, guarda.ErrLineItemMismatch)

		w, body := f.do(t, http.MethodPost, "/guardas/produtos/5/bipar", `{"guardaId":8,"endereco":"A.01"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "LINE_ITEM_MISMATCH", errorCode(t, body))
	})

	t.Run("persistence failure hides details", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.scans.On("ScanLineItem", mock.Anything, mock.Anything).
			Return(nil, guarda.WrapPersistence("save line", assert.AnError))

		w, body := f.do(t, http.MethodPost, "/guardas/produtos/5/bipar", `{"endereco":"A.01"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "PERSISTENCE_ERROR", errorCode(t, body))
		assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	})
}

func TestGuardaHandler_Resets(t *testing.T) {
	t.Run("single line", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.scans.On("Reset", mock.Anything, int64(5)).Return(&appguarda.ScanResult{
			Success: true,
			Data:    appguarda.LineItemView{ID: 5, Barcodes: []string{}},
			Message: "Bipagem resetada com sucesso",
		}, nil)

		w, body := f.do(t, http.MethodPost, "/guardas/produtos/5/resetar", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Bipagem resetada com sucesso", body["message"])
	})

	t.Run("whole receipt", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.scans.On("ResetReceipt", mock.Anything, int64(9)).Return(&appguarda.ResetAllResult{ReceiptID: 9, Reset: 4}, nil)

		w, body := f.do(t, http.MethodPost, "/guardas/9/desbipar-todos", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Todos os produtos da guarda 9 foram desbipados", body["message"])
		assert.Equal(t, float64(4), body["data"].(map[string]any)["total"])
	})
}

// ----------------------------------------------------------------------------
// Sync
// ----------------------------------------------------------------------------

func TestGuardaHandler_Sync(t *testing.T) {
	t.Run("runs once", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.sync.On("RunOnce", mock.Anything).Return(appguarda.SyncResult{Synced: 2, Removed: 1, Duration: "1.2s"}, nil)

		w, body := f.do(t, http.MethodPost, "/guardas/sync-siac", "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, float64(2), data["synced"])
		assert.Equal(t, float64(1), data["removed"])
	})

	t.Run("already running", func(t *testing.T) {
		f := newGuardaFixture(t)
		f.sync.On("RunOnce", mock.Anything).Return(appguarda.SyncResult{}, guarda.ErrSyncInProgress)

		w, body := f.do(t, http.MethodPost, "/guardas/sync-siac", "")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "SYNC_IN_PROGRESS", errorCode(t, body))
	})
}
