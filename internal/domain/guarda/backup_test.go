package guarda

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReceiptBackup(t *testing.T) {
	legacyID := "555"
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	r := &Receipt{ID: 9, LegacyID: &legacyID, StoreCode: "01", InvoiceNumber: "000111", Stockers: []Stocker{{Code: "0101"}}}
	items := []LineItem{
		{ID: 1, ReceiptID: 9, ProductCode: "P1", Quantity: 10, ScannedQuantity: 4},
		{ID: 2, ReceiptID: 9, ProductCode: "P2", Quantity: 1},
	}
	partials := map[int64][]PartialConfirmation{
		1: {{LineItemID: 1, Address: "A.01", Quantity: 4, ConfirmedAt: now}},
	}

	b, err := NewReceiptBackup(r, items, partials, now)
	require.NoError(t, err)

	assert.Equal(t, int64(9), b.OriginalReceiptID)
	assert.Equal(t, "555", *b.LegacyID)
	assert.Equal(t, BackupReasonNotFoundInSIAC, b.DeletedReason)
	assert.Equal(t, BackupSourceSIACSync, b.DeletedSource)
	assert.Equal(t, now, b.DeletedAt)

	var receiptDoc map[string]any
	require.NoError(t, json.Unmarshal(b.ReceiptSnapshot, &receiptDoc))
	assert.Equal(t, "555", receiptDoc["sq_guarda_siac"])
	assert.Equal(t, []any{"0101"}, receiptDoc["estoquistas"])

	var lineDocs []map[string]any
	require.NoError(t, json.Unmarshal(b.LineItemsSnapshot, &lineDocs))
	require.Len(t, lineDocs, 2)
	assert.Equal(t, "P1", lineDocs[0]["cd_produto"])
	assert.Len(t, lineDocs[0]["confirmacoes_parciais"], 1)
	assert.NotContains(t, lineDocs[1], "confirmacoes_parciais")
}
