package guarda

// RawLineItem is one product line as SIAC reports it, possibly repeated
// for the same product within a receipt.
type RawLineItem struct {
	LegacyLineID string
	ProductCode  string
	ProductName  string
	FactoryCode  string
	Barcodes     []string
	Address      string
	Quantity     int
}

// AggregatedLineItem is one product per receipt after merging duplicates.
// MergedLineIDs lists the legacy line ids of the later occurrences.
type AggregatedLineItem struct {
	RawLineItem
	MergedLineIDs []string
}

// Aggregate merges raw line items by product code. The first occurrence
// of a product fixes its descriptive fields; quantities are summed; the
// output keeps first-seen order. Aggregate does not modify its input.
func Aggregate(raw []RawLineItem) []AggregatedLineItem {
	out := make([]AggregatedLineItem, 0, len(raw))
	index := make(map[string]int, len(raw))

	for _, item := range raw {
		if i, ok := index[item.ProductCode]; ok {
			out[i].Quantity += item.Quantity
			out[i].MergedLineIDs = append(out[i].MergedLineIDs, item.LegacyLineID)
			continue
		}
		seed := item
		seed.Barcodes = append([]string(nil), item.Barcodes...)
		index[item.ProductCode] = len(out)
		out = append(out, AggregatedLineItem{RawLineItem: seed})
	}

	return out
}

// Flatten turns aggregated items back into single-occurrence raw input
func Flatten(items []AggregatedLineItem) []RawLineItem {
	raw := make([]RawLineItem, len(items))
	for i, item := range items {
		raw[i] = item.RawLineItem
	}
	return raw
}
