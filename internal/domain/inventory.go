package domain

import "sort"

// SizeInventory is the stock of one size of a product
type SizeInventory struct {
	Size      SizeCode `json:"size"`
	VariantID string   `json:"variant_id"`
	Quantity  int      `json:"quantity"`
	Available bool     `json:"available"`
}

// InventoryBySize resolves stock per size. Combined unisex variants report the same stock under
// both codes; a later variant with the same code replaces an earlier one, as in BuildVariantMapping.
func InventoryBySize(variants []VariantDescriptor) []SizeInventory {
	bySize := make(map[SizeCode]SizeInventory)
	for _, v := range variants {
		match := ExtractSize(v)
		if !match.Matched {
			continue
		}
		for _, code := range SizeCodesFor(match.Raw) {
			if code == "" {
				continue
			}
			bySize[code] = SizeInventory{
				Size:      code,
				VariantID: NormalizeVariantID(v.ID),
				Quantity:  v.InventoryQuantity,
				Available: v.AvailableForSale,
			}
		}
	}

	out := make([]SizeInventory, 0, len(bySize))
	for _, inv := range bySize {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return lessSize(out[i].Size, out[j].Size) })
	return out
}
