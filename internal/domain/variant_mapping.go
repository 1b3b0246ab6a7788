package domain

import (
	"sort"
	"strings"
)

// combinedSizeSeparator splits unisex option values such as "M10 / W12"
const combinedSizeSeparator = " / "

// VariantMapping maps a size code to the bare variant id used in cart line items
type VariantMapping map[SizeCode]string

// Sizes returns the mapped size codes in display order
func (m VariantMapping) Sizes() []SizeCode {
	sizes := make([]SizeCode, 0, len(m))
	for size := range m {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool { return lessSize(sizes[i], sizes[j]) })
	return sizes
}

// NormalizeVariantID strips the namespace from ids like "gid://shopify/ProductVariant/123"
func NormalizeVariantID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// NormalizeProductID reduces a product global id to its numeric id, so both spellings share cache keys
func NormalizeProductID(id string) string {
	return NormalizeVariantID(id)
}

// ProductGID returns the global id of a numeric or already namespaced product id
func ProductGID(productID string) string {
	productID = strings.TrimSpace(productID)
	if strings.HasPrefix(productID, "gid://") {
		return productID
	}
	return "gid://shopify/Product/" + productID
}

// SizeCodesFor expands a raw size value into the codes it registers under. A combined value
// "A / B" yields both halves; anything else yields itself.
func SizeCodesFor(raw string) []SizeCode {
	if strings.Contains(raw, combinedSizeSeparator) {
		parts := strings.SplitN(raw, combinedSizeSeparator, 2)
		return []SizeCode{SizeCode(strings.TrimSpace(parts[0])), SizeCode(strings.TrimSpace(parts[1]))}
	}
	return []SizeCode{SizeCode(strings.TrimSpace(raw))}
}

// BuildVariantMapping resolves every variant to its size code(s). Colliding codes are
// last-write-wins. Variants without a size are returned separately so the caller can log them.
func BuildVariantMapping(variants []VariantDescriptor) (VariantMapping, []VariantDescriptor) {
	mapping := make(VariantMapping, len(variants))
	var unmatched []VariantDescriptor

	for _, v := range variants {
		match := ExtractSize(v)
		if !match.Matched {
			unmatched = append(unmatched, v)
			continue
		}
		id := NormalizeVariantID(v.ID)
		for _, code := range SizeCodesFor(match.Raw) {
			if code == "" {
				continue
			}
			mapping[code] = id
		}
	}

	return mapping, unmatched
}
