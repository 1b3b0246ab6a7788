package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// SizeCode is a normalized shoe size such as "M10" or "W8.5"
type SizeCode string

// Gender returns the leading M/W marker, or 0 for codes that do not follow the {M|W}{number} form
func (c SizeCode) Gender() byte {
	if len(c) == 0 {
		return 0
	}
	switch c[0] {
	case 'M', 'W':
		return c[0]
	}
	return 0
}

// Number returns the numeric part of the code and whether it parsed
func (c SizeCode) Number() (float64, bool) {
	if c.Gender() == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(string(c[1:]), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SelectedOption is a name/value pair attached to a variant (e.g. Size: "M10 / W12")
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// VariantDescriptor is a product variant as returned by the commerce API
type VariantDescriptor struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	SKU               string           `json:"sku"`
	SelectedOptions   []SelectedOption `json:"selectedOptions"`
	InventoryQuantity int              `json:"inventoryQuantity"`
	AvailableForSale  bool             `json:"availableForSale"`
}

// SizeSource tells which field of a variant produced a size
type SizeSource string

const (
	SizeSourceOption SizeSource = "option"
	SizeSourceTitle  SizeSource = "title"
	SizeSourceSKU    SizeSource = "sku"
	SizeSourceNone   SizeSource = "none"
)

// SizeMatch is the result of size extraction. Raw holds the value as found; for option matches it
// may be a combined form like "M10 / W12". Code is only meaningful when Matched is true.
type SizeMatch struct {
	Code    SizeCode
	Raw     string
	Source  SizeSource
	Matched bool
}

// SizeMatcher is one strategy of the size extractor
type SizeMatcher interface {
	Match(v VariantDescriptor) (SizeMatch, bool)
}

// SizeMatcherFunc adapts a function to SizeMatcher
type SizeMatcherFunc func(v VariantDescriptor) (SizeMatch, bool)

// Match implements SizeMatcher
func (f SizeMatcherFunc) Match(v VariantDescriptor) (SizeMatch, bool) { return f(v) }

var (
	titleSizePattern = regexp.MustCompile(`(?i)\b(women['’]?s?|w|men['’]?s?|m)\s*(\d{1,2}(?:\.\d)?)\b`)
	skuSizePattern   = regexp.MustCompile(`(?i)(?:^|[^a-z])(womens|women|w|mens|men|m)[-_ ]?(\d{1,2}(?:\.\d)?)(?:$|[^0-9])`)
)

// DefaultSizeMatchers is the precedence order used by ExtractSize
var DefaultSizeMatchers = []SizeMatcher{
	SizeMatcherFunc(matchSizeOption),
	SizeMatcherFunc(matchTitle),
	SizeMatcherFunc(matchSKU),
}

// ExtractSize runs DefaultSizeMatchers in order and returns the first match
func ExtractSize(v VariantDescriptor) SizeMatch {
	return ExtractSizeWith(DefaultSizeMatchers, v)
}

// ExtractSizeWith runs the given matchers in order. An unmatched result has Source none.
func ExtractSizeWith(matchers []SizeMatcher, v VariantDescriptor) SizeMatch {
	for _, m := range matchers {
		if match, ok := m.Match(v); ok {
			return match
		}
	}
	return SizeMatch{Source: SizeSourceNone}
}

func matchSizeOption(v VariantDescriptor) (SizeMatch, bool) {
	for _, opt := range v.SelectedOptions {
		if !strings.EqualFold(strings.TrimSpace(opt.Name), "size") {
			continue
		}
		if opt.Value == "" {
			return SizeMatch{}, false
		}
		return SizeMatch{Code: SizeCode(opt.Value), Raw: opt.Value, Source: SizeSourceOption, Matched: true}, true
	}
	return SizeMatch{}, false
}

func matchTitle(v VariantDescriptor) (SizeMatch, bool) {
	m := titleSizePattern.FindStringSubmatch(v.Title)
	if m == nil {
		return SizeMatch{}, false
	}
	code := sizeCodeFor(m[1], m[2])
	return SizeMatch{Code: code, Raw: string(code), Source: SizeSourceTitle, Matched: true}, true
}

func matchSKU(v VariantDescriptor) (SizeMatch, bool) {
	m := skuSizePattern.FindStringSubmatch(v.SKU)
	if m == nil {
		return SizeMatch{}, false
	}
	code := sizeCodeFor(m[1], m[2])
	return SizeMatch{Code: code, Raw: string(code), Source: SizeSourceSKU, Matched: true}, true
}

func sizeCodeFor(prefix, number string) SizeCode {
	if strings.HasPrefix(strings.ToLower(prefix), "w") {
		return SizeCode("W" + number)
	}
	return SizeCode("M" + number)
}

// lessSize orders codes by gender (M before W), then numeric size, then lexically
func lessSize(a, b SizeCode) bool {
	ga, gb := a.Gender(), b.Gender()
	if ga != gb {
		if ga == 0 || gb == 0 {
			return ga != 0
		}
		return ga < gb
	}
	na, oka := a.Number()
	nb, okb := b.Number()
	if oka && okb && na != nb {
		return na < nb
	}
	return a < b
}
