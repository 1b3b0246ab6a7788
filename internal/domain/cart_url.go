package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxCartURLLength is the longest cart URL the storefront accepts
	MaxCartURLLength = 2048

	// MaxNotesLength caps the free-text notes carried as a cart attribute
	MaxNotesLength = 200
)

// OrderQuantities is the requested quantity per size
type OrderQuantities map[SizeCode]int

// LineItem is one variant/quantity pair of a cart
type LineItem struct {
	Size      SizeCode `json:"size"`
	VariantID string   `json:"variant_id"`
	Quantity  int      `json:"quantity"`
}

// CartAttributes are the descriptive attributes attached to the cart. Zero values are omitted.
type CartAttributes struct {
	ColorwayName  string
	UpperColor    string
	UpperSplatter string
	SoleColor     string
	SoleSplatter  string
	LaceColor     string
	LaceSplatter  string
	SideLogo      bool
	BackLogo      bool
	LogoColors    string
	Notes         string
	CreatedAt     time.Time
	DesignID      string
}

// Attribute is one rendered label/value pair
type Attribute struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Ordered returns the non-empty attributes in their fixed cart order
func (a CartAttributes) Ordered() []Attribute {
	var created string
	if !a.CreatedAt.IsZero() {
		created = a.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z")
	}

	all := []Attribute{
		{"Colorway", a.ColorwayName},
		{"Upper Color", a.UpperColor},
		{"Upper Splatter", a.UpperSplatter},
		{"Sole Color", a.SoleColor},
		{"Sole Splatter", a.SoleSplatter},
		{"Lace Color", a.LaceColor},
		{"Lace Splatter", a.LaceSplatter},
		{"Side Logo", yesIf(a.SideLogo)},
		{"Back Logo", yesIf(a.BackLogo)},
		{"Logo Colors", a.LogoColors},
		{"Special Notes", truncateRunes(strings.TrimSpace(a.Notes), MaxNotesLength)},
		{"Design Created", created},
		{"Design ID", a.DesignID},
	}

	out := make([]Attribute, 0, len(all))
	for _, attr := range all {
		if attr.Value != "" {
			out = append(out, attr)
		}
	}
	return out
}

// AttributesFromDesign derives cart attributes from a configuration
func AttributesFromDesign(cfg DesignConfiguration, notes, designID string, createdAt time.Time) CartAttributes {
	colorway := cfg.ColorwayName
	if colorway == "" {
		colorway = cfg.ColorwayID
	}

	var logoColors []string
	if cfg.SideLogo.Present() && cfg.SideLogo.Color != "" {
		logoColors = append(logoColors, "Side: "+cfg.SideLogo.Color)
	}
	if cfg.BackLogo.Present() && cfg.BackLogo.Color != "" {
		logoColors = append(logoColors, "Back: "+cfg.BackLogo.Color)
	}

	return CartAttributes{
		ColorwayName:  colorway,
		UpperColor:    cfg.Upper.BaseColor,
		UpperSplatter: cfg.Upper.SplatterLabel(),
		SoleColor:     cfg.Sole.BaseColor,
		SoleSplatter:  cfg.Sole.SplatterLabel(),
		LaceColor:     cfg.Laces.BaseColor,
		LaceSplatter:  cfg.Laces.SplatterLabel(),
		SideLogo:      cfg.SideLogo.Present(),
		BackLogo:      cfg.BackLogo.Present(),
		LogoColors:    strings.Join(logoColors, ", "),
		Notes:         notes,
		CreatedAt:     createdAt,
		DesignID:      designID,
	}
}

// CartURL is the result of BuildCartURL
type CartURL struct {
	URL       string     `json:"url"`
	LineItems []LineItem `json:"line_items"`
	Skipped   []SizeCode `json:"skipped_sizes,omitempty"`
}

// BuildCartURL builds https://{domain}/cart/{id}:{qty},...[?attributes[Label]=value&...].
// Sizes without a variant are skipped and reported; ErrNoValidLineItems is returned when none remain.
func BuildCartURL(shopDomain string, quantities OrderQuantities, mapping VariantMapping, attrs CartAttributes) (CartURL, error) {
	sizes := make([]SizeCode, 0, len(quantities))
	for size, qty := range quantities {
		if qty > 0 {
			sizes = append(sizes, size)
		}
	}
	sort.Slice(sizes, func(i, j int) bool { return lessSize(sizes[i], sizes[j]) })

	var result CartURL
	pairs := make([]string, 0, len(sizes))
	for _, size := range sizes {
		id, ok := mapping[size]
		if !ok || id == "" {
			result.Skipped = append(result.Skipped, size)
			continue
		}
		qty := quantities[size]
		result.LineItems = append(result.LineItems, LineItem{Size: size, VariantID: id, Quantity: qty})
		pairs = append(pairs, id+":"+strconv.Itoa(qty))
	}

	if len(pairs) == 0 {
		return result, ErrNoValidLineItems
	}

	var b strings.Builder
	fmt.Fprintf(&b, "https://%s/cart/%s", NormalizeShopDomain(shopDomain), strings.Join(pairs, ","))

	ordered := attrs.Ordered()
	for i, attr := range ordered {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString("attributes[" + attr.Label + "]=" + EncodeURIComponent(attr.Value))
	}

	result.URL = b.String()
	return result, nil
}

// URLValidation reports whether a URL fits under MaxCartURLLength
type URLValidation struct {
	IsValid   bool `json:"isValid"`
	Length    int  `json:"length"`
	MaxLength int  `json:"maxLength"`
}

// ValidateURLLength checks a URL against MaxCartURLLength
func ValidateURLLength(u string) URLValidation {
	return URLValidation{
		IsValid:   len(u) <= MaxCartURLLength,
		Length:    len(u),
		MaxLength: MaxCartURLLength,
	}
}

var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent percent-encodes a value with the same unreserved set as the browser's
// encodeURIComponent, which the storefront decodes cart attributes with.
func EncodeURIComponent(s string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(s))
}

func yesIf(b bool) string {
	if b {
		return "Yes"
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
