package commerce

import "strings"

// ShippingZone is the set of ISO 3166-1 alpha-2 codes the shop ships to.
// It implements CountryResolver.
type ShippingZone map[string]struct{}

// NewShippingZone builds a zone from a list of ISO codes
func NewShippingZone(codes ...string) ShippingZone {
	zone := make(ShippingZone, len(codes))
	for _, code := range codes {
		zone[strings.ToUpper(strings.TrimSpace(code))] = struct{}{}
	}
	return zone
}

// DefaultShippingZone covers the EU/EEA plus the common nearby markets a
// Polish marketplace ships to.
func DefaultShippingZone() ShippingZone {
	return NewShippingZone(
		"PL", "DE", "CZ", "SK", "LT", "LV", "EE", "HU", "RO", "BG",
		"AT", "BE", "NL", "LU", "FR", "ES", "PT", "IT", "GR", "HR",
		"SI", "DK", "SE", "FI", "IE", "MT", "CY", "NO", "IS", "CH",
		"GB", "UA", "US",
	)
}

// Resolve normalizes a raw country input and reports whether the zone
// covers it
func (z ShippingZone) Resolve(code string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return "", false
	}
	if _, ok := z[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

var _ CountryResolver = (ShippingZone)(nil)
