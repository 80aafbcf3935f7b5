package sync

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultExternalIDPrefix is used when no prefix is configured.
const DefaultExternalIDPrefix = "ps"

// legacyExternalID matches bare numeric ids written before the prefix scheme
// was introduced ("7" or "7-3").
var legacyExternalID = regexp.MustCompile(`^(\d+)(?:-(\d+))?$`)

// BuildExternalID derives the marketplace identifier for a product row.
// Product-level rows get "<prefix>-<productID>", variant rows get
// "<prefix>-<productID>-<variantID>".
func BuildExternalID(prefix string, productID, variantID int64) string {
	if prefix == "" {
		prefix = DefaultExternalIDPrefix
	}
	if variantID > 0 {
		return fmt.Sprintf("%s-%d-%d", prefix, productID, variantID)
	}
	return fmt.Sprintf("%s-%d", prefix, productID)
}

// ParseExternalID extracts the local product and variant ids from a
// marketplace identifier. It accepts the prefixed form produced by
// BuildExternalID and, for rows created by older installations, a bare
// numeric form without the prefix. A zero variant id means product level.
func ParseExternalID(prefix, externalID string) (productID, variantID int64, err error) {
	if prefix == "" {
		prefix = DefaultExternalIDPrefix
	}
	prefixed := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d+)(?:-(\d+))?$`)

	m := prefixed.FindStringSubmatch(externalID)
	if m == nil {
		m = legacyExternalID.FindStringSubmatch(externalID)
	}
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidExternalID, externalID)
	}

	productID, err = strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidExternalID, externalID)
	}
	if m[2] != "" {
		variantID, err = strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidExternalID, externalID)
		}
	}
	return productID, variantID, nil
}
