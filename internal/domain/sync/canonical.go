package sync

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Canonical JSON
// ---------------------------------------------------------------------------

// CanonicalJSON re-encodes a JSON document into a canonical byte form:
// object keys are sorted at every nesting level, insignificant whitespace is
// dropped and numeric literals keep their original text. Array order is
// preserved because it is meaningful (image order, variant order).
//
// Two payloads that differ only in key order or formatting canonicalize to
// identical bytes, which is what makes hash-based skip detection safe.
func CanonicalJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("sync: canonicalize: %w", err)
	}

	// encoding/json sorts map keys on marshal, at every level, so a
	// decode/encode round trip is the whole normalization.
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("sync: canonicalize: %w", err)
	}
	return out, nil
}

// CanonicalizeValue canonicalizes an in-memory value (typically a
// map[string]any payload) without requiring the caller to pre-encode it.
func CanonicalizeValue(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("sync: canonicalize: %w", err)
	}
	return CanonicalJSON(raw)
}

// PayloadHash returns the hex SHA-256 of the canonical form of v.
// This is the fingerprint stored on ProductLink.LastPayloadHash.
func PayloadHash(v any) (string, error) {
	canonical, err := CanonicalizeValue(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
