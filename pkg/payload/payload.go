// Package payload normalizes transaction payloads returned by the staking provider.
//
// The provider may return a transaction either as a plain JSON object or wrapped
// behind an unsigned-payload accessor whose value is a hex-encoded UTF-8 JSON
// document. The encoded form is recognizable because a JSON object's first byte
// '{' encodes to the hex prefix "7b". This is an external, format-level
// convention of the provider; the detection rule and decode path here must stay
// exactly as-is to remain interoperable.
package payload

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const hexJSONPrefix = "7b"

// The SDK surface exposes the accessor in camelCase, the REST surface in snake_case.
var unsignedPayloadKeys = []string{"unsignedPayload", "unsigned_payload"}

// Normalize returns the canonical JSON form of a single provider transaction.
//
// If the transaction exposes an unsigned-payload accessor, the retrieved value is
// used; if that value (or the transaction itself) is a string beginning with
// "7b", it is hex-decoded to UTF-8 text and parsed as JSON; anything else passes
// through unchanged.
func Normalize(raw json.RawMessage) (json.RawMessage, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("invalid transaction payload: %w", err)
	}

	if m, ok := v.(map[string]any); ok {
		for _, key := range unsignedPayloadKeys {
			if inner, exists := m[key]; exists {
				return normalizeValue(inner)
			}
		}
		// 没有 accessor 的普通对象: 原样透传
		return raw, nil
	}

	return normalizeValue(v)
}

// NormalizeAll normalizes every transaction in a collection, preserving order.
// A single bad entry fails the whole batch.
func NormalizeAll(raws []json.RawMessage) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(raws))
	for i, raw := range raws {
		normalized, err := Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		out = append(out, normalized)
	}
	return out, nil
}

// IsHexJSON reports whether s looks like a hex-encoded JSON object.
func IsHexJSON(s string) bool {
	return strings.HasPrefix(s, hexJSONPrefix)
}

// DecodeHexJSON hex-decodes s and validates that the result is a JSON document.
func DecodeHexJSON(s string) (json.RawMessage, error) {
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("hex decode failed: %w", err)
	}
	if !json.Valid(decoded) {
		return nil, fmt.Errorf("decoded payload is not valid JSON")
	}
	return json.RawMessage(decoded), nil
}

func normalizeValue(v any) (json.RawMessage, error) {
	s, ok := v.(string)
	if !ok {
		// 已经是对象 (或其他 JSON 值): 原样透传
		return json.Marshal(v)
	}
	if IsHexJSON(s) {
		return DecodeHexJSON(s)
	}
	return json.Marshal(s)
}
