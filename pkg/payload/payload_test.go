package payload

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexEncodeJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return hex.EncodeToString(b)
}

func TestNormalize(t *testing.T) {
	txObject := map[string]any{
		"to":    "0x1111111111111111111111111111111111111111",
		"data":  "0xdeadbeef",
		"value": "0x0",
	}
	encoded := hexEncodeJSON(t, txObject)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain object passes through unchanged",
			in:   `{"to":"0xabc","data":"0x01"}`,
			want: `{"to":"0xabc","data":"0x01"}`,
		},
		{
			name: "hex encoded string decodes to JSON",
			in:   `"` + encoded + `"`,
			want: `{"data":"0xdeadbeef","to":"0x1111111111111111111111111111111111111111","value":"0x0"}`,
		},
		{
			name: "unsignedPayload accessor with hex string",
			in:   `{"unsignedPayload":"` + encoded + `"}`,
			want: `{"data":"0xdeadbeef","to":"0x1111111111111111111111111111111111111111","value":"0x0"}`,
		},
		{
			name: "snake_case accessor with hex string",
			in:   `{"unsigned_payload":"` + encoded + `"}`,
			want: `{"data":"0xdeadbeef","to":"0x1111111111111111111111111111111111111111","value":"0x0"}`,
		},
		{
			name: "accessor with plain object passes the inner value through",
			in:   `{"unsignedPayload":{"to":"0xabc","data":"0x01"}}`,
			want: `{"data":"0x01","to":"0xabc"}`,
		},
		{
			name: "non-hex string passes through as string",
			in:   `"0xdeadbeef"`,
			want: `"0xdeadbeef"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(json.RawMessage(tt.in))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestNormalizeRejectsBadHex(t *testing.T) {
	// 前缀 7b 但不是合法 hex
	_, err := Normalize(json.RawMessage(`"7bzz"`))
	assert.Error(t, err)

	// 合法 hex 但解码结果不是 JSON: "7b" 单独解码为 "{"
	_, err = Normalize(json.RawMessage(`"7b"`))
	assert.Error(t, err)
}

func TestNormalizeAllPreservesOrderAndLength(t *testing.T) {
	first := map[string]any{"to": "0xaaa", "data": "0x01"}
	second := map[string]any{"to": "0xbbb", "data": "0x02"}
	encodedSecond := hexEncodeJSON(t, second)

	in := []json.RawMessage{
		json.RawMessage(`{"to":"0xaaa","data":"0x01"}`),
		json.RawMessage(`"` + encodedSecond + `"`),
	}

	out, err := NormalizeAll(in)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	var gotFirst, gotSecond map[string]any
	require.NoError(t, json.Unmarshal(out[0], &gotFirst))
	require.NoError(t, json.Unmarshal(out[1], &gotSecond))
	assert.Equal(t, first, gotFirst)
	assert.Equal(t, second, gotSecond)

	// 与手工解码的结果一致
	manual, err := hex.DecodeString(encodedSecond)
	require.NoError(t, err)
	assert.JSONEq(t, string(manual), string(out[1]))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	encoded := hexEncodeJSON(t, map[string]any{"to": "0xccc", "data": "0x03"})
	in := []json.RawMessage{
		json.RawMessage(`{"unsignedPayload":"` + encoded + `"}`),
		json.RawMessage(`{"to":"0xddd","data":"0x04"}`),
	}

	once, err := NormalizeAll(in)
	require.NoError(t, err)
	twice, err := NormalizeAll(once)
	require.NoError(t, err)

	require.Len(t, twice, len(once))
	for i := range once {
		assert.JSONEq(t, string(once[i]), string(twice[i]))
	}
}

func TestNormalizeAllFailsOnBadEntry(t *testing.T) {
	in := []json.RawMessage{
		json.RawMessage(`{"to":"0xaaa"}`),
		json.RawMessage(`not-json`),
	}
	_, err := NormalizeAll(in)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transaction 1")
}
