package encoding

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeJSON_NoHTMLEscapingOrNewline(t *testing.T) {
	out, err := EncodeJSONString(map[string]string{"url": "https://example.com/?a=1&b=2"})
	require.NoError(t, err)
	assert.Equal(t, `{"url":"https://example.com/?a=1&b=2"}`, out)
}

func TestMergeField(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		want    map[string]interface{}
	}{
		{
			name: "adds_to_object",
			body: `{"amount":"1.00"}`,
			want: map[string]interface{}{"amount": "1.00", "authorizationFingerprint": "fp"},
		},
		{
			name: "empty_body",
			body: "",
			want: map[string]interface{}{"authorizationFingerprint": "fp"},
		},
		{
			name: "overwrites_existing",
			body: `{"authorizationFingerprint":"stale"}`,
			want: map[string]interface{}{"authorizationFingerprint": "fp"},
		},
		{name: "not_json", body: "amount=1.00", wantErr: true},
		{name: "array", body: `[1,2]`, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MergeField(tt.body, "authorizationFingerprint", "fp")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBufferPool_DropsOversizedBuffers(t *testing.T) {
	buf := GetBuffer()
	buf.Grow(128 * 1024)
	PutBuffer(buf)

	fresh := GetBuffer()
	assert.Equal(t, 0, fresh.Len())
	PutBuffer(fresh)
}
