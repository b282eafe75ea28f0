package encoding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// BufferPool pools bytes.Buffer for request body encoding
var BufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves a bytes.Buffer from the pool
func GetBuffer() *bytes.Buffer {
	buf := BufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a bytes.Buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	// Don't pool buffers that grew too large (>64KB)
	if buf.Cap() > 64*1024 {
		return
	}
	buf.Reset()
	BufferPool.Put(buf)
}

// EncodeJSON encodes v using a pooled buffer.
// HTML escaping is off so URLs with query strings are sent verbatim.
func EncodeJSON(v interface{}) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	// Encoder appends a newline
	out := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	result := make([]byte, len(out))
	copy(result, out)
	return result, nil
}

// EncodeJSONString is EncodeJSON for callers that send string bodies
func EncodeJSONString(v interface{}) (string, error) {
	b, err := EncodeJSON(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MergeField sets key to value on a JSON object body.
// An empty body is treated as an empty object; any other non-object is an error.
func MergeField(body string, key string, value interface{}) (string, error) {
	fields := map[string]json.RawMessage{}
	if len(bytes.TrimSpace([]byte(body))) > 0 {
		if err := json.Unmarshal([]byte(body), &fields); err != nil {
			return "", fmt.Errorf("body is not a JSON object: %w", err)
		}
		if fields == nil {
			return "", fmt.Errorf("body is not a JSON object: null")
		}
	}

	encoded, err := EncodeJSON(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", key, err)
	}
	fields[key] = encoded

	return EncodeJSONString(fields)
}
