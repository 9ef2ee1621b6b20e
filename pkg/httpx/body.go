package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// maxPeekBytes bounds how much of a request body we buffer when peeking.
const maxPeekBytes = 1 << 20

// peekJSONField reads a string field out of a JSON request body without
// consuming it; the body is replaced so downstream handlers can decode it
// normally. Returns "" for non-JSON or unreadable bodies.
func peekJSONField(r *http.Request, field string) string {
	if r.Body == nil {
		return ""
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(buf))
	if err != nil {
		return ""
	}

	var body map[string]any
	if err := json.Unmarshal(buf, &body); err != nil {
		return ""
	}

	if v, ok := body[field].(string); ok {
		return strings.TrimSpace(strings.ToLower(v))
	}
	return ""
}
