package utils

import (
	"bytes"
	"io"
	"net/http"
)

// PeekBody returns up to limit bytes of the request body for logging and
// puts the full body back so handlers can still bind it. truncated reports
// whether the body was longer than limit.
func PeekBody(r *http.Request, limit int) (payload string, truncated bool, err error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", false, nil
	}

	raw, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return "", false, err
	}

	if limit > 0 && len(raw) > limit {
		return string(raw[:limit]), true, nil
	}
	return string(raw), false, nil
}
