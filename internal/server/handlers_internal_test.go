package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteJSON_Logs_Encoding_Failure(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	hub := NewHub(newLogger(&buf, "debug", "text"))
	recorder := httptest.NewRecorder()

	// When the body cannot be encoded
	hub.writeJSON(recorder, http.StatusOK, map[string]any{"bad": make(chan int)})

	// Then the failure is logged rather than dropped
	req.Equal("application/json", recorder.Header().Get("Content-Type"))
	req.Contains(buf.String(), "writing json response")
	req.Contains(buf.String(), "unsupported type")
}
