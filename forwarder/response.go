package forwarder

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// errorBody is the JSON body of a synthesized error response.
type errorBody struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId"`
}

// synthesizeResponse builds the response returned for a failed call.
// Callers of Proxy always receive a response object, never an error.
func synthesizeResponse(status int, message, correlationID string) *http.Response {
	body, err := json.Marshal(errorBody{
		Error:         http.StatusText(status),
		Message:       message,
		CorrelationID: correlationID,
	})
	if err != nil {
		body = []byte(`{"error":"internal"}`)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Correlation-Id", correlationID)

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}
