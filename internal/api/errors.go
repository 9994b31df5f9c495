package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxRawInMessage bounds how much of a response body ends up in Error().
const maxRawInMessage = 512

// TransportError reports that no usable response was received: DNS, refused
// connections, timeouts, cancelled contexts, or a body that could not be read.
type TransportError struct {
	Path string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s failed: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RequestError reports a non-2xx response.
type RequestError struct {
	Path       string
	StatusCode int
	Status     string
}

func newRequestError(path string, resp *http.Response) *RequestError {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return &RequestError{Path: path, StatusCode: resp.StatusCode, Status: text}
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s failed: %d %s", e.Path, e.StatusCode, e.Status)
}

// FormatError reports a response body that is not JSON or lacks the expected
// shape. Raw holds the body text when it is useful for diagnosis.
type FormatError struct {
	Path   string
	Reason string
	Raw    string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("invalid response from %s: %s", e.Path, e.Reason)
	if e.Raw != "" {
		raw := e.Raw
		if len(raw) > maxRawInMessage {
			n := maxRawInMessage
			for n > 0 && !utf8.RuneStart(raw[n]) {
				n--
			}
			raw = raw[:n] + "..."
		}
		msg += ": " + raw
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }
