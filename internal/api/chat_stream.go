package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

const maxChatLine = 1 << 20

// ChatChunk is one line of the chat stream. A chunk with Error set is the
// backend reporting a failure mid-stream.
type ChatChunk struct {
	Answer    string `json:"answer,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// ChatStream decodes the newline-delimited JSON chat stream.
type ChatStream struct {
	sc *bufio.Scanner
}

// NewChatStream wraps r. It does not close r.
func NewChatStream(r io.Reader) *ChatStream {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxChatLine)
	return &ChatStream{sc: sc}
}

// Next returns the next chunk, io.EOF once the stream is exhausted, or a
// *FormatError for a line that is not a JSON object.
func (s *ChatStream) Next() (ChatChunk, error) {
	for s.sc.Scan() {
		line := bytes.TrimSpace(s.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ChatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return ChatChunk{}, &FormatError{Path: "chat stream", Reason: "malformed chat chunk", Raw: string(line), Err: err}
		}
		return chunk, nil
	}
	if err := s.sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return ChatChunk{}, &FormatError{Path: "chat stream", Reason: "chat chunk exceeds line limit", Err: err}
		}
		return ChatChunk{}, &TransportError{Path: "chat stream", Err: err}
	}
	return ChatChunk{}, io.EOF
}
