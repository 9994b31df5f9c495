package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

type chatRequest struct {
	Input  chatInput  `json:"input"`
	Config chatConfig `json:"config"`
}

type chatInput struct {
	Input string `json:"input"`
}

type chatConfig struct {
	Configurable chatConfigurable `json:"configurable"`
}

type chatConfigurable struct {
	SessionID string `json:"session_id"`
}

// SendChatMessage posts a user message for sessionID and returns the
// unconsumed response. The caller owns resp.Body; NewChatStream can decode
// it. language is optional.
func (c *Client) SendChatMessage(ctx context.Context, message, sessionID, language string) (*http.Response, error) {
	body := chatRequest{
		Input:  chatInput{Input: message},
		Config: chatConfig{Configurable: chatConfigurable{SessionID: sessionID}},
	}
	return c.send(ctx, chatPath(c.paths.Chat, sessionID, language), body).Unwrap()
}

func chatPath(base, sessionID, language string) string {
	p := base + "?session_id=" + queryEscape(sessionID)
	if language != "" {
		p += "&language=" + queryEscape(language)
	}
	return p
}

// queryEscape encodes spaces as %20 rather than "+".
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
