package api

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

type processMessageRequest struct {
	Message string `json:"message"`
}

type processMessageResponse struct {
	// Region stays raw so a non-string value can be told apart from a
	// decode failure of the whole body.
	Region   json.RawMessage `json:"region"`
	Response string          `json:"response,omitempty"`
}

// DetectDestination asks the backend which region the message talks about.
// It never fails: any error, a missing region or an empty one yields
// ("", false).
func (c *Client) DetectDestination(ctx context.Context, message string) (string, bool) {
	path := c.paths.ProcessMessage
	res := Then(c.fetch(ctx, path, processMessageRequest{Message: message}), decodeJSON[processMessageResponse](path))
	if !res.Ok() {
		c.logger.Warn("destination detection failed", zap.String("path", path), zap.Error(res.Err()))
	}
	payload := res.OrElse(processMessageResponse{})
	if len(payload.Region) == 0 {
		return "", false
	}
	var region string
	if err := json.Unmarshal(payload.Region, &region); err != nil {
		c.logger.Debug("region is not a string", zap.ByteString("region", payload.Region))
		return "", false
	}
	if region == "" {
		return "", false
	}
	return region, true
}
