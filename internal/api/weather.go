package api

import (
	"bytes"
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"travel-assistant/internal/forecast"
)

// CurrentConditions is the normalized weather view for a city.
type CurrentConditions = forecast.Conditions

type weatherPayload struct {
	Weather json.RawMessage `json:"weather"`
	Error   string          `json:"error,omitempty"`
}

// WeatherByCity fetches the daily forecast for city, repairs entries that
// lost their separators and parses the first one into current conditions.
// An empty forecast is not an error. Failures are logged and returned.
func (c *Client) WeatherByCity(ctx context.Context, city string) (CurrentConditions, error) {
	path := c.paths.Weather
	body, err := c.fetch(ctx, path, locationRequest{Location: city}).Unwrap()
	if err != nil {
		c.logger.Error("fetch weather failed", zap.String("city", city), zap.Error(err))
		return CurrentConditions{}, err
	}
	c.logger.Debug("weather response", zap.String("city", city), zap.ByteString("body", body))

	entries, err := c.weatherEntries(path, body)
	if err != nil {
		c.logger.Error("decode weather failed", zap.String("city", city), zap.Error(err))
		return CurrentConditions{}, err
	}
	if len(entries) == 0 {
		c.logger.Info("weather list is empty", zap.String("city", city))
		return forecast.Unknown(), nil
	}
	c.logger.Debug("weather entries received", zap.String("city", city), zap.Int("days", len(entries)))
	return forecast.Normalize(entries), nil
}

// WeatherForecast returns the raw daily entries for location, or an empty
// slice on any failure.
func (c *Client) WeatherForecast(ctx context.Context, location string) []string {
	path := c.paths.Weather
	entries, err := Then(c.fetch(ctx, path, locationRequest{Location: location}), func(body []byte) ([]string, error) {
		return c.weatherEntries(path, body)
	}).Unwrap()
	if err != nil {
		c.logger.Error("fetch weather forecast failed", zap.String("location", location), zap.Error(err))
		return []string{}
	}
	return entries
}

func (c *Client) weatherEntries(path string, body []byte) ([]string, error) {
	var payload weatherPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &FormatError{Path: path, Reason: "invalid weather data format", Raw: string(body), Err: err}
	}
	if payload.Error != "" {
		c.logger.Warn("backend reported a weather error", zap.String("path", path), zap.String("error", payload.Error))
	}
	raw := bytes.TrimSpace(payload.Weather)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &FormatError{Path: path, Reason: "weather field missing or not a list", Raw: string(body)}
	}
	var entries []string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &FormatError{Path: path, Reason: "weather entries are not strings", Raw: string(body), Err: err}
	}
	if entries == nil {
		entries = []string{}
	}
	return entries, nil
}
