package api

import (
	"bytes"
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Defaults for attraction records that lack a usable field.
const (
	UnknownAttraction      = "未知景点"
	DefaultAttractionImage = "/default-attraction.jpg"
	DefaultHotSpotImage    = "/image/default.jpg"
)

// Backend record keys.
const (
	keyAttractionName = "景点名称"
	keyImageLink      = "图片链接"
)

type locationRequest struct {
	Location string `json:"location"`
}

// Attraction is a point of interest shown next to the chat.
type Attraction struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// HotSpot is the looser record shape used by the hotspot panel.
type HotSpot struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type rawRecord map[string]json.RawMessage

// CityAttractions lists the attractions the backend knows for city. A payload
// without a usable hotspot list yields an empty slice and no error. Failures
// are logged and returned.
func (c *Client) CityAttractions(ctx context.Context, city string) ([]Attraction, error) {
	path := c.paths.Hotspot
	records, err := Then(c.fetch(ctx, path, locationRequest{Location: city}), decodeJSON[json.RawMessage](path)).Unwrap()
	if err != nil {
		c.logger.Error("fetch attractions failed", zap.String("city", city), zap.Error(err))
		return nil, err
	}
	list, ok := hotspotList(records)
	if !ok {
		c.logger.Warn("attractions payload has no hotspot list", zap.String("city", city))
		return []Attraction{}, nil
	}
	out := make([]Attraction, 0, len(list))
	for _, rec := range list {
		out = append(out, Attraction{
			Name:     rec.str(UnknownAttraction, keyAttractionName),
			ImageURL: rec.str(DefaultAttractionImage, keyImageLink),
		})
	}
	return out, nil
}

// HotSpots is the lenient variant of CityAttractions: it also accepts plain
// "name"/"image" keys and returns an empty slice on any failure.
func (c *Client) HotSpots(ctx context.Context, location string) []HotSpot {
	path := c.paths.Hotspot
	records, err := Then(c.fetch(ctx, path, locationRequest{Location: location}), decodeJSON[json.RawMessage](path)).Unwrap()
	if err != nil {
		c.logger.Error("fetch hotspots failed", zap.String("location", location), zap.Error(err))
		return []HotSpot{}
	}
	list, _ := hotspotList(records)
	out := make([]HotSpot, 0, len(list))
	for _, rec := range list {
		out = append(out, HotSpot{
			Name:  rec.str(UnknownAttraction, keyAttractionName, "name"),
			Image: rec.str(DefaultHotSpotImage, keyImageLink, "image"),
		})
	}
	return out
}

// hotspotList extracts the "hotspot" array. ok is false when the body is not
// an object or the field is missing, null or not an array. Elements that are
// not objects come back as empty records.
func hotspotList(body json.RawMessage) ([]rawRecord, bool) {
	var payload struct {
		Hotspot json.RawMessage `json:"hotspot"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	raw := bytes.TrimSpace(payload.Hotspot)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]rawRecord, len(items))
	for i, item := range items {
		var rec rawRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			rec = rawRecord{}
		}
		out[i] = rec
	}
	return out, true
}

// str returns the first non-empty string value among keys, or def.
func (r rawRecord) str(def string, keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && s != "" {
			return s
		}
	}
	return def
}
