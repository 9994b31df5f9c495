package forecast

import (
	"regexp"
	"strings"
)

// Placeholders used when a value cannot be read from the forecast text.
const (
	UnknownTemperature = "--"
	UnknownWeather     = "未知"
	UnknownHumidity    = "--"
	UnknownWind        = "--"

	// The backend never reports humidity or wind, so a parsed temperature
	// fills these with fixed stand-ins.
	DefaultHumidity = "50"
	DefaultWind     = "微风"

	DefaultDescription = "多云"
)

var (
	dateToken  = regexp.MustCompile(`(\d{2}/\d{2}[周星期][一二三四五六日天])`)
	// \p{Zs} covers the no-break and ideographic spaces scraped pages carry.
	tempToken  = regexp.MustCompile(`(\d+℃[\s\p{Zs}]*~[\s\p{Zs}]*\d+℃)`)
	separators = regexp.MustCompile(`[,，]`)
)

// weatherKeywords is scanned in order; the first keyword found wins.
var weatherKeywords = []string{"多云", "晴", "阴", "小雨", "中雨", "大雨", "暴雨", "雷阵雨", "阵雨", "雾"}

// Conditions is the structured view of the current day.
type Conditions struct {
	Temperature string   `json:"temperature"`
	Weather     string   `json:"weather"`
	Humidity    string   `json:"humidity"`
	Wind        string   `json:"wind"`
	Forecast    []string `json:"forecast"`
}

// Unknown returns conditions with every field set to its placeholder.
func Unknown() Conditions {
	return Conditions{
		Temperature: UnknownTemperature,
		Weather:     UnknownWeather,
		Humidity:    UnknownHumidity,
		Wind:        UnknownWind,
		Forecast:    []string{},
	}
}

// RepairEntry rewrites an entry that arrived without separators into
// "date, temperature, description". Entries that already carry a comma, or
// that lack a date or temperature token, are returned unchanged.
func RepairEntry(entry string) string {
	if strings.Contains(entry, ",") || strings.Contains(entry, "，") {
		return entry
	}
	date := dateToken.FindString(entry)
	temp := tempToken.FindString(entry)
	if date == "" || temp == "" {
		return entry
	}
	desc := strings.TrimSpace(entry[strings.Index(entry, temp)+len(temp):])
	if desc == "" {
		desc = DefaultDescription
	}
	return date + ", " + temp + ", " + desc
}

// RepairAll applies RepairEntry to every entry, preserving order.
func RepairAll(entries []string) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = RepairEntry(e)
	}
	return out
}

// ParseCurrent reads temperature, weather, humidity and wind from a single
// (already repaired) entry. The Forecast field is left nil.
func ParseCurrent(entry string) Conditions {
	c := Conditions{
		Temperature: UnknownTemperature,
		Weather:     UnknownWeather,
		Humidity:    UnknownHumidity,
		Wind:        UnknownWind,
	}
	parts := separators.Split(entry, -1)
	if len(parts) < 2 {
		return c
	}
	tempPart := strings.TrimSpace(parts[1])
	if strings.Contains(tempPart, "℃") {
		c.Temperature = tempPart
		c.Humidity = DefaultHumidity
		c.Wind = DefaultWind
	}
	if len(parts) >= 3 {
		c.Weather = strings.TrimSpace(parts[2])
		return c
	}
	if kw, ok := findKeyword(entry); ok {
		c.Weather = kw
	}
	return c
}

// Normalize repairs every entry and parses the first one as the current day.
// An empty list yields Unknown().
func Normalize(entries []string) Conditions {
	if len(entries) == 0 {
		return Unknown()
	}
	repaired := RepairAll(entries)
	c := ParseCurrent(repaired[0])
	c.Forecast = repaired
	return c
}

func findKeyword(s string) (string, bool) {
	for _, kw := range weatherKeywords {
		if strings.Contains(s, kw) {
			return kw, true
		}
	}
	return "", false
}
