package forecast

import (
	"reflect"
	"testing"
)

func TestRepairEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  string
	}{
		{
			name:  "no separators",
			entry: "05/01周一17℃~10℃晴",
			want:  "05/01周一, 17℃~10℃, 晴",
		},
		{
			name:  "spaces around tilde",
			entry: "05/02周二 20℃ ~ 12℃  小雨 ",
			want:  "05/02周二, 20℃ ~ 12℃, 小雨",
		},
		{
			name:  "no-break spaces around tilde",
			entry: "05/01周一17℃\u00a0~\u00a010℃晴",
			want:  "05/01周一, 17℃\u00a0~\u00a010℃, 晴",
		},
		{
			name:  "ideographic spaces around tilde",
			entry: "05/01周一17℃\u3000~\u300010℃\u3000晴",
			want:  "05/01周一, 17℃\u3000~\u300010℃, 晴",
		},
		{
			name:  "missing description defaults to cloudy",
			entry: "05/03周三18℃~9℃",
			want:  "05/03周三, 18℃~9℃, 多云",
		},
		{
			name:  "星期 weekday prefix",
			entry: "05/04期日22℃~15℃阴",
			want:  "05/04期日, 22℃~15℃, 阴",
		},
		{
			name:  "ascii comma is left alone",
			entry: "05/01周一, 17℃~10℃, 晴",
			want:  "05/01周一, 17℃~10℃, 晴",
		},
		{
			name:  "full-width comma is left alone",
			entry: "05/01周一，17℃~10℃晴",
			want:  "05/01周一，17℃~10℃晴",
		},
		{
			name:  "no date token",
			entry: "今天17℃~10℃晴",
			want:  "今天17℃~10℃晴",
		},
		{
			name:  "no temperature token",
			entry: "05/01周一晴",
			want:  "05/01周一晴",
		},
		{
			name:  "empty",
			entry: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RepairEntry(tt.entry)
			if got != tt.want {
				t.Errorf("RepairEntry(%q) = %q, want %q", tt.entry, got, tt.want)
			}
		})
	}
}

func TestRepairEntryIdempotent(t *testing.T) {
	inputs := []string{
		"05/01周一17℃~10℃晴",
		"05/01周一, 17℃~10℃, 晴",
		"05/03周三18℃~9℃",
		"garbage",
	}
	for _, in := range inputs {
		once := RepairEntry(in)
		twice := RepairEntry(once)
		thrice := RepairEntry(twice)
		if once != twice || twice != thrice {
			t.Errorf("RepairEntry not idempotent for %q: %q, %q, %q", in, once, twice, thrice)
		}
	}
}

func TestParseCurrent(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  Conditions
	}{
		{
			name:  "three parts",
			entry: "05/01周一, 17℃~10℃, 晴",
			want:  Conditions{Temperature: "17℃~10℃", Weather: "晴", Humidity: "50", Wind: "微风"},
		},
		{
			name:  "full-width separators",
			entry: "05/01周一，17℃~10℃，雷阵雨",
			want:  Conditions{Temperature: "17℃~10℃", Weather: "雷阵雨", Humidity: "50", Wind: "微风"},
		},
		{
			name:  "two parts with keyword",
			entry: "05/01周一 小雨, 17℃~10℃",
			want:  Conditions{Temperature: "17℃~10℃", Weather: "小雨", Humidity: "50", Wind: "微风"},
		},
		{
			name:  "two parts keyword order wins over position",
			entry: "阴转晴, 17℃~10℃",
			want:  Conditions{Temperature: "17℃~10℃", Weather: "晴", Humidity: "50", Wind: "微风"},
		},
		{
			name:  "two parts without keyword",
			entry: "05/01周一, 17℃~10℃",
			want:  Conditions{Temperature: "17℃~10℃", Weather: "未知", Humidity: "50", Wind: "微风"},
		},
		{
			name:  "temperature without degree marker",
			entry: "05/01周一, 17~10, 晴",
			want:  Conditions{Temperature: "--", Weather: "晴", Humidity: "--", Wind: "--"},
		},
		{
			name:  "single part",
			entry: "05/01周一晴",
			want:  Conditions{Temperature: "--", Weather: "未知", Humidity: "--", Wind: "--"},
		},
		{
			name:  "empty third part",
			entry: "05/01周一, 17℃~10℃,",
			want:  Conditions{Temperature: "17℃~10℃", Weather: "", Humidity: "50", Wind: "微风"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCurrent(tt.entry)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCurrent(%q) = %+v, want %+v", tt.entry, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmpty(t *testing.T) {
	got := Normalize(nil)
	want := Conditions{Temperature: "--", Weather: "未知", Humidity: "--", Wind: "--", Forecast: []string{}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize(nil) = %+v, want %+v", got, want)
	}
}

func TestNormalize(t *testing.T) {
	entries := []string{
		"05/01周一17℃~10℃晴",
		"05/02周二, 20℃~12℃, 多云",
		"unparseable",
	}
	got := Normalize(entries)

	wantForecast := []string{
		"05/01周一, 17℃~10℃, 晴",
		"05/02周二, 20℃~12℃, 多云",
		"unparseable",
	}
	if !reflect.DeepEqual(got.Forecast, wantForecast) {
		t.Errorf("forecast = %q, want %q", got.Forecast, wantForecast)
	}
	if got.Temperature != "17℃~10℃" || got.Weather != "晴" || got.Humidity != "50" || got.Wind != "微风" {
		t.Errorf("unexpected current conditions: %+v", got)
	}
	if entries[0] != "05/01周一17℃~10℃晴" {
		t.Errorf("input slice was modified: %q", entries[0])
	}
}
