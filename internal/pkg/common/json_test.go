package common

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"leading prose", `Sure, here you go: {"a": 1}`, `{"a": 1}`},
		{"trailing prose", `{"a": 1} Hope that helps!`, `{"a": 1}`},
		{"no object", "no json at all", "no json at all"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONObject(tt.raw); got != tt.want {
				t.Errorf("ExtractJSONObject(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestQuoteJSONKeys(t *testing.T) {
	got := QuoteJSONKeys(`{intent: "new_search", confidence: 0.9}`)
	want := `{"intent": "new_search", "confidence": 0.9}`
	if got != want {
		t.Fatalf("QuoteJSONKeys() = %q, want %q", got, want)
	}
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	var v map[string]interface{}
	if err := ParseJSON(`{"a": 1} {"b": 2}`, &v); err == nil {
		t.Fatal("ParseJSON() expected error for trailing data")
	}
}

func TestParseJSONStrictUnknownField(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	if err := ParseJSONStrict(`{"a": 1, "b": 2}`, &v); err == nil {
		t.Fatal("ParseJSONStrict() expected error for unknown field")
	}
	if err := ParseJSON(`{"a": 1, "b": 2}`, &v); err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Lasagna   Bolognese ", "lasagna bolognese"},
		{"PESTO PASTA", "pesto pasta"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
