package language

import "testing"

func TestHint(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"auto", "", false},
		{"AUTO", "", false},
		{"ko", "ko", false},
		{"KO", "ko", false},
		{"kor", "ko", false},
		{"korean", "ko", false},
		{"한국어", "ko", false},
		{"fre", "fr", false},
		{"ger", "de", false},
		{"chi", "zh", false},
		{"pt-BR", "pt", false},
		{"zh-Hant", "zh", false},
		{"uk", "uk", false},
		{"eng", "en", false},
		{"japanese", "ja", false},
		{"dut", "nl", false},
		{"zz9", "", true},
		{"12", "", true},
	}
	for _, tt := range tests {
		got, err := Hint(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("Hint(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Hint(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ko", "Korean"},
		{"kor", "Korean"},
		{"uk", "Ukrainian"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
