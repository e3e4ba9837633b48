package postprocess

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Привіт, світе.", "Привіт, світе."},
		{"think block", "<think>The user wants Ukrainian.</think>Привіт.", "Привіт."},
		{"reasoning block multiline", "<reasoning>\nline one\nline two\n</reasoning>\nHallo.", "Hallo."},
		{"unterminated block", "Bonjour.<thinking>still going", "Bonjour."},
		{"label", "Translation: Hola.", "Hola."},
		{"here is label", "Here is the translation: Ciao.", "Ciao."},
		{"double quotes", "\"Привіт.\"", "Привіт."},
		{"guillemets", "«Привет.»", "Привет."},
		{"curly quotes", "“Hello.”", "Hello."},
		{"low-high quotes", "„Hallo.“", "Hallo."},
		{"label then quotes", "Translation: \"Hej.\"", "Hej."},
		{"first line only", "Hola.\n\n(Note: informal register)", "Hola."},
		{"leading blank lines", "\n\n  Salut.  ", "Salut."},
		{"inner quotes kept", "He said \"no\" twice.", "He said \"no\" twice."},
		{"single rune", "\"", "\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
