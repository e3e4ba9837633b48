package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestBindFlags_OnlyAnnotatedFlagsOverride(t *testing.T) {
	old := v
	v = viper.New()
	t.Cleanup(func() { v = old })

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("engine", "lingtrain", "")
	fs.String("other", "x", "")
	bindKey(fs, "engine", "alignment.engine")
	if err := fs.Parse([]string{"--engine", "length", "--other", "y"}); err != nil {
		t.Fatal(err)
	}

	v.SetDefault("alignment.engine", "lingtrain")
	bindFlags(fs)

	if got := v.GetString("alignment.engine"); got != "length" {
		t.Errorf("expected flag value, got %q", got)
	}
	if v.IsSet("other") {
		t.Error("unannotated flag must not be bound")
	}
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer sentence", 10, "a longe..."},
		{"ääääääääääää", 6, "äää..."},
	}
	for _, tt := range tests {
		if got := snippet(tt.in, tt.n); got != tt.want {
			t.Errorf("snippet(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestNonEmpty(t *testing.T) {
	got := nonEmpty("a", "", "b")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected %v", got)
	}
	if nonEmpty("", "") != nil {
		t.Error("expected nil for all-empty input")
	}
}

func TestResetDefaults_RestoresSharedVariables(t *testing.T) {
	var shared string
	a := pflag.NewFlagSet("a", pflag.ContinueOnError)
	a.StringVar(&shared, "input", "splitted.json", "")
	b := pflag.NewFlagSet("b", pflag.ContinueOnError)
	b.StringVar(&shared, "input", "", "")

	if shared != "" {
		t.Fatalf("expected last registration to win, got %q", shared)
	}
	if err := resetDefaults(a); err != nil {
		t.Fatal(err)
	}
	if shared != "splitted.json" {
		t.Errorf("expected default of the running command, got %q", shared)
	}

	if err := a.Parse([]string{"--input", "mine.json"}); err != nil {
		t.Fatal(err)
	}
	if err := resetDefaults(a); err != nil {
		t.Fatal(err)
	}
	if shared != "mine.json" {
		t.Errorf("explicit value must survive, got %q", shared)
	}
}
