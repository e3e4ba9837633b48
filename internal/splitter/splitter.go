// Package splitter turns raw marked-up text into an ordered sequence of
// sentences. Two methods are available: "model", which runs a Punkt
// sentence-boundary model per line, and "rule", which cuts the text after a
// configurable list of terminal marks.
package splitter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/bundle"
)

const (
	MethodModel = "model"
	MethodRule  = "rule"

	// DelimiterPlaceholder is the inline delimiter token found in source texts.
	DelimiterPlaceholder = "<delimiter>"

	// DefaultSurrogate joins fragments during rule splitting and must not occur
	// in the source text.
	DefaultSurrogate = "<del>"
)

var (
	ErrUnknownMethod   = errors.New("unknown split method")
	ErrSurrogateInText = errors.New("surrogate delimiter occurs in text")
)

// DefaultPeriodMarks are the terminal marks used by the rule method when no
// marks are configured: closing heading/bold/italic tags, Latin stops,
// Ethiopic stops and the Devanagari danda.
var DefaultPeriodMarks = []string{
	"</h1>", "</b>", "</i>", "?", "!", ".",
	"፡", "።", "፣", "፤", "፥", "।",
}

// markupRe matches the lightweight tags stripped before splitting, including
// the empty pair <> and </>.
var markupRe = regexp.MustCompile(`</?(h1|i|b|)>`)

// methodAliases keeps the names used by older tooling working.
var methodAliases = map[string]string{
	"splitter":       MethodModel,
	"standard_split": MethodRule,
}

// Options configures a split method.
type Options struct {
	// PeriodMarks are applied in order by the rule method. Empty means
	// DefaultPeriodMarks.
	PeriodMarks []string `mapstructure:"period_marks" toml:"period_marks"`
	// Surrogate overrides DefaultSurrogate.
	Surrogate string `mapstructure:"surrogate" toml:"surrogate"`
	// Trim strips whitespace around every fragment before the mark is
	// reattached. Off by default so the sentences concatenate back to the
	// input.
	Trim bool `mapstructure:"trim" toml:"trim"`
	// ModelDir holds Punkt training files named <lang>.json.
	ModelDir string `mapstructure:"model_dir" toml:"model_dir"`
}

// Method is a sentence splitting strategy.
type Method interface {
	Name() string
	Split(text, lang string) ([]string, error)
}

// New returns the method registered under name.
func New(name string, opts Options) (Method, error) {
	if alias, ok := methodAliases[name]; ok {
		name = alias
	}
	switch name {
	case MethodModel:
		return NewModelSplitter(opts.ModelDir), nil
	case MethodRule:
		return NewRuleSplitter(opts.PeriodMarks, opts.Surrogate, opts.Trim), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

// Preprocess replaces the delimiter placeholder with a space and strips
// heading, bold and italic tags.
func Preprocess(text string) string {
	text = strings.ReplaceAll(text, DelimiterPlaceholder, " ")
	return markupRe.ReplaceAllString(text, "")
}

// Split preprocesses text and splits it with m.
func Split(m Method, text, lang string) ([]string, error) {
	return m.Split(Preprocess(text), lang)
}

// Side describes how one text of a pair is split.
type Side struct {
	Text   string
	Lang   string
	Method Method
}

// SplitPair splits two texts into a bundle and logs their sentence counts.
func SplitPair(left, right Side, logger *zap.Logger) (bundle.Splitted, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	from, err := Split(left.Method, left.Text, left.Lang)
	if err != nil {
		return bundle.Splitted{}, fmt.Errorf("failed to split text 1: %w", err)
	}
	to, err := Split(right.Method, right.Text, right.Lang)
	if err != nil {
		return bundle.Splitted{}, fmt.Errorf("failed to split text 2: %w", err)
	}

	logger.Info("texts split",
		zap.Int("text1_sentences", len(from)),
		zap.Int("text2_sentences", len(to)),
		zap.String("text1_method", left.Method.Name()),
		zap.String("text2_method", right.Method.Name()))

	return bundle.Splitted{From: from, To: to}, nil
}
