package splitter

import "strings"

// RuleSplitter cuts text after each occurrence of a terminal mark. Marks are
// applied one after another so heterogeneous mark sets can be combined.
type RuleSplitter struct {
	marks     []string
	surrogate string
	trim      bool
}

// NewRuleSplitter binds DefaultPeriodMarks when marks is empty and
// DefaultSurrogate when surrogate is empty.
func NewRuleSplitter(marks []string, surrogate string, trim bool) *RuleSplitter {
	if len(marks) == 0 {
		marks = DefaultPeriodMarks
	}
	if surrogate == "" {
		surrogate = DefaultSurrogate
	}
	return &RuleSplitter{marks: marks, surrogate: surrogate, trim: trim}
}

func (r *RuleSplitter) Name() string {
	return MethodRule
}

// Marks returns the marks in application order.
func (r *RuleSplitter) Marks() []string {
	return r.marks
}

// Split ignores lang. For every mark the running text is cut on the mark;
// each fragment except the trailing remainder gets the mark and the
// surrogate appended. A final cut on the surrogate yields the sentences.
// Empty sentences are dropped.
func (r *RuleSplitter) Split(text, _ string) ([]string, error) {
	if strings.Contains(text, r.surrogate) {
		return nil, ErrSurrogateInText
	}

	running := text
	for _, mark := range r.marks {
		if mark == "" {
			continue
		}
		parts := strings.Split(running, mark)
		last := parts[len(parts)-1]

		var sb strings.Builder
		sb.Grow(len(running) + len(parts)*len(r.surrogate))
		for _, p := range parts[:len(parts)-1] {
			if r.trim {
				p = strings.TrimSpace(p)
			}
			sb.WriteString(p)
			sb.WriteString(mark)
			sb.WriteString(r.surrogate)
		}
		sb.WriteString(last)
		running = sb.String()
	}

	var sentences []string
	for _, s := range strings.Split(running, r.surrogate) {
		if r.trim {
			s = strings.TrimSpace(s)
		}
		if s == "" {
			continue
		}
		sentences = append(sentences, s)
	}
	return sentences, nil
}
