package splitter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

type tokenizer interface {
	Tokenize(text string) []*sentences.Sentence
}

// ModelSplitter runs a Punkt sentence-boundary model over every line of the
// text. Models are loaded lazily from dir/<lang>.json; languages without a
// training file use the bundled English model.
type ModelSplitter struct {
	dir string

	mu         sync.Mutex
	tokenizers map[string]tokenizer
}

func NewModelSplitter(dir string) *ModelSplitter {
	return &ModelSplitter{dir: dir, tokenizers: make(map[string]tokenizer)}
}

func (m *ModelSplitter) Name() string {
	return MethodModel
}

// Split consumes line boundaries: blank lines yield no sentence.
func (m *ModelSplitter) Split(text, lang string) ([]string, error) {
	tok, err := m.tokenizer(lang)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, s := range tok.Tokenize(line) {
			if t := strings.TrimSpace(s.Text); t != "" {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (m *ModelSplitter) tokenizer(lang string) (tokenizer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if tok, ok := m.tokenizers[lang]; ok {
		return tok, nil
	}

	tok, err := m.load(lang)
	if err != nil {
		return nil, err
	}
	m.tokenizers[lang] = tok
	return tok, nil
}

func (m *ModelSplitter) load(lang string) (tokenizer, error) {
	if m.dir != "" && lang != "" {
		path := filepath.Join(m.dir, lang+".json")
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			storage, err := sentences.LoadTraining(data)
			if err != nil {
				return nil, fmt.Errorf("failed to load sentence model %s: %w", path, err)
			}
			return sentences.NewSentenceTokenizer(storage), nil
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read sentence model %s: %w", path, err)
		}
	}

	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load default sentence model: %w", err)
	}
	return tok, nil
}
