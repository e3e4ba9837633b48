package translator

import "fmt"

// Names lists the services New understands.
var Names = []string{"mymemory", "google", "ollama"}

// New builds the service registered under name from cfg.
func New(name string, cfg ServiceConfig) (TranslationService, error) {
	switch name {
	case "mymemory", "":
		svc := NewMyMemoryService(cfg.Email)
		if cfg.BaseURL != "" {
			svc.baseURL = cfg.BaseURL
		}
		return svc, nil
	case "google":
		return NewGoogleService(), nil
	case "ollama":
		return NewOllamaTranslator(cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
}
