package config

import (
	"github.com/valpere/mojify/internal/engine"
	"github.com/valpere/mojify/internal/mojify"
	"github.com/valpere/mojify/internal/splitter"
)

func Default() Config {
	return Config{
		WorkDir:  ".",
		Database: "./data/mojify.db",
		Emojis:   mojify.DefaultPath,
		Split: Split{
			MethodFrom: splitter.MethodModel,
			MethodTo:   splitter.MethodModel,
			MarksFrom:  []string{},
			MarksTo:    []string{},
			Surrogate:  splitter.DefaultSurrogate,
		},
		Translation: Translation{
			Service:        "mymemory",
			Workers:        1,
			Cache:          true,
			TimeoutSeconds: 30,
		},
		Alignment: Alignment{
			Engine:       "lingtrain",
			Model:        engine.ModelMultilingual,
			BatchSize:    100,
			ExtraBatches: 10,
			Python:       "python3",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
