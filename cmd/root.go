/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/config"
	_ "github.com/valpere/mojify/internal/engine/length"
	_ "github.com/valpere/mojify/internal/engine/lingtrain"
	"github.com/valpere/mojify/internal/logging"
)

var version = "0.1.0"

// viperKey is the flag annotation naming the configuration key a flag
// overrides.
const viperKey = "viper"

var (
	cfgFile string
	v       = viper.New()
	cfg     *config.Config
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "mojify",
	Short: "Align parallel texts and mark matching sentences with emoji",
	Long: `A CLI application that splits two parallel texts into sentences, aligns them
with an alignment engine (optionally through a machine translation of the
second text) and marks every aligned sentence pair in both texts with the
same emoji.

Typical flow:
  mojify run --text1 en.txt --text2 de.txt --lang1 en --lang2 de --book alice

Each stage is also available on its own: split, translate, align, mojify.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := resetDefaults(cmd.Flags()); err != nil {
			return err
		}
		if cmd.Annotations["config"] == "skip" {
			return nil
		}
		bindFlags(cmd.Flags())

		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bindKey marks flag as the override of a configuration key.
func bindKey(fs *pflag.FlagSet, flag, key string) {
	if err := fs.SetAnnotation(flag, viperKey, []string{key}); err != nil {
		panic(err)
	}
}

// bindFlags binds the annotated flags of the command being run. Binding at
// run time keeps commands sharing a key from overriding each other.
func bindFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if keys, ok := f.Annotations[viperKey]; ok && len(keys) == 1 {
			_ = v.BindPFlag(keys[0], f)
		}
	})
}

// resetDefaults sets every flag the user did not pass back to its default.
// Commands share flag variables, so a variable otherwise holds the default
// of whichever command registered it last.
func resetDefaults(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err == nil && !f.Changed {
			err = f.Value.Set(f.DefValue)
		}
	})
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ./mojify.toml or ~/.config/mojify/mojify.toml)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "console", "Log format: console or json")
	pf.String("work-dir", ".", "Directory holding the db/ and img/ folders")
	pf.String("db", "./data/mojify.db", "Database path for translation memory and run history")

	bindKey(pf, "log-level", "logging.level")
	bindKey(pf, "log-format", "logging.format")
	bindKey(pf, "work-dir", "work_dir")
	bindKey(pf, "db", "database")
}
