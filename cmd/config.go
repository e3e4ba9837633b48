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
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/mojify/internal/config"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create configuration files",
}

var configInitCmd = &cobra.Command{
	Use:         "init [path]",
	Short:       "Write the default configuration as TOML",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"config": "skip"},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.FileName + ".toml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if used := v.ConfigFileUsed(); used != "" {
			fmt.Fprintf(os.Stderr, "Config file: %s\n", used)
		}
		shown := *cfg
		if shown.Translation.APIKey != "" {
			shown.Translation.APIKey = "***"
		}
		data, err := config.Encode(&shown)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
}
