// Package main contains the cli implementation of the tool. It uses the
// cobra package for cli tool implementation.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zaop/modforge/internal/pipeline"
)

type runFlags struct {
	input  string
	copy   bool
	id     bool
	output string
}

func main() {
	flags := &runFlags{}
	rootCmd := &cobra.Command{
		Use:   "modforge",
		Short: "Expand and compile mod packages into a content database",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runForge(flags)
		},
	}

	rootCmd.Flags().StringVarP(&flags.input, "input", "i", "mods.json", "Path to the run configuration file")
	rootCmd.Flags().BoolVar(&flags.copy, "copy", false, "Copy the stock database into place before running (unimplemented)")
	rootCmd.Flags().BoolVar(&flags.id, "id", false, "Print allocated ids only, without writing outputs (unimplemented)")
	rootCmd.Flags().StringVarP(&flags.output, "output", "o", "", "Override the packed output path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runForge(flags *runFlags) error {
	root := filepath.Dir(flags.input)

	cfg, err := pipeline.LoadOrCreateConfig(flags.input)
	if err != nil {
		return err
	}

	paths := pipeline.Paths{
		Root:          root,
		StockDatabase: filepath.Join(root, cfg.Database),
		PackedOutput:  filepath.Join(root, "..", "res", "cdclient.mfdb"),
		LocaleXML:     filepath.Join(root, "locale.xml"),
	}
	if flags.output != "" {
		paths.PackedOutput = flags.output
	}
	sqlitePath := cfg.Sqlite
	if !filepath.IsAbs(sqlitePath) {
		sqlitePath = filepath.Join(root, sqlitePath)
	}
	cfg.Sqlite = sqlitePath

	return pipeline.Run(cfg, paths, func(line string) {
		fmt.Println(line)
	})
}
