// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/smartfood/internal/artifacts"
	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/embedding"
	"github.com/tomtom215/smartfood/internal/kg"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/recommend"
)

// cli carries the loaded configuration and the global flags.
type cli struct {
	cfg *config.Config

	logLevel   string
	jsonOutput bool

	// Local artifact overrides. When both are set nothing is downloaded.
	triplesPath string
	modelPath   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "smartfoodctl",
		Short:         "SmartFood operator CLI",
		Long:          "Run recommendations offline, inspect the knowledge graph and manage stored preferences.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.Init(logging.Config{
				Level:     c.logLevel,
				Format:    "console",
				Timestamp: true,
				Output:    cmd.ErrOrStderr(),
			})

			cfg, err := config.LoadForTools()
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	flags.BoolVar(&c.jsonOutput, "json", false, "Print as JSON")

	root.AddCommand(newRecommendCmd(c))
	root.AddCommand(newGraphCmd(c))
	root.AddCommand(newPrefsCmd(c))
	return root
}

// addArtifactFlags registers the local artifact overrides on cmd.
func (c *cli) addArtifactFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.triplesPath, "triples", "", "Local triples CSV (skips the artifact store)")
	cmd.Flags().StringVar(&c.modelPath, "model", "", "Local model export (skips the artifact store)")
	cmd.MarkFlagsRequiredTogether("triples", "model")
}

// engine builds a recommendation engine from the local overrides or from
// the configured artifact store.
func (c *cli) engine() (*recommend.Engine, error) {
	if c.triplesPath != "" && c.modelPath != "" {
		triples, model := c.triplesPath, c.modelPath
		return recommend.NewEngine(func(context.Context) (*kg.Graph, embedding.Scorer, error) {
			return recommend.LoadLocal(triples, model)
		}), nil
	}

	store, err := artifacts.New(c.cfg.Artifacts)
	if err != nil {
		return nil, fmt.Errorf("create artifact store: %w", err)
	}
	return recommend.NewEngine(recommend.ArtifactLoader(
		store, c.cfg.Artifacts.Bucket, c.cfg.Recommend.TriplesBlob, c.cfg.Recommend.ModelBlob,
	)), nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
