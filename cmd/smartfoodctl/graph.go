// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type graphInfo struct {
	Entities       int      `json:"entities"`
	Relations      int      `json:"relations"`
	Triples        int      `json:"triples"`
	Recipes        int      `json:"recipes"`
	RelationLabels []string `json:"relation_labels"`
}

func newGraphCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect the knowledge graph",
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "Print graph sizes and relation labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := c.engine()
			if err != nil {
				return err
			}
			if err := engine.Load(cmd.Context()); err != nil {
				return err
			}
			g, err := engine.Graph()
			if err != nil {
				return err
			}

			out := graphInfo{
				Entities:       g.NumEntities(),
				Relations:      g.NumRelations(),
				Triples:        g.NumTriples(),
				Recipes:        len(g.Recipes()),
				RelationLabels: g.RelationLabels(),
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), out)
			}

			tw := newTabWriter(cmd.OutOrStdout())
			_, _ = fmt.Fprintf(tw, "Entities:\t%d\n", out.Entities)
			_, _ = fmt.Fprintf(tw, "Relations:\t%d\n", out.Relations)
			_, _ = fmt.Fprintf(tw, "Triples:\t%d\n", out.Triples)
			_, _ = fmt.Fprintf(tw, "Recipes:\t%d\n", out.Recipes)
			for _, label := range out.RelationLabels {
				_, _ = fmt.Fprintf(tw, "  %s\t\n", label)
			}
			return tw.Flush()
		},
	}
	c.addArtifactFlags(info)

	cmd.AddCommand(info)
	return cmd
}
