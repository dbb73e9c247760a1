// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/smartfood/internal/conversation"
	"github.com/tomtom215/smartfood/internal/delivery"
)

type recommendOutput struct {
	Ingredients        []string          `json:"ingredients"`
	Filters            map[string]string `json:"filters,omitempty"`
	Recommendations    []recommendRow    `json:"recommendations"`
	UnknownIngredients []string          `json:"unknown_ingredients,omitempty"`
	UnknownFilters     []string          `json:"unknown_filters,omitempty"`
}

type recommendRow struct {
	Rank  int     `json:"rank"`
	Dish  string  `json:"dish"`
	Score float64 `json:"score"`
}

func newRecommendCmd(c *cli) *cobra.Command {
	var (
		ingredients []string
		filterArgs  []string
		k           int
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank recipes for a set of ingredients",
		Long: "Rank recipes the way the recommendation stage does. Filters use the\n" +
			"relation=label form stored with preferences, e.g. has_calories=normal_calories.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters, err := parseFilters(filterArgs)
			if err != nil {
				return err
			}
			ingredients = conversation.ParseIngredients(strings.Join(ingredients, ","))
			if len(ingredients) == 0 {
				return fmt.Errorf("--ingredients must name at least one ingredient")
			}
			if !cmd.Flags().Changed("k") {
				k = c.cfg.Recommend.DefaultK
			}
			if k <= 0 {
				return fmt.Errorf("-k must be positive, got %d", k)
			}

			engine, err := c.engine()
			if err != nil {
				return err
			}
			res, err := engine.Recommend(cmd.Context(), ingredients, filters, k)
			if err != nil {
				return err
			}

			out := recommendOutput{
				Ingredients:        ingredients,
				Filters:            filters,
				Recommendations:    make([]recommendRow, len(res.Recommendations)),
				UnknownIngredients: res.UnknownIngredients,
				UnknownFilters:     res.UnknownFilters,
			}
			for i, rec := range res.Recommendations {
				out.Recommendations[i] = recommendRow{Rank: i + 1, Dish: rec.Dish, Score: rec.Score}
			}

			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), out)
			}
			return printRecommendations(cmd, out)
		},
	}

	cmd.Flags().StringSliceVarP(&ingredients, "ingredients", "i", nil, "Comma-separated ingredient labels")
	cmd.Flags().StringArrayVarP(&filterArgs, "filter", "f", nil, "Preference filter relation=label (repeatable)")
	cmd.Flags().IntVarP(&k, "k", "k", 5, "Number of recipes (default from recommend.default_k)")
	_ = cmd.MarkFlagRequired("ingredients")
	c.addArtifactFlags(cmd)
	return cmd
}

func printRecommendations(cmd *cobra.Command, out recommendOutput) error {
	w := cmd.OutOrStdout()
	if len(out.Recommendations) == 0 {
		_, _ = fmt.Fprintln(w, delivery.MsgNoRecipes)
	} else {
		tw := newTabWriter(w)
		_, _ = fmt.Fprintln(tw, "RANK\tDISH\tLABEL\tSCORE")
		for _, row := range out.Recommendations {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\n", row.Rank, delivery.FormatLabel(row.Dish), row.Dish, row.Score)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(out.UnknownIngredients) > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "unknown ingredients: %s\n", strings.Join(out.UnknownIngredients, ", "))
	}
	if len(out.UnknownFilters) > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "unknown filters: %s\n", strings.Join(out.UnknownFilters, ", "))
	}
	return nil
}

// parseFilters turns relation=label arguments into a filter map.
func parseFilters(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	filters := make(map[string]string, len(args))
	for _, arg := range args {
		relation, label, ok := strings.Cut(arg, "=")
		relation, label = strings.TrimSpace(relation), strings.TrimSpace(label)
		if !ok || relation == "" || label == "" {
			return nil, fmt.Errorf("invalid --filter %q: want relation=label", arg)
		}
		filters[relation] = label
	}
	return filters, nil
}
