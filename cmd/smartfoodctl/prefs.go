// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/models"
	"github.com/tomtom215/smartfood/internal/preferences"
)

func newPrefsCmd(c *cli) *cobra.Command {
	var storeType, storePath string

	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect or reset stored chat preferences",
		Long: "Read and reset preference records directly in a badger or sqlite store.\n" +
			"Stop the server first when using badger, which allows a single process.",
	}
	cmd.PersistentFlags().StringVar(&storeType, "store-type", "", "Store backend: badger|sqlite (default from store.type)")
	cmd.PersistentFlags().StringVar(&storePath, "store-path", "", "Store path (default from store.path)")

	open := func() (preferences.Store, error) {
		storeCfg := c.cfg.Store
		if storeType != "" {
			storeCfg.Type = storeType
		}
		if storePath != "" {
			storeCfg.Path = storePath
		}
		if storeCfg.Type == config.StoreMemory {
			return nil, errors.New("the memory store is process-local; use --store-type badger or sqlite")
		}
		return preferences.New(storeCfg)
	}

	get := &cobra.Command{
		Use:   "get <chat_id>",
		Short: "Print the stored record of a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			chatID, err := parseChatID(args[0])
			if err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, store.Close()) }()

			state, err := store.Get(cmd.Context(), chatID)
			if errors.Is(err, preferences.ErrNotFound) {
				return fmt.Errorf("no preferences stored for chat %d", chatID)
			}
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), state)
			}
			return printState(cmd, chatID, state)
		},
	}

	reset := &cobra.Command{
		Use:   "reset <chat_id>",
		Short: "Restart the questionnaire for a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			chatID, err := parseChatID(args[0])
			if err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, store.Close()) }()

			if err := store.Set(cmd.Context(), chatID, models.DefaultUserState()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Preferences reset for chat %d\n", chatID)
			return nil
		},
	}

	cmd.AddCommand(get, reset)
	return cmd
}

func parseChatID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q: %w", arg, err)
	}
	return id, nil
}

func printState(cmd *cobra.Command, chatID int64, state models.UserState) error {
	tw := newTabWriter(cmd.OutOrStdout())
	_, _ = fmt.Fprintf(tw, "Chat:\t%d\n", chatID)
	_, _ = fmt.Fprintf(tw, "State:\t%s\n", state.State)
	_, _ = fmt.Fprintf(tw, "Question:\t%d\n", state.QuestionIndex)
	_, _ = fmt.Fprintf(tw, "Version:\t%d\n", state.Version)
	if !state.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(tw, "Updated:\t%s\n", state.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	}

	relations := make([]string, 0, len(state.Preferences))
	for relation := range state.Preferences {
		relations = append(relations, relation)
	}
	sort.Strings(relations)
	for _, relation := range relations {
		_, _ = fmt.Fprintf(tw, "  %s\t%s\n", relation, state.Preferences[relation])
	}
	return tw.Flush()
}
