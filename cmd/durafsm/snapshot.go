package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/durafsm/pkg/ports"
)

var snapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Aliases: []string{"snap"},
	Short:   "Inspect and remove stored actor snapshots",
	Long:    `List, inspect and remove the snapshots kept by the configured store.`,
}

var snapshotLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored actor ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, closer, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		lister, ok := adapter.(ports.Lister)
		if !ok {
			return fmt.Errorf("store %q cannot list actors", cfg.Store)
		}
		ids, err := lister.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list actors: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "No actors found.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		return nil
	},
}

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect <actor-id>",
	Short: "Print the snapshot of an actor as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, closer, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		snap, found, err := adapter.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load actor %q: %w", args[0], err)
		}
		if !found {
			return fmt.Errorf("actor %q not found", args[0])
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(snap)
	},
}

var snapshotRmCmd = &cobra.Command{
	Use:   "rm [actor-id...]",
	Short: "Remove one or more actors",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("pass at least one actor id or --all")
		}

		adapter, closer, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		deleter, ok := adapter.(ports.Deleter)
		if !ok {
			return fmt.Errorf("store %q cannot delete actors", cfg.Store)
		}

		if all {
			lister, ok := adapter.(ports.Lister)
			if !ok {
				return fmt.Errorf("store %q cannot list actors", cfg.Store)
			}
			args, err = lister.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list actors: %w", err)
			}
		}

		var errs []error
		for _, id := range args {
			if err := deleter.Delete(cmd.Context(), id); err != nil {
				errs = append(errs, fmt.Errorf("failed to remove %q: %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotLsCmd)
	snapshotCmd.AddCommand(snapshotInspectCmd)
	snapshotCmd.AddCommand(snapshotRmCmd)
	snapshotRmCmd.Flags().Bool("all", false, "Remove every stored actor")
}
