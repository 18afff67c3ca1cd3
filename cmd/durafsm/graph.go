package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/durafsm/internal/presentation/graph"
	"github.com/aretw0/durafsm/pkg/domain"
)

var graphCmd = &cobra.Command{
	Use:   "graph [actor-id]",
	Short: "Render the machine as a Mermaid flowchart",
	Long: `Prints the machine definition as a Mermaid flowchart.
With an actor id, the actor's current state is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := loadMachine()
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if len(args) == 1 {
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
				return fmt.Errorf("actor %q: %w", args[0], domain.ErrActorNotFound)
			}
			overlay = &graph.Overlay{CurrentState: snap.State}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
