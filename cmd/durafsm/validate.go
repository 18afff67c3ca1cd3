package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/durafsm/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate [machine.yaml]",
	Short: "Check a machine definition for consistency",
	Long: `Loads the YAML definition, resolves entry names against the builtin registry
and reports every undefined target at once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			cfg.Machine = args[0]
		}
		def, err := loadMachine()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Machine %q is valid\n", def.Name())
		fmt.Fprintf(out, "Initial: %s\n", def.Initial())
		fmt.Fprintln(out, "States:")
		for _, state := range def.States() {
			node, _ := def.Node(state)
			line := "- " + state
			if node.HasEntry() {
				line += " (entry"
				if node.OnSuccess != "" {
					line += ", onSuccess: " + node.OnSuccess
				}
				if node.OnError != "" {
					line += ", onError: " + node.OnError
				}
				line += ")"
			}
			fmt.Fprintln(out, line)
			for _, event := range def.Events() {
				if target, ok := def.Transition(state, event); ok {
					fmt.Fprintf(out, "    %s -> %s\n", event, target)
				}
			}
		}
		fmt.Fprintf(out, "Events: %s\n", strings.Join(def.Events(), ", "))

		if unreachable := validator.Unreachable(def); len(unreachable) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: unreachable states: %s\n", strings.Join(unreachable, ", "))
		}
		if terminal := validator.Terminal(def); len(terminal) > 0 {
			fmt.Fprintf(out, "Terminal: %s\n", strings.Join(terminal, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
