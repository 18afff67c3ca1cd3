package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/durafsm"
	"github.com/aretw0/durafsm/pkg/domain"
)

var actorCmd = &cobra.Command{
	Use:   "actor",
	Short: "Create actors and send them events",
}

var actorCreateCmd = &cobra.Command{
	Use:   "create <actor-id>",
	Short: "Create an actor at the initial state",
	Long: `Creates an actor. Its context is the JSON object given with --context,
or the machine's declared context when the flag is absent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, closer, err := bindMachine(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		c := domain.CloneContext(machine.Definition().Seed())
		if raw, _ := cmd.Flags().GetString("context"); raw != "" {
			c = domain.Map{}
			if err := json.Unmarshal([]byte(raw), &c); err != nil {
				return fmt.Errorf("invalid --context: %w", err)
			}
		}

		actor, err := machine.CreateActor(cmd.Context(), args[0], c)
		if err != nil {
			return err
		}
		return printActor(cmd, actor)
	},
}

var actorSendCmd = &cobra.Command{
	Use:   "send <actor-id> <event>",
	Short: "Send an event to an actor",
	Long: `Loads the actor, applies the event and persists the result.
An event the current state does not handle leaves the actor untouched.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		retries, _ := cmd.Flags().GetInt("retries")
		ignored := domain.Hooks{
			OnIgnored: func(_ context.Context, e *domain.IgnoredEvent) {
				fmt.Fprintf(cmd.ErrOrStderr(), "event %q ignored in state %q\n", e.Event, e.State)
			},
		}
		machine, closer, err := bindMachine(cmd.Context(),
			durafsm.WithConflictRetries(retries),
			durafsm.WithHooks(ignored),
		)
		if err != nil {
			return err
		}
		defer closer()

		var payload any
		if raw, _ := cmd.Flags().GetString("payload"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return fmt.Errorf("invalid --payload: %w", err)
			}
		}

		actor, err := machine.Send(cmd.Context(), args[0], args[1], payload)
		if err != nil {
			return err
		}
		return printActor(cmd, actor)
	},
}

var actorGetCmd = &cobra.Command{
	Use:   "get <actor-id>",
	Short: "Print an actor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, closer, err := bindMachine(cmd.Context())
		if err != nil {
			return err
		}
		defer closer()

		actor, err := machine.GetActor(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if actor == nil {
			return fmt.Errorf("actor %q: %w", args[0], domain.ErrActorNotFound)
		}
		return printActor(cmd, actor)
	},
}

func printActor(cmd *cobra.Command, actor *durafsm.Actor[domain.Map]) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(actor.Snapshot())
}

func init() {
	rootCmd.AddCommand(actorCmd)
	actorCmd.AddCommand(actorCreateCmd)
	actorCmd.AddCommand(actorSendCmd)
	actorCmd.AddCommand(actorGetCmd)

	actorCreateCmd.Flags().String("context", "", "Initial context as a JSON object")
	actorSendCmd.Flags().String("payload", "", "Event payload as JSON")
	actorSendCmd.Flags().Int("retries", 0, "Reload and retry this many times on a version conflict")
}
