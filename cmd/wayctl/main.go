package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cl "waystone/internal/cli"
	"waystone/internal/config"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL
	adminToken := cfg.AdminToken

	root := &cobra.Command{
		Use:          "wayctl",
		Short:        "Waystone guild economy admin CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "admin API base URL")
	root.PersistentFlags().StringVar(&adminToken, "token", adminToken, "admin API token (defaults to WAYSTONE_ADMIN_TOKEN)")

	root.AddCommand(
		newStatusCmd(&apiBase, &adminToken),
		newResetCmd(&apiBase, &adminToken),
		newStipendsCmd(&apiBase, &adminToken),
		newScheduleCmd(&apiBase, &adminToken),
		newLedgerCmd(&apiBase, &adminToken),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase, adminToken *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"), strings.TrimSpace(*adminToken))
}

func parseGuildID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("guild id must be a snowflake integer: %q", arg)
	}
	return id, nil
}

func newStatusCmd(apiBase, adminToken *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <guild-id>",
		Short: "Show a guild's economy settings and reset schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID, err := parseGuildID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			status, err := newClient(apiBase, adminToken).GuildStatus(ctx, guildID)
			if err != nil {
				return err
			}
			printGuildStatus(status)
			return nil
		},
	}
}

func newResetCmd(apiBase, adminToken *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <guild-id>",
		Short: "Run the weekly reset for a guild now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID, err := parseGuildID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			report, err := newClient(apiBase, adminToken).TriggerReset(ctx, guildID)
			if err != nil {
				return err
			}
			printResetReport(report)
			return nil
		},
	}
}

func newStipendsCmd(apiBase, adminToken *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stipends <guild-id>",
		Short: "List a guild's weekly stipend rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID, err := parseGuildID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			rules, err := newClient(apiBase, adminToken).ListStipends(ctx, guildID)
			if err != nil {
				return err
			}
			printStipends(rules)
			return nil
		},
	}
}

func newScheduleCmd(apiBase, adminToken *string) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <guild-id> <day|none> [hour-utc]",
		Short: "Set or clear a guild's weekly reset window",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID, err := parseGuildID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			client := newClient(apiBase, adminToken)

			if strings.EqualFold(args[1], "none") {
				status, err := client.SetSchedule(ctx, guildID, nil, nil)
				if err != nil {
					return err
				}
				printWarn("Automatic resets disabled.")
				printGuildStatus(status)
				return nil
			}

			if len(args) != 3 {
				return fmt.Errorf("an hour is required when setting a day")
			}
			day, err := parseWeekday(args[1])
			if err != nil {
				return err
			}
			hour, err := strconv.Atoi(args[2])
			if err != nil || hour < 0 || hour > 23 {
				return fmt.Errorf("hour must be 0 through 23: %q", args[2])
			}

			status, err := client.SetSchedule(ctx, guildID, &day, &hour)
			if err != nil {
				return err
			}
			printGuildStatus(status)
			return nil
		},
	}
}

func newLedgerCmd(apiBase, adminToken *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ledger <character-id>",
		Short: "Show a character's recent ledger entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			characterID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("character id must be an integer: %q", args[0])
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			entries, err := newClient(apiBase, adminToken).CharacterLedger(ctx, characterID, limit)
			if err != nil {
				return err
			}
			printLedger(entries)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}

var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func parseWeekday(arg string) (int, error) {
	want := strings.ToLower(strings.TrimSpace(arg))
	for i, name := range weekdayNames {
		if name == want {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", arg)
}
