package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/trainops/internal/callboard"
	"github.com/zulandar/trainops/internal/session"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Operating session commands",
	}

	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionAdvanceCmd())
	cmd.AddCommand(newSessionRollbackCmd())
	cmd.AddCommand(newSessionDescribeCmd())
	return cmd
}

func newSessionShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current operating session",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			sess, err := session.Current(gormDB)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:     %d\n", sess.CurrentSession)
			fmt.Fprintf(out, "Date:        %s\n", sess.SessionDate.Format("2006-01-02 15:04"))
			if sess.Description != "" {
				fmt.Fprintf(out, "Description: %s\n", sess.Description)
			}
			if sess.CurrentSession > 1 && sess.PreviousSnapshot != "" {
				fmt.Fprintln(out, "Rollback:    available")
			} else {
				fmt.Fprintln(out, "Rollback:    not available")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	return cmd
}

func newSessionAdvanceCmd() *cobra.Command {
	var (
		configPath  string
		description string
	)

	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Close the current session and open the next one",
		Long:  "Snapshots car, train, and order state, ages car location counters, clears the session's trains, and increments the session number.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			result, err := session.Advance(gormDB, description)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %d closed; session %d is open\n", result.PreviousSession, result.NewSession)
			fmt.Fprintf(out, "%d trains cleared, %d cars aged\n", result.TrainsCleared, result.CarsAged)
			warnNotify(out, notify(cfg, callboard.SessionAdvanced(result.PreviousSession, result.NewSession, result.TrainsCleared)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	cmd.Flags().StringVar(&description, "description", "", "description for the new session")
	return cmd
}

func newSessionRollbackCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Restore the previous session's snapshot",
		Long: `Restores car locations, trains, and car orders from the snapshot taken
by the most recent advance, and returns to the previous session number.
Single-level: rolling back twice in a row is not possible.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !yes && !confirmRollback(cmd) {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
			sess, err := session.Rollback(gormDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Rolled back to session %d\n", sess.CurrentSession)
			warnNotify(out, notify(cfg, callboard.SessionRolledBack(sess.CurrentSession)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func newSessionDescribeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "describe <text>",
		Short: "Set the current session's description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := session.UpdateDescription(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Description updated")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	return cmd
}

func confirmRollback(cmd *cobra.Command) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintln(out, "WARNING: This will discard all work done in the current session.")
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
