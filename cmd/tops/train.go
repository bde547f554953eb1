package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/trainops/internal/callboard"
	"github.com/zulandar/trainops/internal/switchlist"
	"github.com/zulandar/trainops/internal/train"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train lifecycle commands",
	}

	cmd.AddCommand(newTrainCreateCmd())
	cmd.AddCommand(newTrainListCmd())
	cmd.AddCommand(newTrainShowCmd())
	cmd.AddCommand(newTrainStartCmd())
	cmd.AddCommand(newTrainCompleteCmd())
	cmd.AddCommand(newTrainCancelCmd())
	cmd.AddCommand(newTrainDeleteCmd())
	return cmd
}

func newTrainCreateCmd() *cobra.Command {
	var (
		configPath  string
		name        string
		routeID     string
		locomotives []string
		maxCapacity int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a planned train in the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			t, err := train.Create(gormDB, train.CreateOpts{
				Name:          name,
				RouteID:       routeID,
				LocomotiveIDs: locomotives,
				MaxCapacity:   maxCapacity,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created train %s (%s) on route %s, capacity %d\n",
				t.ID, t.Name, t.RouteID, t.MaxCapacity)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	cmd.Flags().StringVar(&name, "name", "", "train name (required)")
	cmd.Flags().StringVar(&routeID, "route", "", "route ID (required)")
	cmd.Flags().StringSliceVar(&locomotives, "locomotive", nil, "locomotive ID (repeatable, at least one required)")
	cmd.Flags().IntVar(&maxCapacity, "capacity", 1, "maximum cars on the train at any point")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("route")
	return cmd
}

func newTrainListCmd() *cobra.Command {
	var (
		configPath string
		sessionNum int
		status     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trains",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			trains, err := train.List(gormDB, train.ListFilters{
				SessionNumber: sessionNum,
				Status:        status,
			})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tROUTE\tSESSION\tSTATUS\tCARS\tCAPACITY")
			for _, t := range trains {
				cars, _ := t.Cars()
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%d\n",
					t.ID, t.Name, t.RouteID, t.SessionNumber, t.Status, len(cars), t.MaxCapacity)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	cmd.Flags().IntVar(&sessionNum, "session", 0, "filter by session number")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	return cmd
}

func newTrainShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <train-id>",
		Short: "Show a train and its switch list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			t, err := train.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			locos, _ := t.Locomotives()
			fmt.Fprintf(out, "Train:      %s (%s)\n", t.ID, t.Name)
			fmt.Fprintf(out, "Route:      %s\n", t.RouteID)
			fmt.Fprintf(out, "Session:    %d\n", t.SessionNumber)
			fmt.Fprintf(out, "Status:     %s\n", t.Status)
			fmt.Fprintf(out, "Power:      %s\n", strings.Join(locos, ", "))
			fmt.Fprintf(out, "Capacity:   %d\n", t.MaxCapacity)

			sl, err := switchlist.Decode(t.SwitchList)
			if err != nil {
				return err
			}
			if sl == nil {
				fmt.Fprintln(out, "\nNo switch list generated")
				return nil
			}
			printSwitchList(out, sl)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	return cmd
}

func newTrainStartCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "start <train-id>",
		Short: "Generate a switch list and start the train",
		Long: `Builds the switch list for a planned train, reserves the matched cars,
and moves the train to in progress. Matched orders go in transit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			sl, err := train.Start(gormDB, args[0], cfg.Orders.PerIndustryCap)
			if err != nil {
				return err
			}
			t, err := train.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Train %s (%s) started\n", t.ID, t.Name)
			printSwitchList(out, sl)

			warnNotify(out, notify(cfg, callboard.TrainStarted(t.Name, sl.TotalPickups, sl.TotalSetouts)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	return cmd
}

func newTrainCompleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "complete <train-id>",
		Short: "Complete a train, delivering its orders and moving its cars",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := train.Complete(gormDB, args[0]); err != nil {
				return err
			}
			t, err := train.Get(gormDB, args[0])
			if err != nil {
				return err
			}
			moved := 0
			if sl, err := switchlist.Decode(t.SwitchList); err == nil && sl != nil {
				moved = sl.TotalSetouts
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Train %s (%s) completed; %d cars spotted\n", t.ID, t.Name, moved)
			warnNotify(out, notify(cfg, callboard.TrainCompleted(t.Name, moved)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	return cmd
}

func newTrainCancelCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cancel <train-id>",
		Short: "Cancel a train, releasing its orders back to pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			released, err := train.Cancel(gormDB, args[0])
			if err != nil {
				return err
			}
			t, err := train.Get(gormDB, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Train %s (%s) cancelled; %d orders released\n", t.ID, t.Name, released)
			warnNotify(out, notify(cfg, callboard.TrainCancelled(t.Name, released)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	return cmd
}

func newTrainDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <train-id>",
		Short: "Delete a planned train",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := train.Delete(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted train %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	return cmd
}

func printSwitchList(out io.Writer, sl *switchlist.SwitchList) {
	fmt.Fprintf(out, "\nSwitch list (generated %s):\n", sl.GeneratedAt.Format("2006-01-02 15:04"))
	for _, stop := range sl.Stops {
		fmt.Fprintf(out, "  %s (%s)\n", stop.StationName, stop.StationID)
		for _, item := range stop.Pickups {
			fmt.Fprintf(out, "    PICK UP %s %s (%s) for %s\n",
				item.ReportingMarks, item.CarNumber, item.CarType, item.DestinationIndustryName)
		}
		for _, item := range stop.Setouts {
			fmt.Fprintf(out, "    SET OUT %s %s (%s) at %s\n",
				item.ReportingMarks, item.CarNumber, item.CarType, item.DestinationIndustryName)
		}
	}
	fmt.Fprintf(out, "  Totals: %d pickups, %d setouts\n", sl.TotalPickups, sl.TotalSetouts)
}
