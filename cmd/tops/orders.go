package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/trainops/internal/callboard"
	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/order"
)

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Car order commands",
	}

	cmd.AddCommand(newOrdersGenerateCmd())
	cmd.AddCommand(newOrdersListCmd())
	return cmd
}

func newOrdersGenerateCmd() *cobra.Command {
	var (
		configPath string
		sessionNum int
		industries []string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate pending car orders from due demand rules",
		Long: `Evaluates each industry's demand rules against the session number and
creates pending car orders. Combinations that already have a pending order
are skipped unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			result, err := order.Generate(gormDB, order.GenerateOpts{
				SessionNumber: sessionNum,
				IndustryIDs:   industries,
				Force:         force,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %d orders for session %d\n", len(result.Created), result.SessionNumber)

			if len(result.ByIndustry) > 0 {
				fmt.Fprintln(out, "\nBy industry:")
				for _, id := range sortedKeys(result.ByIndustry) {
					fmt.Fprintf(out, "  %s: %d\n", id, result.ByIndustry[id])
				}
				fmt.Fprintln(out, "By car type:")
				for _, id := range sortedKeys(result.ByCarType) {
					fmt.Fprintf(out, "  %s: %d\n", id, result.ByCarType[id])
				}
			}
			for _, s := range result.Skipped {
				fmt.Fprintf(out, "Skipped %s: %s\n", s.IndustryID, s.Reason)
			}

			warnNotify(out, notify(cfg, callboard.OrdersGenerated(result.SessionNumber, len(result.Created), len(result.Skipped))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	cmd.Flags().IntVar(&sessionNum, "session", 0, "session number (default: current)")
	cmd.Flags().StringSliceVar(&industries, "industry", nil, "limit generation to these industry IDs")
	cmd.Flags().BoolVar(&force, "force", false, "create orders even when pending duplicates exist")
	return cmd
}

func newOrdersListCmd() *cobra.Command {
	var (
		configPath string
		status     string
		industry   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List car orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			q := gormDB.Model(&models.CarOrder{})
			if status != "" {
				q = q.Where("status = ?", status)
			}
			if industry != "" {
				q = q.Where("industry_id = ?", industry)
			}
			var orders []models.CarOrder
			if err := q.Order("created_at ASC, id ASC").Find(&orders).Error; err != nil {
				return fmt.Errorf("list orders: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tINDUSTRY\tTYPE\tSESSION\tSTATUS\tCAR\tTRAIN")
			for _, o := range orders {
				car, train := "-", "-"
				if o.AssignedCarID != nil {
					car = *o.AssignedCarID
				}
				if o.AssignedTrainID != nil {
					train = *o.AssignedTrainID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					o.ID, o.IndustryID, o.CarTypeID, o.SessionNumber, o.Status, car, train)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&industry, "industry", "", "filter by industry ID")
	return cmd
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
