package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/trainops/internal/models"
)

func newCarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "car",
		Short: "Rolling stock commands",
	}

	cmd.AddCommand(newCarListCmd())
	return cmd
}

func newCarListCmd() *cobra.Command {
	var (
		configPath string
		carType    string
		industry   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cars",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}

			q := gormDB.Model(&models.Car{})
			if carType != "" {
				q = q.Where("car_type_id = ?", carType)
			}
			if industry != "" {
				q = q.Where("current_industry_id = ?", industry)
			}
			var cars []models.Car
			if err := q.Order("id ASC").Find(&cars).Error; err != nil {
				return fmt.Errorf("list cars: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tLOCATION\tIN SERVICE\tIDLE SESSIONS")
			for _, c := range cars {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\n",
					c.ID, c.CarTypeID, c.CurrentIndustryID, c.InService, c.SessionsAtLocation)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "trainops.yaml", "path to Trainops config file")
	cmd.Flags().StringVar(&carType, "type", "", "filter by car type ID")
	cmd.Flags().StringVar(&industry, "industry", "", "filter by current industry ID")
	return cmd
}
