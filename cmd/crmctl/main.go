// crmctl triggers the CRM maintenance operations by hand: restock
// low-stock products, print the aggregate report, list pending orders
// due a reminder.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/osagie/go-crm-backend.git/internal/apiclient"
	"github.com/osagie/go-crm-backend.git/internal/config"
)

func newRootCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "Operator CLI for the CRM backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&apiURL, "api", "", "CRM API base URL (default $CRM_API_URL)")

	client := func() *apiclient.Client {
		if apiURL != "" {
			return apiclient.New(apiURL)
		}
		return apiclient.New(config.Load().APIBaseURL)
	}

	cmd.AddCommand(newRestockCmd(client))
	cmd.AddCommand(newReportCmd(client))
	cmd.AddCommand(newRemindCmd(client))
	return cmd
}

func newRestockCmd(client func() *apiclient.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "restock",
		Short: "Restock every product with stock below 10",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			res, err := client().RestockLow(ctx)
			if err != nil {
				return err
			}
			fmt.Println(res.Message)
			for _, p := range res.UpdatedProducts {
				fmt.Printf("    %s -> Stock: %d\n", p.Name, p.Stock)
			}
			return nil
		},
	}
}

func newReportCmd(client func() *apiclient.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print customer/order/revenue totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			sum, err := client().Summary(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Report: %d customers, %d orders, %d.%02d revenue\n",
				sum.Customers, sum.Orders, sum.RevenueCents/100, sum.RevenueCents%100)
			return nil
		},
	}
}

func newRemindCmd(client func() *apiclient.Client) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "List pending orders due a reminder",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()
			since := time.Now().AddDate(0, 0, -days)
			orders, err := client().PendingOrdersSince(ctx, since)
			if err != nil {
				return err
			}
			for _, o := range orders {
				fmt.Printf("Order ID: %s, Customer Email: %s\n", o.ID, o.CustomerEmail)
			}
			fmt.Printf("Order reminders processed: %d pending\n", len(orders))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "look-back window in days")
	return cmd
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
