package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prooflab/prooflab-go/internal/api"
)

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Review client orders",
		RunE:  runOrdersList,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order in full",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrdersShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "complete <order-id>",
		Short: "Mark an order as completed",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrdersComplete,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <order-id>",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrdersDelete,
	})

	return cmd
}

func runOrdersList(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	orders, err := client.Orders(ctx)
	if err != nil {
		return notLoggedInHint(err)
	}

	if flagJSON {
		return printJSON(orders)
	}

	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			o.ID, o.ClientEmail, string(o.Status), formatTime(o.CreatedAt),
		})
	}

	printTable(os.Stdout, []string{"ID", "CLIENT", "STATUS", "PLACED"}, rows)

	return nil
}

func runOrdersShow(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	order, err := client.Order(ctx, args[0])
	if err != nil {
		return notLoggedInHint(err)
	}

	if flagJSON {
		return printJSON(order)
	}

	photoIDs := make([]string, 0, len(order.Photos))
	for _, p := range order.Photos {
		photoIDs = append(photoIDs, p.PhotoID)
	}

	printTable(os.Stdout,
		[]string{"ID", "CLIENT", "STATUS", "PHOTOS", "COMMENT"},
		[][]string{{
			order.ID, order.ClientEmail, string(order.Status),
			strings.Join(photoIDs, ","), order.Comment,
		}})

	return nil
}

func runOrdersComplete(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if _, err := client.UpdateOrderStatus(ctx, args[0], api.OrderStatusCompleted); err != nil {
		return notLoggedInHint(err)
	}

	statusf("Order %s completed.\n", args[0])

	return nil
}

func runOrdersDelete(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if err := client.DeleteOrder(ctx, args[0]); err != nil {
		return notLoggedInHint(err)
	}

	statusf("Order %s deleted.\n", args[0])

	return nil
}
