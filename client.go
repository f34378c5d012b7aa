package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prooflab/prooflab-go/internal/clientaccess"
)

var (
	flagShareToken  string
	flagOrderEmail  string
	flagOrderNote   string
	flagOrderPhotos []string
)

// newClientCmd groups the anonymous commands a client (or a photographer
// checking a link) uses against a shared gallery. They authenticate with
// the share token, never with the photographer session.
func newClientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Access a shared gallery as a client",
	}

	cmd.PersistentFlags().StringVar(&flagShareToken, "token", "", "share link access token (required)")

	cmd.AddCommand(&cobra.Command{
		Use:   "gallery <gallery-id>",
		Short: "Show a shared gallery",
		Args:  cobra.ExactArgs(1),
		RunE:  runClientGallery,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "photos <gallery-id>",
		Short: "List a shared gallery's photos",
		Args:  cobra.ExactArgs(1),
		RunE:  runClientPhotos,
	})

	orderCmd := &cobra.Command{
		Use:   "order <gallery-id>",
		Short: "Place an order for photos in a shared gallery",
		Args:  cobra.ExactArgs(1),
		RunE:  runClientOrder,
	}
	orderCmd.Flags().StringVar(&flagOrderEmail, "email", "", "client email for the order (required)")
	orderCmd.Flags().StringVar(&flagOrderNote, "comment", "", "note to the photographer")
	orderCmd.Flags().StringSliceVar(&flagOrderPhotos, "photo", nil, "photo ID to order (repeatable)")
	cmd.AddCommand(orderCmd)

	return cmd
}

func newAnonymousClient() (*clientaccess.Client, error) {
	if flagShareToken == "" {
		return nil, errors.New("--token is required: paste the token from the share link")
	}

	logger := buildLogger()

	return clientaccess.NewClient(resolvedCfg.Server.BaseURL, flagShareToken, defaultHTTPClient(), logger), nil
}

// accessDeniedHint makes the deliberately opaque backend answer actionable.
func accessDeniedHint(err error) error {
	if errors.Is(err, clientaccess.ErrAccessDenied) {
		return errors.New("access denied — the link may have expired or been stopped")
	}

	return err
}

func runClientGallery(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := newAnonymousClient()
	if err != nil {
		return err
	}

	gallery, err := client.Gallery(ctx, args[0])
	if err != nil {
		return accessDeniedHint(err)
	}

	if flagJSON {
		return printJSON(gallery)
	}

	fmt.Printf("%s (%s)\n", gallery.Name, gallery.ID)

	return nil
}

func runClientPhotos(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := newAnonymousClient()
	if err != nil {
		return err
	}

	photos, err := client.Photos(ctx, args[0])
	if err != nil {
		return accessDeniedHint(err)
	}

	if flagJSON {
		return printJSON(photos)
	}

	rows := make([][]string, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, []string{p.ID, p.OriginalFilename, p.URL})
	}

	printTable(os.Stdout, []string{"ID", "FILENAME", "URL"}, rows)

	return nil
}

func runClientOrder(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	client, err := newAnonymousClient()
	if err != nil {
		return err
	}

	order, err := client.SubmitOrder(ctx, args[0], clientaccess.OrderRequest{
		ClientEmail: flagOrderEmail,
		Comment:     flagOrderNote,
		PhotoIDs:    flagOrderPhotos,
	})
	if err != nil {
		return accessDeniedHint(err)
	}

	if flagJSON {
		return printJSON(order)
	}

	statusf("Order %s placed for %s.\n", order.ID, strings.Join(flagOrderPhotos, ", "))

	return nil
}
