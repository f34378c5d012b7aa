package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/prooflab/prooflab-go/internal/sharing"
)

var (
	flagShareUntil string
	flagQROut      string
	flagQRSize     int
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share <gallery-id>",
		Short: "Share a gallery with a time-bounded link",
		Args:  cobra.ExactArgs(1),
		RunE:  runShare,
	}

	cmd.PersistentFlags().StringVar(&flagShareUntil, "until", "", "share expiry (YYYY-MM-DD, RFC 3339, or a duration like 168h)")

	cmd.AddCommand(&cobra.Command{
		Use:   "reschedule <gallery-id>",
		Short: "Move an active share link's expiry without changing the link",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareReschedule,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stop <gallery-id>",
		Short: "Stop sharing a gallery immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareStop,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <gallery-id>",
		Short: "Show the active share link",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareShow,
	})

	qrCmd := &cobra.Command{
		Use:   "qr <gallery-id>",
		Short: "Write the active share link as a QR code PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  runShareQR,
	}
	qrCmd.Flags().StringVar(&flagQROut, "out", "share-qr.png", "output PNG path")
	qrCmd.Flags().IntVar(&flagQRSize, "size", 256, "image size in pixels")
	cmd.AddCommand(qrCmd)

	return cmd
}

// parseExpiry accepts a calendar date (shared through end of that day,
// local time), an RFC 3339 timestamp, or a duration from now.
func parseExpiry(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--until is required")
	}

	if d, err := time.ParseDuration(value); err == nil {
		return time.Now().Add(d), nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	if t, err := time.ParseInLocation("2006-01-02", value, time.Local); err == nil {
		return t.Add(24*time.Hour - time.Second), nil
	}

	return time.Time{}, fmt.Errorf("cannot parse expiry %q", value)
}

func newSharingManager() (*sharing.Manager, error) {
	logger := buildLogger()

	client, _, err := newGateway(logger)
	if err != nil {
		return nil, err
	}

	return sharing.NewManager(client, logger), nil
}

func runShare(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	expiry, err := parseExpiry(flagShareUntil)
	if err != nil {
		return err
	}

	manager, err := newSharingManager()
	if err != nil {
		return err
	}

	link, err := manager.Share(ctx, args[0], expiry)
	if err != nil {
		return notLoggedInHint(err)
	}

	if flagJSON {
		return printJSON(link)
	}

	fmt.Println(link.ShareURL)
	statusf("Shared until %s.\n", link.SharingExpiry.Format(time.RFC3339))

	return nil
}

func runShareReschedule(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	expiry, err := parseExpiry(flagShareUntil)
	if err != nil {
		return err
	}

	manager, err := newSharingManager()
	if err != nil {
		return err
	}

	link, err := manager.Reschedule(ctx, args[0], expiry)
	if err != nil {
		return notLoggedInHint(err)
	}

	if flagJSON {
		return printJSON(link)
	}

	statusf("Rescheduled until %s. The link is unchanged.\n", link.SharingExpiry.Format(time.RFC3339))

	return nil
}

func runShareStop(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	manager, err := newSharingManager()
	if err != nil {
		return err
	}

	if err := manager.Stop(ctx, args[0]); err != nil {
		return notLoggedInHint(err)
	}

	statusf("Sharing stopped. The old link no longer works.\n")

	return nil
}

func runShareShow(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	manager, err := newSharingManager()
	if err != nil {
		return err
	}

	link, err := manager.Active(ctx, args[0])
	if err != nil {
		return notLoggedInHint(err)
	}

	if flagJSON {
		return printJSON(link)
	}

	fmt.Println(link.ShareURL)
	statusf("Expires %s.\n", link.SharingExpiry.Format(time.RFC3339))

	return nil
}

func runShareQR(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	manager, err := newSharingManager()
	if err != nil {
		return err
	}

	link, err := manager.Active(ctx, args[0])
	if err != nil {
		return notLoggedInHint(err)
	}

	png, err := sharing.QRPNG(link.ShareURL, flagQRSize)
	if err != nil {
		return err
	}

	if err := os.WriteFile(flagQROut, png, 0o644); err != nil {
		return fmt.Errorf("writing QR code: %w", err)
	}

	statusf("Wrote %s for %s.\n", flagQROut, link.ShareURL)

	return nil
}
