package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prooflab/prooflab-go/internal/journal"
	"github.com/prooflab/prooflab-go/internal/upload"
)

var flagPreviews bool

func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <gallery-id> <file>...",
		Short: "Upload photos to a gallery",
		Long: "Uploads each file directly to object storage under a one-time grant,\n" +
			"then confirms it with the backend. Files fail independently: one bad\n" +
			"file never aborts the rest of the batch.",
		Args: cobra.MinimumNArgs(2),
		RunE: runUpload,
	}

	cmd.Flags().BoolVar(&flagPreviews, "previews", false, "generate local preview thumbnails before uploading")

	cmd.AddCommand(&cobra.Command{
		Use:   "retry <gallery-id>",
		Short: "Re-upload the files that did not confirm in the last batch",
		Args:  cobra.ExactArgs(1),
		RunE:  runUploadRetry,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "watch <gallery-id> <dir>",
		Short: "Watch a directory and upload new photos as they appear",
		Args:  cobra.ExactArgs(2),
		RunE:  runUploadWatch,
	})

	return cmd
}

func runUpload(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()
	galleryID, paths := args[0], args[1:]

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	orch := upload.NewOrchestrator(client, nil, resolvedCfg.Transfers.ParallelUploads, logger)

	if flagPreviews {
		previews, prevErr := upload.GeneratePreviews(paths, logger)
		if prevErr != nil {
			return fmt.Errorf("generating previews: %w", prevErr)
		}
		// Previews are temp files; release them on every exit path.
		defer previews.Close()

		statusf("Generated %d previews in %s.\n", len(previews.Paths), previews.Dir)
	}

	result, err := orch.UploadAll(ctx, galleryID, paths)
	if err != nil {
		return notLoggedInHint(err)
	}

	if err := recordBatch(ctx, result); err != nil {
		logger.Warn("failed to record batch in journal", "error", err)
	}

	return reportResult(result)
}

func runUploadRetry(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()
	galleryID := args[0]

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	j, err := journal.Open(ctx, resolvedCfg.JournalFilePath(), logger)
	if err != nil {
		return err
	}
	defer j.Close()

	latest, err := j.LatestBatch(ctx, galleryID)
	if err != nil {
		return err
	}

	paths, err := j.UnconfirmedPaths(ctx, latest.BatchKey)
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		statusf("Nothing to retry: every file in the last batch confirmed.\n")
		return nil
	}

	statusf("Retrying %d files from batch %s.\n", len(paths), latest.BatchKey)

	orch := upload.NewOrchestrator(client, nil, resolvedCfg.Transfers.ParallelUploads, logger)

	result, err := orch.UploadAll(ctx, galleryID, paths)
	if err != nil {
		return notLoggedInHint(err)
	}

	if err := j.RecordResult(ctx, result); err != nil {
		logger.Warn("failed to record batch in journal", "error", err)
	}

	return reportResult(result)
}

func runUploadWatch(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	galleryID, dir := args[0], args[1]

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	// Ctrl-C stops watching cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := upload.NewOrchestrator(client, nil, resolvedCfg.Transfers.ParallelUploads, logger)
	watcher := upload.NewWatcher(orch, resolvedCfg.SettleDelay(), logger)

	statusf("Watching %s. Press Ctrl-C to stop.\n", dir)

	return watcher.Watch(ctx, dir, galleryID, func(result *upload.Result) {
		if err := recordBatch(ctx, result); err != nil {
			logger.Warn("failed to record batch in journal", "error", err)
		}

		statusf("Batch %s: %d confirmed, %d failed.\n",
			result.BatchKey, result.Confirmed(), len(result.Failed()))
	})
}

// recordBatch appends a batch result to the upload journal.
func recordBatch(ctx context.Context, result *upload.Result) error {
	j, err := journal.Open(ctx, resolvedCfg.JournalFilePath(), buildLogger())
	if err != nil {
		return err
	}
	defer j.Close()

	return j.RecordResult(ctx, result)
}

// reportResult prints the per-file outcome table and returns an error when
// any file did not confirm, so the process exit code reflects the batch.
func reportResult(result *upload.Result) error {
	if flagJSON {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(result.Outcomes))

		for i := range result.Outcomes {
			out := &result.Outcomes[i]

			detail := ""
			if out.Err != nil {
				detail = out.Err.Error()
			}

			rows = append(rows, []string{out.OriginalFilename, string(out.State), detail})
		}

		printTable(os.Stdout, []string{"FILE", "STATE", "DETAIL"}, rows)
	}

	if failed := len(result.Outcomes) - result.Confirmed(); failed > 0 {
		return fmt.Errorf("%d of %d files did not confirm — run 'prooflab upload retry %s'",
			failed, len(result.Outcomes), result.GalleryID)
	}

	statusf("All %d files confirmed.\n", result.Confirmed())

	return nil
}
