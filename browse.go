package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func newCollectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Manage collections",
		RunE:  runCollectionsList,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runCollectionsCreate,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rename <collection-id> <name>",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(2),
		RunE:  runCollectionsRename,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <collection-id>",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runCollectionsDelete,
	})

	return cmd
}

func runCollectionsList(_ *cobra.Command, _ []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	collections, err := client.Collections(ctx)
	if err != nil {
		return notLoggedInHint(err)
	}

	if flagJSON {
		return printJSON(collections)
	}

	rows := make([][]string, 0, len(collections))
	for _, c := range collections {
		rows = append(rows, []string{c.ID, c.Name, formatTime(c.CreatedAt)})
	}

	printTable(os.Stdout, []string{"ID", "NAME", "CREATED"}, rows)

	return nil
}

func runCollectionsCreate(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	collection, err := client.CreateCollection(ctx, args[0])
	if err != nil {
		return notLoggedInHint(err)
	}

	statusf("Created collection %s (%s).\n", collection.Name, collection.ID)

	return nil
}

func runCollectionsRename(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if _, err := client.RenameCollection(ctx, args[0], args[1]); err != nil {
		return notLoggedInHint(err)
	}

	statusf("Renamed collection %s.\n", args[0])

	return nil
}

func runCollectionsDelete(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if err := client.DeleteCollection(ctx, args[0]); err != nil {
		return notLoggedInHint(err)
	}

	statusf("Deleted collection %s.\n", args[0])

	return nil
}

func newGalleriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "galleries <collection-id>",
		Short: "Manage galleries in a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runGalleriesList,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <collection-id> <name>",
		Short: "Create a gallery",
		Args:  cobra.ExactArgs(2),
		RunE:  runGalleriesCreate,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rename <gallery-id> <name>",
		Short: "Rename a gallery",
		Args:  cobra.ExactArgs(2),
		RunE:  runGalleriesRename,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <gallery-id>",
		Short: "Delete a gallery",
		Args:  cobra.ExactArgs(1),
		RunE:  runGalleriesDelete,
	})

	return cmd
}

func runGalleriesList(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	galleries, err := client.Galleries(ctx, args[0])
	if err != nil {
		return notLoggedInHint(err)
	}

	if flagJSON {
		return printJSON(galleries)
	}

	rows := make([][]string, 0, len(galleries))

	for _, g := range galleries {
		shared := "-"
		if g.Sharing.SharingEnabled {
			shared = "until " + formatTime(g.Sharing.SharingExpiryDate)
		}

		rows = append(rows, []string{g.ID, g.Name, shared, formatTime(g.CreatedAt)})
	}

	printTable(os.Stdout, []string{"ID", "NAME", "SHARED", "CREATED"}, rows)

	return nil
}

func runGalleriesCreate(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	gallery, err := client.CreateGallery(ctx, args[0], args[1])
	if err != nil {
		return notLoggedInHint(err)
	}

	statusf("Created gallery %s (%s).\n", gallery.Name, gallery.ID)

	return nil
}

func runGalleriesRename(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if _, err := client.RenameGallery(ctx, args[0], args[1]); err != nil {
		return notLoggedInHint(err)
	}

	statusf("Renamed gallery %s.\n", args[0])

	return nil
}

func runGalleriesDelete(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if err := client.DeleteGallery(ctx, args[0]); err != nil {
		return notLoggedInHint(err)
	}

	statusf("Deleted gallery %s.\n", args[0])

	return nil
}

func newPhotosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos <gallery-id>",
		Short: "List photos in a gallery",
		Args:  cobra.ExactArgs(1),
		RunE:  runPhotosList,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <photo-id>",
		Short: "Delete a photo",
		Args:  cobra.ExactArgs(1),
		RunE:  runPhotosDelete,
	})

	return cmd
}

func runPhotosList(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	photos, err := client.Photos(ctx, args[0])
	if err != nil {
		return notLoggedInHint(err)
	}

	if flagJSON {
		return printJSON(photos)
	}

	rows := make([][]string, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, []string{p.ID, p.OriginalFilename})
	}

	printTable(os.Stdout, []string{"ID", "FILENAME"}, rows)

	return nil
}

func runPhotosDelete(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if err := client.DeletePhoto(ctx, args[0]); err != nil {
		return notLoggedInHint(err)
	}

	statusf("Deleted photo %s.\n", args[0])

	return nil
}
