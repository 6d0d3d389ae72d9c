package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go-qr-webapp/internal/blob"
	"go-qr-webapp/internal/scan"
	"go-qr-webapp/internal/views"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

func newScanCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "scan FILE...",
		Short: "Decode a QR code from each image file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := blob.NewRegistry()
			upload := views.NewUpload(registry, scan.NewDecoder(c.cfg.Scanner.TryHarder), c.log,
				views.WithUploadMaxPixels(c.cfg.Scanner.MaxPixels))
			defer upload.Dispose()

			failed := 0
			for _, path := range args {
				snap, err := scanFile(cmd, upload, path)
				if err != nil {
					return err
				}
				switch snap.State {
				case views.UploadResult:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, snap.Payload)
				default:
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, snap.Error)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files produced no result", failed, len(args))
			}
			return nil
		},
	}
}

func scanFile(cmd *cobra.Command, upload *views.Upload, path string) (views.UploadSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return views.UploadSnapshot{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	done, err := upload.Submit(cmd.Context(), &blob.File{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	})
	if err != nil {
		return views.UploadSnapshot{}, err
	}
	return <-done, nil
}
