package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-qr-webapp/internal/media"
	"go-qr-webapp/internal/media/webcam"
	"go-qr-webapp/internal/scan"
	"go-qr-webapp/internal/views"

	"github.com/spf13/cobra"
)

func newCameraCmd(c *cli) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "camera",
		Short: "Scan from the rear camera until a QR code is found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			found := make(chan views.CameraSnapshot, 1)
			cam := views.NewCamera(
				newWebcam(c),
				scan.NewDecoder(c.cfg.Scanner.TryHarder),
				c.log,
				views.WithPollInterval(c.cfg.PollInterval()),
				views.WithCameraObserver(func(snap views.CameraSnapshot) {
					if snap.State == views.CameraFound {
						select {
						case found <- snap:
						default:
						}
					}
				}),
			)
			defer cam.Dispose()

			if err := cam.Start(ctx); err != nil {
				var accessErr *media.AccessError
				if errors.As(err, &accessErr) {
					return errors.New(accessErr.UserMessage())
				}
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Point the camera at a QR code. Press Ctrl+C to stop.")

			select {
			case snap := <-found:
				fmt.Fprintln(cmd.OutOrStdout(), snap.Payload)
				return nil
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return fmt.Errorf("no QR code found within %s", timeout)
				}
				return nil
			}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long (0 waits until interrupted)")
	return cmd
}

func newWebcam(c *cli) *webcam.Devices {
	return webcam.New(webcam.Config{
		Device:      c.cfg.Camera.Device,
		FrontDevice: c.cfg.Camera.FrontDevice,
		Width:       c.cfg.Camera.Width,
		Height:      c.cfg.Camera.Height,
	}, c.log)
}
