package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsvoboda/geoattend/internal/camera"
	"github.com/jsvoboda/geoattend/internal/client"
	"github.com/jsvoboda/geoattend/internal/config"
	"github.com/jsvoboda/geoattend/internal/geo"
)

var markCmd = &cobra.Command{
	Use:   "mark",
	Short: "Start a capture session and mark attendance",
	Long: `Verify the device location against the attendance server, open the
camera and upload snapshots until stopped (Ctrl+C) or, with --once, until the
first snapshot has been processed.

Coordinates come from --lat/--lon, the GEOATTEND_LAT/GEOATTEND_LON environment
variables, or the LOCATION_COMMAND helper, in that order.`,
	RunE: runMark,
}

func init() {
	rootCmd.AddCommand(markCmd)

	markCmd.Flags().Float64("lat", 0, "Latitude override")
	markCmd.Flags().Float64("lon", 0, "Longitude override")
	markCmd.Flags().String("device", "", "Camera device (defaults to CAMERA_DEVICE)")
	markCmd.Flags().String("frames-dir", "", "Replay frames from a directory instead of a camera")
	markCmd.Flags().Int("interval", 0, "Milliseconds between snapshot uploads (default 3000)")
	markCmd.Flags().Bool("once", false, "Stop after the first snapshot upload")
}

// locationProvider picks the coordinate source for client commands.
func locationProvider(cmd *cobra.Command, cfg *config.Config) (geo.Provider, error) {
	if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
		return &geo.StaticProvider{Coords: geo.Coordinates{
			Latitude:  mustGetFloat64(cmd, "lat"),
			Longitude: mustGetFloat64(cmd, "lon"),
		}}, nil
	}
	if cfg.Location.HasStatic {
		return &geo.StaticProvider{Coords: geo.Coordinates{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		}}, nil
	}
	if cfg.Location.Command != "" {
		return &geo.CommandProvider{Command: cfg.Location.Command}, nil
	}
	return nil, errors.New("no location source: set --lat/--lon, GEOATTEND_LAT/GEOATTEND_LON or LOCATION_COMMAND")
}

func buildCamera(cmd *cobra.Command, cfg *config.Config) (camera.Camera, error) {
	if dir := mustGetString(cmd, "frames-dir"); dir != "" {
		return camera.NewDirCamera(dir), nil
	}

	device := mustGetString(cmd, "device")
	if device == "" {
		device = cfg.Camera.Device
	}
	return camera.NewFFmpegCamera(device, cfg.Camera.Width, cfg.Camera.Height)
}

func runMark(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	provider, err := locationProvider(cmd, cfg)
	if err != nil {
		return err
	}

	cam, err := buildCamera(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up camera: %w", err)
	}

	controller := client.New(client.Config{
		API:                  client.NewAPI(cfg.Client.ServerURL),
		Location:             provider,
		Camera:               cam,
		Display:              client.TermDisplay{},
		Interval:             time.Duration(mustGetInt(cmd, "interval")) * time.Millisecond,
		OutsideMessage:       cfg.Messages.Messages.OutsideRadius,
		NotRecognizedMessage: cfg.Messages.Messages.NotRecognized,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := controller.Start(ctx); err != nil {
		var denied *client.ZoneDeniedError
		if errors.As(err, &denied) {
			return errors.New(denied.Message)
		}
		return err
	}

	if mustGetBool(cmd, "once") {
		// Wait for the first cycle to pass the throttle, give its upload a
		// moment to land, then tear down.
		for controller.UploadAttempts() == 0 {
			time.Sleep(50 * time.Millisecond)
		}
		time.Sleep(time.Second)
		controller.Stop()
		return nil
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println()
	controller.Stop()
	return nil
}
