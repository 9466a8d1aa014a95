package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsvoboda/geoattend/internal/client"
	"github.com/jsvoboda/geoattend/internal/config"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check whether the device is inside the allowed radius",
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Float64("lat", 0, "Latitude override")
	verifyCmd.Flags().Float64("lon", 0, "Longitude override")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	provider, err := locationProvider(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	coords, err := provider.Current(ctx)
	if err != nil {
		return err
	}

	api := client.NewAPI(cfg.Client.ServerURL)
	verdict, status, err := api.VerifyLocation(ctx, coords)
	if err != nil {
		return fmt.Errorf("location verification failed: %w", err)
	}

	if verdict.Allowed && status >= 200 && status < 300 {
		fmt.Printf("Inside the allowed zone (%.1f m from the venue)\n", verdict.Distance)
		return nil
	}

	if verdict.Message != "" {
		return errors.New(verdict.Message)
	}
	return fmt.Errorf("location rejected (HTTP %d)", status)
}
