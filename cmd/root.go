package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "geoattend",
	Short: "Geofenced face-recognition attendance",
	Long: `Geoattend marks attendance with a webcam: it verifies the device is
inside the allowed radius around the venue, then uploads camera snapshots to
the attendance server until a face is recognized.

The same binary also runs the server side (geoattend serve).`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
