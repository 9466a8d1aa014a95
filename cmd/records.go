package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jsvoboda/geoattend/internal/client"
	"github.com/jsvoboda/geoattend/internal/config"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List recent attendance records",
	RunE:  runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
}

func runRecords(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	api := client.NewAPI(cfg.Client.ServerURL)

	records, err := api.Records(context.Background())
	if err != nil {
		return fmt.Errorf("failed to fetch records: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No attendance records.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tTIME\tDISTANCE\tCONFIDENCE")
	for _, rec := range records {
		user := rec.UserID
		if user == "" {
			user = "(unrecognized)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1fm\t%.0f%%\n",
			rec.ID, user, rec.Timestamp, rec.Distance, rec.Confidence*100)
	}
	return w.Flush()
}
