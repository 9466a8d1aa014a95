package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jsvoboda/geoattend/internal/camera"
	"github.com/jsvoboda/geoattend/internal/client"
	"github.com/jsvoboda/geoattend/internal/config"
)

// enrollmentMaxDimension caps the longer edge of uploaded enrollment photos.
const enrollmentMaxDimension = 800

var enrollCmd = &cobra.Command{
	Use:   "enroll <name> <photo-or-folder> [photo-or-folder...]",
	Short: "Enroll a person from one or more photos",
	Long: `Upload enrollment photos for a named person. Folders are scanned
for jpg/jpeg/png files (non-recursive). Several photos of the same person
improve recognition.

Example:
  geoattend enroll "Jiří Novák" /path/to/photos
  geoattend enroll "Jiří Novák" face1.jpg face2.jpg`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

// isPhotoFile checks if a file has a supported image extension
func isPhotoFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

func collectPhotoPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			if !isPhotoFile(arg) {
				return nil, fmt.Errorf("%s is not a supported photo file", arg)
			}
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read folder %s: %w", arg, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isPhotoFile(entry.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(arg, entry.Name()))
		}
	}
	return paths, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg := config.Load()

	paths, err := collectPhotoPaths(args[1:])
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("No photo files found.")
		return nil
	}

	fmt.Printf("Enrolling %s from %d photo(s)\n", name, len(paths))

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	api := client.NewAPI(cfg.Client.ServerURL)
	ctx := context.Background()

	var enrolled int
	var failures []string
	for _, path := range paths {
		fileName := filepath.Base(path)

		photo, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", fileName, err))
			bar.Add(1)
			continue
		}

		resized, err := camera.Resize(photo, enrollmentMaxDimension)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", fileName, err))
			bar.Add(1)
			continue
		}

		if _, err := api.Enroll(ctx, name, resized, fileName); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", fileName, err))
			bar.Add(1)
			continue
		}

		enrolled++
		bar.Add(1)
	}
	fmt.Println()

	for _, msg := range failures {
		fmt.Printf("Failed: %s\n", msg)
	}

	if enrolled == 0 {
		return fmt.Errorf("no photos were enrolled successfully")
	}
	fmt.Printf("Enrolled %d photo(s) for %s\n", enrolled, name)
	return nil
}
