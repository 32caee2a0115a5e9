// ABOUTME: CLI command uploading a single image to a Ghost instance.
// ABOUTME: Prints the hosted URL returned by the Admin API.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/2389-research/ghostpost/internal/config"
	"github.com/2389-research/ghostpost/internal/ghost"
	"github.com/2389-research/ghostpost/internal/logging"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <instance> <file>",
	Short: "Upload an image to a Ghost instance",
	Args:  cobra.ExactArgs(2),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ic, err := config.Resolve(globalProvider, args[0])
	if err != nil {
		return err
	}

	path, err := config.ExpandPath(args[1])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}

	client := ghost.FromInstance(ic, ghost.WithLogger(logging.Get("ghost")))
	img, err := client.UploadImage(cmd.Context(), filepath.Base(path), data)
	if err != nil {
		return err
	}
	fmt.Println(img.URL)
	return nil
}
