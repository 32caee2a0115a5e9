// ABOUTME: CLI command that publishes a note to Ghost.
// ABOUTME: Uses the recorded route, a prefix match, or an interactive picker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/2389-research/ghostpost/internal/logging"
	"github.com/2389-research/ghostpost/internal/models"
	"github.com/2389-research/ghostpost/internal/publish"
	"github.com/2389-research/ghostpost/internal/tui"
)

var publishCmd = &cobra.Command{
	Use:   "publish <note>",
	Short: "Publish a note as a Ghost post or page",
	Long: `Publish a note to Ghost. The note must start with a "# Title" heading.

The first publish asks for an instance, type and slug (unless --route is given
or the note matches a configured prefix) and records the route in the note's
$share frontmatter. Later publishes update the same post or page.`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

var (
	publishRoute        string
	publishUploadImages bool
)

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&publishRoute, "route", "", "Share route ghost:<instance>:<post|page>:<slug>")
	publishCmd.Flags().BoolVar(&publishUploadImages, "upload-images", false, "Upload local images and rewrite their links")
}

func runPublish(cmd *cobra.Command, args []string) error {
	log := logging.Get("publish")
	pub := &publish.Publisher{
		Provider:  globalProvider,
		Notes:     globalNotes,
		Prompter:  tui.Prompter{In: os.Stdin, Out: os.Stderr},
		NewClient: publish.GhostClients(logging.Get("ghost")),
		Logger:    log,
	}

	opts := publish.Options{UploadImages: publishUploadImages}
	if publishRoute != "" {
		route, err := models.ParseRoute(publishRoute)
		if err != nil {
			return err
		}
		opts.Route = &route
	}

	res, err := pub.Publish(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}
	if res.Cancelled {
		fmt.Println("Publish cancelled.")
		return nil
	}

	for _, img := range res.Uploaded {
		fmt.Printf("Uploaded %s -> %s\n", img.Ref, img.URL)
	}
	fmt.Printf("Published %s (%s)\n", res.Route, res.Post.Status)
	if res.Post.URL != "" {
		fmt.Println(res.Post.URL)
	}
	if res.Recorded {
		fmt.Printf("Recorded route in %s\n", args[0])
	}
	return nil
}
