// ABOUTME: CLI command listing posts on a Ghost instance.
// ABOUTME: Prints newest first, optionally only posts authored as markdown.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389-research/ghostpost/internal/config"
	"github.com/2389-research/ghostpost/internal/document"
	"github.com/2389-research/ghostpost/internal/ghost"
	"github.com/2389-research/ghostpost/internal/logging"
)

var listCmd = &cobra.Command{
	Use:   "list <instance>",
	Short: "List posts on a Ghost instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var (
	listMarkdownOnly bool
	listLimit        int
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listMarkdownOnly, "markdown-only", false, "Only show posts whose body is a markdown card")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum number of posts (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	ic, err := config.Resolve(globalProvider, args[0])
	if err != nil {
		return err
	}
	client := ghost.FromInstance(ic, ghost.WithLogger(logging.Get("ghost")))

	posts, err := client.ListPosts(cmd.Context(), ghost.ListOptions{Limit: listLimit, MarkdownOnly: listMarkdownOnly})
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		fmt.Println("No posts found.")
		return nil
	}

	for _, p := range posts {
		date := p.PublishedAt
		if date == "" {
			date = "unpublished"
		}
		marker := " "
		if document.HasMarkdownCard(p) {
			marker = "*"
		}
		fmt.Printf("%s %-10s %-24s %s  %s\n", marker, p.Status, date, p.Slug, p.Title)
	}
	return nil
}
