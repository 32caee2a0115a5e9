// ABOUTME: Connection validation for a Ghost site and admin key.
// ABOUTME: Signs a token and fetches one post through the Admin API.
package tui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/2389-research/ghostpost/internal/ghost"
)

// ValidateConnection checks the admin key against the site. The context
// allows cancellation when the user quits during validation.
func ValidateConnection(ctx context.Context, siteURL, adminKey string) error {
	if _, _, err := ghost.SplitAdminKey(adminKey); err != nil {
		return err
	}
	client := ghost.NewClient(siteURL, adminKey, ghost.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	return nil
}
