package sums

import (
	"context"
	"os"
	"sums-scraper/lib/telemetry"
	"testing"

	"github.com/stretchr/testify/require"
)

// exercises the real portal through a local devtools endpoint, e.g.
//
//	docker run -p 9222:9222 chromedp/headless-shell
//
// skipped unless credentials are provided.
func TestLiveRoster(t *testing.T) {
	username := os.Getenv("SUMS_USERNAME")
	password := os.Getenv("SUMS_PASSWORD")
	if username == "" || password == "" {
		t.Skip("SUMS_USERNAME/SUMS_PASSWORD not set")
	}
	endpoint := os.Getenv("SUMS_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:9222"
	}

	cleanup := telemetry.SetupForTesting("test:sums-live")
	defer cleanup()

	ctx := context.Background()
	client, err := NewClient(ctx, ClientOptions{
		GroupID:  213,
		Endpoint: endpoint,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	err = client.Authenticate(ctx, username, password)
	if err != nil {
		t.Fatal(err)
	}

	members, err := client.ListMembers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Greater(t, len(members), 0)

	t.Log("roster size", len(members))
}
