package sums

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sums-scraper/lib/browser"

	_ "embed"

	"go.opentelemetry.io/otel/codes"
)

// forces the member table's page size control to its maximum option in
// the page's own script environment. Idempotent; throws if the control
// or its options are missing so a markup change fails loudly instead of
// silently extracting the first page only.
//
//go:embed expand_pagesize.js
var expandPageSizeScript string

// navigateToMembers takes an authenticated session from the portal
// landing page to the group's member table with the full roster on one
// page.
func (c *Client) navigateToMembers(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:navigateToMembers")
	defer span.End()

	err := c.driver.Click(ctx, c.locators.AccountMenu)
	if err != nil {
		span.SetStatus(codes.Error, "failed to open account menu")
		return fmt.Errorf("open account menu: %w", err)
	}
	err = c.driver.Click(ctx, c.locators.DashboardLink)
	if err != nil {
		span.SetStatus(codes.Error, "failed to follow dashboard link")
		return fmt.Errorf("follow dashboard link: %w", err)
	}

	err = c.driver.WaitForOrigin(ctx, c.dashboardOrigin, c.navTimeout)
	if errors.Is(err, browser.ErrWaitTimeout) {
		span.SetStatus(codes.Error, "dashboard handoff stalled")
		return fmt.Errorf("%w: %s", ErrNavigationTimeout, c.dashboardOrigin)
	}
	if err != nil {
		span.SetStatus(codes.Error, "dashboard wait broke")
		return fmt.Errorf("wait for dashboard: %w", err)
	}

	// jumping straight to the members url beats clicking through the
	// dashboard, less markup to depend on
	membersURL := fmt.Sprintf("%s/groups/%d/members", c.dashboardOrigin, c.GroupID)
	err = c.driver.Navigate(ctx, membersURL)
	if err != nil {
		span.SetStatus(codes.Error, "failed to open members page")
		return fmt.Errorf("open members page: %w", err)
	}

	var pageSize string
	err = c.driver.Evaluate(ctx, expandPageSizeScript, &pageSize)
	if err != nil {
		span.SetStatus(codes.Error, "failed to expand page size")
		return fmt.Errorf("expand member table page size: %w", err)
	}
	slog.DebugContext(ctx, "expanded member table page size", "value", pageSize)

	err = c.driver.SetValue(ctx, c.locators.PageSizeSelect, pageSize)
	if err != nil {
		span.SetStatus(codes.Error, "failed to select page size option")
		return fmt.Errorf("select page size option: %w", err)
	}

	return nil
}
