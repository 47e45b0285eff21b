// Package sums scrapes group member rosters out of the students'
// union management dashboard. The dashboard has no API: the only
// integration point is the rendered page behind an interactive login,
// so everything here drives a remote browser session.
//
// A Client owns exactly one browser session and must not be shared
// between goroutines; the remote browser has a single focused document
// and concurrent commands would race against it. Errors come back
// typed: *RejectedError for refused credentials, ErrNavigationTimeout
// for a stalled dashboard handoff, *ExtractError for a malformed table
// row, anything else is a transport fault surfaced as-is.
package sums

import (
	"context"
	"sums-scraper/lib/browser"
	"sums-scraper/lib/telemetry"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("scrapers/sums")

const (
	defaultBaseURL         = "https://su.nottingham.ac.uk"
	defaultDashboardOrigin = "https://student-dashboard.sums.su"
	defaultNavTimeout      = time.Second * 30
)

type Client struct {
	GroupID uint16

	driver          Driver
	locators        Locators
	baseURL         string
	dashboardOrigin string
	navTimeout      time.Duration

	closeOnce sync.Once
	closeErr  error
}

type ClientOptions struct {
	GroupID uint16
	// address of the browser automation endpoint, e.g. "http://localhost:9222"
	Endpoint string

	// optional overrides, zero values fall back to the known deployment
	BaseURL         string
	DashboardOrigin string
	Locators        Locators
	OpTimeout       time.Duration
	NavTimeout      time.Duration
}

// NewClient connects a fresh browser session against the automation
// endpoint. The caller owns the returned client and must Close it,
// success or not.
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	ctx, span := tracer.Start(ctx, "client:New")
	defer span.End()
	span.SetAttributes(
		attribute.Int("group_id", int(opts.GroupID)),
		attribute.String("endpoint", opts.Endpoint),
	)

	session, err := browser.Connect(ctx, opts.Endpoint, browser.Options{
		OpTimeout: opts.OpTimeout,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to connect browser session")
		return nil, err
	}
	return newClient(session, opts), nil
}

func newClient(driver Driver, opts ClientOptions) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	dashboardOrigin := opts.DashboardOrigin
	if dashboardOrigin == "" {
		dashboardOrigin = defaultDashboardOrigin
	}
	navTimeout := opts.NavTimeout
	if navTimeout == 0 {
		navTimeout = defaultNavTimeout
	}

	return &Client{
		GroupID:         opts.GroupID,
		driver:          driver,
		locators:        mergeLocators(DefaultLocators(), opts.Locators),
		baseURL:         baseURL,
		dashboardOrigin: dashboardOrigin,
		navTimeout:      navTimeout,
	}
}

// ListMembers walks the group's member table and returns the roster in
// the order the page renders it. It either returns the complete roster
// or an error, never a silently truncated one. Only meaningful after a
// successful Authenticate; before that the remote page is simply not
// in the expected state.
func (c *Client) ListMembers(ctx context.Context) ([]Member, error) {
	ctx, span := tracer.Start(ctx, "client:ListMembers")
	defer span.End()
	span.SetAttributes(attribute.Int("group_id", int(c.GroupID)))

	err := c.navigateToMembers(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach member table")
		return nil, err
	}

	members, err := c.extractMembers(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract members")
		return nil, err
	}
	span.SetAttributes(attribute.Int("member_count", len(members)))
	return members, nil
}

// Close tears the browser session down. It runs exactly once no matter
// how many times it is called or which code path got here.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.driver.Close()
	})
	return c.closeErr
}
