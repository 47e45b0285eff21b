package sums

import (
	"context"
	"fmt"
	"log/slog"
	"sums-scraper/lib/htmlutil"

	"go.opentelemetry.io/otel/codes"
)

// Authenticate walks the portal's login flow: open the account menu,
// follow the student login entry, fill the SSO form and submit it.
//
// The portal gives no positive success signal, the only reliable
// discriminator is the login error element. So the outcome is read
// backwards: error element present means *RejectedError with its text,
// error element absent means logged in. A transport fault while
// probing stays a transport fault, absence is the only thing that
// counts as success.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Authenticate")
	defer span.End()

	err := c.driver.Navigate(ctx, c.baseURL)
	if err != nil {
		span.SetStatus(codes.Error, "failed to open portal")
		return fmt.Errorf("open portal: %w", err)
	}

	err = c.driver.Click(ctx, c.locators.AccountMenu)
	if err != nil {
		span.SetStatus(codes.Error, "failed to open account menu")
		return fmt.Errorf("open account menu: %w", err)
	}

	err = c.driver.Click(ctx, c.locators.StudentLogin)
	if err != nil {
		span.SetStatus(codes.Error, "failed to reach student login")
		return fmt.Errorf("open student login: %w", err)
	}

	err = c.driver.Fill(ctx, c.locators.UsernameField, username)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fill username")
		return fmt.Errorf("fill username: %w", err)
	}
	err = c.driver.Fill(ctx, c.locators.PasswordField, password)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fill password")
		return fmt.Errorf("fill password: %w", err)
	}

	err = c.driver.Submit(ctx, c.locators.LoginForm)
	if err != nil {
		span.SetStatus(codes.Error, "failed to submit login form")
		return fmt.Errorf("submit login form: %w", err)
	}

	reason, found, err := c.driver.ProbeText(ctx, c.locators.LoginError)
	if err != nil {
		span.SetStatus(codes.Error, "login error probe broke")
		return fmt.Errorf("probe login error element: %w", err)
	}
	if found {
		span.SetStatus(codes.Error, "credentials rejected")
		return &RejectedError{Reason: htmlutil.CleanText(reason)}
	}

	slog.DebugContext(ctx, "authenticated against portal", "username", username)
	return nil
}
