package sums

import (
	"context"
	"sums-scraper/lib/browser"
	"time"
)

// Driver is the slice of the browser session the scraper needs. It is
// satisfied by *browser.Session; tests drive a scripted fake.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, loc browser.Locator) error
	Fill(ctx context.Context, loc browser.Locator, value string) error
	Submit(ctx context.Context, loc browser.Locator) error
	ProbeText(ctx context.Context, loc browser.Locator) (string, bool, error)
	Evaluate(ctx context.Context, script string, out any) error
	SetValue(ctx context.Context, loc browser.Locator, value string) error
	WaitForOrigin(ctx context.Context, origin string, timeout time.Duration) error
	OuterHTML(ctx context.Context, loc browser.Locator) (string, error)
	Close() error
}

// Locators is the full set of page locations the scraper touches.
// Positional xpaths in the defaults are a known fragility of the
// target markup, which is why the whole set is injectable: markup
// drift should be a config change, not a rebuild.
type Locators struct {
	AccountMenu      browser.Locator `json:"account_menu"`
	StudentLogin     browser.Locator `json:"student_login"`
	LoginForm        browser.Locator `json:"login_form"`
	UsernameField    browser.Locator `json:"username_field"`
	PasswordField    browser.Locator `json:"password_field"`
	LoginError       browser.Locator `json:"login_error"`
	DashboardLink    browser.Locator `json:"dashboard_link"`
	PageSizeSelect   browser.Locator `json:"page_size_select"`
	MembersTableBody browser.Locator `json:"members_table_body"`
}

func DefaultLocators() Locators {
	return Locators{
		AccountMenu:      browser.ID("userActionsInvoker"),
		StudentLogin:     browser.XPath(`//*[@id="userActions"]/ul/li[1]/a[1]`),
		LoginForm:        browser.XPath(`/html/body/div/div/div/div[1]/form`),
		UsernameField:    browser.ID("username"),
		PasswordField:    browser.ID("password"),
		LoginError:       browser.XPath(`/html/body/div/div/div/div[1]/section/p`),
		DashboardLink:    browser.LinkText("Dashboard"),
		PageSizeSelect:   browser.CSS(`select[name="members_length"]`),
		MembersTableBody: browser.CSS("#members tbody"),
	}
}

// mergeLocators overlays any explicitly set locator on top of the
// defaults, so configs only need to name the ones that drifted.
func mergeLocators(base, override Locators) Locators {
	merge := func(dst *browser.Locator, src browser.Locator) {
		if !src.IsZero() {
			*dst = src
		}
	}
	merge(&base.AccountMenu, override.AccountMenu)
	merge(&base.StudentLogin, override.StudentLogin)
	merge(&base.LoginForm, override.LoginForm)
	merge(&base.UsernameField, override.UsernameField)
	merge(&base.PasswordField, override.PasswordField)
	merge(&base.LoginError, override.LoginError)
	merge(&base.DashboardLink, override.DashboardLink)
	merge(&base.PageSizeSelect, override.PageSizeSelect)
	merge(&base.MembersTableBody, override.MembersTableBody)
	return base
}
