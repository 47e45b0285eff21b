package sums

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sums-scraper/lib/browser"
	"sums-scraper/lib/telemetry"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDriver scripts the remote browser: it records every operation
// issued against it and serves canned page state back.
type fakeDriver struct {
	ops []string

	// op name -> error to fail that operation with
	failOn map[string]error

	// text of the login error element, "" means the element is absent
	loginErrorText string
	probeErr       error

	waitErr error

	// page state for the member table: pagedHTML until the page size
	// select is set to expandValue, fullHTML afterwards
	pagedHTML   string
	fullHTML    string
	expandValue string
	selected    string

	closed int
}

func (d *fakeDriver) record(op string) error {
	d.ops = append(d.ops, op)
	return d.failOn[op]
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	return d.record("navigate")
}

func (d *fakeDriver) Click(ctx context.Context, loc browser.Locator) error {
	return d.record("click")
}

func (d *fakeDriver) Fill(ctx context.Context, loc browser.Locator, value string) error {
	return d.record("fill")
}

func (d *fakeDriver) Submit(ctx context.Context, loc browser.Locator) error {
	return d.record("submit")
}

func (d *fakeDriver) ProbeText(ctx context.Context, loc browser.Locator) (string, bool, error) {
	err := d.record("probe")
	if err != nil {
		return "", false, err
	}
	if d.probeErr != nil {
		return "", false, d.probeErr
	}
	if d.loginErrorText == "" {
		return "", false, nil
	}
	return d.loginErrorText, true, nil
}

func (d *fakeDriver) Evaluate(ctx context.Context, script string, out any) error {
	err := d.record("evaluate")
	if err != nil {
		return err
	}
	if p, ok := out.(*string); ok {
		*p = d.expandValue
	}
	return nil
}

func (d *fakeDriver) SetValue(ctx context.Context, loc browser.Locator, value string) error {
	err := d.record("setvalue")
	if err != nil {
		return err
	}
	d.selected = value
	return nil
}

func (d *fakeDriver) WaitForOrigin(ctx context.Context, origin string, timeout time.Duration) error {
	err := d.record("wait")
	if err != nil {
		return err
	}
	return d.waitErr
}

func (d *fakeDriver) OuterHTML(ctx context.Context, loc browser.Locator) (string, error) {
	err := d.record("outerhtml")
	if err != nil {
		return "", err
	}
	if d.expandValue != "" && d.selected == d.expandValue {
		return d.fullHTML, nil
	}
	return d.pagedHTML, nil
}

func (d *fakeDriver) Close() error {
	d.closed++
	return nil
}

func memberRowsHTML(count int) string {
	b := strings.Builder{}
	b.WriteString("<tbody>")
	for i := 0; i < count; i++ {
		fmt.Fprintf(
			&b,
			`<tr><td>%07d</td><td>Member %d</td><td>Student</td><td>Standard</td><td>2023-09-%02d</td></tr>`,
			4310000+i, i, i%28+1,
		)
	}
	b.WriteString("</tbody>")
	return b.String()
}

func newTestClient(d Driver) *Client {
	return newClient(d, ClientOptions{GroupID: 213})
}

func TestAuthenticateSuccess(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:sums")
	defer cleanup()

	driver := &fakeDriver{}
	client := newTestClient(driver)

	err := client.Authenticate(context.Background(), "psyjd1", "hunter2")
	if err != nil {
		t.Fatal(err)
	}

	// absence of the login error element is the only success signal,
	// so the probe must have actually run
	require.Equal(
		t,
		[]string{"navigate", "click", "click", "fill", "fill", "submit", "probe"},
		driver.ops,
	)
}

func TestAuthenticateRejected(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:sums")
	defer cleanup()

	driver := &fakeDriver{loginErrorText: "Incorrect username or password."}
	client := newTestClient(driver)

	err := client.Authenticate(context.Background(), "psyjd1", "wrong")
	require.Error(t, err)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	require.Equal(t, "Incorrect username or password.", rejected.Reason)
}

func TestAuthenticateProbeTransportFault(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:sums")
	defer cleanup()

	// a transport fault during the probe must not be mistaken for the
	// element being absent
	driver := &fakeDriver{probeErr: fmt.Errorf("websocket: connection reset")}
	client := newTestClient(driver)

	err := client.Authenticate(context.Background(), "psyjd1", "hunter2")
	require.Error(t, err)

	var rejected *RejectedError
	require.False(t, errors.As(err, &rejected))
}

func TestAuthenticateTransportFault(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:sums")
	defer cleanup()

	cause := fmt.Errorf("element not interactable")
	driver := &fakeDriver{failOn: map[string]error{"click": cause}}
	client := newTestClient(driver)

	err := client.Authenticate(context.Background(), "psyjd1", "hunter2")
	require.ErrorIs(t, err, cause)
}

func TestListMembersExpandsPagination(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:sums")
	defer cleanup()

	driver := &fakeDriver{
		pagedHTML:   memberRowsHTML(25),
		fullHTML:    memberRowsHTML(250),
		expandValue: "-1",
	}
	client := newTestClient(driver)

	members, err := client.ListMembers(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// the roster must reflect the expanded table, not the default page
	require.Len(t, members, 250)
	require.Equal(t, StudentID("4310000"), members[0].StudentID)
	require.Equal(t, "Member 0", members[0].Name)
	require.Equal(t, KindStudent, members[0].Kind)
	require.Equal(t, "Standard", members[0].Subscription)
	require.Equal(t, StudentID("4310249"), members[249].StudentID)
}

func TestListMembersNavigationTimeout(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:sums")
	defer cleanup()

	driver := &fakeDriver{waitErr: browser.ErrWaitTimeout}
	client := newTestClient(driver)

	_, err := client.ListMembers(context.Background())
	require.ErrorIs(t, err, ErrNavigationTimeout)
}

func TestListMembersMalformedDateFailsWhole(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:sums")
	defer cleanup()

	driver := &fakeDriver{
		pagedHTML: `<tbody>` +
			`<tr><td>123456</td><td>Jane Doe</td><td>Student</td><td>Gold</td><td>2023-09-01</td></tr>` +
			`<tr><td>123457</td><td>John Doe</td><td>Student</td><td>Gold</td><td>not-a-date</td></tr>` +
			`</tbody>`,
	}
	client := newTestClient(driver)

	members, err := client.ListMembers(context.Background())
	require.Nil(t, members)

	var extractErr *ExtractError
	require.ErrorAs(t, err, &extractErr)
	require.Equal(t, 1, extractErr.Row)
}

func TestListMembersEmptyTable(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:sums")
	defer cleanup()

	// datatables renders a single placeholder row when there is no data
	driver := &fakeDriver{
		pagedHTML: `<tbody><tr><td class="dataTables_empty" colspan="5">No data available in table</td></tr></tbody>`,
	}
	client := newTestClient(driver)

	members, err := client.ListMembers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	require.NotNil(t, members)
	require.Len(t, members, 0)
}

func TestCloseRunsExactlyOnce(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:sums")
	defer cleanup()

	driver := &fakeDriver{failOn: map[string]error{"navigate": fmt.Errorf("tab crashed")}}
	client := newTestClient(driver)

	// teardown must happen once regardless of how the flow went
	err := client.Authenticate(context.Background(), "psyjd1", "hunter2")
	require.Error(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	require.Equal(t, 1, driver.closed)
}
