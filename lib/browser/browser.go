// Package browser owns a single connection to a remote browser
// automation endpoint speaking the DevTools protocol. One Session
// drives one browser; operations are strictly sequential and every one
// of them is bounded by a per-operation timeout. A Session is not safe
// for concurrent use: concurrent commands would race against the same
// focused document.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sums-scraper/lib/telemetry"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("lib/browser")

// ErrWaitTimeout reports that a bounded wait condition never resolved.
var ErrWaitTimeout = errors.New("timed out waiting for page condition")

const DefaultOpTimeout = time.Second * 20

type Options struct {
	// bounds every remote call issued through the session,
	// DefaultOpTimeout if zero
	OpTimeout time.Duration
}

type Session struct {
	endpoint string
	// product string reported by the endpoint, e.g. "HeadlessChrome/124.0.6367.60"
	Browser string

	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opTimeout   time.Duration

	closeOnce sync.Once
	closeErr  error
}

type endpointVersion struct {
	Browser              string `json:"Browser"`
	ProtocolVersion      string `json:"Protocol-Version"`
	WebSocketDebuggerUrl string `json:"webSocketDebuggerUrl"`
}

// Connect probes the automation endpoint, attaches to the remote
// browser and opens a fresh target. The given context only bounds the
// connection handshake, the session itself lives until Close.
func Connect(ctx context.Context, endpoint string, opts Options) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Connect")
	defer span.End()
	span.SetAttributes(attribute.String("endpoint", endpoint))

	if opts.OpTimeout == 0 {
		opts.OpTimeout = DefaultOpTimeout
	}

	httpc := resty.New()
	httpc.SetBaseURL(endpoint)
	httpc.SetTimeout(time.Second * 10)
	telemetry.InstrumentResty(httpc, "lib/browser/http")

	var version endpointVersion
	res, err := httpc.R().
		SetContext(ctx).
		SetResult(&version).
		Get("/json/version")
	if err != nil {
		span.SetStatus(codes.Error, "automation endpoint unreachable")
		return nil, fmt.Errorf("automation endpoint unreachable: %w", err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "automation endpoint rejected version probe")
		return nil, fmt.Errorf("automation endpoint returned status %d for /json/version", res.StatusCode())
	}
	slog.InfoContext(ctx, "automation endpoint reachable",
		"browser", version.Browser,
		"protocol", version.ProtocolVersion,
	)
	if !chromiumFamily(version.Browser) {
		slog.WarnContext(ctx, "remote browser does not look chromium-family, commands may fail",
			"browser", version.Browser,
		)
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), endpoint)
	sessCtx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		endpoint:    endpoint,
		Browser:     version.Browser,
		ctx:         sessCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		opTimeout:   opts.OpTimeout,
	}

	// attach now so a broken endpoint surfaces here instead of on the
	// first navigation
	err = s.run(ctx)
	if err != nil {
		cancel()
		allocCancel()
		span.SetStatus(codes.Error, "failed to attach to remote browser")
		return nil, fmt.Errorf("failed to attach to remote browser: %w", err)
	}

	return s, nil
}

func chromiumFamily(product string) bool {
	product = strings.ToLower(product)
	return strings.Contains(product, "chrome") || strings.Contains(product, "chromium")
}

// run executes actions against the session, bounded by the
// per-operation timeout and released early if the caller context dies.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.ctx, s.opTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(tctx, actions...)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	ctx, span := tracer.Start(ctx, "session:Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	return s.run(ctx, chromedp.Navigate(url))
}

func (s *Session) Click(ctx context.Context, loc Locator) error {
	ctx, span := tracer.Start(ctx, "session:Click")
	defer span.End()
	span.SetAttributes(attribute.Stringer("locator", loc))

	sel, by := loc.sel()
	return s.run(ctx, chromedp.Click(sel, by, chromedp.NodeVisible))
}

// Fill types a value into a form field.
func (s *Session) Fill(ctx context.Context, loc Locator, value string) error {
	ctx, span := tracer.Start(ctx, "session:Fill")
	defer span.End()
	span.SetAttributes(attribute.Stringer("locator", loc))

	sel, by := loc.sel()
	return s.run(ctx,
		chromedp.Clear(sel, by),
		chromedp.SendKeys(sel, value, by),
	)
}

// SetValue writes the value property of an element directly, used for
// select controls where typing makes no sense.
func (s *Session) SetValue(ctx context.Context, loc Locator, value string) error {
	ctx, span := tracer.Start(ctx, "session:SetValue")
	defer span.End()
	span.SetAttributes(attribute.Stringer("locator", loc), attribute.String("value", value))

	sel, by := loc.sel()
	return s.run(ctx, chromedp.SetValue(sel, value, by))
}

func (s *Session) Submit(ctx context.Context, loc Locator) error {
	ctx, span := tracer.Start(ctx, "session:Submit")
	defer span.End()
	span.SetAttributes(attribute.Stringer("locator", loc))

	sel, by := loc.sel()
	return s.run(ctx, chromedp.Submit(sel, by))
}

// ProbeText reports whether the located element currently exists, and
// its rendered text if it does. Unlike the other operations it does
// not wait for the element to appear: absence is an answer, not an
// error. A transport fault still comes back as err.
func (s *Session) ProbeText(ctx context.Context, loc Locator) (string, bool, error) {
	ctx, span := tracer.Start(ctx, "session:ProbeText")
	defer span.End()
	span.SetAttributes(attribute.Stringer("locator", loc))

	sel, by := loc.sel()
	var nodes []*cdp.Node
	err := s.run(ctx, chromedp.Nodes(sel, &nodes, by, chromedp.AtLeast(0)))
	if err != nil {
		span.SetStatus(codes.Error, "presence probe failed")
		return "", false, err
	}
	if len(nodes) == 0 {
		span.AddEvent("element absent")
		return "", false, nil
	}

	var text string
	err = s.run(ctx, chromedp.Text(sel, &text, by))
	if err != nil {
		span.SetStatus(codes.Error, "failed to read element text")
		return "", false, err
	}
	return text, true, nil
}

// Evaluate runs a no-argument script in the page and unmarshals its
// result into out. A script that throws comes back as an error.
func (s *Session) Evaluate(ctx context.Context, script string, out any) error {
	ctx, span := tracer.Start(ctx, "session:Evaluate")
	defer span.End()

	return s.run(ctx, chromedp.Evaluate(script, out))
}

// WaitForOrigin blocks until the page's location.origin equals origin,
// or the timeout elapses, in which case it returns ErrWaitTimeout.
func (s *Session) WaitForOrigin(ctx context.Context, origin string, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, "session:WaitForOrigin")
	defer span.End()
	span.SetAttributes(attribute.String("origin", origin))

	expr := fmt.Sprintf("location.origin === %q", origin)
	var ok bool

	// the polling timeout is authoritative here, the surrounding
	// context just needs to outlive it
	tctx, cancel := context.WithTimeout(s.ctx, timeout+time.Second*5)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(tctx, chromedp.Poll(expr, &ok, chromedp.WithPollingTimeout(timeout)))
	if errors.Is(err, chromedp.ErrPollingTimeout) {
		span.SetStatus(codes.Error, "wait deadline elapsed")
		return ErrWaitTimeout
	}
	return err
}

func (s *Session) Location(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "session:Location")
	defer span.End()

	var url string
	err := s.run(ctx, chromedp.Location(&url))
	return url, err
}

// OuterHTML returns the serialized markup of the located element.
func (s *Session) OuterHTML(ctx context.Context, loc Locator) (string, error) {
	ctx, span := tracer.Start(ctx, "session:OuterHTML")
	defer span.End()
	span.SetAttributes(attribute.Stringer("locator", loc))

	sel, by := loc.sel()
	var html string
	err := s.run(ctx, chromedp.OuterHTML(sel, &html, by))
	return html, err
}

// Close tears the remote browser target down and drops the
// connection. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}
