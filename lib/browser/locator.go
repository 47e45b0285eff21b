package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// Kind selects the strategy used to resolve a Locator against the
// rendered page.
type Kind string

const (
	KindCSS      Kind = "css"
	KindXPath    Kind = "xpath"
	KindID       Kind = "id"
	KindLinkText Kind = "link"
)

// Locator identifies zero or more elements in the current page. The
// json tags exist so locator sets can be overridden from config files
// when the target site's markup drifts.
type Locator struct {
	Kind  Kind   `json:"kind"`
	Query string `json:"query"`
}

func CSS(query string) Locator {
	return Locator{Kind: KindCSS, Query: query}
}

func XPath(query string) Locator {
	return Locator{Kind: KindXPath, Query: query}
}

func ID(id string) Locator {
	return Locator{Kind: KindID, Query: id}
}

func LinkText(text string) Locator {
	return Locator{Kind: KindLinkText, Query: text}
}

func (l Locator) IsZero() bool {
	return l.Kind == "" && l.Query == ""
}

func (l Locator) Validate() error {
	if l.Query == "" {
		return fmt.Errorf("locator has an empty query")
	}
	switch l.Kind {
	case KindCSS, KindXPath, KindID, KindLinkText:
		return nil
	}
	return fmt.Errorf("unknown locator kind %q", l.Kind)
}

func (l Locator) String() string {
	return fmt.Sprintf("%s:%s", l.Kind, l.Query)
}

// sel translates the locator into a chromedp selector and query option.
func (l Locator) sel() (string, chromedp.QueryOption) {
	switch l.Kind {
	case KindXPath:
		return l.Query, chromedp.BySearch
	case KindID:
		return "#" + l.Query, chromedp.ByID
	case KindLinkText:
		return linkTextXPath(l.Query), chromedp.BySearch
	default:
		return l.Query, chromedp.ByQuery
	}
}

func linkTextXPath(text string) string {
	return fmt.Sprintf(`//a[normalize-space(.)=%s]`, xpathLiteral(text))
}

// xpath 1.0 has no string escaping, text containing both quote kinds
// must be stitched together with concat()
func xpathLiteral(s string) string {
	if !strings.Contains(s, `'`) {
		return fmt.Sprintf(`'%s'`, s)
	}
	if !strings.Contains(s, `"`) {
		return fmt.Sprintf(`"%s"`, s)
	}
	parts := strings.Split(s, `'`)
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, fmt.Sprintf(`'%s'`, p))
	}
	return fmt.Sprintf("concat(%s)", strings.Join(quoted, ", "))
}
