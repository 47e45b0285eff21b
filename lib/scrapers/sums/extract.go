package sums

import (
	"context"
	"fmt"
	"strings"
	"sums-scraper/lib/htmlutil"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const dateJoinedLayout = "2006-01-02"

// cell positions in a member row: 0 student id, 1 name, 2 a derived
// display-only column we do not consume, 3 subscription, 4 date joined
const memberCellCount = 5

func (c *Client) extractMembers(ctx context.Context) ([]Member, error) {
	ctx, span := tracer.Start(ctx, "client:extractMembers")
	defer span.End()

	html, err := c.driver.OuterHTML(ctx, c.locators.MembersTableBody)
	if err != nil {
		span.SetStatus(codes.Error, "failed to read member table")
		return nil, fmt.Errorf("read member table: %w", err)
	}

	// the session hands back a bare tbody; the html5 parser drops table
	// sections that appear outside a table, so re-wrap it
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + html + "</table>"))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse member table")
		return nil, fmt.Errorf("parse member table: %w", err)
	}

	members, err := membersFromRows(doc.Find("tr"))
	if err != nil {
		span.SetStatus(codes.Error, "malformed member row")
		return nil, err
	}
	return members, nil
}

// membersFromRows converts table rows, in document order, into Member
// records. The first row that fails to parse aborts the whole batch.
func membersFromRows(rows *goquery.Selection) ([]Member, error) {
	members := []Member{}

	var rowErr error
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td")

		// datatables renders one placeholder cell instead of zero rows
		// when the table is empty
		if cells.Length() == 1 && cells.HasClass("dataTables_empty") {
			return true
		}
		if cells.Length() < memberCellCount {
			rowErr = &ExtractError{
				Row: i,
				Err: fmt.Errorf("expected %d cells, got %d", memberCellCount, cells.Length()),
			}
			return false
		}

		id, err := ParseStudentID(htmlutil.CleanText(cells.Eq(0).Text()))
		if err != nil {
			rowErr = &ExtractError{Row: i, Err: err}
			return false
		}

		dateText := htmlutil.CleanText(cells.Eq(4).Text())
		dateJoined, err := time.Parse(dateJoinedLayout, dateText)
		if err != nil {
			rowErr = &ExtractError{
				Row: i,
				Err: fmt.Errorf("date joined %q does not match %s", dateText, dateJoinedLayout),
			}
			return false
		}

		members = append(members, Member{
			StudentID:    id,
			Name:         htmlutil.CleanText(cells.Eq(1).Text()),
			Kind:         KindStudent,
			Subscription: htmlutil.CleanText(cells.Eq(3).Text()),
			DateJoined:   dateJoined,
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return members, nil
}
