package sums

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func rowsFromHTML(t *testing.T, html string) *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + html + "</table>"))
	if err != nil {
		t.Fatal(err)
	}
	return doc.Find("tr")
}

func TestMembersFromRowsFieldMapping(t *testing.T) {
	rows := rowsFromHTML(t,
		`<tbody><tr>`+
			`<td>123456</td>`+
			`<td>Jane Doe</td>`+
			`<td>ignored derived column</td>`+
			`<td>Gold</td>`+
			`<td>2023-09-01</td>`+
			`</tr></tbody>`,
	)

	members, err := membersFromRows(rows)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, []Member{
		{
			StudentID:    "123456",
			Name:         "Jane Doe",
			Kind:         KindStudent,
			Subscription: "Gold",
			DateJoined:   time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC),
		},
	}, members)
}

func TestMembersFromRowsKeepsRenderOrder(t *testing.T) {
	rows := rowsFromHTML(t,
		`<tbody>`+
			`<tr><td>300</td><td>c</td><td></td><td>s</td><td>2024-01-03</td></tr>`+
			`<tr><td>100</td><td>a</td><td></td><td>s</td><td>2024-01-01</td></tr>`+
			`<tr><td>100</td><td>a</td><td></td><td>s</td><td>2024-01-01</td></tr>`+
			`<tr><td>200</td><td>b</td><td></td><td>s</td><td>2024-01-02</td></tr>`+
			`</tbody>`,
	)

	members, err := membersFromRows(rows)
	if err != nil {
		t.Fatal(err)
	}

	// presentation order, duplicates pass through untouched
	ids := make([]StudentID, len(members))
	for i, m := range members {
		ids[i] = m.StudentID
	}
	require.Equal(t, []StudentID{"300", "100", "100", "200"}, ids)
}

func TestMembersFromRowsWhitespaceCells(t *testing.T) {
	rows := rowsFromHTML(t,
		`<tbody><tr>`+
			`<td>  0012345 </td>`+
			"<td>\n  Jane   Doe\n</td>"+
			`<td></td>`+
			`<td> Gold </td>`+
			`<td> 2023-09-01 </td>`+
			`</tr></tbody>`,
	)

	members, err := membersFromRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, members, 1)
	require.Equal(t, StudentID("0012345"), members[0].StudentID)
	require.Equal(t, "Jane Doe", members[0].Name)
	require.Equal(t, "Gold", members[0].Subscription)
}

func TestMembersFromRowsShortRow(t *testing.T) {
	rows := rowsFromHTML(t,
		`<tbody><tr><td>123456</td><td>Jane Doe</td></tr></tbody>`,
	)

	members, err := membersFromRows(rows)
	require.Nil(t, members)

	var extractErr *ExtractError
	require.ErrorAs(t, err, &extractErr)
	require.Equal(t, 0, extractErr.Row)
}

func TestMembersFromRowsBadStudentID(t *testing.T) {
	rows := rowsFromHTML(t,
		`<tbody><tr><td>12a456</td><td>Jane Doe</td><td></td><td>Gold</td><td>2023-09-01</td></tr></tbody>`,
	)

	_, err := membersFromRows(rows)
	var extractErr *ExtractError
	require.ErrorAs(t, err, &extractErr)
}

func TestMembersFromRowsNoRows(t *testing.T) {
	members, err := membersFromRows(rowsFromHTML(t, `<tbody></tbody>`))
	if err != nil {
		t.Fatal(err)
	}
	require.NotNil(t, members)
	require.Len(t, members, 0)
}

func TestParseStudentID(t *testing.T) {
	cases := []struct {
		input string
		ok    bool
	}{
		{input: "4312467", ok: true},
		{input: "0012345", ok: true},
		{input: "", ok: false},
		{input: "43124a7", ok: false},
		{input: "-431246", ok: false},
		{input: "4312 467", ok: false},
	}

	for _, test := range cases {
		id, err := ParseStudentID(test.input)
		if test.ok {
			require.NoError(t, err, test.input)
			require.Equal(t, StudentID(test.input), id)
		} else {
			require.Error(t, err, test.input)
		}
	}
}
