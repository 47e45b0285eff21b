package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<td><a href="/profile/1">Jane <b>Doe</b></a></td>`,
	))
	if err != nil {
		t.Fatal(err)
	}

	cell := doc.Find("td")
	require.Len(t, cell.Nodes, 1)
	require.Equal(t, "Jane Doe", GetText(cell.Nodes[0]))
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{input: "  Jane   Doe \n", expected: "Jane Doe"},
		{input: "\t4312467\n", expected: "4312467"},
		{input: "Gold\x00", expected: "Gold"},
		{input: "", expected: ""},
	}

	for _, test := range cases {
		require.Equal(t, test.expected, CleanText(test.input))
	}
}
