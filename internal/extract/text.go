package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// word matches a run of letters, digits or underscores in any script.
const word = `[\p{L}\p{N}_]+`

var (
	trailingTaxID = regexp.MustCompile(`(\d{12})$`)
	amountPrefix  = regexp.MustCompile(`^(.+?руб\.?)`)
	forAmount     = regexp.MustCompile(`(?i)на сумму\s+(.+?руб\.?)`)
)

// squash collapses every whitespace run to one space and trims the result.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// text returns the squashed text content of sel.
func text(sel *goquery.Selection) string {
	return squash(sel.Text())
}

// findDT returns the first dt under root whose text contains marker.
func findDT(root *goquery.Selection, marker string) *goquery.Selection {
	return root.Find("dt").FilterFunction(func(_ int, dt *goquery.Selection) bool {
		return strings.Contains(dt.Text(), marker)
	}).First()
}

// nextDD returns the first dd sibling following dt.
func nextDD(dt *goquery.Selection) *goquery.Selection {
	return dt.NextAllFiltered("dd").First()
}

// followingDDs returns the consecutive dd siblings after dt, stopping at the next dt.
func followingDDs(dt *goquery.Selection) *goquery.Selection {
	return dt.NextUntil("dt").Filter("dd")
}

// companyRow returns the first .company-row whose title contains marker.
func companyRow(doc *goquery.Document, marker string) *goquery.Selection {
	return doc.Find(".company-row").FilterFunction(func(_ int, row *goquery.Selection) bool {
		title := row.Find(".company-info__title").First()
		return title.Length() > 0 && strings.Contains(title.Text(), marker)
	}).First()
}

// slugTaxID extracts a trailing 12-digit tax ID from the last path segment of href.
func slugTaxID(href string) string {
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		href = href[i+1:]
	} else {
		return ""
	}
	if m := trailingTaxID.FindStringSubmatch(href); m != nil {
		return m[1]
	}
	return ""
}

// ownTextContains reports whether one of the element's direct text children contains marker.
func ownTextContains(sel *goquery.Selection, marker string) bool {
	for _, n := range sel.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && strings.Contains(c.Data, marker) {
				return true
			}
		}
	}
	return false
}

// strippedStrings returns every non-blank descendant text node of sel, squashed, in document order.
func strippedStrings(sel *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := squash(n.Data); s != "" {
				out = append(out, s)
			}
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return out
}

// submatch returns the trimmed first capture group of re in s.
func submatch(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// containsAny reports whether s contains one of markers.
func containsAny(s string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
