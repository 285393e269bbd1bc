package output

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/leapstack-labs/leapsparql/pkg/exec"
)

// maxErrorBody caps how much of an endpoint error body is shown.
const maxErrorBody = 2000

// IsHTML reports whether body looks like an HTML document.
func IsHTML(contentType, body string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.Contains(head, "<html") || strings.Contains(head, "<body")
}

// HTMLText extracts the visible text of an HTML document, one block per
// line. Script and style contents are dropped.
func HTMLText(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return body
	}

	var lines []string
	var b strings.Builder
	flush := func() {
		if s := strings.Join(strings.Fields(b.String()), " "); s != "" {
			lines = append(lines, s)
		}
		b.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "head":
				return
			case "p", "div", "br", "h1", "h2", "h3", "h4", "li", "pre", "tr", "title":
				flush()
				defer flush()
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flush()

	return strings.Join(lines, "\n")
}

// ErrorMessage formats an error for display. Endpoint HTML error pages are
// reduced to their text; the error value keeps the verbatim body.
func ErrorMessage(err error) string {
	var execErr *exec.Error
	if !errors.As(err, &execErr) || execErr.Kind != exec.ErrorHTTP {
		return err.Error()
	}

	body := execErr.Message
	if IsHTML("", body) {
		body = HTMLText(body)
	}
	body = strings.TrimSpace(body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	if body == "" {
		return fmt.Sprintf("endpoint returned HTTP %d", execErr.StatusCode)
	}
	return fmt.Sprintf("endpoint returned HTTP %d:\n%s", execErr.StatusCode, body)
}
