// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package anyconvert

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/golang-jwt/jwt/v5"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

func webUnits() []Unit {
	return []Unit{
		NewTextUnit(Meta{
			ID:          "html-to-markdown",
			Name:        "HTML to Markdown",
			Category:    CategoryWeb,
			Description: "Convert HTML to CommonMark with ATX headings and pipe tables.",
			Placeholder: "<h1>Title</h1><p>Some <b>bold</b> text.</p>",
		}, stringFunc(func(s string) (string, error) {
			if strings.TrimSpace(s) == "" {
				return "", Invalidf("no HTML input")
			}
			md, err := convertHTMLToMarkdown(removeScriptAndStyle(s))
			if err != nil {
				return "", fmt.Errorf("convert HTML to markdown: %w", err)
			}
			return normalizeOutput(truncateDataURIs(md)), nil
		})),
		NewTextUnit(Meta{
			ID:          "html-to-text",
			Name:        "HTML to Text",
			Category:    CategoryWeb,
			Description: "Extract the readable text of an HTML document.",
			Placeholder: "<p>Hello<br>world</p><ul><li>one</li><li>two</li></ul>",
		}, stringFunc(func(s string) (string, error) {
			if strings.TrimSpace(s) == "" {
				return "", Invalidf("no HTML input")
			}
			return htmlToText(s)
		})),
		NewTextUnit(Meta{
			ID:          "html-title",
			Name:        "HTML Title",
			Category:    CategoryWeb,
			Description: "Extract the <title> of an HTML document, falling back to the first <h1>.",
			Placeholder: "<html><head><title>Welcome</title></head></html>",
		}, stringFunc(func(s string) (string, error) {
			title := extractHTMLTitle(s)
			if title == "" {
				return "", Invalidf("no title found")
			}
			return title, nil
		})),
		NewTextUnit(Meta{
			ID:          "html-sanitize",
			Name:        "HTML Sanitize",
			Category:    CategoryWeb,
			Description: "Remove scripts, event handlers and unsafe markup, keeping user-content formatting.",
			Placeholder: `<p onclick="steal()">Hi <script>alert(1)</script><a href="javascript:x">link</a></p>`,
		}, pureFunc(func(s string) string {
			return bluemonday.UGCPolicy().Sanitize(s)
		})),
		NewTextUnit(Meta{
			ID:          "html-strip-tags",
			Name:        "HTML Strip Tags",
			Category:    CategoryWeb,
			Description: "Remove every tag and keep only the text content.",
			Placeholder: "<p>Fish &amp; <em>chips</em></p>",
		}, pureFunc(func(s string) string {
			return html.UnescapeString(bluemonday.StrictPolicy().Sanitize(s))
		})),
		NewTextUnit(Meta{
			ID:          "jwt-decode",
			Name:        "JWT Decode",
			Category:    CategoryWeb,
			Description: "Decode the header and claims of a JSON Web Token. The signature is not verified.",
			Placeholder: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxMjM0NTY3ODkwIiwibmFtZSI6IkFkYSIsImlhdCI6MTUxNjIzOTAyMn0.signature",
		}, stringFunc(decodeJWT)),
		NewTextUnit(Meta{
			ID:          "url-parse",
			Name:        "URL Parse",
			Category:    CategoryWeb,
			Description: "Break a URL into scheme, host, port, path, query parameters and fragment.",
			Placeholder: "https://user@example.com:8443/docs/page?q=go&lang=en#intro",
		}, stringFunc(parseURL)),
		NewTextUnit(Meta{
			ID:          "slugify",
			Name:        "Slugify",
			Category:    CategoryWeb,
			Description: "Turn text into a lowercase, dash-separated URL slug.",
			Placeholder: "Crème Brûlée: A How-To Guide!",
		}, stringFunc(func(s string) (string, error) {
			slug := slugify(s)
			if slug == "" {
				return "", Invalidf("nothing to slugify")
			}
			return slug, nil
		})),
	}
}

// convertHTMLToMarkdown converts HTML to markdown using html-to-markdown.
func convertHTMLToMarkdown(htmlStr string) (string, error) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHeadingStyle("atx"),
			),
			table.NewTablePlugin(),
		),
	)
	return conv.ConvertString(htmlStr)
}

var (
	reScript  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	reStyle   = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	reDataURI = regexp.MustCompile(`(data:[a-zA-Z0-9/+.-]+;base64,)[A-Za-z0-9+/=]{64,}`)
	reSlugGap = regexp.MustCompile(`[^a-z0-9]+`)
)

func removeScriptAndStyle(htmlStr string) string {
	htmlStr = reScript.ReplaceAllString(htmlStr, "")
	return reStyle.ReplaceAllString(htmlStr, "")
}

// truncateDataURIs shortens large base64 data URIs to data:mime/type;base64...
func truncateDataURIs(md string) string {
	return reDataURI.ReplaceAllString(md, "${1}...")
}

// extractHTMLTitle returns the <title> text, or the first <h1> when there is none.
func extractHTMLTitle(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}
	if n := findElement(doc, "title"); n != nil {
		if title := strings.TrimSpace(nodeText(n)); title != "" {
			return title
		}
	}
	if n := findElement(doc, "h1"); n != nil {
		return strings.Join(strings.Fields(nodeText(n)), " ")
	}
	return ""
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func isBlockElement(tag string) bool {
	switch tag {
	case "address", "article", "aside", "blockquote", "div", "dl", "dt", "dd", "fieldset",
		"figure", "footer", "form", "h1", "h2", "h3", "h4", "h5", "h6", "header", "hr",
		"li", "main", "nav", "ol", "p", "pre", "section", "table", "tr", "ul":
		return true
	}
	return false
}

func isSkippedElement(tag string) bool {
	switch tag {
	case "head", "script", "style", "noscript", "template", "svg":
		return true
	}
	return false
}

// htmlToText renders the visible text of a document, one block per line.
func htmlToText(htmlStr string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", Invalidf("unreadable HTML: %v", err)
	}

	var b strings.Builder
	var walk func(n *html.Node, pre bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				b.WriteString(n.Data)
				return
			}
			text := strings.Join(strings.Fields(n.Data), " ")
			if text == "" {
				if strings.TrimSpace(n.Data) == "" && n.Data != "" {
					b.WriteString(" ")
				}
				return
			}
			if hasLeadingSpace(n.Data) {
				b.WriteString(" ")
			}
			b.WriteString(text)
			if hasTrailingSpace(n.Data) {
				b.WriteString(" ")
			}
			return
		case html.ElementNode:
			if isSkippedElement(n.Data) {
				return
			}
			switch n.Data {
			case "br":
				b.WriteString("\n")
				return
			case "li":
				b.WriteString("\n- ")
			case "td", "th":
				b.WriteString("\t")
			}
			if isBlockElement(n.Data) && n.Data != "li" {
				b.WriteString("\n")
			}
			pre = pre || n.Data == "pre"
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, pre)
		}
		if n.Type == html.ElementNode && isBlockElement(n.Data) {
			b.WriteString("\n")
		}
	}
	walk(doc, false)

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Trim(line, " \t")
	}
	return normalizeOutput(strings.Join(lines, "\n")), nil
}

func hasLeadingSpace(s string) bool {
	return s != "" && strings.TrimLeft(s, " \t\r\n") != s
}

func hasTrailingSpace(s string) bool {
	return s != "" && strings.TrimRight(s, " \t\r\n") != s
}

func decodeJWT(s string) (string, error) {
	tok := strings.TrimSpace(s)
	tok = strings.TrimPrefix(tok, "Bearer ")
	if tok == "" {
		return "", Invalidf("no token")
	}

	claims := jwt.MapClaims{}
	token, parts, err := jwt.NewParser().ParseUnverified(tok, claims)
	if err != nil && !(errors.Is(err, jwt.ErrTokenUnverifiable) && token != nil) {
		return "", Invalidf("not a valid JWT: %v", err)
	}

	var b strings.Builder
	b.WriteString("Header:\n")
	b.WriteString(segmentJSON(parts[0]))
	b.WriteString("\n\nPayload:\n")
	b.WriteString(segmentJSON(parts[1]))
	b.WriteString("\n")

	if alg, ok := token.Header["alg"].(string); ok {
		fmt.Fprintf(&b, "\nAlgorithm: %s", alg)
	}
	for _, c := range []struct {
		label string
		get   func() (*jwt.NumericDate, error)
	}{
		{"Issued at", claims.GetIssuedAt},
		{"Not before", claims.GetNotBefore},
		{"Expires", claims.GetExpirationTime},
	} {
		if d, err := c.get(); err == nil && d != nil {
			fmt.Fprintf(&b, "\n%s: %s", c.label, d.UTC().Format(time.RFC3339))
		}
	}
	b.WriteString("\nSignature: not verified")
	return b.String(), nil
}

// segmentJSON pretty-prints one base64url-encoded token segment, keeping key order.
func segmentJSON(seg string) string {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
	if err != nil || checkJSON(string(data)) != nil {
		return seg
	}
	return prettyJSON(data, false)
}

func parseURL(s string) (string, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return "", Invalidf("no URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", Invalidf("invalid URL: %v", err)
	}
	if u.Scheme == "" && u.Host == "" {
		return "", Invalidf("invalid URL: missing scheme and host")
	}

	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	line("Scheme", u.Scheme)
	if u.User != nil {
		line("User", u.User.Username())
		if _, ok := u.User.Password(); ok {
			line("Password", "(set)")
		}
	}
	line("Host", u.Hostname())
	line("Port", u.Port())
	line("Path", u.Path)
	if q := u.Query(); len(q) > 0 {
		b.WriteString("Query:\n")
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, v := range q[k] {
				fmt.Fprintf(&b, "  %s = %s\n", k, v)
			}
		}
	}
	line("Fragment", u.Fragment)
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func slugify(s string) string {
	s = strings.ToLower(removeAccents(s))
	return strings.Trim(reSlugGap.ReplaceAllString(s, "-"), "-")
}
