package anyconvert

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/mmcdole/gofeed"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	// Limits on YAML to JSON conversion. Aliases are expanded, so a small
	// document can describe a very large tree.
	maxYAMLDepth  = 64
	maxYAMLNodes  = 1 << 20
	maxYAMLOutput = 16 << 20
)

func dataUnits() []Unit {
	return []Unit{
		NewTextUnit(Meta{
			ID:          "json-format",
			Name:        "JSON Format",
			Category:    CategoryData,
			Description: "Pretty-print JSON with two-space indentation.",
			Placeholder: `{"name":"anyconvert","tags":["json","yaml"]}`,
		}, stringFunc(func(s string) (string, error) {
			if err := checkJSON(s); err != nil {
				return "", err
			}
			return prettyJSON([]byte(s), false), nil
		})),
		NewTextUnit(Meta{
			ID:          "json-minify",
			Name:        "JSON Minify",
			Category:    CategoryData,
			Description: "Remove all insignificant whitespace from JSON.",
			Placeholder: "{\n  \"a\": 1,\n  \"b\": [1, 2]\n}",
		}, stringFunc(func(s string) (string, error) {
			if err := checkJSON(s); err != nil {
				return "", err
			}
			return string(pretty.Ugly([]byte(s))), nil
		})),
		NewTextUnit(Meta{
			ID:          "json-sort-keys",
			Name:        "JSON Sort Keys",
			Category:    CategoryData,
			Description: "Pretty-print JSON with object keys sorted alphabetically.",
			Placeholder: `{"b":2,"a":{"d":4,"c":3}}`,
		}, stringFunc(func(s string) (string, error) {
			if err := checkJSON(s); err != nil {
				return "", err
			}
			return prettyJSON([]byte(s), true), nil
		})),
		NewTextUnit(Meta{
			ID:          "json-validate",
			Name:        "JSON Validate",
			Category:    CategoryData,
			Description: "Check whether the input is well-formed JSON and report where it breaks.",
			Placeholder: `{"ok": true}`,
		}, stringFunc(func(s string) (string, error) {
			if err := checkJSON(s); err != nil {
				return "", err
			}
			return fmt.Sprintf("Valid JSON (%s)", jsonKind(gjson.Parse(s))), nil
		})),
		NewTextUnit(Meta{
			ID:          "json-query",
			Name:        "JSON Query",
			Category:    CategoryData,
			Description: "Extract a value with a GJSON path. The path goes on the first line, the document below it.",
			Placeholder: "users.#.name\n{\"users\":[{\"name\":\"ada\"},{\"name\":\"linus\"}]}",
		}, stringFunc(queryJSON)),
		NewTextUnit(Meta{
			ID:          "json-to-yaml",
			Name:        "JSON to YAML",
			Category:    CategoryData,
			Description: "Convert JSON to block-style YAML, keeping key order.",
			Placeholder: `{"name":"app","port":8080,"tags":["a","b"]}`,
		}, stringFunc(jsonToYAML)),
		NewTextUnit(Meta{
			ID:          "yaml-to-json",
			Name:        "YAML to JSON",
			Category:    CategoryData,
			Description: "Convert YAML to JSON. Multiple documents become a JSON array.",
			Placeholder: "name: app\nport: 8080\ntags:\n  - a\n  - b",
		}, stringFunc(yamlToJSON)),
		NewTextUnit(Meta{
			ID:          "yaml-validate",
			Name:        "YAML Validate",
			Category:    CategoryData,
			Description: "Check whether the input parses as YAML.",
			Placeholder: "key: value",
		}, stringFunc(func(s string) (string, error) {
			docs, err := yamlDocuments(s)
			if err != nil {
				return "", err
			}
			if len(docs) == 1 {
				return "Valid YAML (1 document)", nil
			}
			return fmt.Sprintf("Valid YAML (%d documents)", len(docs)), nil
		})),
		NewTextUnit(Meta{
			ID:          "csv-to-json",
			Name:        "CSV to JSON",
			Category:    CategoryData,
			Description: "Convert CSV with a header row into an array of JSON objects.",
			Placeholder: "name,age\nada,36\nlinus,28",
		}, stringFunc(func(s string) (string, error) {
			records, err := parseDelimited(s)
			if err != nil {
				return "", err
			}
			return prettyJSON(recordsToJSON(records), false), nil
		})),
		NewTextUnit(Meta{
			ID:          "json-to-csv",
			Name:        "JSON to CSV",
			Category:    CategoryData,
			Description: "Convert an array of JSON objects into CSV; columns follow first appearance.",
			Placeholder: `[{"name":"ada","age":36},{"name":"linus","age":28}]`,
		}, stringFunc(jsonToCSV)),
		NewTextUnit(Meta{
			ID:          "csv-to-markdown",
			Name:        "CSV to Markdown",
			Category:    CategoryData,
			Description: "Render CSV as a Markdown table.",
			Placeholder: "name,age\nada,36",
		}, stringFunc(func(s string) (string, error) {
			records, err := parseDelimited(s)
			if err != nil {
				return "", err
			}
			return strings.TrimSuffix(renderMarkdownTable(records), "\n"), nil
		})),
		NewTextUnit(Meta{
			ID:          "query-string-to-json",
			Name:        "Query String to JSON",
			Category:    CategoryData,
			Description: "Decode a URL query string (or a full URL) into a JSON object.",
			Placeholder: "?q=go+modules&page=2&tag=a&tag=b",
		}, stringFunc(queryStringToJSON)),
		NewTextFileUnit(Meta{
			ID:          "feed-to-markdown",
			Name:        "Feed to Markdown",
			Category:    CategoryData,
			Description: "Render an RSS, Atom or JSON feed as Markdown.",
			Placeholder: "<rss version=\"2.0\"><channel><title>News</title></channel></rss>",
			AcceptTypes: ".rss,.atom,.xml,.json",
		}, func(_ context.Context, s string) (Result, error) {
			return feedToMarkdown(s)
		}, func(_ context.Context, f File, _ string) (Result, error) {
			text, _ := decodeText(f.Data, "")
			return feedToMarkdown(text)
		}),
		NewTextFileUnit(Meta{
			ID:          "feed-to-json",
			Name:        "Feed to JSON",
			Category:    CategoryData,
			Description: "Summarize an RSS, Atom or JSON feed as JSON.",
			Placeholder: "<rss version=\"2.0\"><channel><title>News</title></channel></rss>",
			AcceptTypes: ".rss,.atom,.xml,.json",
		}, func(_ context.Context, s string) (Result, error) {
			return feedToJSON(s)
		}, func(_ context.Context, f File, _ string) (Result, error) {
			text, _ := decodeText(f.Data, "")
			return feedToJSON(text)
		}),
		NewFileUnit(Meta{
			ID:              "xlsx-to-csv",
			Name:            "XLSX to CSV",
			Category:        CategoryData,
			Description:     "Export one worksheet of an Excel workbook as CSV.",
			AcceptTypes:     ".xlsx," + mimeXLSX,
			HasTextInput:    true,
			TextPlaceholder: "Sheet name or number (default: first sheet)",
		}, xlsxToCSV),
		NewFileUnit(Meta{
			ID:          "xlsx-to-json",
			Name:        "XLSX to JSON",
			Category:    CategoryData,
			Description: "Convert every worksheet of an Excel workbook to JSON objects keyed by the header row.",
			AcceptTypes: ".xlsx," + mimeXLSX,
		}, xlsxToJSON),
		NewFileUnit(Meta{
			ID:              "xls-to-csv",
			Name:            "XLS to CSV",
			Category:        CategoryData,
			Description:     "Export one worksheet of a legacy Excel 97-2003 workbook as CSV.",
			AcceptTypes:     ".xls,application/vnd.ms-excel",
			HasTextInput:    true,
			TextPlaceholder: "Sheet name or number (default: first sheet)",
		}, xlsToCSV),
		NewTextFileUnit(Meta{
			ID:          "csv-to-xlsx",
			Name:        "CSV to XLSX",
			Category:    CategoryData,
			Description: "Build an Excel workbook from CSV text or a CSV file.",
			Placeholder: "name,age\nada,36",
			AcceptTypes: ".csv,.tsv,text/csv",
		}, func(_ context.Context, s string) (Result, error) {
			return csvToXLSX(s, "data")
		}, func(_ context.Context, f File, _ string) (Result, error) {
			text, _ := decodeText(f.Data, "")
			return csvToXLSX(text, f.Name)
		}),
		NewFileUnit(Meta{
			ID:          "ipynb-to-markdown",
			Name:        "Notebook to Markdown",
			Category:    CategoryData,
			Description: "Render a Jupyter notebook's cells and text outputs as Markdown.",
			AcceptTypes: ".ipynb",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			md, err := notebookToMarkdown(f.Data)
			if err != nil {
				return nil, err
			}
			return Text(md), nil
		}),
	}
}

// checkJSON reports malformed JSON as an InputError with a line and column.
func checkJSON(s string) error {
	if strings.TrimSpace(s) == "" {
		return Invalidf("no JSON input")
	}
	if gjson.Valid(s) {
		return nil
	}
	var v any
	err := json.Unmarshal([]byte(s), &v)
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := lineColumn(s, syntaxErr.Offset)
		return Invalidf("invalid JSON at line %d, column %d: %s", line, col, syntaxErr.Error())
	}
	if err != nil {
		return Invalidf("invalid JSON: %v", err)
	}
	return Invalidf("invalid JSON")
}

func lineColumn(s string, offset int64) (int, int) {
	if offset > int64(len(s)) {
		offset = int64(len(s))
	}
	prefix := s[:offset]
	line := strings.Count(prefix, "\n") + 1
	col := int(offset) - 1 - strings.LastIndex(prefix, "\n")
	if col < 1 {
		col = 1
	}
	return line, col
}

func jsonKind(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	case v.IsBool():
		return "boolean"
	}
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	}
	return "null"
}

func prettyJSON(data []byte, sortKeys bool) string {
	out := pretty.PrettyOptions(data, &pretty.Options{
		Width:    80,
		Indent:   "  ",
		SortKeys: sortKeys,
	})
	return strings.TrimSuffix(string(out), "\n")
}

// jsonString encodes s as a JSON string literal without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func queryJSON(s string) (string, error) {
	path, doc, _ := strings.Cut(s, "\n")
	path = strings.TrimSpace(path)
	if path == "" {
		return "", Invalidf("put a path on the first line and the JSON below it")
	}
	if err := checkJSON(doc); err != nil {
		return "", err
	}
	res := gjson.Get(doc, path)
	if !res.Exists() {
		return "", Invalidf("no match for %q", path)
	}
	if res.IsObject() || res.IsArray() {
		return prettyJSON([]byte(res.Raw), false), nil
	}
	return res.String(), nil
}

func jsonToYAML(s string) (string, error) {
	if err := checkJSON(s); err != nil {
		return "", err
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(s), &node); err != nil {
		return "", invalidWrap("JSON could not be read as YAML", err)
	}
	clearStyle(&node)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode yaml: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// clearStyle switches flow and quoted nodes to the encoder's default block style.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

func yamlDocuments(s string) ([]*yaml.Node, error) {
	if strings.TrimSpace(s) == "" {
		return nil, Invalidf("no YAML input")
	}
	dec := yaml.NewDecoder(strings.NewReader(s))
	var docs []*yaml.Node
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Invalidf("invalid YAML: %v", err)
		}
		docs = append(docs, &doc)
	}
	if len(docs) == 0 {
		return nil, Invalidf("no YAML documents")
	}
	return docs, nil
}

func yamlToJSON(s string) (string, error) {
	docs, err := yamlDocuments(s)
	if err != nil {
		return "", err
	}
	var w yamlJSONWriter
	if len(docs) > 1 {
		w.b.WriteByte('[')
	}
	for i, doc := range docs {
		if i > 0 {
			w.b.WriteByte(',')
		}
		if err := w.write(doc, 0); err != nil {
			return "", err
		}
	}
	if len(docs) > 1 {
		w.b.WriteByte(']')
	}
	return prettyJSON(w.b.Bytes(), false), nil
}

// yamlJSONWriter writes YAML nodes as JSON, keeping mapping key order.
type yamlJSONWriter struct {
	b     bytes.Buffer
	nodes int
}

func (w *yamlJSONWriter) write(n *yaml.Node, depth int) error {
	if depth > maxYAMLDepth {
		return Invalidf("YAML nesting too deep")
	}
	w.nodes++
	if w.nodes > maxYAMLNodes || w.b.Len() > maxYAMLOutput {
		return Invalidf("YAML expands too much")
	}
	b := &w.b
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			b.WriteString("null")
			return nil
		}
		return w.write(n.Content[0], depth+1)
	case yaml.AliasNode:
		if n.Alias == nil {
			b.WriteString("null")
			return nil
		}
		return w.write(n.Alias, depth+1)
	case yaml.SequenceNode:
		b.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := w.write(c, depth+1); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil
	case yaml.MappingNode:
		b.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(jsonString(n.Content[i].Value))
			b.WriteByte(':')
			if err := w.write(n.Content[i+1], depth+1); err != nil {
				return err
			}
		}
		b.WriteByte('}')
		return nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return Invalidf("invalid YAML value %q: %v", n.Value, err)
		}
		out, err := marshalJSON(v)
		if err != nil {
			// NaN and infinities have no JSON form.
			out = []byte(jsonString(n.Value))
		}
		b.Write(out)
		return nil
	}
	b.WriteString("null")
	return nil
}

func parseDelimited(text string) ([][]string, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, Invalidf("no CSV data")
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, Invalidf("invalid CSV: %v", err)
	}
	return records, nil
}

// sniffDelimiter picks the most frequent candidate separator on the first line.
func sniffDelimiter(text string) rune {
	first, _, _ := strings.Cut(text, "\n")
	best, bestCount := ',', 0
	for _, r := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(first, string(r)); n > bestCount {
			best, bestCount = r, n
		}
	}
	return best
}

func headerNames(header []string) []string {
	names := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "column" + strconv.Itoa(i+1)
		}
		names[i] = h
	}
	return names
}

// recordsToJSON turns header + rows into a compact JSON array of objects.
func recordsToJSON(records [][]string) []byte {
	var b bytes.Buffer
	b.WriteByte('[')
	if len(records) > 0 {
		header := headerNames(records[0])
		for i, row := range records[1:] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('{')
			for j, key := range header {
				if j > 0 {
					b.WriteByte(',')
				}
				val := ""
				if j < len(row) {
					val = row[j]
				}
				b.WriteString(jsonString(key))
				b.WriteByte(':')
				b.WriteString(jsonString(val))
			}
			b.WriteByte('}')
		}
	}
	b.WriteByte(']')
	return b.Bytes()
}

func jsonToCSV(s string) (string, error) {
	if err := checkJSON(s); err != nil {
		return "", err
	}
	root := gjson.Parse(s)
	var rows []gjson.Result
	switch {
	case root.IsArray():
		rows = root.Array()
	case root.IsObject():
		rows = []gjson.Result{root}
	default:
		return "", Invalidf("expected an array of objects")
	}

	var columns []string
	seen := map[string]bool{}
	for _, row := range rows {
		if !row.IsObject() {
			return "", Invalidf("expected an array of objects, found %s", jsonKind(row))
		}
		row.ForEach(func(key, _ gjson.Result) bool {
			if !seen[key.String()] {
				seen[key.String()] = true
				columns = append(columns, key.String())
			}
			return true
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return "", err
	}
	for _, row := range rows {
		fields := make(map[string]string, len(columns))
		row.ForEach(func(key, value gjson.Result) bool {
			fields[key.String()] = csvField(value)
			return true
		})
		record := make([]string, len(columns))
		for i, c := range columns {
			record[i] = fields[c]
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func csvField(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	}
	return v.Raw
}

// renderMarkdownTable renders a 2D string slice as a markdown table. The first row is
// the header; short rows are padded.
func renderMarkdownTable(records [][]string) string {
	if len(records) == 0 {
		return ""
	}

	numCols := 0
	for _, row := range records {
		numCols = max(numCols, len(row))
	}

	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = escapeTableCell(row[i])
			}
			b.WriteString(" " + cell + " |")
		}
		b.WriteString("\n")
	}

	writeRow(records[0])
	b.WriteString("|")
	for i := 0; i < numCols; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range records[1:] {
		writeRow(row)
	}
	return b.String()
}

func escapeTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func queryStringToJSON(s string) (string, error) {
	q := strings.TrimSpace(s)
	if i := strings.IndexByte(q, '?'); i >= 0 {
		q = q[i+1:]
	}
	q, _, _ = strings.Cut(q, "#")
	if q == "" {
		return "", Invalidf("no query parameters")
	}
	values, err := url.ParseQuery(q)
	if err != nil {
		return "", Invalidf("invalid query string: %v", err)
	}

	var order []string
	seen := map[string]bool{}
	for _, pair := range strings.Split(q, "&") {
		key, _, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(key)
		if err != nil || seen[key] || pair == "" {
			continue
		}
		seen[key] = true
		order = append(order, key)
	}

	var b bytes.Buffer
	b.WriteByte('{')
	for i, key := range order {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(jsonString(key))
		b.WriteByte(':')
		vals := values[key]
		if len(vals) == 1 {
			b.WriteString(jsonString(vals[0]))
			continue
		}
		b.WriteByte('[')
		for j, v := range vals {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(jsonString(v))
		}
		b.WriteByte(']')
	}
	b.WriteByte('}')
	return prettyJSON(b.Bytes(), false), nil
}

func parseFeed(s string) (*gofeed.Feed, error) {
	if strings.TrimSpace(s) == "" {
		return nil, Invalidf("no feed input")
	}
	feed, err := gofeed.NewParser().ParseString(s)
	if err != nil {
		return nil, Invalidf("not a readable RSS, Atom or JSON feed: %v", err)
	}
	return feed, nil
}

func feedToMarkdown(s string) (Result, error) {
	feed, err := parseFeed(s)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if feed.Title != "" {
		fmt.Fprintf(&b, "# %s\n", feed.Title)
	}
	if feed.Description != "" {
		fmt.Fprintf(&b, "%s\n", feed.Description)
	}
	b.WriteString("\n")

	for _, item := range feed.Items {
		if item.Title != "" {
			if item.Link != "" {
				fmt.Fprintf(&b, "## [%s](%s)\n", item.Title, item.Link)
			} else {
				fmt.Fprintf(&b, "## %s\n", item.Title)
			}
		}
		if item.Published != "" {
			fmt.Fprintf(&b, "Published: %s\n\n", item.Published)
		} else if item.Updated != "" {
			fmt.Fprintf(&b, "Updated: %s\n\n", item.Updated)
		}

		content := item.Content
		if content == "" {
			content = item.Description
		}
		if content != "" {
			if strings.Contains(content, "<") && strings.Contains(content, ">") {
				if md, err := convertHTMLToMarkdown(content); err == nil {
					content = md
				}
			}
			b.WriteString(content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return Text(normalizeOutput(b.String())), nil
}

type feedSummary struct {
	Title       string            `json:"title"`
	Link        string            `json:"link,omitempty"`
	Description string            `json:"description,omitempty"`
	Updated     string            `json:"updated,omitempty"`
	FeedType    string            `json:"feedType"`
	Items       []feedItemSummary `json:"items"`
}

type feedItemSummary struct {
	Title     string `json:"title"`
	Link      string `json:"link,omitempty"`
	Published string `json:"published,omitempty"`
	Author    string `json:"author,omitempty"`
	GUID      string `json:"guid,omitempty"`
}

func feedToJSON(s string) (Result, error) {
	feed, err := parseFeed(s)
	if err != nil {
		return nil, err
	}
	sum := feedSummary{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Updated:     feed.Updated,
		FeedType:    feed.FeedType,
		Items:       make([]feedItemSummary, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		is := feedItemSummary{
			Title:     item.Title,
			Link:      item.Link,
			Published: item.Published,
			GUID:      item.GUID,
		}
		if item.Author != nil {
			is.Author = item.Author.Name
		}
		sum.Items = append(sum.Items, is)
	}
	out, err := marshalJSON(sum)
	if err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	return Text(prettyJSON(out, false)), nil
}

// pickSheet resolves a sheet selector (name, or 1-based number) against names.
func pickSheet(names []string, selector string) (string, int, error) {
	if len(names) == 0 {
		return "", 0, Invalidf("workbook has no sheets")
	}
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return names[0], 0, nil
	}
	for i, n := range names {
		if strings.EqualFold(n, selector) {
			return n, i, nil
		}
	}
	if n, err := strconv.Atoi(selector); err == nil && n >= 1 && n <= len(names) {
		return names[n-1], n - 1, nil
	}
	return "", 0, Invalidf("no sheet %q (sheets: %s)", selector, strings.Join(names, ", "))
}

func writeCSV(rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func openWorkbook(f File) (*excelize.File, error) {
	wb, err := excelize.OpenReader(f.Reader())
	if err != nil {
		return nil, Invalidf("not a readable XLSX workbook: %v", err)
	}
	return wb, nil
}

func xlsxToCSV(_ context.Context, f File, aux string) (Result, error) {
	wb, err := openWorkbook(f)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheet, _, err := pickSheet(wb.GetSheetList(), aux)
	if err != nil {
		return nil, err
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Diagnosticf("sheet %s is empty", sheet), nil
	}
	out, err := writeCSV(rows)
	if err != nil {
		return nil, err
	}
	return Text(out), nil
}

func xlsxToJSON(_ context.Context, f File, _ string) (Result, error) {
	wb, err := openWorkbook(f)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	var b bytes.Buffer
	b.WriteByte('{')
	for i, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(jsonString(sheet))
		b.WriteByte(':')
		b.Write(recordsToJSON(rows))
	}
	b.WriteByte('}')
	return Text(prettyJSON(b.Bytes(), false)), nil
}

func xlsToCSV(_ context.Context, f File, aux string) (res Result, err error) {
	// The xls reader panics on some truncated workbooks.
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, Invalidf("not a readable XLS workbook")
		}
	}()

	wb, err := xls.OpenReader(f.Reader(), "utf-8")
	if err != nil {
		return nil, Invalidf("not a readable XLS workbook: %v", err)
	}

	var names []string
	for i := 0; i < wb.NumSheets(); i++ {
		name := ""
		if sheet := wb.GetSheet(i); sheet != nil {
			name = sheet.Name
		}
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		names = append(names, name)
	}
	name, idx, err := pickSheet(names, aux)
	if err != nil {
		return nil, err
	}
	sheet := wb.GetSheet(idx)
	if sheet == nil {
		return Diagnosticf("sheet %s is empty", name), nil
	}

	var rows [][]string
	for rowIdx := 0; rowIdx <= int(sheet.MaxRow); rowIdx++ {
		row := sheet.Row(rowIdx)
		if row == nil {
			continue
		}
		var cells []string
		for colIdx := 0; colIdx < row.LastCol(); colIdx++ {
			cells = append(cells, row.Col(colIdx))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return Diagnosticf("sheet %s is empty", name), nil
	}
	out, err := writeCSV(rows)
	if err != nil {
		return nil, err
	}
	return Text(out), nil
}

func csvToXLSX(text, name string) (Result, error) {
	records, err := parseDelimited(text)
	if err != nil {
		return nil, err
	}

	wb := excelize.NewFile()
	defer wb.Close()
	const sheet = "Sheet1"
	for i, row := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			// Header cells stay text; numeric data cells become numbers.
			if n, err := strconv.ParseFloat(v, 64); err == nil && i > 0 {
				values[j] = n
			} else {
				values[j] = v
			}
		}
		if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return Artifact(outputName(name, "data", ".xlsx"), mimeXLSX, buf.Bytes(),
		fmt.Sprintf("%d rows", len(records))), nil
}
