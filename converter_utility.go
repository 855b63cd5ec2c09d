package anyconvert

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	lorem "github.com/bozaro/golorem"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/ulikunitz/xz"

	"github.com/nicholasgasior/anyconvert/internal/ooxml"
)

const (
	// maxDecompressed bounds the output of the decompression units.
	maxDecompressed = 256 << 20

	passwordLength  = 20
	passwordLower   = "abcdefghijkmnopqrstuvwxyz"
	passwordUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordDigits  = "23456789"
	passwordSymbols = "!@#$%^&*()-_=+[]{}?"
	loremParagraphs = 3
	maxZipListing   = 1000
	millisThreshold = 100_000_000_000 // larger unix values are read as milliseconds

	mimeGzip = "application/gzip"
	mimeXZ   = "application/x-xz"
	mimeZip  = "application/zip"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"01/02/2006",
}

func utilityUnits(env Env) []Unit {
	return []Unit{
		NewTextUnit(Meta{
			ID:          "uuid-v4",
			Name:        "UUID v4",
			Category:    CategoryUtility,
			Description: "Generate a random (version 4) UUID.",
			IsGenerator: true,
		}, func(context.Context, string) (Result, error) {
			r, err := env.random()
			if err != nil {
				return nil, err
			}
			id, err := uuid.NewRandomFromReader(r)
			if err != nil {
				return nil, &CapabilityError{Capability: "secure random source", Err: err}
			}
			return Text(id.String()), nil
		}),
		NewTextUnit(Meta{
			ID:          "uuid-v7",
			Name:        "UUID v7",
			Category:    CategoryUtility,
			Description: "Generate a time-ordered (version 7) UUID.",
			IsGenerator: true,
		}, func(context.Context, string) (Result, error) {
			r, err := env.random()
			if err != nil {
				return nil, err
			}
			id, err := newV7(r, env.Clock.Now())
			if err != nil {
				return nil, &CapabilityError{Capability: "secure random source", Err: err}
			}
			return Text(id.String()), nil
		}),
		NewTextUnit(Meta{
			ID:          "uuid-inspect",
			Name:        "UUID Inspect",
			Category:    CategoryUtility,
			Description: "Show the version, variant and embedded timestamp of a UUID.",
			Placeholder: "018f3f6e-7c2a-7d4e-9b1a-2f5c3d4e5f60",
		}, stringFunc(inspectUUID)),
		NewTextUnit(Meta{
			ID:          "password-generate",
			Name:        "Password Generator",
			Category:    CategoryUtility,
			Description: "Generate a 20-character password with upper and lower case letters, digits and symbols.",
			IsGenerator: true,
		}, func(context.Context, string) (Result, error) {
			pw, err := generatePassword(env, passwordLength)
			if err != nil {
				return nil, err
			}
			return Text(pw), nil
		}),
		NewTextUnit(Meta{
			ID:          "lorem-ipsum",
			Name:        "Lorem Ipsum",
			Category:    CategoryUtility,
			Description: "Generate three paragraphs of placeholder text.",
			IsGenerator: true,
		}, func(context.Context, string) (Result, error) {
			// golorem seeds itself from the wall clock; output varies per call.
			gen := lorem.New()
			paras := make([]string, loremParagraphs)
			for i := range paras {
				paras[i] = gen.Paragraph(3, 6)
			}
			return Text(strings.Join(paras, "\n\n")), nil
		}),
		NewTextUnit(Meta{
			ID:          "timestamp-now",
			Name:        "Current Timestamp",
			Category:    CategoryUtility,
			Description: "Show the current time as Unix seconds, milliseconds, ISO 8601 and RFC 1123.",
			IsGenerator: true,
		}, func(context.Context, string) (Result, error) {
			now := env.Clock.Now().UTC()
			return Text(fmt.Sprintf("Unix: %d\nUnix ms: %d\nISO 8601: %s\nRFC 1123: %s",
				now.Unix(), now.UnixMilli(), now.Format(time.RFC3339), now.Format(time.RFC1123))), nil
		}),
		NewTextUnit(Meta{
			ID:          "unix-to-date",
			Name:        "Unix Time to Date",
			Category:    CategoryUtility,
			Description: "Convert a Unix timestamp (seconds or milliseconds) to a date.",
			Placeholder: "1700000000",
		}, stringFunc(func(s string) (string, error) {
			return unixToDate(s, env.Clock.Now())
		})),
		NewTextUnit(Meta{
			ID:          "date-to-unix",
			Name:        "Date to Unix Time",
			Category:    CategoryUtility,
			Description: "Convert a date (ISO 8601, RFC 1123 and common formats, UTC unless given) to a Unix timestamp.",
			Placeholder: "2024-03-15T12:00:00Z",
		}, stringFunc(dateToUnix)),
		NewFileUnit(Meta{
			ID:          "file-type-detect",
			Name:        "Detect File Type",
			Category:    CategoryUtility,
			Description: "Identify a file's real type from its content (magic numbers).",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			m := mimetype.Detect(f.Data)
			var chain []string
			for p := m.Parent(); p != nil; p = p.Parent() {
				chain = append(chain, p.String())
			}
			out := fmt.Sprintf("MIME type: %s\nExtension: %s", m.String(), orNone(m.Extension()))
			if len(chain) > 0 {
				out += "\nKind of: " + strings.Join(chain, " → ")
			}
			return Text(out), nil
		}),
		NewFileUnit(Meta{
			ID:          "file-info",
			Name:        "File Info",
			Category:    CategoryUtility,
			Description: "Show name, size, detected type and SHA-256 of a file.",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			mime := f.MIMEType
			if mime == "" {
				mime = detectMIMEType(f.Data, strings.ToLower(path.Ext(f.Name)))
			}
			return Text(fmt.Sprintf("Name: %s\nSize: %s (%d bytes)\nType: %s\nSHA-256: %s",
				orNone(f.Name), humanBytes(f.Size()), f.Size(), mime, digestHex("sha256", f.Data))), nil
		}),
		NewFileUnit(Meta{
			ID:          "encoding-detect",
			Name:        "Detect Text Encoding",
			Category:    CategoryUtility,
			Description: "Guess the character encoding and language of a text file.",
			AcceptTypes: "text/*,.txt,.csv,.srt,.md",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			if len(f.Data) == 0 {
				return nil, Invalidf("file is empty")
			}
			charset, lang, confidence, err := detectCharset(f.Data)
			if err != nil {
				return Diagnosticf("encoding not recognized"), nil
			}
			out := fmt.Sprintf("Encoding: %s\nConfidence: %d%%", charset, confidence)
			if lang != "" {
				out += "\nLanguage: " + lang
			}
			return Text(out), nil
		}),
		NewFileUnit(Meta{
			ID:          "gzip-compress",
			Name:        "Gzip Compress",
			Category:    CategoryUtility,
			Description: "Compress a file with gzip.",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			var buf bytes.Buffer
			zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
			if err != nil {
				return nil, fmt.Errorf("gzip: %w", err)
			}
			if f.Name != "" {
				zw.Name = path.Base(f.Name)
			}
			if _, err := zw.Write(f.Data); err != nil {
				return nil, fmt.Errorf("gzip: %w", err)
			}
			if err := zw.Close(); err != nil {
				return nil, fmt.Errorf("gzip: %w", err)
			}
			return Artifact(orDefault(path.Base(f.Name), "file")+".gz", mimeGzip, buf.Bytes(),
				compressionInfo(f.Size(), int64(buf.Len()))), nil
		}),
		NewFileUnit(Meta{
			ID:          "gzip-decompress",
			Name:        "Gzip Decompress",
			Category:    CategoryUtility,
			Description: "Decompress a .gz file.",
			AcceptTypes: ".gz,.tgz," + mimeGzip,
		}, func(_ context.Context, f File, _ string) (Result, error) {
			zr, err := gzip.NewReader(f.Reader())
			if err != nil {
				return nil, Invalidf("not a gzip file")
			}
			defer zr.Close()
			data, err := readBounded(zr)
			if err != nil {
				return nil, err
			}
			name := zr.Name
			if name == "" {
				name = strings.TrimSuffix(path.Base(f.Name), path.Ext(f.Name))
			}
			return decompressedArtifact(name, data), nil
		}),
		NewFileUnit(Meta{
			ID:          "xz-compress",
			Name:        "XZ Compress",
			Category:    CategoryUtility,
			Description: "Compress a file with xz (LZMA2).",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			var buf bytes.Buffer
			xw, err := xz.NewWriter(&buf)
			if err != nil {
				return nil, fmt.Errorf("xz: %w", err)
			}
			if _, err := xw.Write(f.Data); err != nil {
				return nil, fmt.Errorf("xz: %w", err)
			}
			if err := xw.Close(); err != nil {
				return nil, fmt.Errorf("xz: %w", err)
			}
			return Artifact(orDefault(path.Base(f.Name), "file")+".xz", mimeXZ, buf.Bytes(),
				compressionInfo(f.Size(), int64(buf.Len()))), nil
		}),
		NewFileUnit(Meta{
			ID:          "xz-decompress",
			Name:        "XZ Decompress",
			Category:    CategoryUtility,
			Description: "Decompress a .xz file.",
			AcceptTypes: ".xz,.txz," + mimeXZ,
		}, func(_ context.Context, f File, _ string) (Result, error) {
			xr, err := xz.NewReader(f.Reader())
			if err != nil {
				return nil, Invalidf("not an xz file")
			}
			data, err := readBounded(xr)
			if err != nil {
				return nil, err
			}
			name := strings.TrimSuffix(path.Base(f.Name), path.Ext(f.Name))
			return decompressedArtifact(name, data), nil
		}),
		NewMultiFileUnit(Meta{
			ID:          "zip-create",
			Name:        "Create ZIP",
			Category:    CategoryUtility,
			Description: "Bundle the selected files into a ZIP archive.",
		}, createZip),
		NewFileUnit(Meta{
			ID:          "zip-list",
			Name:        "List ZIP Contents",
			Category:    CategoryUtility,
			Description: "List the entries of a ZIP archive with sizes and dates.",
			AcceptTypes: ".zip," + mimeZip,
		}, listZip),
	}
}

func orNone(s string) string {
	return orDefault(s, "(none)")
}

func orDefault(s, def string) string {
	if s == "" || s == "." || s == "/" {
		return def
	}
	return s
}

// newV7 builds a version 7 UUID stamped with now's Unix milliseconds.
func newV7(r io.Reader, now time.Time) (uuid.UUID, error) {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return uuid.Nil, err
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(now.UnixMilli()))
	copy(id[:6], ts[2:])
	id[6] = id[6]&0x0f | 0x70
	return id, nil
}

func inspectUUID(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", Invalidf("not a UUID: %v", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "UUID: %s\nVersion: %d\nVariant: %s", id, id.Version(), id.Variant())
	switch id.Version() {
	case 1, 2, 6:
		sec, nsec := id.Time().UnixTime()
		fmt.Fprintf(&b, "\nTimestamp: %s", time.Unix(sec, nsec).UTC().Format(time.RFC3339Nano))
	case 7:
		ms := int64(binary.BigEndian.Uint64(append(make([]byte, 2), id[:6]...)))
		fmt.Fprintf(&b, "\nTimestamp: %s", time.UnixMilli(ms).UTC().Format(time.RFC3339Nano))
	}
	if id == uuid.Nil {
		b.WriteString("\nNil UUID")
	}
	return b.String(), nil
}

// generatePassword draws one character of every class, fills the rest from the union and
// shuffles the result.
func generatePassword(env Env, length int) (string, error) {
	classes := []string{passwordLower, passwordUpper, passwordDigits, passwordSymbols}
	all := strings.Join(classes, "")
	out := make([]byte, 0, length)
	pick := func(set string) error {
		i, err := env.randIntn(len(set))
		if err != nil {
			return err
		}
		out = append(out, set[i])
		return nil
	}
	for _, c := range classes {
		if err := pick(c); err != nil {
			return "", err
		}
	}
	for len(out) < length {
		if err := pick(all); err != nil {
			return "", err
		}
	}
	for i := len(out) - 1; i > 0; i-- {
		j, err := env.randIntn(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func unixToDate(s string, now time.Time) (string, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", Invalidf("not a Unix timestamp: %q", strings.TrimSpace(s))
	}
	unit := "seconds"
	if math.Abs(v) >= millisThreshold {
		v /= 1000
		unit = "milliseconds"
	}
	if math.Abs(v) > 1e11 {
		return "", Invalidf("timestamp out of range")
	}
	sec, frac := math.Modf(v)
	t := time.Unix(int64(sec), int64(frac*1e9)).UTC()
	return fmt.Sprintf("UTC: %s\nRFC 1123: %s\nRead as: %s\nRelative: %s",
		t.Format(time.RFC3339), t.Format(time.RFC1123), unit, relativeTime(t, now)), nil
}

func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	suffix := "ago"
	if d < 0 {
		d = -d
		suffix = "from now"
	}
	var amount int64
	var unit string
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		amount, unit = int64(d/time.Minute), "minute"
	case d < 24*time.Hour:
		amount, unit = int64(d/time.Hour), "hour"
	case d < 365*24*time.Hour:
		amount, unit = int64(d/(24*time.Hour)), "day"
	default:
		amount, unit = int64(d/(365*24*time.Hour)), "year"
	}
	if amount != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s %s", amount, unit, suffix)
}

func dateToUnix(s string) (string, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return "", Invalidf("no date")
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, in)
		if err != nil {
			continue
		}
		return fmt.Sprintf("Unix: %d\nUnix ms: %d\nUTC: %s", t.Unix(), t.UnixMilli(), t.UTC().Format(time.RFC3339)), nil
	}
	return "", Invalidf("unrecognized date %q (try 2024-03-15T12:00:00Z)", in)
}

func readBounded(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxDecompressed+1))
	if err != nil {
		return nil, Invalidf("corrupt archive: %v", err)
	}
	if len(data) > maxDecompressed {
		return nil, Invalidf("decompressed data exceeds %s", humanBytes(maxDecompressed))
	}
	return data, nil
}

func decompressedArtifact(name string, data []byte) *ArtifactResult {
	name = orDefault(path.Base(name), "decompressed")
	return Artifact(name, mimetype.Detect(data).String(), data, fmt.Sprintf("%s decompressed", humanBytes(int64(len(data)))))
}

func compressionInfo(before, after int64) string {
	if before == 0 {
		return fmt.Sprintf("%s compressed", humanBytes(after))
	}
	return fmt.Sprintf("%s → %s (%.1f%%)", humanBytes(before), humanBytes(after), float64(after)*100/float64(before))
}

func createZip(_ context.Context, files []File, _ string) (Result, error) {
	if len(files) == 0 {
		return nil, Invalidf("no files to archive")
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	used := map[string]bool{}
	var total int64
	for i, f := range files {
		base := orDefault(path.Base(strings.ReplaceAll(f.Name, "\\", "/")), fmt.Sprintf("file-%d", i+1))
		name := base
		for n := 1; used[name]; n++ {
			ext := path.Ext(base)
			name = fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(base, ext), n, ext)
		}
		used[name] = true
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip %s: %w", name, err)
		}
		total += f.Size()
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	return Artifact("archive.zip", mimeZip, buf.Bytes(),
		fmt.Sprintf("%d files, %s", len(files), compressionInfo(total, int64(buf.Len())))), nil
}

func listZip(_ context.Context, f File, _ string) (Result, error) {
	zr, err := ooxml.Open(f.Data)
	if err != nil {
		return nil, Invalidf("not a ZIP archive")
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Size\tModified\tName")
	var total uint64
	for i, zf := range zr.File {
		if i == maxZipListing {
			fmt.Fprintf(tw, "\t\t... and %d more\n", len(zr.File)-maxZipListing)
			break
		}
		size := humanBytes(int64(zf.UncompressedSize64))
		if zf.FileInfo().IsDir() {
			size = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", size, zf.Modified.UTC().Format("2006-01-02 15:04"), zf.Name)
		total += zf.UncompressedSize64
	}
	if err := tw.Flush(); err != nil {
		return nil, err
	}
	fmt.Fprintf(&b, "\n%d entries, %s uncompressed", len(zr.File), humanBytes(int64(total)))
	return Text(b.String()), nil
}
