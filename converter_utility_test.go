package anyconvert

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerators(t *testing.T) {
	tk, clock := newTestToolkit(t)
	again, _ := newTestToolkit(t)

	v4 := convertText(t, tk, "uuid-v4", "ignored")
	id, err := uuid.Parse(v4)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())
	assert.Equal(t, uuid.RFC4122, id.Variant())
	assert.Equal(t, v4, convertText(t, again, "uuid-v4", ""), "same seed, same UUID")
	assert.NotEqual(t, v4, convertText(t, tk, "uuid-v4", ""))

	clock.Advance(36 * time.Hour)
	v7 := convertText(t, tk, "uuid-v7", "")
	id, err = uuid.Parse(v7)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.Equal(t, uuid.RFC4122, id.Variant())

	// The timestamp comes from the injected clock, not the wall clock.
	stamp := clock.Now().UTC().Truncate(time.Millisecond).Format(time.RFC3339Nano)
	assert.Contains(t, convertText(t, tk, "uuid-inspect", v7), "\nTimestamp: "+stamp)
}

func TestNewV7(t *testing.T) {
	id, err := newV7(bytes.NewReader(make([]byte, 16)), time.UnixMilli(0x018f3f6e7c2a))
	require.NoError(t, err)
	assert.Equal(t, "018f3f6e-7c2a-7000-8000-000000000000", id.String())

	_, err = newV7(bytes.NewReader(nil), time.Now())
	assert.Error(t, err)
}

func TestUUIDInspect(t *testing.T) {
	tk, _ := newTestToolkit(t)

	tests := []struct {
		input string
		want  string
	}{
		{"6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			"UUID: 6ba7b810-9dad-11d1-80b4-00c04fd430c8\nVersion: 1\nVariant: RFC4122\nTimestamp: 1998-02-04T22:13:53.1511824Z"},
		{" 018F3F6E-7C2A-7D4E-9B1A-2F5C3D4E5F60 ",
			"UUID: 018f3f6e-7c2a-7d4e-9b1a-2f5c3d4e5f60\nVersion: 7\nVariant: RFC4122\nTimestamp: 2024-05-03T17:09:16.458Z"},
		{"{f47ac10b-58cc-4372-a567-0e02b2c3d479}",
			"UUID: f47ac10b-58cc-4372-a567-0e02b2c3d479\nVersion: 4\nVariant: RFC4122"},
		{"00000000-0000-0000-0000-000000000000",
			"UUID: 00000000-0000-0000-0000-000000000000\nVersion: 0\nVariant: Reserved\nNil UUID"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, convertText(t, tk, "uuid-inspect", tt.input))
		})
	}

	msg := diagnostic(t, run(t, tk, "uuid-inspect", Input{Text: "xyz"}))
	assert.True(t, strings.HasPrefix(msg, "(not a UUID: "), msg)
}

func TestPasswordGenerate(t *testing.T) {
	tk, _ := newTestToolkit(t)

	for i := 0; i < 50; i++ {
		pw := convertText(t, tk, "password-generate", "")
		require.Len(t, pw, passwordLength)
		for _, class := range []string{passwordLower, passwordUpper, passwordDigits, passwordSymbols} {
			assert.True(t, strings.ContainsAny(pw, class), "%q lacks one of %q", pw, class)
		}
		assert.False(t, strings.ContainsAny(pw, "lIO01"), pw)
	}

	t.Run("no random source", func(t *testing.T) {
		tk, _ := newTestToolkit(t, WithRandom(nil))
		assert.Equal(t, "(secure random source unavailable)", diagnostic(t, run(t, tk, "password-generate", Input{})))
	})

	t.Run("exhausted random source", func(t *testing.T) {
		tk, _ := newTestToolkit(t, WithRandom(bytes.NewReader(nil)))
		assert.Equal(t, "(secure random source unavailable)", diagnostic(t, run(t, tk, "password-generate", Input{})))
	})
}

func TestLoremIpsum(t *testing.T) {
	tk, _ := newTestToolkit(t)

	out := convertText(t, tk, "lorem-ipsum", "ignored")
	paras := strings.Split(out, "\n\n")
	require.Len(t, paras, loremParagraphs)
	for _, p := range paras {
		assert.NotEmpty(t, strings.TrimSpace(p))
		assert.NotContains(t, p, "\n")
	}
}

func TestTimestampNow(t *testing.T) {
	tk, clock := newTestToolkit(t)
	clock.Advance(90 * time.Minute)

	now := clock.Now().UTC()
	want := fmt.Sprintf("Unix: %d\nUnix ms: %d\nISO 8601: %s\nRFC 1123: %s",
		now.Unix(), now.UnixMilli(), now.Format(time.RFC3339), now.Format(time.RFC1123))
	assert.Equal(t, want, convertText(t, tk, "timestamp-now", ""))
}

func TestUnixToDate(t *testing.T) {
	tk, clock := newTestToolkit(t)
	now := clock.Now().Unix()

	format := func(sec int64, unit, rel string) string {
		ts := time.Unix(sec, 0).UTC()
		return fmt.Sprintf("UTC: %s\nRFC 1123: %s\nRead as: %s\nRelative: %s",
			ts.Format(time.RFC3339), ts.Format(time.RFC1123), unit, rel)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"just now", fmt.Sprint(now), format(now, "seconds", "just now")},
		{"hours ago", fmt.Sprint(now - 7200), format(now-7200, "seconds", "2 hours ago")},
		{"one minute ago", fmt.Sprint(now - 60), format(now-60, "seconds", "1 minute ago")},
		{"future days", fmt.Sprint(now + 3*86400 + 3600), format(now+3*86400+3600, "seconds", "3 days from now")},
		{"milliseconds", fmt.Sprint((now - 7200) * 1000), format(now-7200, "milliseconds", "2 hours ago")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertText(t, tk, "unix-to-date", tt.input))
		})
	}

	epoch := convertText(t, tk, "unix-to-date", "0")
	assert.True(t, strings.HasPrefix(epoch, "UTC: 1970-01-01T00:00:00Z\nRFC 1123: Thu, 01 Jan 1970 00:00:00 UTC\nRead as: seconds\nRelative: "), epoch)

	assert.Equal(t, `(not a Unix timestamp: "soon")`, diagnostic(t, run(t, tk, "unix-to-date", Input{Text: "soon"})))
	assert.Equal(t, "(timestamp out of range)", diagnostic(t, run(t, tk, "unix-to-date", Input{Text: "1e20"})))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5 minutes ago"},
		{now.Add(time.Hour), "1 hour from now"},
		{now.AddDate(0, 0, -1), "1 day ago"},
		{now.AddDate(-2, 0, 0), "2 years ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relativeTime(tt.t, now))
	}
}

func TestDateToUnix(t *testing.T) {
	tk, _ := newTestToolkit(t)

	noon := "Unix: 1710504000\nUnix ms: 1710504000000\nUTC: 2024-03-15T12:00:00Z"
	midnight := "Unix: 1710460800\nUnix ms: 1710460800000\nUTC: 2024-03-15T00:00:00Z"
	tests := []struct {
		input string
		want  string
	}{
		{"2024-03-15T12:00:00Z", noon},
		{"2024-03-15T14:00:00+02:00", noon},
		{"2024-03-15 12:00:00", noon},
		{"Fri, 15 Mar 2024 12:00:00 GMT", noon},
		{"2024-03-15", midnight},
		{"March 15, 2024", midnight},
		{"03/15/2024", midnight},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, convertText(t, tk, "date-to-unix", tt.input))
		})
	}

	assert.Equal(t, `(unrecognized date "15/03/2024" (try 2024-03-15T12:00:00Z))`,
		diagnostic(t, run(t, tk, "date-to-unix", Input{Text: "15/03/2024"})))
	assert.Equal(t, "(no date)", diagnostic(t, run(t, tk, "date-to-unix", Input{Text: " "})))
}

func TestFileInspection(t *testing.T) {
	tk, _ := newTestToolkit(t)
	png := testPNG(t, "pic.dat", 2, 2)

	out := fileText(t, convertFile(t, tk, "file-type-detect", png, ""))
	assert.True(t, strings.HasPrefix(out, "MIME type: image/png\nExtension: .png"), out)

	hello := File{Name: "docs/hello.txt", Data: []byte("hello")}
	out = fileText(t, convertFile(t, tk, "file-info", hello, ""))
	assert.True(t, strings.HasPrefix(out, "Name: docs/hello.txt\nSize: 5 B (5 bytes)\nType: text/plain"), out)
	assert.True(t, strings.HasSuffix(out, "\nSHA-256: 2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"), out)

	out = fileText(t, convertFile(t, tk, "file-info", File{Data: []byte{}}, ""))
	assert.True(t, strings.HasPrefix(out, "Name: (none)\nSize: 0 B (0 bytes)\n"), out)

	assert.Equal(t, "Encoding: US-ASCII\nConfidence: 100%", fileText(t, convertFile(t, tk, "encoding-detect", hello, "")))
	assert.Equal(t, "Encoding: UTF-8\nConfidence: 100%",
		fileText(t, convertFile(t, tk, "encoding-detect", File{Name: "u.txt", Data: []byte("naïve")}, "")))
	assert.Equal(t, "(file is empty)", diagnostic(t, convertFile(t, tk, "encoding-detect", File{Name: "e.txt"}, "")))
}

func TestCompressionRoundTrips(t *testing.T) {
	tk, _ := newTestToolkit(t)
	payload := []byte(strings.Repeat("hello compression!\n", 200))
	src := File{Name: "dir/notes.txt", Data: payload}

	tests := []struct {
		compress, decompress string
		ext, mime            string
	}{
		{"gzip-compress", "gzip-decompress", ".gz", "application/gzip"},
		{"xz-compress", "xz-decompress", ".xz", "application/x-xz"},
	}
	for _, tt := range tests {
		t.Run(tt.compress, func(t *testing.T) {
			packed := artifact(t, convertFile(t, tk, tt.compress, src, ""))
			assert.Equal(t, "notes.txt"+tt.ext, packed.Filename)
			assert.Equal(t, tt.mime, packed.MIMEType)
			assert.Less(t, len(packed.Data), len(payload))
			assert.True(t, strings.HasPrefix(packed.Info, "3.7 KiB → "), packed.Info)

			unpacked := artifact(t, convertFile(t, tk, tt.decompress, File{Name: packed.Filename, Data: packed.Data}, ""))
			assert.Equal(t, "notes.txt", unpacked.Filename)
			assert.Equal(t, payload, unpacked.Data)
			assert.True(t, strings.HasPrefix(unpacked.MIMEType, "text/plain"), unpacked.MIMEType)
			assert.Equal(t, "3.7 KiB decompressed", unpacked.Info)
		})
	}

	t.Run("gzip name falls back to file name", func(t *testing.T) {
		packed := artifact(t, convertFile(t, tk, "gzip-compress", File{Data: payload}, ""))
		assert.Equal(t, "file.gz", packed.Filename)
		unpacked := artifact(t, convertFile(t, tk, "gzip-decompress", File{Name: "report.csv.gz", Data: packed.Data}, ""))
		assert.Equal(t, "report.csv", unpacked.Filename)
	})

	junk := File{Name: "x.bin", Data: []byte("definitely not compressed")}
	assert.Equal(t, "(not a gzip file)", diagnostic(t, convertFile(t, tk, "gzip-decompress", junk, "")))
	assert.Equal(t, "(not an xz file)", diagnostic(t, convertFile(t, tk, "xz-decompress", junk, "")))
}

func TestCompressionInfo(t *testing.T) {
	assert.Equal(t, "20 B compressed", compressionInfo(0, 20))
	assert.Equal(t, "1000 B → 250 B (25.0%)", compressionInfo(1000, 250))
}

func TestZipCreate(t *testing.T) {
	tk, _ := newTestToolkit(t)

	res := run(t, tk, "zip-create", Input{Files: []File{
		{Name: "a.txt", Data: []byte("one")},
		{Name: `sub\a.txt`, Data: []byte("two")},
		{Name: "a.txt", Data: []byte("three")},
		{Data: []byte("four")},
	}})
	a := artifact(t, res)
	assert.Equal(t, "archive.zip", a.Filename)
	assert.Equal(t, "application/zip", a.MIMEType)
	assert.True(t, strings.HasPrefix(a.Info, "4 files, 15 B → "), a.Info)

	zr, err := zip.NewReader(bytes.NewReader(a.Data), int64(len(a.Data)))
	require.NoError(t, err)
	got := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		got[f.Name] = string(data)
	}
	assert.Equal(t, map[string]string{
		"a.txt":     "one",
		"a (1).txt": "two",
		"a (2).txt": "three",
		"file-4":    "four",
	}, got)
}

func TestZipList(t *testing.T) {
	tk, _ := newTestToolkit(t)
	mod := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range []struct{ name, body string }{
		{"a.txt", "hello"},
		{"docs/", ""},
		{"docs/b.txt", "hello world"},
	} {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: m.name, Method: zip.Deflate, Modified: mod})
		require.NoError(t, err)
		_, err = w.Write([]byte(m.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	out := fileText(t, convertFile(t, tk, "zip-list", File{Name: "a.zip", Data: buf.Bytes()}, ""))
	assert.Equal(t, "Size  Modified          Name\n"+
		"5 B   2024-03-15 12:00  a.txt\n"+
		"-     2024-03-15 12:00  docs/\n"+
		"11 B  2024-03-15 12:00  docs/b.txt\n"+
		"\n3 entries, 16 B uncompressed", out)

	assert.Equal(t, "(not a ZIP archive)",
		diagnostic(t, convertFile(t, tk, "zip-list", File{Name: "a.zip", Data: []byte("PK nope")}, "")))
}
