package anyconvert

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const maxDataURLLength = 64 << 20

func mediaUnits() []Unit {
	return []Unit{
		NewFileUnit(Meta{
			ID:           "file-to-data-url",
			Name:         "File to Data URL",
			Category:     CategoryMedia,
			Description:  "Encode any file as a data: URL with its detected MIME type.",
			AcceptTypes:  "*",
			ShowsPreview: true,
		}, func(_ context.Context, f File, _ string) (Result, error) {
			mime := f.MIMEType
			if mime == "" {
				mime = mimetype.Detect(f.Data).String()
			}
			return Text(Artifact(f.Name, strings.ReplaceAll(mime, " ", ""), f.Data, "").URL()), nil
		}),
		NewTextUnit(Meta{
			ID:               "data-url-to-file",
			Name:             "Data URL to File",
			Category:         CategoryMedia,
			Description:      "Decode a data: URL back into a downloadable file.",
			Placeholder:      "data:text/plain;base64,SGVsbG8sIFdvcmxkIQ==",
			IsMediaConverter: true,
			ShowsPreview:     true,
		}, func(_ context.Context, s string) (Result, error) {
			return decodeDataURL(s)
		}),
		NewFileUnit(Meta{
			ID:          "wav-info",
			Name:        "WAV Info",
			Category:    CategoryMedia,
			Description: "Read the format, channels, sample rate and duration of a WAV file.",
			AcceptTypes: ".wav,audio/wav,audio/x-wav",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			info, err := parseWAV(f.Data)
			if err != nil {
				return nil, err
			}
			return Text(info.String()), nil
		}),
	}
}

// decodeDataURL parses data:[<mediatype>][;base64],<data> as described in RFC 2397.
func decodeDataURL(s string) (*ArtifactResult, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxDataURLLength {
		return nil, Invalidf("data URL too long")
	}
	if len(s) < 5 || !strings.EqualFold(s[:5], "data:") {
		return nil, Invalidf("not a data URL (must start with data:)")
	}
	header, payload, ok := strings.Cut(s[5:], ",")
	if !ok {
		return nil, Invalidf("data URL has no comma before the payload")
	}

	params := strings.Split(header, ";")
	mime := strings.ToLower(strings.TrimSpace(params[0]))
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		var err error
		data, err = base64.StdEncoding.DecodeString(stripSpace(payload))
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(stripSpace(payload), "="))
		}
		if err != nil {
			return nil, Invalidf("invalid base64 payload")
		}
	} else {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return nil, Invalidf("invalid percent-encoding in payload")
		}
		data = []byte(text)
	}

	detected := mimetype.Detect(data)
	if mime == "" {
		if isBase64 {
			mime = detected.String()
		} else {
			mime = "text/plain;charset=US-ASCII"
		}
	}
	ext := detected.Extension()
	if m := mimetype.Lookup(strings.SplitN(mime, ";", 2)[0]); m != nil {
		ext = m.Extension()
	}
	if ext == "" {
		ext = ".bin"
	}
	return Artifact("file"+ext, mime, data, humanBytes(int64(len(data)))), nil
}

type wavInfo struct {
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BitsPerSample uint16
	DataSize      uint32
}

func (w wavInfo) formatName() string {
	switch w.Format {
	case 1:
		return "PCM"
	case 3:
		return "IEEE float"
	case 6:
		return "A-law"
	case 7:
		return "μ-law"
	case 0xFFFE:
		return "Extensible"
	}
	return fmt.Sprintf("0x%04x", w.Format)
}

func (w wavInfo) channelName() string {
	switch w.Channels {
	case 1:
		return "1 (mono)"
	case 2:
		return "2 (stereo)"
	}
	return fmt.Sprint(w.Channels)
}

func (w wavInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Format: %s\n", w.formatName())
	fmt.Fprintf(&b, "Channels: %s\n", w.channelName())
	fmt.Fprintf(&b, "Sample rate: %d Hz\n", w.SampleRate)
	fmt.Fprintf(&b, "Bit depth: %d-bit\n", w.BitsPerSample)
	if w.ByteRate > 0 {
		secs := float64(w.DataSize) / float64(w.ByteRate)
		fmt.Fprintf(&b, "Duration: %d:%06.3f\n", int(secs)/60, secs-float64(int(secs)/60*60))
	}
	fmt.Fprintf(&b, "Audio data: %s", humanBytes(int64(w.DataSize)))
	return b.String()
}

// parseWAV walks the RIFF chunk list for the fmt and data chunks.
func parseWAV(data []byte) (wavInfo, error) {
	var info wavInfo
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return info, Invalidf("not a WAV file (missing RIFF/WAVE header)")
	}
	var haveFmt, haveData bool
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := data[off+8:]
		if size < 0 || size > len(body) {
			if id != "data" {
				return info, Invalidf("truncated %q chunk", strings.TrimSpace(id))
			}
			// Streamed recordings often leave the data size unset.
			size = len(body)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return info, Invalidf("fmt chunk too short")
			}
			info.Format = binary.LittleEndian.Uint16(body[0:2])
			info.Channels = binary.LittleEndian.Uint16(body[2:4])
			info.SampleRate = binary.LittleEndian.Uint32(body[4:8])
			info.ByteRate = binary.LittleEndian.Uint32(body[8:12])
			info.BitsPerSample = binary.LittleEndian.Uint16(body[14:16])
			if info.Format == 0xFFFE && size >= 26 {
				info.Format = binary.LittleEndian.Uint16(body[24:26])
			}
			haveFmt = true
		case "data":
			info.DataSize = uint32(size)
			haveData = true
		}
		off += 8 + size + size%2
	}
	if !haveFmt {
		return info, Invalidf("WAV file has no fmt chunk")
	}
	if !haveData {
		return info, Invalidf("WAV file has no data chunk")
	}
	return info, nil
}
