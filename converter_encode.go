package anyconvert

import (
	"bytes"
	"context"
	"encoding/ascii85"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"html"
	"io"
	"mime/quotedprintable"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

func encodeUnits() []Unit {
	return []Unit{
		NewTextUnit(Meta{
			ID:          "base64-encode",
			Name:        "Base64 Encode",
			Category:    CategoryEncode,
			Description: "Encode UTF-8 text as standard Base64.",
			Placeholder: "Hello, world!",
		}, pureFunc(func(s string) string {
			return base64.StdEncoding.EncodeToString([]byte(s))
		})),
		NewTextUnit(Meta{
			ID:          "base64-decode",
			Name:        "Base64 Decode",
			Category:    CategoryEncode,
			Description: "Decode standard Base64 (padded or unpadded) to text.",
			Placeholder: "SGVsbG8sIHdvcmxkIQ==",
		}, stringFunc(func(s string) (string, error) {
			return decodeBase64Text(s, base64.StdEncoding, base64.RawStdEncoding)
		})),
		NewTextUnit(Meta{
			ID:          "base64url-encode",
			Name:        "Base64URL Encode",
			Category:    CategoryEncode,
			Description: "Encode text with the URL-safe Base64 alphabet, without padding.",
			Placeholder: "subjects?_d=1",
		}, pureFunc(func(s string) string {
			return base64.RawURLEncoding.EncodeToString([]byte(s))
		})),
		NewTextUnit(Meta{
			ID:          "base64url-decode",
			Name:        "Base64URL Decode",
			Category:    CategoryEncode,
			Description: "Decode URL-safe Base64 to text.",
			Placeholder: "c3ViamVjdHM_X2Q9MQ",
		}, stringFunc(func(s string) (string, error) {
			return decodeBase64Text(s, base64.RawURLEncoding, base64.URLEncoding)
		})),
		NewTextUnit(Meta{
			ID:          "base32-encode",
			Name:        "Base32 Encode",
			Category:    CategoryEncode,
			Description: "Encode text as RFC 4648 Base32.",
			Placeholder: "foobar",
		}, pureFunc(func(s string) string {
			return base32.StdEncoding.EncodeToString([]byte(s))
		})),
		NewTextUnit(Meta{
			ID:          "base32-decode",
			Name:        "Base32 Decode",
			Category:    CategoryEncode,
			Description: "Decode RFC 4648 Base32 to text.",
			Placeholder: "MZXW6YTBOI======",
		}, stringFunc(func(s string) (string, error) {
			data, err := base32.StdEncoding.DecodeString(strings.ToUpper(stripSpace(s)))
			if err != nil {
				return "", invalidWrap("invalid Base32", err)
			}
			return bytesAsText(data)
		})),
		NewTextUnit(Meta{
			ID:          "hex-encode",
			Name:        "Hex Encode",
			Category:    CategoryEncode,
			Description: "Encode the UTF-8 bytes of the text as lowercase hexadecimal.",
			Placeholder: "Hi!",
		}, pureFunc(func(s string) string {
			return hex.EncodeToString([]byte(s))
		})),
		NewTextUnit(Meta{
			ID:          "hex-decode",
			Name:        "Hex Decode",
			Category:    CategoryEncode,
			Description: "Decode hexadecimal bytes (spaces, colons and 0x prefixes allowed) to text.",
			Placeholder: "48 69 21",
		}, stringFunc(func(s string) (string, error) {
			data, err := decodeHexLoose(s)
			if err != nil {
				return "", err
			}
			return bytesAsText(data)
		})),
		NewTextUnit(Meta{
			ID:          "url-encode",
			Name:        "URL Encode",
			Category:    CategoryEncode,
			Description: "Percent-encode text for use in a query string.",
			Placeholder: "a b&c=d/e",
		}, pureFunc(url.QueryEscape)),
		NewTextUnit(Meta{
			ID:          "url-decode",
			Name:        "URL Decode",
			Category:    CategoryEncode,
			Description: "Decode percent-encoded text.",
			Placeholder: "a+b%26c%3Dd%2Fe",
		}, stringFunc(func(s string) (string, error) {
			out, err := url.QueryUnescape(s)
			if err != nil {
				return "", invalidWrap("invalid percent-encoding", err)
			}
			return out, nil
		})),
		NewTextUnit(Meta{
			ID:          "html-entity-encode",
			Name:        "HTML Entity Encode",
			Category:    CategoryEncode,
			Description: "Escape <, >, &, ' and \" as HTML entities.",
			Placeholder: `<a href="x">Tom & Jerry</a>`,
		}, pureFunc(html.EscapeString)),
		NewTextUnit(Meta{
			ID:          "html-entity-decode",
			Name:        "HTML Entity Decode",
			Category:    CategoryEncode,
			Description: "Replace named and numeric HTML entities with their characters.",
			Placeholder: "&lt;p&gt;caf&eacute; &#9731;&lt;/p&gt;",
		}, pureFunc(html.UnescapeString)),
		NewTextUnit(Meta{
			ID:          "binary-encode",
			Name:        "Text to Binary",
			Category:    CategoryEncode,
			Description: "Write each UTF-8 byte as eight binary digits.",
			Placeholder: "Hi",
		}, pureFunc(textToBinary)),
		NewTextUnit(Meta{
			ID:          "binary-decode",
			Name:        "Binary to Text",
			Category:    CategoryEncode,
			Description: "Read space-separated groups of up to eight binary digits as bytes.",
			Placeholder: "01001000 01101001",
		}, stringFunc(binaryToText)),
		NewTextUnit(Meta{
			ID:          "rot13",
			Name:        "ROT13",
			Category:    CategoryEncode,
			Description: "Rotate Latin letters by 13 places; applying it twice restores the text.",
			Placeholder: "Hello",
		}, pureFunc(rot13)),
		NewTextUnit(Meta{
			ID:          "morse-encode",
			Name:        "Morse Encode",
			Category:    CategoryEncode,
			Description: "Encode letters, digits and common punctuation as Morse code. Words are separated by /.",
			Placeholder: "SOS HELP",
		}, stringFunc(morseEncode)),
		NewTextUnit(Meta{
			ID:          "morse-decode",
			Name:        "Morse Decode",
			Category:    CategoryEncode,
			Description: "Decode Morse code written with . and - (letters separated by spaces, words by /).",
			Placeholder: "... --- ... / .... . .-.. .--.",
		}, stringFunc(morseDecode)),
		NewTextUnit(Meta{
			ID:          "quoted-printable-encode",
			Name:        "Quoted-Printable Encode",
			Category:    CategoryEncode,
			Description: "Encode text with MIME quoted-printable encoding.",
			Placeholder: "Grüße aus Köln",
		}, stringFunc(func(s string) (string, error) {
			var buf bytes.Buffer
			w := quotedprintable.NewWriter(&buf)
			if _, err := w.Write([]byte(s)); err != nil {
				return "", err
			}
			if err := w.Close(); err != nil {
				return "", err
			}
			return buf.String(), nil
		})),
		NewTextUnit(Meta{
			ID:          "quoted-printable-decode",
			Name:        "Quoted-Printable Decode",
			Category:    CategoryEncode,
			Description: "Decode MIME quoted-printable text.",
			Placeholder: "Gr=C3=BC=C3=9Fe aus K=C3=B6ln",
		}, stringFunc(func(s string) (string, error) {
			data, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(s)))
			if err != nil {
				return "", invalidWrap("invalid quoted-printable input", err)
			}
			return bytesAsText(data)
		})),
		NewTextUnit(Meta{
			ID:          "ascii85-encode",
			Name:        "Ascii85 Encode",
			Category:    CategoryEncode,
			Description: "Encode text as Ascii85 (btoa), wrapped in <~ ~>.",
			Placeholder: "Man is distinguished",
		}, pureFunc(func(s string) string {
			dst := make([]byte, ascii85.MaxEncodedLen(len(s)))
			n := ascii85.Encode(dst, []byte(s))
			return "<~" + string(dst[:n]) + "~>"
		})),
		NewTextUnit(Meta{
			ID:          "ascii85-decode",
			Name:        "Ascii85 Decode",
			Category:    CategoryEncode,
			Description: "Decode Ascii85 text; the <~ ~> delimiters are optional.",
			Placeholder: "<~9jqo^BlbD-BleB1DJ+*+F(f,q~>",
		}, stringFunc(func(s string) (string, error) {
			s = strings.TrimSpace(s)
			s = strings.TrimSuffix(strings.TrimPrefix(s, "<~"), "~>")
			dst := make([]byte, 4*len(s)+4)
			n, _, err := ascii85.Decode(dst, []byte(s), true)
			if err != nil {
				return "", invalidWrap("invalid Ascii85", err)
			}
			return bytesAsText(dst[:n])
		})),
		NewTextUnit(Meta{
			ID:          "punycode-encode",
			Name:        "Punycode Encode (IDN)",
			Category:    CategoryEncode,
			Description: "Convert an internationalized domain name to its ASCII (xn--) form.",
			Placeholder: "münchen.de",
		}, stringFunc(func(s string) (string, error) {
			out, err := idna.ToASCII(strings.TrimSpace(s))
			if err != nil {
				return "", invalidWrap("invalid domain name", err)
			}
			return out, nil
		})),
		NewTextUnit(Meta{
			ID:          "punycode-decode",
			Name:        "Punycode Decode (IDN)",
			Category:    CategoryEncode,
			Description: "Convert an ASCII (xn--) domain name back to Unicode.",
			Placeholder: "xn--mnchen-3ya.de",
		}, stringFunc(func(s string) (string, error) {
			out, err := idna.ToUnicode(strings.TrimSpace(s))
			if err != nil {
				return "", invalidWrap("invalid punycode domain", err)
			}
			return out, nil
		})),
		NewFileUnit(Meta{
			ID:          "file-to-base64",
			Name:        "File to Base64",
			Category:    CategoryEncode,
			Description: "Encode any file as a Base64 string.",
			AcceptTypes: "*",
		}, func(_ context.Context, f File, _ string) (Result, error) {
			return Text(base64.StdEncoding.EncodeToString(f.Data)), nil
		}),
	}
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func decodeBase64Text(s string, encodings ...*base64.Encoding) (string, error) {
	s = stripSpace(s)
	var firstErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(s)
		if err == nil {
			return bytesAsText(data)
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", invalidWrap("invalid Base64", firstErr)
}

// bytesAsText refuses decoded bytes that are not text.
func bytesAsText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", Invalidf("decoded data is binary, not UTF-8 text")
	}
	return string(data), nil
}

func decodeHexLoose(s string) ([]byte, error) {
	s = strings.NewReplacer("0x", "", "0X", "", ":", "", "-", "", ",", "").Replace(s)
	s = stripSpace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, invalidWrap("invalid hexadecimal", err)
	}
	return data, nil
}

func textToBinary(s string) string {
	parts := make([]string, 0, len(s))
	for _, b := range []byte(s) {
		parts = append(parts, fmt.Sprintf("%08b", b))
	}
	return strings.Join(parts, " ")
}

func binaryToText(s string) (string, error) {
	fields := strings.Fields(s)
	if len(fields) == 1 && len(fields[0]) > 8 && len(fields[0])%8 == 0 {
		one := fields[0]
		fields = fields[:0]
		for i := 0; i < len(one); i += 8 {
			fields = append(fields, one[i:i+8])
		}
	}
	data := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 2, 8)
		if err != nil {
			return "", Invalidf("invalid binary byte %q", f)
		}
		data = append(data, byte(v))
	}
	return bytesAsText(data)
}

func rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		}
		return r
	}, s)
}

var morseTable = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".", 'F': "..-.",
	'G': "--.", 'H': "....", 'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.", 'Q': "--.-", 'R': ".-.",
	'S': "...", 'T': "-", 'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
	'.': ".-.-.-", ',': "--..--", '?': "..--..", '\'': ".----.", '!': "-.-.--",
	'/': "-..-.", '(': "-.--.", ')': "-.--.-", '&': ".-...", ':': "---...",
	';': "-.-.-.", '=': "-...-", '+': ".-.-.", '-': "-....-", '_': "..--.-",
	'"': ".-..-.", '$': "...-..-", '@': ".--.-.",
}

var morseReverse = func() map[string]rune {
	m := make(map[string]rune, len(morseTable))
	for r, code := range morseTable {
		m[code] = r
	}
	return m
}()

func morseEncode(s string) (string, error) {
	var words []string
	for _, word := range strings.Fields(strings.ToUpper(s)) {
		codes := make([]string, 0, len(word))
		for _, r := range word {
			code, ok := morseTable[r]
			if !ok {
				return "", Invalidf("%q has no Morse code", r)
			}
			codes = append(codes, code)
		}
		words = append(words, strings.Join(codes, " "))
	}
	return strings.Join(words, " / "), nil
}

func morseDecode(s string) (string, error) {
	var words []string
	for _, word := range strings.Split(s, "/") {
		var b strings.Builder
		for _, code := range strings.Fields(word) {
			r, ok := morseReverse[code]
			if !ok {
				return "", Invalidf("unknown Morse sequence %q", code)
			}
			b.WriteRune(r)
		}
		if b.Len() > 0 {
			words = append(words, b.String())
		}
	}
	return strings.Join(words, " "), nil
}
