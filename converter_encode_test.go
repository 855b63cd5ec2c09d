package anyconvert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeUnits(t *testing.T) {
	tk, _ := newTestToolkit(t)

	tests := []struct {
		id    string
		input string
		want  string
	}{
		{"base64-encode", "Hello, world!", "SGVsbG8sIHdvcmxkIQ=="},
		{"base64-encode", "", ""},
		{"base64-decode", "SGVsbG8sIHdvcmxkIQ==", "Hello, world!"},
		{"base64-decode", "SGVsbG8sIHdvcmxkIQ", "Hello, world!"},
		{"base64-decode", "SGVs\nbG8=", "Hello"},
		{"base64url-encode", "subjects?_d=1", "c3ViamVjdHM_X2Q9MQ"},
		{"base64url-decode", "c3ViamVjdHM_X2Q9MQ", "subjects?_d=1"},
		{"base32-encode", "foobar", "MZXW6YTBOI======"},
		{"base32-decode", "mzxw6ytboi======", "foobar"},
		{"hex-encode", "Hi!", "486921"},
		{"hex-decode", "48 69 21", "Hi!"},
		{"hex-decode", "0x48:0x69", "Hi"},
		{"url-encode", "a b&c=d/e", "a+b%26c%3Dd%2Fe"},
		{"url-decode", "a+b%26c%3Dd%2Fe", "a b&c=d/e"},
		{"html-entity-encode", `<a href="x">Tom & Jerry</a>`, "&lt;a href=&#34;x&#34;&gt;Tom &amp; Jerry&lt;/a&gt;"},
		{"html-entity-decode", "&lt;p&gt;caf&eacute; &#9731;&lt;/p&gt;", "<p>café ☃</p>"},
		{"binary-encode", "Hi", "01001000 01101001"},
		{"binary-decode", "01001000 01101001", "Hi"},
		{"binary-decode", "0100100001101001", "Hi"},
		{"rot13", "Hello, World", "Uryyb, Jbeyq"},
		{"morse-encode", "SOS help", "... --- ... / .... . .-.. .--."},
		{"morse-decode", "... --- ... / .... . .-.. .--.", "SOS HELP"},
		{"quoted-printable-encode", "Grüße", "Gr=C3=BC=C3=9Fe"},
		{"quoted-printable-decode", "Gr=C3=BC=C3=9Fe aus K=C3=B6ln", "Grüße aus Köln"},
		{"ascii85-encode", "Man ", "<~9jqo^~>"},
		{"ascii85-decode", "<~9jqo^BlbD-BleB1DJ+*+F(f,q~>", "Man is distinguished"},
		{"ascii85-decode", "9jqo^", "Man "},
		{"punycode-encode", "münchen.de", "xn--mnchen-3ya.de"},
		{"punycode-decode", "xn--mnchen-3ya.de", "münchen.de"},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, convertText(t, tk, tt.id, tt.input))
		})
	}
}

func TestEncodeUnits_Diagnostics(t *testing.T) {
	tk, _ := newTestToolkit(t)

	tests := []struct {
		id    string
		input string
		want  string
	}{
		{"base64-decode", "not base64!", "(invalid Base64)"},
		{"base64-decode", "/w==", "(decoded data is binary, not UTF-8 text)"},
		{"base32-decode", "1", "(invalid Base32)"},
		{"hex-decode", "zz", "(invalid hexadecimal)"},
		{"url-decode", "%zz", "(invalid percent-encoding)"},
		{"binary-decode", "0102", `(invalid binary byte "0102")`},
		{"morse-encode", "#", `('#' has no Morse code)`},
		{"morse-decode", "......", `(unknown Morse sequence "......")`},
		{"ascii85-decode", "<~v~>", "(invalid Ascii85)"},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, diagnostic(t, run(t, tk, tt.id, Input{Text: tt.input})))
		})
	}
}

func TestRot13RoundTrip(t *testing.T) {
	for _, s := range []string{"", "Hello", "The Quick Brown Fox 123!", "ümlaut"} {
		assert.Equal(t, s, rot13(rot13(s)))
	}
}

func TestFileToBase64(t *testing.T) {
	tk, _ := newTestToolkit(t)
	res := convertFile(t, tk, "file-to-base64", File{Name: "b.bin", Data: []byte{0, 1, 2, 0xff}}, "")
	assert.Equal(t, "AAEC/w==", fileText(t, res))

	assert.Equal(t, "(this converter needs a file)", diagnostic(t, run(t, tk, "file-to-base64", Input{Text: "x"})))
}
