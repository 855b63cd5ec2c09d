package anyconvert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextUnits(t *testing.T) {
	tk, _ := newTestToolkit(t)

	tests := []struct {
		id    string
		input string
		want  string
	}{
		{"uppercase", "Straße", "STRASSE"},
		{"lowercase", "HELLO World", "hello world"},
		{"title-case", "the quick brown fox", "The Quick Brown Fox"},
		{"camel-case", "user account id", "userAccountId"},
		{"camel-case", "HTTP_server-config", "httpServerConfig"},
		{"snake-case", "userAccountID", "user_account_id"},
		{"snake-case", "parseHTTPResponse2", "parse_http_response2"},
		{"kebab-case", "HTTPServer", "http-server"},
		{"kebab-case", "User Account ID", "user-account-id"},
		{"reverse", "stressed", "desserts"},
		{"reverse", "a\u00f1b", "b\u00f1a"},
		{"word-count", "The quick brown fox.", "Words: 4\nCharacters: 20\nCharacters (no spaces): 17\nLines: 1\nBytes: 20"},
		{"word-count", "\u00e9\nb\n", "Words: 2\nCharacters: 4\nCharacters (no spaces): 2\nLines: 2\nBytes: 5"},
		{"sort-lines", "pear\napple\nBanana", "apple\nBanana\npear"},
		{"dedupe-lines", "a\nb\na\nc\nb", "a\nb\nc"},
		{"trim-lines", "  one  \n\ttwo\t", "one\ntwo"},
		{"remove-accents", "Crème brûlée à la façon", "Creme brulee a la facon"},
		{"normalize-nfc", "e\u0301", "\u00e9"},
		{"normalize-nfd", "\u00e9", "e\u0301"},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, convertText(t, tk, tt.id, tt.input))
		})
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"HTTPServer", []string{"HTTP", "Server"}},
		{"userID", []string{"user", "ID"}},
		{"v2Beta", []string{"v2", "Beta"}},
		{"  a--b__c ", []string{"a", "b", "c"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitWords(tt.in), tt.in)
	}
}

func TestCharsetDecode(t *testing.T) {
	tk, _ := newTestToolkit(t)

	latin := File{Name: "menu.txt", Data: []byte("caf\xe9 cr\xe8me")}
	assert.Equal(t, "café crème", fileText(t, convertFile(t, tk, "charset-decode", latin, "windows-1252")))
	assert.Equal(t, "café crème", fileText(t, convertFile(t, tk, "charset-decode", latin, "ISO-8859-1")))

	ascii := File{Name: "plain.txt", Data: []byte("plain text")}
	assert.Equal(t, "plain text", fileText(t, convertFile(t, tk, "charset-decode", ascii, "")))

	assert.Equal(t, `(unknown charset "klingon")`,
		diagnostic(t, convertFile(t, tk, "charset-decode", latin, "klingon")))
}

func TestLookupEncoding(t *testing.T) {
	for _, name := range []string{"UTF-8", "latin1", "Windows-1252", "shift_jis", "EUC-KR", "GB18030", "Big5", "utf-16le"} {
		assert.NotNil(t, lookupEncoding(name), name)
	}
	assert.Nil(t, lookupEncoding("ebcdic"))
}

func TestDetectLanguage(t *testing.T) {
	tk, _ := newTestToolkit(t)

	src := File{Name: "main.go", Data: []byte("package main\n\nfunc main() {}\n")}
	assert.Equal(t, "Go", fileText(t, convertFile(t, tk, "detect-language", src, "")))

	py := File{Name: "script.py", Data: []byte("def hello():\n    print('hi')\n")}
	assert.Equal(t, "Python", fileText(t, convertFile(t, tk, "detect-language", py, "")))

	assert.Equal(t, "(no source code)", diagnostic(t, run(t, tk, "detect-language", Input{Text: "  \n"})))
	bin := File{Name: "blob", Data: []byte{0x7f, 'E', 'L', 'F', 0, 0, 0, 1}}
	assert.Equal(t, "(content looks binary)", diagnostic(t, convertFile(t, tk, "detect-language", bin, "")))
}
