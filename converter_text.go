package anyconvert

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-enry/go-enry/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func textUnits() []Unit {
	return []Unit{
		textUnitOf("uppercase", "UPPERCASE", "Convert text to upper case, with full Unicode case mapping.", "Straße",
			func(s string) string { return cases.Upper(language.Und).String(s) }),
		textUnitOf("lowercase", "lowercase", "Convert text to lower case.", "HELLO World",
			func(s string) string { return cases.Lower(language.Und).String(s) }),
		textUnitOf("title-case", "Title Case", "Capitalize the first letter of every word.", "the quick brown fox",
			func(s string) string { return cases.Title(language.English).String(s) }),
		textUnitOf("camel-case", "camelCase", "Join words as camelCase.", "user account id",
			func(s string) string { return joinWords(s, "", true) }),
		textUnitOf("snake-case", "snake_case", "Join lowercase words with underscores.", "userAccountID",
			func(s string) string { return strings.ToLower(joinWords(s, "_", false)) }),
		textUnitOf("kebab-case", "kebab-case", "Join lowercase words with dashes.", "User Account ID",
			func(s string) string { return strings.ToLower(joinWords(s, "-", false)) }),
		textUnitOf("reverse", "Reverse Text", "Reverse the characters of the text.", "stressed",
			reverseRunes),
		textUnitOf("word-count", "Word Count", "Count words, characters, lines and bytes.", "The quick brown fox.",
			wordCount),
		textUnitOf("sort-lines", "Sort Lines", "Sort lines alphabetically using English collation.", "pear\napple\nBanana",
			func(s string) string {
				lines := splitLines(s)
				collate.New(language.English, collate.IgnoreCase).SortStrings(lines)
				return strings.Join(lines, "\n")
			}),
		textUnitOf("dedupe-lines", "Remove Duplicate Lines", "Drop repeated lines, keeping the first occurrence.", "a\nb\na\nc\nb",
			func(s string) string {
				seen := map[string]bool{}
				var out []string
				for _, line := range splitLines(s) {
					if !seen[line] {
						seen[line] = true
						out = append(out, line)
					}
				}
				return strings.Join(out, "\n")
			}),
		textUnitOf("trim-lines", "Trim Lines", "Strip leading and trailing whitespace from every line.", "  one  \n\ttwo\t",
			func(s string) string {
				lines := splitLines(s)
				for i, line := range lines {
					lines[i] = strings.TrimSpace(line)
				}
				return strings.Join(lines, "\n")
			}),
		textUnitOf("remove-accents", "Remove Accents", "Strip diacritical marks (é → e).", "Crème brûlée à la façon",
			removeAccents),
		textUnitOf("normalize-nfc", "Normalize NFC", "Apply Unicode canonical composition (NFC).", "é",
			norm.NFC.String),
		textUnitOf("normalize-nfd", "Normalize NFD", "Apply Unicode canonical decomposition (NFD).", "é",
			norm.NFD.String),
		NewFileUnit(Meta{
			ID:              "charset-decode",
			Name:            "Decode Charset",
			Category:        CategoryText,
			Description:     "Decode a text file from a legacy charset to UTF-8. The charset is detected unless given.",
			AcceptTypes:     "text/*,.txt,.csv,.srt,.md",
			HasTextInput:    true,
			TextPlaceholder: "Charset, e.g. windows-1252 or shift_jis (default: detect)",
		}, func(_ context.Context, f File, aux string) (Result, error) {
			hint := strings.TrimSpace(aux)
			if hint != "" && lookupEncoding(hint) == nil {
				return nil, Invalidf("unknown charset %q", hint)
			}
			text, charset := decodeText(f.Data, hint)
			if hint != "" && !strings.EqualFold(charset, hint) {
				return nil, Invalidf("file is not valid %s", hint)
			}
			return Text(text), nil
		}),
		NewTextFileUnit(Meta{
			ID:          "detect-language",
			Name:        "Detect Programming Language",
			Category:    CategoryText,
			Description: "Guess the programming language of source code from its content (and file name, if uploaded).",
			Placeholder: "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}",
			AcceptTypes: "text/*,*",
		}, func(_ context.Context, s string) (Result, error) {
			return detectLanguage("", []byte(s))
		}, func(_ context.Context, f File, _ string) (Result, error) {
			return detectLanguage(f.Name, f.Data)
		}),
	}
}

func textUnitOf(id, name, description, placeholder string, fn func(string) string) Unit {
	return NewTextUnit(Meta{
		ID:          id,
		Name:        name,
		Category:    CategoryText,
		Description: description,
		Placeholder: placeholder,
	}, pureFunc(fn))
}

// splitWords breaks s at non-alphanumerics, lower-to-upper transitions and the end of an
// acronym ("HTTPServer" → "HTTP", "Server").
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func joinWords(s, sep string, camel bool) string {
	words := splitWords(s)
	if !camel {
		return strings.Join(words, sep)
	}
	for i, w := range words {
		w = strings.ToLower(w)
		if i > 0 {
			r, size := utf8.DecodeRuneInString(w)
			w = string(unicode.ToUpper(r)) + w[size:]
		}
		words[i] = w
	}
	return strings.Join(words, "")
}

func reverseRunes(s string) string {
	rs := []rune(s)
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	return string(rs)
}

func wordCount(s string) string {
	noSpace := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			noSpace++
		}
	}
	return fmt.Sprintf("Words: %d\nCharacters: %d\nCharacters (no spaces): %d\nLines: %d\nBytes: %d",
		len(strings.Fields(s)), utf8.RuneCountInString(s), noSpace, len(splitLines(s)), len(s))
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func detectLanguage(filename string, content []byte) (Result, error) {
	if len(strings.TrimSpace(string(content))) == 0 {
		return nil, Invalidf("no source code")
	}
	if enry.IsBinary(content) {
		return nil, Invalidf("content looks binary")
	}
	lang := enry.GetLanguage(filename, content)
	if lang == "" {
		return Diagnosticf("language not recognized"), nil
	}
	return Text(lang), nil
}
