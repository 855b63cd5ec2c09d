package anyconvert

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// decodeText converts data to UTF-8. A charset hint is tried first; otherwise the
// encoding is detected. It returns the text and the charset that produced it.
func decodeText(data []byte, hint string) (string, string) {
	if hint != "" {
		if enc := lookupEncoding(hint); enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
				return string(decoded), hint
			}
		}
	}
	return decodeWithDetection(data)
}

// decodeWithDetection detects the encoding of data and decodes it to UTF-8.
func decodeWithDetection(data []byte) (string, string) {
	if utf8.Valid(data) {
		s := string(data)
		if !hasHighBytes(data) {
			return s, "US-ASCII"
		}
		if !strings.ContainsRune(s, utf8.RuneError) {
			return s, "UTF-8"
		}
	}

	results, err := chardet.NewTextDetector().DetectAll(data)
	if err != nil || len(results) == 0 {
		return string(data), "UTF-8"
	}

	// chardet often ranks a Latin charset above the CJK one that decodes cleanly, so
	// every candidate is decoded and scored.
	bestScore := -1 << 31
	bestText, bestCharset := "", ""
	for _, r := range results {
		enc := lookupEncoding(r.Charset)
		if enc == nil {
			continue
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if score := scoreDecodedText(string(decoded), r.Confidence); score > bestScore {
			bestScore = score
			bestText, bestCharset = string(decoded), r.Charset
		}
	}
	if bestCharset == "" {
		return string(data), "UTF-8"
	}
	return bestText, bestCharset
}

// detectCharset reports the most likely charset of data and chardet's confidence.
func detectCharset(data []byte) (charset, language string, confidence int, err error) {
	if utf8.Valid(data) && !hasHighBytes(data) {
		return "US-ASCII", "", 100, nil
	}
	if utf8.Valid(data) {
		return "UTF-8", "", 100, nil
	}
	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return "", "", 0, err
	}
	return best.Charset, best.Language, best.Confidence, nil
}

// hasHighBytes checks if data contains bytes > 0x7F.
func hasHighBytes(data []byte) bool {
	for _, b := range data {
		if b > 0x7F {
			return true
		}
	}
	return false
}

// commonCJK holds frequent Chinese and Japanese characters; a decoding that produces
// them is far more likely to be right than one producing rare ideographs.
const commonCJK = "的一是不了人我在有他这中大来上个国到说们为你对生能地下过子" +
	"名前年齢住所東京大阪三木英子佐藤太郎橋淳古屋北海道田中山本" +
	"日本語文字時間会社電話学校先生今日明日新聞世界" +
	"人民共产党政府国家社主义经济发展改革建设工业农科技术教育文化"

// scoreDecodedText scores how coherent a decoded text looks. Higher is better.
func scoreDecodedText(text string, confidence int) int {
	score := confidence
	for _, r := range text {
		switch {
		case r == utf8.RuneError:
			score -= 10
		case r < 0x20 && r != '\n' && r != '\r' && r != '\t':
			score -= 5
		case r >= 0x3040 && r <= 0x30FF, r >= 0xFF00 && r <= 0xFFEF:
			score += 5
		case r >= 0x4E00 && r <= 0x9FFF:
			if strings.ContainsRune(commonCJK, r) {
				score += 5
			} else {
				score++
			}
		case r >= 'A' && r <= 'z':
			score++
		}
	}
	return score
}

// lookupEncoding maps charset names to Go encoding implementations.
func lookupEncoding(charset string) encoding.Encoding {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(charset)) {
	case "utf8", "utf8bom", "ascii", "usascii":
		return unicode.UTF8
	case "utf16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case "iso88591", "latin1":
		return charmap.ISO8859_1
	case "iso88592":
		return charmap.ISO8859_2
	case "iso88595":
		return charmap.ISO8859_5
	case "iso88596":
		return charmap.ISO8859_6
	case "iso88597":
		return charmap.ISO8859_7
	case "iso88598":
		return charmap.ISO8859_8
	case "iso88599":
		return charmap.ISO8859_9
	case "iso885915":
		return charmap.ISO8859_15
	case "windows1250", "cp1250":
		return charmap.Windows1250
	case "windows1251", "cp1251":
		return charmap.Windows1251
	case "windows1252", "cp1252":
		return charmap.Windows1252
	case "windows1253", "cp1253":
		return charmap.Windows1253
	case "windows1254", "cp1254":
		return charmap.Windows1254
	case "windows1255", "cp1255":
		return charmap.Windows1255
	case "windows1256", "cp1256":
		return charmap.Windows1256
	case "koi8r":
		return charmap.KOI8R
	case "ibm437", "cp437":
		return charmap.CodePage437
	case "shiftjis", "sjis", "cp932", "windows31j":
		return japanese.ShiftJIS
	case "eucjp":
		return japanese.EUCJP
	case "iso2022jp":
		return japanese.ISO2022JP
	case "euckr", "cp949":
		return korean.EUCKR
	case "gb2312", "gbk", "cp936":
		return simplifiedchinese.GBK
	case "gb18030":
		return simplifiedchinese.GB18030
	case "big5", "cp950":
		return traditionalchinese.Big5
	}
	return nil
}
