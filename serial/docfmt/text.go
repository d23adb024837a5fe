package docfmt

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arloliu/mdata/errs"
)

// EncodedPrefix marks a document string holding base64 data instead of
// plain text.
const EncodedPrefix = "base64:"

// encodeText returns s unchanged when every codec carries it verbatim.
// Invalid UTF-8, characters XML cannot represent, and strings that already
// start with EncodedPrefix are written as EncodedPrefix plus base64.
func encodeText(s string) string {
	if isPlainText(s) {
		return s
	}

	return EncodedPrefix + base64.StdEncoding.EncodeToString([]byte(s))
}

// decodeText reverses encodeText.
func decodeText(s string) (string, error) {
	data, ok := strings.CutPrefix(s, EncodedPrefix)
	if !ok {
		return s, nil
	}
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("%w: encoded text %q: %v", errs.ErrBadSyntax, s, err)
	}

	return string(b), nil
}

func isPlainText(s string) bool {
	if strings.HasPrefix(s, EncodedPrefix) || !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return false
		}
	}

	return true
}

// isXMLChar reports whether r is in the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
