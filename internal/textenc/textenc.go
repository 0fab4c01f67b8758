// Package textenc turns karaoke text files of unknown provenance into UTF-8.
package textenc

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode returns data as UTF-8. Valid UTF-8 is returned as is (minus a
// byte order mark). Anything else is assumed to be Windows-1252, which is
// what older KaraFun and UltraStar editors write.
func Decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoder := charmap.Windows1252.NewDecoder()
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), decoder))
	if err != nil {
		return "", fmt.Errorf("failed to decode windows-1252 text: %w", err)
	}

	return string(out), nil
}
