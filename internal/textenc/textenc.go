// Package textenc detects the encoding of text files by their byte-order
// mark and round-trips them through that encoding.
package textenc

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// Encoding names a text encoding recognized by its byte-order mark.
type Encoding string

const (
	UTF8    Encoding = "utf-8"
	UTF8BOM Encoding = "utf-8-sig"
	UTF16LE Encoding = "utf-16le"
	UTF16BE Encoding = "utf-16be"
	UTF32LE Encoding = "utf-32le"
	UTF32BE Encoding = "utf-32be"
)

// Byte-order marks. UTF-32 LE starts with the UTF-16 LE mark, so the order
// of boms matters.
var boms = []struct {
	enc Encoding
	bom []byte
}{
	{UTF8BOM, []byte{0xEF, 0xBB, 0xBF}},
	{UTF32LE, []byte{0xFF, 0xFE, 0x00, 0x00}},
	{UTF32BE, []byte{0x00, 0x00, 0xFE, 0xFF}},
	{UTF16LE, []byte{0xFF, 0xFE}},
	{UTF16BE, []byte{0xFE, 0xFF}},
}

// DetectBOM returns the encoding announced by the leading bytes of b, or def
// when b carries no recognized byte-order mark.
func DetectBOM(b []byte, def Encoding) Encoding {
	for _, m := range boms {
		if bytes.HasPrefix(b, m.bom) {
			return m.enc
		}
	}
	return def
}

// DetectByBOM reads at most the first four bytes of path and returns the
// encoding they announce, or def.
func DetectByBOM(path string, def Encoding) (Encoding, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	return DetectBOM(head[:n], def), nil
}

// codec returns the x/text encoding for e. Encoders of BOM-carrying
// encodings write the mark; decoders strip it.
func (e Encoding) codec() (encoding.Encoding, error) {
	switch e {
	case UTF8, "":
		return unicode.UTF8, nil
	case UTF8BOM:
		return unicode.UTF8BOM, nil
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), nil
	case UTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM), nil
	case UTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM), nil
	}
	return nil, fmt.Errorf("textenc: unsupported encoding %q", string(e))
}

// Decode decodes b from e into a UTF-8 string.
func Decode(b []byte, e Encoding) (string, error) {
	c, err := e.codec()
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(c.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("textenc: decode %s: %w", e, err)
	}
	return string(out), nil
}

// Encode encodes s into e.
func Encode(s string, e Encoding) ([]byte, error) {
	c, err := e.codec()
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(c.NewEncoder(), []byte(s))
	if err != nil {
		return nil, fmt.Errorf("textenc: encode %s: %w", e, err)
	}
	return out, nil
}

// Load reads path and decodes it from e.
func Load(path string, e Encoding) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Decode(b, e)
}

// Save encodes s into e and writes it to path, keeping the file mode of an
// existing file.
func Save(path, s string, e Encoding) error {
	b, err := Encode(s, e)
	if err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	return os.WriteFile(path, b, mode)
}
