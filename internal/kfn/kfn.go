// Package kfn decodes KaraFun .kfn archives: a signed header, a file
// directory and a body of optionally AES-128-ECB encrypted entries.
package kfn

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/kara/internal/logging"
)

const (
	// Magic is the signature every archive starts with.
	Magic = "KFNB"

	// header terminator field
	endOfHeader = "ENDH"
	// header field carrying the key material
	keyField = "FLID"

	keySize = 16

	fieldTypeValue  = 1
	fieldTypeString = 2
)

var (
	ErrInvalidContainer = errors.New("invalid kfn container")
	ErrMissingKey       = errors.New("kfn entry is encrypted but no key was found in the header")
)

// FormatError reports where in an archive decoding failed.
type FormatError struct {
	Path   string
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: offset %d: %v", e.Path, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// header field, value always stringified
type Field struct {
	Signature string
	Value     string
}

// Header keeps the fields in the order they appear in the archive.
type Header struct {
	Fields []Field
}

func (h Header) Get(signature string) (string, bool) {
	for _, f := range h.Fields {
		if f.Signature == signature {
			return f.Value, true
		}
	}
	return "", false
}

func (h Header) Title() string {
	v, _ := h.Get("TITL")
	return v
}

func (h Header) Artist() string {
	v, _ := h.Get("ARTS")
	return v
}

func (h Header) Year() string {
	v, _ := h.Get("YEAR")
	return v
}

// SongLength returns the MUSL field as a duration. Zero when absent,
// unparseable or "0".
func (h Header) SongLength() time.Duration {
	v, ok := h.Get("MUSL")
	if !ok {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Entry is one file listed in the archive directory. Offset is absolute.
type Entry struct {
	Name            string
	Type            uint32
	Length          uint32
	EncryptedLength uint32
	Offset          int64
	Flags           uint32
}

func (e Entry) Encrypted() bool {
	return e.Flags == 1
}

// Archive is a parsed KFN archive. Entry data is read lazily by absolute
// offset, so ReadEntry is safe for concurrent use.
type Archive struct {
	Header  Header
	Entries []Entry

	path   string
	r      io.ReaderAt
	size   int64
	block  cipher.Block
	closer io.Closer
	logger *logging.Logger
}

// Open parses the archive at path. The caller must Close it.
func Open(path string, logger *logging.Logger) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open kfn file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat kfn file: %w", err)
	}

	archive, err := NewArchive(file, info.Size(), path, logger)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	archive.closer = file

	return archive, nil
}

// NewArchive parses header and directory from r. name is only used in
// error messages.
func NewArchive(
	r io.ReaderAt,
	size int64,
	name string,
	logger *logging.Logger,
) (*Archive, error) {
	a := &Archive{
		path:   name,
		r:      r,
		size:   size,
		logger: logger,
	}

	c := &cursor{r: r, size: size}

	header, err := readHeader(c)
	if err != nil {
		return nil, a.formatError(c.pos, err)
	}
	a.Header = header

	if key, ok := header.Get(keyField); ok && key != "" {
		block, err := aes.NewCipher(deriveKey(key))
		if err != nil {
			return nil, a.formatError(c.pos, err)
		}
		a.block = block
	}

	entries, err := readDirectory(c)
	if err != nil {
		return nil, a.formatError(c.pos, err)
	}
	a.Entries = entries

	logger.Debugw("Parsed kfn archive",
		"path", name,
		"fields", len(header.Fields),
		"entries", len(entries),
		"encrypted", a.block != nil,
	)

	return a, nil
}

func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// HasKey reports whether the header carried key material.
func (a *Archive) HasKey() bool {
	return a.block != nil
}

// Find returns the entry with the given name, compared case-insensitively.
func (a *Archive) Find(name string) (Entry, bool) {
	for _, e := range a.Entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

func (a *Archive) formatError(offset int64, err error) error {
	return &FormatError{Path: a.path, Offset: offset, Err: err}
}

// cursor owns the read position while header and directory are parsed.
// Directory offsets are relative to where the cursor stops.
type cursor struct {
	r    io.ReaderAt
	pos  int64
	size int64
}

func (c *cursor) read(n int64) ([]byte, error) {
	if n < 0 || c.pos+n > c.size {
		return nil, fmt.Errorf(
			"%w: need %d bytes at offset %d, archive is %d bytes",
			ErrInvalidContainer,
			n,
			c.pos,
			c.size,
		)
	}

	buf := make([]byte, n)
	read, err := c.r.ReadAt(buf, c.pos)
	if int64(read) < n {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	c.pos += n

	return buf, nil
}

func (c *cursor) uint32() (uint32, error) {
	buf, err := c.read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (c *cursor) byte() (byte, error) {
	buf, err := c.read(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readHeader(c *cursor) (Header, error) {
	magic, err := c.read(4)
	if err != nil {
		return Header{}, err
	}
	if string(magic) != Magic {
		return Header{}, fmt.Errorf(
			"%w: bad signature %q",
			ErrInvalidContainer,
			magic,
		)
	}

	var header Header
	for {
		sig, err := c.read(4)
		if err != nil {
			return Header{}, fmt.Errorf("header not terminated: %w", err)
		}
		fieldType, err := c.byte()
		if err != nil {
			return Header{}, fmt.Errorf("header not terminated: %w", err)
		}
		lengthOrValue, err := c.uint32()
		if err != nil {
			return Header{}, fmt.Errorf("header not terminated: %w", err)
		}

		signature := string(sig)
		switch fieldType {
		case fieldTypeValue:
			header.Fields = append(header.Fields, Field{
				Signature: signature,
				Value:     strconv.FormatUint(uint64(lengthOrValue), 10),
			})
		case fieldTypeString:
			value, err := c.read(int64(lengthOrValue))
			if err != nil {
				return Header{}, fmt.Errorf("field %s: %w", signature, err)
			}
			header.Fields = append(header.Fields, Field{
				Signature: signature,
				Value:     string(value),
			})
		}

		if signature == endOfHeader {
			return header, nil
		}
	}
}

func readDirectory(c *cursor) ([]Entry, error) {
	count, err := c.uint32()
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}

	// each entry needs at least 24 bytes, reject impossible counts early
	if int64(count)*24 > c.size-c.pos {
		return nil, fmt.Errorf(
			"%w: directory claims %d entries",
			ErrInvalidContainer,
			count,
		)
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		nameLen, err := c.uint32()
		if err != nil {
			return nil, fmt.Errorf("directory entry %d: %w", i, err)
		}
		name, err := c.read(int64(nameLen))
		if err != nil {
			return nil, fmt.Errorf("directory entry %d: %w", i, err)
		}

		var fields [5]uint32
		for j := range fields {
			if fields[j], err = c.uint32(); err != nil {
				return nil, fmt.Errorf("directory entry %d: %w", i, err)
			}
		}

		entries = append(entries, Entry{
			Name:            string(name),
			Type:            fields[0],
			Length:          fields[1],
			Offset:          int64(fields[2]),
			EncryptedLength: fields[3],
			Flags:           fields[4],
		})
	}

	for i := range entries {
		entries[i].Offset += c.pos
	}

	return entries, nil
}

func deriveKey(material string) []byte {
	key := make([]byte, keySize)
	copy(key, material)
	return key
}
