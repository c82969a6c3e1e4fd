// Package mapped backs value-mode tables with a memory-mapped file so their
// contents survive a restart.
//
// The file is a fixed-size header followed by the table's slots:
//
//	offset  size  field
//	0       4     magic number
//	4       4     format version
//	8       4     element count
//	12      4     hash algorithm
//	16      8     element size
//	24      ...   element count * element size bytes of slots
//
// All header fields are big endian.
package mapped

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/theflywheel/hashtable"
)

const (
	magicNumber uint32 = 0x4854424C
	version     uint32 = 1
	headerSize         = 24
)

var (
	// ErrUnsupported is returned on platforms without mmap support.
	ErrUnsupported = errors.New("mapped: memory-mapped files are not supported on this platform")

	// ErrInvalidHeader is returned when an existing file is not a table file.
	ErrInvalidHeader = errors.New("mapped: invalid header")

	// ErrLayoutMismatch is returned when an existing file was written with a
	// different element size, count or algorithm.
	ErrLayoutMismatch = errors.New("mapped: layout mismatch")
)

// Header describes the table stored in a file.
type Header struct {
	ElementCount uint32
	ElementSize  uint64
	Algorithm    hashtable.Algorithm
}

// fileSize returns the total file size, or false when the layout cannot be
// addressed by a file offset.
func (h Header) fileSize() (int64, bool) {
	need, ok := hashtable.CheckedMemoryRequirement(h.ElementSize, h.ElementCount)
	if !ok || need > math.MaxInt64-headerSize || need > math.MaxInt-headerSize {
		return 0, false
	}
	return headerSize + int64(need), true
}

func (h Header) encode() []byte {
	buf := make([]byte, headerSize)
	binary.BigEndian.PutUint32(buf[0:4], magicNumber)
	binary.BigEndian.PutUint32(buf[4:8], version)
	binary.BigEndian.PutUint32(buf[8:12], h.ElementCount)
	binary.BigEndian.PutUint32(buf[12:16], uint32(h.Algorithm))
	binary.BigEndian.PutUint64(buf[16:24], h.ElementSize)
	return buf
}

func decodeHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, fmt.Errorf("%w: file holds %d bytes", ErrInvalidHeader, len(data))
	}
	if magic := binary.BigEndian.Uint32(data[0:4]); magic != magicNumber {
		return Header{}, fmt.Errorf("%w: magic number %#x", ErrInvalidHeader, magic)
	}
	if v := binary.BigEndian.Uint32(data[4:8]); v != version {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidHeader, v)
	}
	h := Header{
		ElementCount: binary.BigEndian.Uint32(data[8:12]),
		Algorithm:    hashtable.Algorithm(binary.BigEndian.Uint32(data[12:16])),
		ElementSize:  binary.BigEndian.Uint64(data[16:24]),
	}
	size, ok := h.fileSize()
	if !ok {
		return Header{}, fmt.Errorf("%w: %d slots of %d bytes overflow the file size", ErrInvalidHeader, h.ElementCount, h.ElementSize)
	}
	if int64(len(data)) < size {
		return Header{}, fmt.Errorf("%w: file holds %d bytes, header requires %d", ErrInvalidHeader, len(data), size)
	}
	return h, nil
}

// Attach creates out as a value-mode table over the slots of f. The slots of
// a freshly created file are zeroed; an existing file keeps its contents.
func Attach(f *File, out *hashtable.Table) error {
	if f == nil {
		return fmt.Errorf("%w: nil file", hashtable.ErrInvalidArgument)
	}
	opts := []hashtable.Option{hashtable.WithAlgorithm(f.header.Algorithm)}
	if !f.fresh {
		opts = append(opts, hashtable.KeepContents())
	}
	return hashtable.Create(f.header.ElementSize, f.header.ElementCount, f.Memory(), out, opts...)
}
