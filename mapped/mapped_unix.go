//go:build unix

package mapped

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/theflywheel/hashtable"
)

// File is a table file mapped into memory.
type File struct {
	mu       sync.Mutex
	file     *os.File
	data     []byte
	filePath string
	header   Header
	fresh    bool
}

// Open creates or opens the table file at filePath. A new file is sized for
// elementCount slots of elementSize bytes; an existing file must have been
// created with the same layout and algorithm.
func Open(filePath string, elementSize uint64, elementCount uint32, algorithm hashtable.Algorithm) (*File, error) {
	if elementSize == 0 || elementCount == 0 {
		return nil, fmt.Errorf("%w: element size and count must be non-zero", hashtable.ErrInvalidArgument)
	}
	want := Header{ElementCount: elementCount, ElementSize: elementSize, Algorithm: algorithm}
	size, ok := want.fileSize()
	if !ok {
		return nil, fmt.Errorf("%w: %d slots of %d bytes overflow the file size", hashtable.ErrInvalidArgument, elementCount, elementSize)
	}

	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	fresh := fi.Size() == 0
	if fresh {
		if err := file.Truncate(size); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to truncate file: %w", err)
		}
		if _, err := file.WriteAt(want.encode(), 0); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		if fi, err = file.Stat(); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to re-stat file: %w", err)
		}
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(fi.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	got, err := decodeHeader(data)
	if err == nil && got != want {
		err = fmt.Errorf("%w: file has %+v, requested %+v", ErrLayoutMismatch, got, want)
	}
	if err != nil {
		unix.Munmap(data)
		file.Close()
		return nil, err
	}

	hashtable.Logger().Debug("mapped table file",
		zap.String("path", filePath),
		zap.Bool("fresh", fresh),
		zap.Uint32("element_count", elementCount),
		zap.Uint64("element_size", elementSize))

	return &File{
		file:     file,
		data:     data,
		filePath: filePath,
		header:   got,
		fresh:    fresh,
	}, nil
}

// Memory returns the mapped slot region. It is valid until Close.
func (f *File) Memory() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		return nil
	}
	end, _ := f.header.fileSize()
	return f.data[headerSize:end:end]
}

// Header returns the layout the file was created with.
func (f *File) Header() Header { return f.header }

// Fresh reports whether Open created the file.
func (f *File) Fresh() bool { return f.fresh }

// Path returns the file path passed to Open.
func (f *File) Path() string { return f.filePath }

// Sync flushes the mapped region to disk.
func (f *File) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		return os.ErrClosed
	}
	return unix.Msync(f.data, unix.MS_SYNC)
}

// Close unmaps the file and closes it. Tables attached to the file must be
// destroyed first.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data == nil {
		return nil
	}
	if err := unix.Munmap(f.data); err != nil {
		return err
	}
	f.data = nil
	return f.file.Close()
}
