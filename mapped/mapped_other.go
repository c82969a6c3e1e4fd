//go:build !unix

package mapped

import "github.com/theflywheel/hashtable"

// File is a table file mapped into memory.
type File struct {
	header Header
	fresh  bool
}

// Open always fails with ErrUnsupported on this platform.
func Open(filePath string, elementSize uint64, elementCount uint32, algorithm hashtable.Algorithm) (*File, error) {
	return nil, ErrUnsupported
}

func (f *File) Memory() []byte { return nil }

func (f *File) Header() Header { return f.header }

func (f *File) Fresh() bool { return f.fresh }

func (f *File) Path() string { return "" }

func (f *File) Sync() error { return ErrUnsupported }

func (f *File) Close() error { return nil }
