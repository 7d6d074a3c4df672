// Copyright (c) 2026 pulse3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package par

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4"
)

// Open opens the par archive from r. It will also check
// if the file is actually a par archive, will return an error
// when the file is incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	magicBytes := make([]byte, MagicLength)
	if num, err := r.ReadAt(magicBytes, 0); err != nil {
		return nil, err
	} else if num < MagicLength || !bytes.Equal(magicBytes, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil {
		return nil, err
	} else if num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		return nil, err
	} else if int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	return &Archive{
		reader: r,
		header: header,
	}, nil
}

// Archive provides concurrent io for a par file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader io.ReaderAt
	header Header
}

// Header returns a copy of the decoded archive header.
func (a *Archive) Header() Header {
	return a.header
}

// List returns the names of all files in the archive,
// in the order they were added.
func (a *Archive) List() []string {
	names := make([]string, 0, len(a.header.Index))
	for _, e := range a.header.Index {
		names = append(names, e.Name)
	}
	return names
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, err := a.find(name)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.reader, entry.Offset, entry.CompressedSize)
	return &Reader{
		size:         entry.Size,
		decompressor: lz4.NewReader(section),
	}, nil
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	contents := make([]byte, f.Size())
	if _, err := io.ReadFull(f, contents); err != nil {
		return nil, err
	}
	return contents, nil
}

func (a *Archive) find(name string) (IndexEntry, error) {
	for _, e := range a.header.Index {
		if e.Name == name {
			return e, nil
		}
	}
	return IndexEntry{}, ErrNotFound
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	io.Reader

	size         int64
	decompressor *lz4.Reader
}

// Size returns the uncompressed size of the file
func (r *Reader) Size() int64 {
	return r.size
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.decompressor.Read(p)
}
