// Copyright (c) 2026 pulse3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package par

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) (*Builder, error) {
	temp, err := ioutil.TempDir("", "parBuilder")
	if err != nil {
		return nil, ErrTempFail
	}
	header.Index = nil
	builder := &Builder{
		tempDir: temp,
		header:  header,
	}
	runtime.SetFinalizer(builder, func(builder *Builder) {
		os.RemoveAll(builder.tempDir)
	})
	return builder, nil
}

type tempFile struct {

	// Name is the actual name of the file
	Name string

	// TempName is the temporary name given by the Builder
	TempName string

	// Size of the original uncompressed data
	Size int64

	Compressed int64
}

// Builder is the high level builder for the archive format.
// Archives are versioned and cannot be appended to, this Builder
// is the way to create one. Whenever Add is called, the Builder
// compresses the file into a temporary dir, finally bundling
// everything together and writing it out with WriteTo.
type Builder struct {
	io.WriterTo

	tempDir string
	header  Header

	mutex sync.Mutex
	files []tempFile
}

// Add appends data to the builder with a given name.
// Will block until lz4 finishes compression. Is safe
// to use concurrently in different goroutines.
func (b *Builder) Add(name string, data io.Reader) error {
	f, err := ioutil.TempFile(b.tempDir, "blob")
	if err != nil {
		return ErrTempFail
	}
	defer f.Close()

	writer := lz4.NewWriter(f)
	written, err := io.Copy(writer, data)
	if err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = append(b.files, tempFile{
		Name:       name,
		TempName:   filepath.Base(f.Name()),
		Size:       written,
		Compressed: info.Size(),
	})
	return nil
}

// WriteTo bundles and writes all of the files added to the Builder
// into a par archive that is ready to use. Offsets are laid out
// relative to the space the header could at most occupy, the gap
// between the real header and the first file is zero padded.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	header := b.header
	for _, v := range b.files {
		header.Index = append(header.Index, IndexEntry{
			Name:           v.Name,
			Size:           v.Size,
			CompressedSize: v.Compressed,
		})
	}

	offset := int64(MagicLength+HeaderSizeNumberLength) + header.MaxExpectedSize()
	for idx := range header.Index {
		header.Index[idx].Offset = offset
		offset += header.Index[idx].CompressedSize
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}
	if int64(len(rawHeader)) > header.MaxExpectedSize() {
		return 0, ErrFileFormat
	}

	var total int64
	num, err := w.Write(magic[:])
	if err != nil {
		return total, err
	}
	total += int64(num)

	num, err = w.Write(int64ToBinary(int64(len(rawHeader))))
	if err != nil {
		return total, err
	}
	total += int64(num)

	num, err = w.Write(rawHeader)
	if err != nil {
		return total, err
	}
	total += int64(num)

	padding := make([]byte, header.MaxExpectedSize()-int64(len(rawHeader)))
	num, err = w.Write(padding)
	if err != nil {
		return total, err
	}
	total += int64(num)

	for _, v := range b.files {
		f, err := os.Open(filepath.Join(b.tempDir, v.TempName))
		if err != nil {
			return total, ErrTempFail
		}
		copied, err := io.Copy(w, f)
		f.Close()
		if err != nil {
			return total, err
		}
		total += copied
	}

	b.files = b.files[:0]
	return total, nil
}
