package vdb

import (
	"errors"
	"fmt"
	"os"
)

// ErrClosed is returned when a released buffer is used
var ErrClosed = errors.New("vdb: buffer closed")

// Buffer owns the raw bytes of a grid asset. Grids decoded from a buffer
// read their voxel values directly out of it, so the buffer must outlive them;
// Close releases the bytes and invalidates every grid that borrows them.
type Buffer struct {
	data []byte
}

// NewBuffer wraps data without copying it. The buffer takes ownership.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// LoadBuffer reads a grid asset file into a new buffer
func LoadBuffer(filename string) (*Buffer, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid asset: %w", err)
	}
	return NewBuffer(data), nil
}

// Bytes returns the owned bytes, or nil after Close
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes held
func (b *Buffer) Len() int {
	return len(b.data)
}

// Closed reports whether the buffer has been released
func (b *Buffer) Closed() bool {
	return b.data == nil
}

// Close releases the bytes. Closing twice returns ErrClosed.
func (b *Buffer) Close() error {
	if b.data == nil {
		return ErrClosed
	}
	b.data = nil
	return nil
}
