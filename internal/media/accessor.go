package media

import (
	"context"
	"errors"
	"sync"
)

// LoadFunc produces the raw bytes of one media file. It may block (zip
// entry decompression, disk read) and is only invoked at the system
// boundary, never during parsing.
type LoadFunc func(ctx context.Context) ([]byte, error)

// Accessor is the capability handed to attachments for reaching media
// content. The first successful Open memoizes the bytes; later calls
// return the cached result without re-invoking the loader. A failed load
// is not cached, so a caller may retry.
type Accessor struct {
	mu   sync.Mutex
	load LoadFunc
	data []byte
	done bool
}

// NewAccessor wraps a load function in a memoizing accessor.
func NewAccessor(load LoadFunc) *Accessor {
	return &Accessor{load: load}
}

// Open returns the media bytes, loading them on first use.
func (a *Accessor) Open(ctx context.Context) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.done {
		return a.data, nil
	}
	if a.load == nil {
		return nil, errors.New("media: no content loader")
	}

	data, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	a.data = data
	a.done = true
	return a.data, nil
}
