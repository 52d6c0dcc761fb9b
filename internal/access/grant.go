package access

import (
	"context"
	"errors"
	"time"
)

// ContentKind names the purchasable content types.
type ContentKind string

const (
	KindChapter ContentKind = "chapter"
	KindComic   ContentKind = "comic"
)

// Valid reports whether k is a purchasable content kind.
func (k ContentKind) Valid() bool {
	return k == KindChapter || k == KindComic
}

// ErrAlreadyGranted is returned when the reader already holds a grant for the content.
var ErrAlreadyGranted = errors.New("access already granted")

// Grant asserts that a reader has paid for a piece of content.
type Grant struct {
	ID                string
	ReaderID          string
	ContentID         string
	ContentKind       ContentKind
	UserTransactionID string
	GrantedAt         time.Time
}

// Store persists grants. Grants are never updated or removed.
type Store interface {
	Insert(ctx context.Context, grant Grant) error
	Exists(ctx context.Context, readerID, contentID string) (bool, error)
	ListByReader(ctx context.Context, readerID string, limit, offset int) ([]Grant, int, error)
}
