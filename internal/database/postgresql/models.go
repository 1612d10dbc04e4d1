package postgresql

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	ResourceStatusPublished = "PUBLISHED"

	TransactionStatusCompleted = "COMPLETED"
)

// Resource is a purchasable teaching material. The storage subsystem does
// not own the bytes' lifecycle; the row just holds the key (or, for rows
// written before the backend abstraction, a legacy absolute path).
type Resource struct {
	ID           pgtype.UUID
	OwnerID      pgtype.UUID
	Title        string
	FileKey      string
	PriceMinUnit int64
	Currency     string
	Status       string
	Approved     bool
	IsPublic     bool
	CreatedAt    pgtype.Timestamptz
}

// Downloadable reports whether a non-owner may see the resource at all.
func (r Resource) Downloadable() bool {
	return r.Status == ResourceStatusPublished && r.Approved && r.IsPublic
}

// Free reports a zero-price resource.
func (r Resource) Free() bool {
	return r.PriceMinUnit == 0
}

// GuestToken is a download token row joined with its originating
// transaction and the purchased resource, fetched in one round-trip.
type GuestToken struct {
	Token             string
	ExpiresAt         time.Time
	DownloadCount     int32
	MaxDownloads      int32
	TransactionStatus string

	ResourceID    pgtype.UUID
	ResourceTitle string
	FileKey       string
}

type CreateDownloadTokenParams struct {
	Token         string
	TransactionID pgtype.UUID
	ExpiresAt     time.Time
	MaxDownloads  int32
}
