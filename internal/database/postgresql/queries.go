package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const getResource = `
SELECT id, user_id, title, file_key, price_min_unit, currency, status, approved, is_public, created_at
FROM resources
WHERE id = $1 AND deleted_at IS NULL
`

func (q *Queries) GetResource(ctx context.Context, id pgtype.UUID) (Resource, error) {
	row := q.db.QueryRow(ctx, getResource, id)
	var r Resource
	err := row.Scan(
		&r.ID, &r.OwnerID, &r.Title, &r.FileKey, &r.PriceMinUnit,
		&r.Currency, &r.Status, &r.Approved, &r.IsPublic, &r.CreatedAt,
	)
	return r, err
}

const hasCompletedTransaction = `
SELECT EXISTS (
	SELECT 1 FROM transactions
	WHERE buyer_id = $1 AND resource_id = $2 AND status = 'COMPLETED'
)
`

func (q *Queries) HasCompletedTransaction(ctx context.Context, buyerID, resourceID pgtype.UUID) (bool, error) {
	row := q.db.QueryRow(ctx, hasCompletedTransaction, buyerID, resourceID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertDownload = `
INSERT INTO downloads (user_id, resource_id)
VALUES ($1, $2)
ON CONFLICT (user_id, resource_id) DO NOTHING
`

// InsertDownload records a free-access grant. Idempotent: re-granting for
// the same (user, resource) pair never duplicates the record.
func (q *Queries) InsertDownload(ctx context.Context, userID, resourceID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, insertDownload, userID, resourceID)
	return err
}

const getGuestToken = `
SELECT t.token, t.expires_at, t.download_count, t.max_downloads,
       tx.status, r.id, r.title, r.file_key
FROM download_tokens t
JOIN transactions tx ON tx.id = t.transaction_id
JOIN resources r ON r.id = tx.resource_id
WHERE t.token = $1
`

func (q *Queries) GetGuestToken(ctx context.Context, token string) (GuestToken, error) {
	row := q.db.QueryRow(ctx, getGuestToken, token)
	var t GuestToken
	err := row.Scan(
		&t.Token, &t.ExpiresAt, &t.DownloadCount, &t.MaxDownloads,
		&t.TransactionStatus, &t.ResourceID, &t.ResourceTitle, &t.FileKey,
	)
	return t, err
}

const consumeDownloadToken = `
UPDATE download_tokens
SET download_count = download_count + 1
WHERE token = $1 AND download_count < max_downloads AND expires_at > now()
`

// ConsumeDownloadToken burns one use. The conditional update is the single
// atomic step that keeps concurrent requests from exceeding max_downloads:
// the count check and the increment happen in one statement, never as a
// read-then-write pair in application code.
func (q *Queries) ConsumeDownloadToken(ctx context.Context, token string) (bool, error) {
	tag, err := q.db.Exec(ctx, consumeDownloadToken, token)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const createDownloadToken = `
INSERT INTO download_tokens (token, transaction_id, expires_at, download_count, max_downloads)
VALUES ($1, $2, $3, 0, $4)
`

func (q *Queries) CreateDownloadToken(ctx context.Context, p CreateDownloadTokenParams) error {
	_, err := q.db.Exec(ctx, createDownloadToken, p.Token, p.TransactionID, p.ExpiresAt, p.MaxDownloads)
	return err
}

const getTransactionResource = `
SELECT tx.resource_id
FROM transactions tx
WHERE tx.id = $1 AND tx.status = 'COMPLETED'
`

// GetTransactionResource resolves a completed transaction to the purchased
// resource. Used by the token issuer to refuse minting for anything not yet
// completed.
func (q *Queries) GetTransactionResource(ctx context.Context, txID pgtype.UUID) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, getTransactionResource, txID)
	var resourceID pgtype.UUID
	err := row.Scan(&resourceID)
	return resourceID, err
}
