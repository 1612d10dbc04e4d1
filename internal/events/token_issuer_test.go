package events

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repo "fileaccess/internal/database/postgresql"
	"fileaccess/internal/testutil"
)

const (
	issuerTxUUID       = "c2eebc99-9c0b-4ef8-bb6d-6bb9bd380a33"
	issuerResourceUUID = "11111111-1111-1111-1111-111111111111"
)

func newIssuer(t *testing.T, mockPool pgxmock.PgxPoolIface) *TokenIssuer {
	t.Helper()
	return NewTokenIssuer(
		repo.New(mockPool),
		nil, // bus is only touched by SubscribeToPurchaseCompleted
		&EventConfig{PurchaseCompleted: "EVENT_PURCHASE_COMPLETED"},
		testutil.NewTestLogger(),
		72*time.Hour,
		3,
	)
}

func TestIssue_MintsTokenForCompletedTransaction(t *testing.T) {
	mockPool := testutil.NewMockDB(t)
	issuer := newIssuer(t, mockPool)

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT tx.resource_id`)).
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"resource_id"}).AddRow(issuerResourceUUID))
	mockPool.ExpectExec(regexp.QuoteMeta(`INSERT INTO download_tokens`)).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int32(3)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := issuer.issue(context.Background(), PurchaseCompletedEvent{TransactionID: issuerTxUUID})
	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestIssue_DiscardsUnconfirmedTransaction(t *testing.T) {
	mockPool := testutil.NewMockDB(t)
	issuer := newIssuer(t, mockPool)

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT tx.resource_id`)).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	// Nil return acknowledges the message; no token row is written.
	err := issuer.issue(context.Background(), PurchaseCompletedEvent{TransactionID: issuerTxUUID})
	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestIssue_DiscardsInvalidTransactionID(t *testing.T) {
	mockPool := testutil.NewMockDB(t)
	issuer := newIssuer(t, mockPool)

	// No queries expected at all.
	err := issuer.issue(context.Background(), PurchaseCompletedEvent{TransactionID: "not-a-uuid"})
	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestIssue_RetriesOnDatastoreError(t *testing.T) {
	mockPool := testutil.NewMockDB(t)
	issuer := newIssuer(t, mockPool)

	mockPool.ExpectQuery(regexp.QuoteMeta(`SELECT tx.resource_id`)).
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	// A real lookup failure must NACK so the broker redelivers.
	err := issuer.issue(context.Background(), PurchaseCompletedEvent{TransactionID: issuerTxUUID})
	require.Error(t, err)
}
