package postgresql

import (
	"context"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool
}

func TestConsumeDownloadToken_ConsumedWhenRowMatched(t *testing.T) {
	mockPool := newMock(t)
	q := New(mockPool)

	mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE download_tokens`)).
		WithArgs("tok").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	consumed, err := q.ConsumeDownloadToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, consumed)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestConsumeDownloadToken_NotConsumedWhenGuardFails(t *testing.T) {
	mockPool := newMock(t)
	q := New(mockPool)

	// Exhausted or expired rows match no row; the guard lives in the SQL
	// itself, not in application code.
	mockPool.ExpectExec(regexp.QuoteMeta(`UPDATE download_tokens`)).
		WithArgs("tok").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	consumed, err := q.ConsumeDownloadToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestResourcePredicates(t *testing.T) {
	published := Resource{Status: ResourceStatusPublished, Approved: true, IsPublic: true}
	assert.True(t, published.Downloadable())

	assert.False(t, Resource{Status: "DRAFT", Approved: true, IsPublic: true}.Downloadable())
	assert.False(t, Resource{Status: ResourceStatusPublished, Approved: false, IsPublic: true}.Downloadable())
	assert.False(t, Resource{Status: ResourceStatusPublished, Approved: true, IsPublic: false}.Downloadable())

	assert.True(t, Resource{PriceMinUnit: 0}.Free())
	assert.False(t, Resource{PriceMinUnit: 500}.Free())
}
