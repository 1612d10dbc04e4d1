package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	repo "fileaccess/internal/database/postgresql"
)

const queue = "fileaccess-service"

// TokenIssuer mints guest download tokens when checkout reports a completed
// purchase. Tokens are only ever created here; the download flow mutates
// nothing but the usage count.
type TokenIssuer struct {
	repo         *repo.Queries
	bus          Bus
	config       *EventConfig
	logger       *slog.Logger
	tokenTTL     time.Duration
	maxDownloads int32
}

func NewTokenIssuer(queries *repo.Queries, bus Bus, config *EventConfig, logger *slog.Logger, tokenTTL time.Duration, maxDownloads int32) *TokenIssuer {
	return &TokenIssuer{
		repo:         queries,
		bus:          bus,
		config:       config,
		logger:       logger,
		tokenTTL:     tokenTTL,
		maxDownloads: maxDownloads,
	}
}

// SubscribeToPurchaseCompleted starts consuming checkout events.
func (t *TokenIssuer) SubscribeToPurchaseCompleted() (Subscription, error) {
	subject := t.config.PurchaseCompleted
	t.logger.Info("Subscribing to PurchaseCompleted events", "subject", subject)

	return t.bus.Subscribe(subject, queue, func(ctx context.Context, payload []byte) error {
		var evt PurchaseCompletedEvent

		if err := json.Unmarshal(payload, &evt); err != nil {
			// ACK malformed JSON; retrying it would loop forever.
			t.logger.Error("Discarding malformed JSON event", "subject", subject, "error", err)
			return nil
		}

		return t.issue(ctx, evt)
	})
}

func (t *TokenIssuer) issue(ctx context.Context, evt PurchaseCompletedEvent) error {
	var txID pgtype.UUID
	if err := txID.Scan(evt.TransactionID); err != nil {
		t.logger.Error("Discarding event with invalid transaction id", "transaction_id", evt.TransactionID, "error", err)
		return nil
	}

	// Refuse to mint for anything the datastore does not confirm as
	// completed, regardless of what the event claims.
	if _, err := t.repo.GetTransactionResource(ctx, txID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			t.logger.Warn("No completed transaction for purchase event", "transaction_id", evt.TransactionID)
			return nil
		}
		return err
	}

	token := uuid.NewString()
	err := t.repo.CreateDownloadToken(ctx, repo.CreateDownloadTokenParams{
		Token:         token,
		TransactionID: txID,
		ExpiresAt:     time.Now().Add(t.tokenTTL),
		MaxDownloads:  t.maxDownloads,
	})
	if err != nil {
		return err
	}

	t.logger.Info("Issued guest download token",
		"transaction_id", evt.TransactionID,
		"expires_in", t.tokenTTL.String(),
		"max_downloads", t.maxDownloads,
		"trace_id", evt.TraceID,
	)
	return nil
}
