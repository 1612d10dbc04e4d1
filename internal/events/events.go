package events

import (
	"os"
)

// FileStoredEvent announces a freshly stored resource file so the preview
// collaborator can render derived images from it.
type FileStoredEvent struct {
	Key         string `json:"key"`
	Category    string `json:"category"`
	OwnerID     string `json:"owner_id"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	TraceID     string `json:"trace_id"`
}

// PurchaseCompletedEvent is deposited by the checkout collaborator once a
// transaction reaches its completed state. It is the only trigger for
// minting a guest download token.
type PurchaseCompletedEvent struct {
	TransactionID string `json:"transaction_id"`
	BuyerEmail    string `json:"buyer_email"`
	TraceID       string `json:"trace_id"`
}

type EventConfig struct {
	FileStored        string
	PurchaseCompleted string
}

func NewEventConfig() *EventConfig {
	return &EventConfig{
		FileStored:        os.Getenv("EVENT_FILE_STORED"),
		PurchaseCompleted: os.Getenv("EVENT_PURCHASE_COMPLETED"),
	}
}
