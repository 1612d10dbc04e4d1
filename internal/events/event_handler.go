package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

type EventHandler struct {
	bus    Bus
	config *EventConfig
	logger *slog.Logger
}

func NewEventHandler(bus Bus, config *EventConfig, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		bus:    bus,
		config: config,
		logger: logger,
	}
}

// RaiseFileStoredEvent publishes the stored-file fact. Preview generation
// happens elsewhere; we only hand over the key.
func (h *EventHandler) RaiseFileStoredEvent(evt FileStoredEvent) error {
	h.logger.Info("Raising FileStored",
		"key", evt.Key,
		"category", evt.Category,
		"owner_id", evt.OwnerID,
	)

	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("Failed to marshal FileStoredEvent", "error", err)
		return err
	}

	msgId := fmt.Sprintf("stored.%s", evt.Key)
	return h.bus.Publish(h.config.FileStored, data, msgId)
}
