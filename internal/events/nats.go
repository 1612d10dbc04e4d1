package events

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nats-io/nats.go"
)

var _ Bus = (*NATSBus)(nil)

type NATSBus struct {
	nats *nats.Conn
	js   nats.JetStreamContext
	log  *slog.Logger
}

func NewNATSBus(addr string, logger *slog.Logger) (*NATSBus, error) {

	opts := []nats.Option{
		// Identification: makes debugging on the NATS dashboard easier
		nats.Name("fileaccess-service"),

		// Resilience: never give up trying to reconnect.
		nats.MaxReconnects(-1),
		nats.ReconnectWait(3 * time.Second),

		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected! Buffering messages...", "error", err)
		}),

		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected successfully!", "url", nc.ConnectedUrl())
		}),

		// If the connection is permanently dead (e.g. auth failure),
		// kill the app so the orchestrator restarts it with fresh state.
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Error("NATS connection closed permanently. Exiting process.")
			os.Exit(1)
		}),
	}
	nc, err := nats.Connect(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create nats client: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}

	return &NATSBus{
		nats: nc,
		js:   js,
		log:  logger,
	}, nil
}

func (b *NATSBus) Publish(subject string, data []byte, msgId string) error {
	b.log.Info("Publishing event", "subject", subject, "data_size", len(data))

	_, err := b.js.Publish(subject, data, nats.MsgId(msgId))
	return err
}

func (b *NATSBus) Subscribe(subject string, group string, handler Handler) (Subscription, error) {
	b.log.Info("Subscribing to subject", "subject", subject, "queue", group)

	opts := []nats.SubOpt{
		nats.ManualAck(),
		nats.AckExplicit(),
		nats.DeliverAll(),      // If we crashed, catch up on what we missed
		nats.MaxAckPending(10), // Flow control
	}

	sub, err := b.js.QueueSubscribe(subject, group, func(msg *nats.Msg) {
		// Fresh bounded context per message so a stuck handler can't hang
		// the connection forever.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := handler(ctx, msg.Data); err != nil {
			b.log.Error("Handler failed, Nacking message", "subject", subject, "error", err)
			msg.Nak()
			return
		}

		if err := msg.Ack(); err != nil {
			b.log.Error("Failed to Ack message", "subject", subject, "error", err)
		}
	}, opts...)

	if err != nil {
		return Subscription{}, fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	return Subscription{
		Unsubscribe: func() error {
			return sub.Unsubscribe()
		},
	}, nil
}

func (b *NATSBus) Drain() error {
	b.log.Info("Draining events")
	return b.nats.Drain()
}
