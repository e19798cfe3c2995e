package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Publisher receives decoded events
type Publisher interface {
	Publish(ev Event)
}

// EntryChange is the payload the entries trigger sends with pg_notify
type EntryChange struct {
	Op           string `json:"type"`
	ClassID      string `json:"class_id"`
	EntryID      string `json:"entry_id"`
	Armband      int    `json:"armband"`
	ResultStatus string `json:"result_status,omitempty"`
	ResultReason string `json:"result_reason,omitempty"`
	SearchTimeMs int    `json:"search_time_ms"`
}

// ListenerConfig holds LISTEN connection settings
type ListenerConfig struct {
	DSN          string
	Channel      string
	MinReconnect time.Duration
	MaxReconnect time.Duration
}

// Listener relays Postgres entry notifications into a Publisher, so that
// scores written by other clients reach every screen watching the class
type Listener struct {
	cfg ListenerConfig
	pub Publisher
}

// NewListener creates a listener. Run starts it.
func NewListener(cfg ListenerConfig, pub Publisher) *Listener {
	if cfg.Channel == "" {
		cfg.Channel = "entry_changes"
	}
	if cfg.MinReconnect <= 0 {
		cfg.MinReconnect = 2 * time.Second
	}
	if cfg.MaxReconnect < cfg.MinReconnect {
		cfg.MaxReconnect = time.Minute
	}
	return &Listener{cfg: cfg, pub: pub}
}

// Run listens until ctx is cancelled
func (l *Listener) Run(ctx context.Context) error {
	pl := pq.NewListener(l.cfg.DSN, l.cfg.MinReconnect, l.cfg.MaxReconnect, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			slog.Info("entry listener connected", "channel", l.cfg.Channel)
		case pq.ListenerEventDisconnected:
			slog.Warn("entry listener disconnected", "error", err)
		case pq.ListenerEventReconnected:
			slog.Info("entry listener reconnected", "channel", l.cfg.Channel)
		case pq.ListenerEventConnectionAttemptFailed:
			slog.Warn("entry listener connection attempt failed", "error", err)
		}
	})
	defer pl.Close()

	if err := pl.Listen(l.cfg.Channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.cfg.Channel, err)
	}

	keepalive := time.NewTicker(90 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-pl.Notify:
			// nil after a reconnect; notifications sent meanwhile are lost
			if n == nil {
				continue
			}
			ev, err := DecodeNotification(n.Extra, time.Now())
			if err != nil {
				slog.Warn("ignoring malformed entry notification", "error", err)
				continue
			}
			l.pub.Publish(ev)
		case <-keepalive.C:
			if err := pl.Ping(); err != nil {
				slog.Debug("entry listener ping failed", "error", err)
			}
		}
	}
}

// DecodeNotification turns a trigger payload into a class event
func DecodeNotification(payload string, at time.Time) (Event, error) {
	var change EntryChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return Event{}, fmt.Errorf("decode entry change: %w", err)
	}
	if change.ClassID == "" || change.EntryID == "" {
		return Event{}, fmt.Errorf("entry change missing ids: %s", payload)
	}
	return Event{
		Type:    EventEntryChanged,
		ClassID: change.ClassID,
		EntryID: change.EntryID,
		Data:    change,
		At:      at,
	}, nil
}
