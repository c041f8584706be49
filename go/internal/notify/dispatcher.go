package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Notice is one league-facing message. Empty TeamIDs means league-wide.
type Notice struct {
	LeagueID uuid.UUID   `json:"league_id"`
	TeamIDs  []uuid.UUID `json:"team_ids,omitempty"`
	Message  string      `json:"message"`
	SentAt   time.Time   `json:"sent_at"`
}

// Dispatcher delivers notices fire-and-forget. Implementations log delivery
// failures; settlement never sees them.
type Dispatcher interface {
	Send(ctx context.Context, n Notice)
}

// NATSConfig configures the NATS-backed dispatcher.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "league.notices",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSDispatcher publishes notices to a per-league subject.
type NATSDispatcher struct {
	nc     *nats.Conn
	config NATSConfig
}

func NewNATSDispatcher(cfg NATSConfig) (*NATSDispatcher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSDispatcher{nc: nc, config: cfg}, nil
}

func (d *NATSDispatcher) Send(ctx context.Context, n Notice) {
	subject := fmt.Sprintf("%s.%s", d.config.SubjectPrefix, n.LeagueID)
	payload, err := json.Marshal(n)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal notice")
		return
	}
	if err := d.nc.Publish(subject, payload); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("failed to publish notice")
	}
}

// Close drains the connection.
func (d *NATSDispatcher) Close() {
	if err := d.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
	}
}

// LogDispatcher writes notices to the log. Used in development and tests.
type LogDispatcher struct{}

func (LogDispatcher) Send(_ context.Context, n Notice) {
	log.Info().
		Str("league_id", n.LeagueID.String()).
		Int("team_count", len(n.TeamIDs)).
		Str("message", n.Message).
		Msg("notice")
}
