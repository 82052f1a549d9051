package events

import (
	"encoding/json"
	"time"

	nats "github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"blackmarket-trader/internal/services/trading"
)

// SaleEvent is published for every settled blackmarket sale.
type SaleEvent struct {
	SessionID string    `json:"session_id"`
	TraderID  string    `json:"trader_id"`
	Requested int       `json:"requested"`
	Accepted  int       `json:"accepted"`
	Total     int       `json:"total"`
	Time      time.Time `json:"time"`
}

// Publisher pushes sale events to NATS. Publishing is best effort: a publisher
// without a connection drops events, and publish failures are only logged.
type Publisher struct {
	conn    *nats.Conn
	subject string
	log     logrus.FieldLogger
}

// Connect dials url. An empty url, or a server that cannot be reached, yields a
// publisher that drops every event.
func Connect(url, subject string, log logrus.FieldLogger) *Publisher {
	p := &Publisher{subject: subject, log: log}
	if url == "" {
		return p
	}

	conn, err := nats.Connect(url, nats.Timeout(3*time.Second), nats.Name("blackmarket-trader"))
	if err != nil {
		log.WithError(err).Warnf("Failed to connect to NATS at %s", url)
		return p
	}

	p.conn = conn
	log.Infof("Connected to NATS at %s", url)
	return p
}

func (p *Publisher) Connected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

func (p *Publisher) SaleSettled(sessionID, traderID string, result trading.SettlementResult) {
	if p.conn == nil {
		return
	}

	data, err := json.Marshal(SaleEvent{
		SessionID: sessionID,
		TraderID:  traderID,
		Requested: result.Requested,
		Accepted:  result.Accepted,
		Total:     result.Total,
		Time:      time.Now().UTC(),
	})
	if err != nil {
		p.log.WithError(err).Warn("Failed to encode sale event")
		return
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		p.log.WithError(err).Warn("Failed to publish sale event")
	}
}

func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
