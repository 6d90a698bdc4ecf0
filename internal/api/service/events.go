package service

import (
	"encoding/json"

	"github.com/nats-io/nats.go"

	"studio"
)

// NATS subjects carrying studio events. The realtime bridge subscribes to
// these and fans them out to websocket sessions.
const (
	SubjectDatasetIngested   = "studio.dataset.ingested"
	SubjectAnalysisCompleted = "studio.analysis.completed"
)

// EventPublisher pushes studio events onto NATS. A nil publisher is valid
// and drops everything, so services can run without a broker in tests.
type EventPublisher struct {
	conn *nats.Conn
}

func NewEventPublisher(natsURL string) (*EventPublisher, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &EventPublisher{conn: nc}, nil
}

func (p *EventPublisher) Publish(subject string, payload any) {
	if p == nil || p.conn == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		studio.Logger.Error().Err(err).Str("subject", subject).Msg("Error marshaling event payload")
		return
	}
	if err := p.conn.Publish(subject, data); err != nil {
		studio.Logger.Warn().Err(err).Str("subject", subject).Msg("Error publishing event")
	}
}

func (p *EventPublisher) Close() {
	if p != nil && p.conn != nil {
		_ = p.conn.Drain()
	}
}

// DatasetIngestedEvent announces a dataset landing in the analytical store.
type DatasetIngestedEvent struct {
	DatasetID uint   `json:"datasetId"`
	Name      string `json:"name"`
	TableName string `json:"tableName"`
	Source    string `json:"source"`
	RowCount  int    `json:"rowCount"`
}

// AnalysisCompletedEvent announces the outcome of one analysis turn.
type AnalysisCompletedEvent struct {
	SessionID   uint   `json:"sessionId"`
	MessageID   uint   `json:"messageId"`
	Kind        string `json:"kind,omitempty"`
	FailureKind string `json:"failureKind,omitempty"`
}
