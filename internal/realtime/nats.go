package realtime

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

// Subjects mirrored from the API's event publisher.
const (
	subjectDatasetIngested   = "studio.dataset.ingested"
	subjectAnalysisCompleted = "studio.analysis.completed"
)

// NATSBridge subscribes to NATS subjects and pushes messages into the Hub.
type NATSBridge struct {
	conn *nats.Conn
	hub  *Hub
}

func NewNATSBridge(natsURL string, hub *Hub) (*NATSBridge, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSBridge{conn: nc, hub: hub}, nil
}

// Subscribe listens for studio events. Analysis outcomes are routed to the
// session's subscribers; dataset ingestions go to every connected client.
func (b *NATSBridge) Subscribe() error {
	_, err := b.conn.Subscribe(subjectAnalysisCompleted, func(msg *nats.Msg) {
		var event struct {
			SessionID uint `json:"sessionId"`
		}
		if err := json.Unmarshal(msg.Data, &event); err != nil || event.SessionID == 0 {
			log.Printf("nats: bad analysis payload on %q: %v", msg.Subject, err)
			return
		}

		envelope := outgoingMsg{
			Type:      "analysis.completed",
			SessionID: event.SessionID,
			Payload:   json.RawMessage(msg.Data),
		}
		data, err := json.Marshal(envelope)
		if err != nil {
			log.Printf("nats: marshal envelope: %v", err)
			return
		}

		b.hub.broadcast <- broadcastMsg{sessionID: event.SessionID, payload: data}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", subjectAnalysisCompleted, err)
	}

	_, err = b.conn.Subscribe(subjectDatasetIngested, func(msg *nats.Msg) {
		envelope := outgoingMsg{
			Type:    "dataset.ingested",
			Payload: json.RawMessage(msg.Data),
		}
		data, err := json.Marshal(envelope)
		if err != nil {
			log.Printf("nats: marshal envelope: %v", err)
			return
		}

		b.hub.broadcastAll <- data
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", subjectDatasetIngested, err)
	}

	log.Printf("NATS bridge subscribed to: %s, %s", subjectAnalysisCompleted, subjectDatasetIngested)
	return nil
}

// Close drains the NATS connection.
func (b *NATSBridge) Close() {
	if err := b.conn.Drain(); err != nil {
		log.Printf("nats drain: %v", err)
	}
}
