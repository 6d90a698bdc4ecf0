package websocket

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// Teardown runs in the read pump's order: the queue closes, the worker
// drains whatever is left, and only then may the hub close Send. A client
// disconnecting while a turn is still queued must not crash the process.
func TestClientTeardownWaitsForWorker(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	client := NewClient("c1", 1, "amina", 7, hub, nil, nil, zerolog.Nop())
	hub.Register <- client

	for i := 0; i < 10; i++ {
		client.ProcessQueue <- Message{Type: MessageTypeAsk, SessionID: 7}
	}

	close(client.ProcessQueue)

	select {
	case <-client.workerDone:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after the queue closed")
	}

	hub.Unregister <- client

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-client.Send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Send was not closed after unregister")
		}
	}
}

func TestClientSendErrorDoesNotBlock(t *testing.T) {
	client := &Client{
		ID:        "c1",
		SessionID: 7,
		Username:  "amina",
		Send:      make(chan Message, 1),
		Logger:    zerolog.Nop(),
	}
	client.Send <- Message{Type: MessageTypeChat}

	done := make(chan struct{})
	go func() {
		client.sendError("server busy")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sendError blocked with a full send buffer")
	}
}
