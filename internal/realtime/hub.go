package realtime

import "log"

// Hub manages WebSocket clients and routes messages by chat session ID.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// sessionID -> set of subscribed clients
	subscriptions map[uint]map[*Client]bool

	register     chan *Client
	unregister   chan *Client
	subscribe    chan subscribeMsg
	broadcast    chan broadcastMsg
	broadcastAll chan []byte
}

type subscribeMsg struct {
	client    *Client
	sessionID uint
}

type broadcastMsg struct {
	sessionID uint
	payload   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[uint]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan subscribeMsg),
		broadcast:     make(chan broadcastMsg, 256),
		broadcastAll:  make(chan []byte, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("client registered (total: %d)", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				// Remove from all subscriptions
				for sessionID, subs := range h.subscriptions {
					delete(subs, client)
					if len(subs) == 0 {
						delete(h.subscriptions, sessionID)
					}
				}
				log.Printf("client unregistered (total: %d)", len(h.clients))
			}

		case msg := <-h.subscribe:
			if _, ok := h.subscriptions[msg.sessionID]; !ok {
				h.subscriptions[msg.sessionID] = make(map[*Client]bool)
			}
			h.subscriptions[msg.sessionID][msg.client] = true
			log.Printf("client subscribed to session %d (subscribers: %d)", msg.sessionID, len(h.subscriptions[msg.sessionID]))

		case msg := <-h.broadcast:
			if subs, ok := h.subscriptions[msg.sessionID]; ok {
				for client := range subs {
					select {
					case client.send <- msg.payload:
					default:
						// Client buffer full, remove it
						close(client.send)
						delete(subs, client)
						delete(h.clients, client)
					}
				}
			}

		case payload := <-h.broadcastAll:
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					close(client.send)
					delete(h.clients, client)
					for _, subs := range h.subscriptions {
						delete(subs, client)
					}
				}
			}
		}
	}
}
