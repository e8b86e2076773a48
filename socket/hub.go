package socket

import (
	"context"
	"encoding/json"
	"strconv"

	"writer/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	SavedType      = "DOCUMENT_SAVED" // A document was inserted or replaced
	SubscribeType  = "SUBSCRIBE"      // Client switches the document it follows
	SubscribedType = "SUBSCRIBED"     // Hub confirms which room the client is in

	// AllDocuments is the room of clients following every document (list views).
	AllDocuments = ""
)

type WSMessage struct {
	Type    string          `json:"type"`
	DocID   string          `json:"document_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub fans change events out to connected views. It keeps no document state:
// views re-fetch through the API when told something changed.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	move       chan roomChange
	done       chan struct{}
}

type roomChange struct {
	client *Client
	docID  string
}

type Client struct {
	Hub   *Hub
	Conn  *websocket.Conn
	DocID string
	Send  chan []byte
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		move:       make(chan roomChange),
		done:       make(chan struct{}),
	}
}

// DocRoom names the room of clients following one document.
func DocRoom(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Run owns the room maps until ctx is done; all mutations go through its channels.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.join(client, client.DocID)
			logger.Sugar.Debugf("Client joined room %q", client.DocID)

		case client := <-h.Unregister:
			if _, ok := h.Rooms[client.DocID][client]; ok {
				h.leave(client)
				close(client.Send)
			}

		case change := <-h.move:
			if _, ok := h.Rooms[change.client.DocID][change.client]; ok {
				h.leave(change.client)
				h.join(change.client, change.docID)
			}

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			recipients := make([]*Client, 0, len(h.Rooms[AllDocuments])+len(h.Rooms[msg.DocID]))
			for client := range h.Rooms[AllDocuments] {
				recipients = append(recipients, client)
			}
			if msg.DocID != AllDocuments {
				for client := range h.Rooms[msg.DocID] {
					recipients = append(recipients, client)
				}
			}

			for _, client := range recipients {
				select {
				case client.Send <- payload:
				default:
					// The client is lagging; drop it rather than block the hub.
					logger.Sugar.Warnf("Client in room %q has a full send buffer. Dropping.", client.DocID)
					h.leave(client)
					close(client.Send)
				}
			}
		}
	}
}

// Publish queues msg for delivery, giving up when ctx is done.
// Publishing to a stopped hub is a no-op.
func (h *Hub) Publish(ctx context.Context, msg WSMessage) error {
	select {
	case h.Broadcast <- msg:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) join(client *Client, docID string) {
	if h.Rooms[docID] == nil {
		h.Rooms[docID] = make(map[*Client]bool)
	}
	client.DocID = docID
	h.Rooms[docID][client] = true

	ack, _ := json.Marshal(WSMessage{Type: SubscribedType, DocID: docID})
	select {
	case client.Send <- ack:
	default:
	}
}

func (h *Hub) leave(client *Client) {
	delete(h.Rooms[client.DocID], client)
	if len(h.Rooms[client.DocID]) == 0 {
		delete(h.Rooms, client.DocID)
	}
}

func (h *Hub) closeAll() {
	for room, clients := range h.Rooms {
		for client := range clients {
			close(client.Send)
		}
		delete(h.Rooms, room)
	}
}
