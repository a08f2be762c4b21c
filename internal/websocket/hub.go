package chatws

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/tommusungu/MentaCareBack/internal/models"
	"github.com/tommusungu/MentaCareBack/internal/services"
)

type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	logger     *zap.Logger
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// trySend queues a payload unless the client is closed or its buffer is full.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

type chatSender interface {
	SendMessage(
		ctx context.Context,
		actorID int64,
		role string,
		conversationID int64,
		input services.SendMessageInput,
	) (*services.ChatDelivery, error)
	MarkConversationRead(
		ctx context.Context,
		actorID int64,
		role string,
		conversationID int64,
	) (*models.Conversation, error)
}

type Message struct {
	Type            string `json:"type"`
	ConversationID  string `json:"conversation_id"`
	MessageID       string `json:"message_id,omitempty"`
	SenderID        string `json:"sender_id"`
	SenderName      string `json:"sender_name,omitempty"`
	RecipientID     string `json:"recipient_id,omitempty"`
	Content         string `json:"content"`
	ReplyToID       string `json:"reply_to_id,omitempty"`
	ReplySnippet    string `json:"reply_snippet,omitempty"`
	ReplySenderName string `json:"reply_sender_name,omitempty"`
	Timestamp       string `json:"timestamp"`
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 64),
		logger:     logger,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				client.closeSend()
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast fans a committed delivery out to both participants' sockets. Used
// by the REST send path so socket clients stay in sync.
func (h *Hub) Broadcast(delivery *services.ChatDelivery) {
	h.broadcast <- deliveryMessage(delivery)
}

func (h *Hub) deliver(message *Message) {
	encoded, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("chat hub encode message", zap.Error(err))
		return
	}

	h.sendToUser(message.SenderID, encoded)
	if message.RecipientID != "" && message.RecipientID != message.SenderID {
		h.sendToUser(message.RecipientID, encoded)
	}
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		if !client.trySend(payload) {
			delete(set, client)
			client.closeSend()
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

func (c *Client) ReadPump(service chatSender, role string) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	actorID, err := strconv.ParseInt(c.userID, 10, 64)
	if err != nil {
		writeError(c, "invalid user")
		return
	}

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type           string `json:"type"`
			ConversationID string `json:"conversation_id"`
			Content        string `json:"content"`
			ReplyToID      string `json:"reply_to_id"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeError(c, "invalid message payload")
			continue
		}

		conversationID, err := strconv.ParseInt(incoming.ConversationID, 10, 64)
		if err != nil || conversationID <= 0 {
			writeError(c, "invalid conversation id")
			continue
		}

		switch incoming.Type {
		case "message":
			input := services.SendMessageInput{Content: incoming.Content}
			if incoming.ReplyToID != "" {
				replyToID, err := strconv.ParseInt(incoming.ReplyToID, 10, 64)
				if err != nil || replyToID <= 0 {
					writeError(c, "invalid reply id")
					continue
				}
				input.ReplyToID = &replyToID
			}

			delivery, err := service.SendMessage(context.Background(), actorID, role, conversationID, input)
			if err != nil {
				writeError(c, "failed to send message")
				continue
			}
			c.hub.broadcast <- deliveryMessage(delivery)
		case "read":
			conversation, err := service.MarkConversationRead(context.Background(), actorID, role, conversationID)
			if err != nil {
				writeError(c, "failed to mark read")
				continue
			}
			c.hub.broadcast <- &Message{
				Type:           "read",
				ConversationID: incoming.ConversationID,
				SenderID:       c.userID,
				RecipientID:    strconv.FormatInt(conversation.CounterpartID(actorID), 10),
				Timestamp:      services.FormatChatTimestamp(time.Now().UTC()),
			}
		default:
			writeError(c, "unsupported message type")
		}
	}
}

func deliveryMessage(delivery *services.ChatDelivery) *Message {
	message := &Message{
		Type:           "message",
		ConversationID: strconv.FormatInt(delivery.Message.ConversationID, 10),
		MessageID:      strconv.FormatInt(delivery.Message.ID, 10),
		SenderID:       strconv.FormatInt(delivery.Message.SenderID, 10),
		SenderName:     delivery.Message.SenderName,
		RecipientID:    strconv.FormatInt(delivery.RecipientID, 10),
		Content:        delivery.Message.Content,
		Timestamp:      services.FormatChatTimestamp(delivery.Message.CreatedAt),
	}
	if delivery.Message.ReplyTo != nil {
		message.ReplyToID = strconv.FormatInt(delivery.Message.ReplyTo.MessageID, 10)
		message.ReplySnippet = delivery.Message.ReplyTo.Snippet
		message.ReplySenderName = delivery.Message.ReplyTo.SenderName
	}
	return message
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeError(client *Client, message string) {
	payload, err := json.Marshal(Message{
		Type:      "error",
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now().UTC()),
	})
	if err != nil {
		return
	}
	if !client.trySend(payload) {
		client.hub.Unregister(client)
	}
}
