package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log15 "github.com/inconshreveable/log15"

	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Buffered outgoing messages per client before it is dropped.
	sendBuffer = 256
)

// ErrHubClosed is returned by Notify once Run has returned.
var ErrHubClosed = errors.New("websocket hub closed")

var _ service.Notifier = (*Hub)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Action is a control message sent by a client.
type Action struct {
	Action  string `json:"action"`
	BoardID string `json:"board_id"`
}

const (
	ActionJoin  = "join"
	ActionLeave = "leave"
)

// Client is one websocket connection. Its group set is owned by the hub
// goroutine.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	groups map[string]bool
}

type membership struct {
	client  *Client
	boardID string
}

type groupMessage struct {
	group string
	data  []byte
}

// Hub fans board events out to the clients subscribed to each board's group.
type Hub struct {
	// Clients by group name
	groups map[string]map[*Client]bool

	// Every registered client
	clients map[*Client]bool

	broadcast  chan groupMessage
	register   chan *Client
	unregister chan *Client
	join       chan membership
	leave      chan membership
	counts     chan chan map[string]int
	done       chan struct{}

	log log15.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger log15.Logger) *Hub {
	return &Hub{
		groups:     make(map[string]map[*Client]bool),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan groupMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		leave:      make(chan membership),
		counts:     make(chan chan map[string]int),
		done:       make(chan struct{}),
		log:        logging.OrDiscard(logger).New("component", "hub"),
	}
}

// Run starts the hub's event loop. It returns nil when ctx is done, after
// closing every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.unregisterClient(client)
			}
			return nil

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case m := <-h.join:
			h.joinGroup(m.client, m.boardID)

		case m := <-h.leave:
			h.leaveGroup(m.client, m.boardID)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)

		case reply := <-h.counts:
			counts := make(map[string]int, len(h.groups))
			for group, clients := range h.groups {
				counts[group] = len(clients)
			}
			reply <- counts
		}
	}
}

// Notify delivers event to every client in the event's board group.
func (h *Hub) Notify(ctx context.Context, event service.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- groupMessage{group: service.GroupName(event.BoardID), data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubClosed
	}
}

// Subscribers returns the number of clients in boardID's group.
func (h *Hub) Subscribers(ctx context.Context, boardID string) (int, error) {
	reply := make(chan map[string]int, 1)
	select {
	case h.counts <- reply:
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-h.done:
		return 0, ErrHubClosed
	}
	return (<-reply)[service.GroupName(boardID)], nil
}

// ServeWS upgrades the request and subscribes the connection to boardID's
// group when boardID is not empty.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, boardID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		groups: make(map[string]bool),
	}

	if !h.submit(h.register, client) {
		conn.Close()
		return
	}
	if boardID != "" {
		h.submitMembership(h.join, membership{client: client, boardID: boardID})
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) submit(ch chan *Client, client *Client) bool {
	select {
	case ch <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) submitMembership(ch chan membership, m membership) bool {
	select {
	case ch <- m:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
	h.log.Debug("client connected", "clients", len(h.clients))
}

// unregisterClient removes the client from every group and closes its send
// channel.
func (h *Hub) unregisterClient(client *Client) {
	if !h.clients[client] {
		return
	}
	for group := range client.groups {
		h.removeFromGroup(client, group)
	}
	delete(h.clients, client)
	close(client.send)
	h.log.Debug("client disconnected", "clients", len(h.clients))
}

func (h *Hub) joinGroup(client *Client, boardID string) {
	if !h.clients[client] {
		return
	}
	group := service.GroupName(boardID)
	if h.groups[group] == nil {
		h.groups[group] = make(map[*Client]bool)
	}
	h.groups[group][client] = true
	client.groups[group] = true

	h.log.Debug("client joined board", "board_id", boardID, "subscribers", len(h.groups[group]))

	// The whole group hears about the new subscriber.
	data, err := json.Marshal(service.Event{Type: service.EventStartBoard, BoardID: boardID})
	if err != nil {
		h.log.Error("failed to marshal event", "event", service.EventStartBoard, "err", err)
		return
	}
	h.broadcastMessage(groupMessage{group: group, data: data})
}

func (h *Hub) leaveGroup(client *Client, boardID string) {
	if !h.clients[client] {
		return
	}
	group := service.GroupName(boardID)
	if !client.groups[group] {
		return
	}
	h.removeFromGroup(client, group)

	h.log.Debug("client left board", "board_id", boardID)
	h.sendTo(client, service.Event{Type: service.EventLeftBoard, BoardID: boardID})
}

func (h *Hub) removeFromGroup(client *Client, group string) {
	delete(client.groups, group)
	if clients, ok := h.groups[group]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.groups, group)
		}
	}
}

func (h *Hub) sendTo(client *Client, event service.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal event", "event", event.Type, "err", err)
		return
	}
	select {
	case client.send <- data:
	default:
		h.unregisterClient(client)
	}
}

// broadcastMessage sends a message to all clients in a group
func (h *Hub) broadcastMessage(msg groupMessage) {
	for client := range h.groups[msg.group] {
		select {
		case client.send <- msg.data:
		default:
			// Client's send channel is full, drop it
			h.log.Warn("dropping slow client", "group", msg.group)
			h.unregisterClient(client)
		}
	}
}

// readPump handles join and leave actions from the connection
func (c *Client) readPump() {
	defer func() {
		c.hub.submit(c.hub.unregister, c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read failed", "err", err)
			}
			return
		}

		var action Action
		if err := json.Unmarshal(data, &action); err != nil || action.BoardID == "" {
			c.hub.log.Debug("ignoring client message", "message", string(data))
			continue
		}

		switch action.Action {
		case ActionJoin:
			if !c.hub.submitMembership(c.hub.join, membership{client: c, boardID: action.BoardID}) {
				return
			}
		case ActionLeave:
			if !c.hub.submitMembership(c.hub.leave, membership{client: c, boardID: action.BoardID}) {
				return
			}
		default:
			c.hub.log.Debug("unknown client action", "action", action.Action)
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
