package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"gamehub/internal/repository"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Heartbeat interval for version polling. Clients only refetch a
	// leaderboard when its version changes, max once per heartbeat, so
	// a busy game never turns into a request storm.
	versionHeartbeatInterval = 2 * time.Second
)

// GameLister provides the set of games worth watching
type GameLister interface {
	Games() []string
}

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of active clients and notifies them when any
// game's leaderboard version changes
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	redisRepo *repository.RedisRepository
	games     GameLister

	mu sync.RWMutex

	// last seen version per game
	lastVersions map[string]int64
}

// GameUpdate tells clients one game's leaderboard changed
type GameUpdate struct {
	Type    string `json:"type"`
	GameID  string `json:"game_id"`
	Version int64  `json:"version"`
}

// NewHub creates a new WebSocket hub
func NewHub(redisRepo *repository.RedisRepository, games GameLister) *Hub {
	return &Hub{
		clients:      make(map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		redisRepo:    redisRepo,
		games:        games,
		lastVersions: make(map[string]int64),
	}
}

// Run starts the WebSocket hub
func (h *Hub) Run(ctx context.Context) {
	log.Println("🚀 WebSocket Hub started")

	ticker := time.NewTicker(versionHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("✅ Client connected (Total: %d)", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("❌ Client disconnected (Total: %d)", total)

		case <-ticker.C:
			h.checkAndBroadcast(ctx)

		case <-ctx.Done():
			log.Println("🛑 WebSocket Hub shutting down")
			return
		}
	}
}

// checkAndBroadcast polls game versions and broadcasts each change
func (h *Hub) checkAndBroadcast(ctx context.Context) {
	if h.GetClientCount() == 0 {
		return
	}

	games := h.games.Games()
	if len(games) == 0 {
		return
	}

	versions, err := h.redisRepo.GetGameVersions(ctx, games)
	if err != nil {
		log.Printf("❌ Failed to get game versions: %v", err)
		return
	}

	for game, version := range versions {
		if version == h.lastVersions[game] {
			continue
		}
		h.lastVersions[game] = version
		h.broadcast(GameUpdate{
			Type:    "LEADERBOARD_UPDATE",
			GameID:  game,
			Version: version,
		})
	}
}

func (h *Hub) broadcast(update GameUpdate) {
	message, err := json.Marshal(update)
	if err != nil {
		log.Printf("❌ Failed to marshal update: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client's send buffer is full, skip this client
		}
	}
}

// GetClientCount returns the current number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump drains the connection; clients are not expected to send
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("⚠️  WebSocket unexpected close: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ServeWS handles WebSocket requests from clients
func ServeWS(hub *Hub, conn *websocket.Conn) {
	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	go client.writePump()
	client.readPump()
}
