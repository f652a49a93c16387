package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/danwib/tacwx/internal/forecast"
	"github.com/danwib/tacwx/internal/observability"
	"github.com/danwib/tacwx/pkg/logger"
)

// Message types for forecast streaming
const (
	MessageTypeSubscribe      = "subscribe"       // Client subscribes to a region code
	MessageTypeUnsubscribe    = "unsubscribe"     // Client drops a region code
	MessageTypeForecastUpdate = "forecast_update" // Server pushes a fresh snapshot
)

// Message represents a WebSocket message
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Client represents a connected dashboard client
type Client struct {
	conn          *websocket.Conn
	send          chan *Message
	server        *Server
	mu            sync.Mutex
	closed        bool
	subscriptions map[string]bool // region codes this client wants updates for
}

// Server represents a WebSocket server
type Server struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	upgrader   websocket.Upgrader
	logger     *logger.Logger
	mu         sync.RWMutex
}

// NewServer creates a new WebSocket server
func NewServer(log *logger.Logger) *Server {
	return &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // origin policy is handled by the HTTP middleware
			},
		},
		logger: log.Named("web-socket"),
	}
}

// Run starts the hub loop
func (s *Server) Run() {
	s.logger.Info("Starting WebSocket server")

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			observability.WebSocketClients.Set(float64(clientCount))
			s.logger.Debug("Client registered", logger.Int("client_count", clientCount))

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.mu.Lock()
				if !client.closed {
					client.closed = true
					close(client.send)
				}
				client.mu.Unlock()
			}
			clientCount := len(s.clients)
			s.mu.Unlock()
			observability.WebSocketClients.Set(float64(clientCount))
			s.logger.Debug("Client unregistered", logger.Int("client_count", clientCount))

		case message := <-s.broadcast:
			s.mu.RLock()
			var clientsToRemove []*Client
			for client := range s.clients {
				client.mu.Lock()
				if client.closed {
					client.mu.Unlock()
					continue
				}
				client.mu.Unlock()

				if !shouldSendToClient(client, message) {
					continue
				}

				select {
				case client.send <- message:
				default:
					// Send buffer full, drop the client
					clientsToRemove = append(clientsToRemove, client)
				}
			}
			s.mu.RUnlock()

			if len(clientsToRemove) > 0 {
				s.mu.Lock()
				for _, client := range clientsToRemove {
					if _, ok := s.clients[client]; ok {
						delete(s.clients, client)
						client.mu.Lock()
						if !client.closed {
							client.closed = true
							close(client.send)
						}
						client.mu.Unlock()
					}
				}
				observability.WebSocketClients.Set(float64(len(s.clients)))
				s.mu.Unlock()
			}
		}
	}
}

// HandleConnection upgrades an HTTP request and registers the client
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			logger.Error(err),
			logger.String("remote_addr", r.RemoteAddr))
		return
	}

	client := &Client{
		conn:          conn,
		send:          make(chan *Message, 64),
		server:        s,
		subscriptions: make(map[string]bool),
	}

	s.register <- client

	go client.readPump()
	go client.writePump()
}

// BroadcastForecastUpdate pushes a fresh snapshot to every client subscribed
// to its region. Implements forecast.Broadcaster.
func (s *Server) BroadcastForecastUpdate(regionCode string, snapshot *forecast.Snapshot) {
	s.broadcast <- &Message{
		Type: MessageTypeForecastUpdate,
		Data: map[string]any{
			"region_code": regionCode,
			"snapshot":    snapshot,
		},
	}
}

// shouldSendToClient filters forecast updates down to subscribed regions.
// Any other message type goes to everyone.
func shouldSendToClient(client *Client, message *Message) bool {
	if message.Type != MessageTypeForecastUpdate {
		return true
	}
	regionCode, _ := message.Data["region_code"].(string)
	return client.isSubscribed(regionCode)
}

func (c *Client) isSubscribed(regionCode string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptions[regionCode]
}

func (c *Client) setSubscription(regionCode string, subscribed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if subscribed {
		c.subscriptions[regionCode] = true
	} else {
		delete(c.subscriptions, regionCode)
	}
}

// readPump pumps messages from the connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			return
		}

		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			c.server.logger.Error("Failed to parse WebSocket message", logger.Error(err))
			continue
		}

		switch message.Type {
		case MessageTypeSubscribe, MessageTypeUnsubscribe:
			regionCode, _ := message.Data["region_code"].(string)
			if regionCode == "" {
				c.server.logger.Warn("Subscription message without region_code")
				continue
			}
			c.setSubscription(regionCode, message.Type == MessageTypeSubscribe)
			c.server.logger.Debug("Client subscription updated",
				logger.String("type", message.Type),
				logger.String("region", regionCode))

		default:
			c.server.logger.Debug("Ignoring unknown WebSocket message",
				logger.String("type", message.Type))
		}
	}
}

// writePump pumps messages from the hub to the connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		data, err := json.Marshal(message)
		if err != nil {
			c.server.logger.Error("Failed to marshal message", logger.Error(err))
			continue
		}

		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	// Hub closed the channel
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
