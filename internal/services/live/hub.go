package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/curator/console/internal/models"
)

// Event types
const (
	EventTypeReady           = "READY"
	EventTypeRiskUpdate      = "RISK_UPDATE"
	EventTypeOperatorOnline  = "OPERATOR_ONLINE"
	EventTypeOperatorOffline = "OPERATOR_OFFLINE"
	EventTypeHeartbeat       = "HEARTBEAT"
	EventTypeHeartbeatAck    = "HEARTBEAT_ACK"
)

// riskChannel is the Redis channel the logs service publishes deltas on.
const riskChannel = "console:risk"

// Hub fans risk deltas and duty events out to every connected console.
// There is one feed; every client sees every update.
type Hub struct {
	clients         map[uuid.UUID]*Client
	operatorClients map[string][]*Client
	register        chan *Client
	unregister      chan *Client
	broadcast       chan *Event
	redis           *redis.Client
	mu              sync.RWMutex
}

// Event represents a WebSocket event
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ClientMessage represents an incoming message from a client
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		clients:         make(map[uuid.UUID]*Client),
		operatorClients: make(map[string][]*Client),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan *Event, 256),
		redis:           redisClient,
	}
}

func (h *Hub) Run(ctx context.Context) {
	// Risk deltas arrive over Redis so every instance sees them.
	go h.subscribeToRisk(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// BroadcastRiskDelta pushes a delta to every connected console on this
// instance. Cross-instance delivery rides the Redis channel instead.
func (h *Hub) BroadcastRiskDelta(delta models.RiskDelta) {
	h.broadcast <- &Event{Type: EventTypeRiskUpdate, Data: delta}
}

// OnlineOperators lists the operator ids with at least one open console.
func (h *Hub) OnlineOperators() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	online := make([]string, 0, len(h.operatorClients))
	for id := range h.operatorClients {
		online = append(online, id)
	}
	return online
}

// IsOperatorOnline checks if an operator has any active console
func (h *Hub) IsOperatorOnline(operatorID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.operatorClients[operatorID]
	return ok
}

// --- internal helpers ---

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.operatorClients[client.OperatorID] = append(h.operatorClients[client.OperatorID], client)
	h.mu.Unlock()

	log.Info().
		Str("clientId", client.ID.String()).
		Str("operatorId", client.OperatorID).
		Msg("Console connected")

	h.setDuty(context.Background(), client.OperatorID, true)
	h.broadcastEvent(&Event{
		Type: EventTypeOperatorOnline,
		Data: map[string]string{"uid": client.OperatorID},
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client.ID]
	if known {
		delete(h.clients, client.ID)
		close(client.Send)

		clients := h.operatorClients[client.OperatorID]
		for i, c := range clients {
			if c.ID == client.ID {
				h.operatorClients[client.OperatorID] = append(clients[:i], clients[i+1:]...)
				break
			}
		}
		if len(h.operatorClients[client.OperatorID]) == 0 {
			delete(h.operatorClients, client.OperatorID)
		}
	}
	_, stillOn := h.operatorClients[client.OperatorID]
	h.mu.Unlock()

	if !known {
		return
	}

	log.Info().
		Str("clientId", client.ID.String()).
		Str("operatorId", client.OperatorID).
		Msg("Console disconnected")

	if !stillOn {
		h.setDuty(context.Background(), client.OperatorID, false)
		h.broadcastEvent(&Event{
			Type: EventTypeOperatorOffline,
			Data: map[string]string{"uid": client.OperatorID},
		})
	}
}

func (h *Hub) broadcastEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal broadcast event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			log.Warn().Str("clientId", clientID.String()).Msg("Client send buffer full")
		}
	}
}

func (h *Hub) subscribeToRisk(ctx context.Context) {
	pubsub := h.redis.Subscribe(ctx, riskChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			var delta models.RiskDelta
			if err := json.Unmarshal([]byte(msg.Payload), &delta); err != nil {
				log.Warn().Err(err).Msg("Dropping malformed risk delta")
				continue
			}
			h.broadcastEvent(&Event{Type: EventTypeRiskUpdate, Data: delta})
		}
	}
}

// setDuty mirrors the operator's duty state into Redis so peers can show
// who is on.
func (h *Hub) setDuty(ctx context.Context, operatorID string, on bool) {
	key := "duty:" + operatorID
	if on {
		h.redis.Set(ctx, key, "on", 5*time.Minute)
		return
	}
	h.redis.Del(ctx, key)
}
