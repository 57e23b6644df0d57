package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"admin-dashboard-bff/internal/pkg/logger"
	"admin-dashboard-bff/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// stateTopics are the store event streams mirrored to connected tabs.
var stateTopics = []string{events.TopicAuthSession, events.TopicTenant, events.TopicDocuments}

// Hub fans store state events out to every connected dashboard tab. Events
// arrive on the in-process bus; when Redis is configured they are also relayed
// across instances so tabs attached elsewhere stay in sync.
type Hub struct {
	// Connected tabs keyed by connection id.
	clients map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	subscriber message.Subscriber
	rdb        *redis.Client
	logger     logger.ILogger

	// instanceID keeps this hub from re-broadcasting its own relayed frames.
	instanceID uuid.UUID
}

func NewHub(subscriber message.Subscriber, rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]*Client),
		subscriber: subscriber,
		rdb:        rdb,
		logger:     log,
		instanceID: uuid.New(),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for _, topic := range stateTopics {
		messages, err := h.subscriber.Subscribe(ctx, topic)
		if err != nil {
			h.logger.Error("Hub", "Failed to subscribe to state topic", map[string]interface{}{"topic": topic, "error": err.Error()})
			continue
		}
		go h.pump(topic, messages)
	}

	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Info("Hub", "Tab connected", map[string]interface{}{"connection_id": client.ID})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				h.logger.Info("Hub", "Tab disconnected", map[string]interface{}{"connection_id": client.ID})
			}
			h.mu.Unlock()
		}
	}
}

// pump forwards one topic's events into the broadcast path.
func (h *Hub) pump(topic string, messages <-chan *message.Message) {
	for msg := range messages {
		frame, err := json.Marshal(map[string]interface{}{
			"type": topic,
			"data": json.RawMessage(msg.Payload),
		})
		if err != nil {
			msg.Ack()
			continue
		}

		h.broadcast(frame)

		if h.rdb != nil {
			relay, _ := json.Marshal(map[string]interface{}{
				"origin": h.instanceID.String(),
				"frame":  json.RawMessage(frame),
			})
			h.rdb.Publish(context.Background(), "dashboard_state_events", relay)
		}
		msg.Ack()
	}
}

func (h *Hub) broadcast(frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- frame:
		default:
			h.logger.Warn("Hub", "Tab send buffer full, dropping connection", map[string]interface{}{"connection_id": client.ID})
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

// subscribeToRedis delivers frames published by other instances to local tabs.
func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, "dashboard_state_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var relay struct {
			Origin string          `json:"origin"`
			Frame  json.RawMessage `json:"frame"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &relay); err != nil {
			continue
		}
		if relay.Origin == h.instanceID.String() {
			continue
		}
		h.broadcast(relay.Frame)
	}
}
