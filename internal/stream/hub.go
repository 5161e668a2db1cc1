// Package stream pushes trail change events to websocket clients watching a
// trail. With redis configured, events travel through one pub/sub channel per
// trail so every instance delivers them to its own clients.
package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"backend-trailhub/internal/shared/events"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "trails:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix
)

type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	log     *zap.Logger
}

type Client struct {
	TrailID string
	Send    chan []byte
}

// NewHub subscribes to the trail channels before returning. If the
// subscription cannot be confirmed the hub delivers to local clients only.
func NewHub(redisClient *redis.Client, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		clients: map[string]map[*Client]struct{}{},
		log:     log,
	}

	if redisClient != nil {
		ctx := context.Background()
		pubsub := redisClient.PSubscribe(ctx, channelPattern)
		if _, err := pubsub.Receive(ctx); err != nil {
			log.Warn("redis subscribe failed, delivering locally", zap.Error(err))
			_ = pubsub.Close()
		} else {
			h.redis = redisClient
			h.pubsub = pubsub
			go h.forward(pubsub.Channel())
		}
	}
	return h
}

func (h *Hub) Register(trailID string) *Client {
	client := &Client{
		TrailID: trailID,
		Send:    make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[trailID] == nil {
		h.clients[trailID] = map[*Client]struct{}{}
	}
	h.clients[trailID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if trailClients, ok := h.clients[client.TrailID]; ok {
		delete(trailClients, client)
		if len(trailClients) == 0 {
			delete(h.clients, client.TrailID)
		}
	}
	close(client.Send)
}

// Clients returns how many local clients watch trailID.
func (h *Hub) Clients(trailID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[trailID])
}

// Broadcast sends payload to every client watching trailID. With redis the
// message is published and delivered when it comes back on the
// subscription, so local clients see it exactly once.
func (h *Hub) Broadcast(trailID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(trailID), payload).Err()
		if err == nil {
			return
		}
		h.log.Warn("redis publish failed, delivering locally", zap.String("trail_id", trailID), zap.Error(err))
	}
	h.deliver(trailID, payload)
}

// Notify broadcasts ev as JSON to the clients of its trail.
func (h *Hub) Notify(_ context.Context, ev events.Event) {
	if ev.TrailID == "" {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("event encode failed", zap.Error(err))
		return
	}
	h.Broadcast(ev.TrailID, payload)
}

// Close stops the redis subscription.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.Close()
}

func (h *Hub) deliver(trailID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[trailID] {
		select {
		case client.Send <- payload:
		default:
			h.log.Debug("slow client dropped message", zap.String("trail_id", trailID))
		}
	}
}

func (h *Hub) forward(ch <-chan *redis.Message) {
	for msg := range ch {
		trailID := trailIDFromChannel(msg.Channel)
		if trailID == "" {
			continue
		}
		h.deliver(trailID, []byte(msg.Payload))
	}
}

func redisChannel(trailID string) string {
	return channelPrefix + trailID + channelSuffix
}

// trailIDFromChannel parses trails:{id}:events.
func trailIDFromChannel(ch string) string {
	if len(ch) <= len(channelPrefix)+len(channelSuffix) ||
		!strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(ch, channelPrefix), channelSuffix)
}
