package stream

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// publishChannel carries newly published points across instances.
const publishChannel = "map:points:published"

// Hub fans newly published points out to websocket subscribers. With a
// redis client it also relays publishes from other instances.
type Hub struct {
	redis   *redis.Client
	clients map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Send chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register() *Client {
	client := &Client{
		Send: make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// Broadcast delivers payload to subscribers. With redis configured the
// payload goes through pub/sub so every instance, including this one,
// receives it exactly once; without redis it is fanned out directly.
// Slow clients are skipped rather than blocked on.
func (h *Hub) Broadcast(payload []byte) {
	if h.redis == nil {
		h.fanOut(payload)
		return
	}

	if err := h.redis.Publish(context.Background(), publishChannel, payload).Err(); err != nil {
		log.Printf("redis publish error: %v", err)
		h.fanOut(payload)
	}
}

func (h *Hub) fanOut(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	pubsub := h.redis.Subscribe(context.Background(), publishChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.fanOut([]byte(msg.Payload))
	}
}
