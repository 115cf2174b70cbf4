// internal/stream/room.go
//
// Live push of session state to browser clients.
// Responsibilities:
//   - Hub: one Room per game ID, created on first use, closed on eviction.
//   - Room: implements the engine's render port (state messages) and audio
//     port (cue messages) by fanning JSON out to every connected client.
//
// Render is called with the engine lock held, so the room never blocks:
// a client whose buffer is full is dropped instead of stalling the game.

package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

const (
	// server → client
	MsgState   = "state"
	MsgCue     = "cue"
	MsgVerdict = "verdict"
	MsgError   = "error"
	MsgPong    = "pong"

	// client → server
	MsgClick   = "click"
	MsgRestart = "restart"
	MsgPing    = "ping"
)

// Message is the outbound envelope.
type Message struct {
	Type    string         `json:"type"`
	State   *game.Snapshot `json:"state,omitempty"`
	Cue     game.Cue       `json:"cue,omitempty"`
	TileID  *int           `json:"tileId,omitempty"`
	Verdict string         `json:"verdict,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Hub owns the rooms.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*Room)}
}

// Room returns the room for id, creating it if needed.
func (h *Hub) Room(id string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[id]
	if !ok {
		r = &Room{id: id, clients: make(map[*Client]struct{})}
		h.rooms[id] = r
	}
	return r
}

// Close disconnects every client of the room and forgets it.
func (h *Hub) Close(id string) {
	h.mu.Lock()
	r, ok := h.rooms[id]
	delete(h.rooms, id)
	h.mu.Unlock()
	if ok {
		r.close()
	}
}

// Len reports the number of rooms.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Room fans messages out to the clients watching one session.
type Room struct {
	id      string
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
}

// Render implements game.Renderer.
func (r *Room) Render(s game.Snapshot) {
	r.broadcast(Message{Type: MsgState, State: &s})
}

// Play implements game.AudioPort. Cues are delivered to the browser, which plays the sound.
func (r *Room) Play(_ context.Context, c game.Cue) error {
	r.broadcast(Message{Type: MsgCue, Cue: c})
	return nil
}

// Len reports the number of connected clients.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Room) broadcast(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		log.Error().Err(err).Str("gameId", r.id).Msg("marshal stream message")
		return
	}

	var slow []*Client
	r.mu.RLock()
	for c := range r.clients {
		select {
		case c.send <- b:
		default:
			slow = append(slow, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range slow {
		log.Warn().Str("gameId", r.id).Msg("dropping slow stream client")
		r.leave(c)
	}
}

// sendTo queues a message for one client. It reports false if the client is gone or full.
func (r *Room) sendTo(c *Client, m Message) bool {
	b, err := json.Marshal(m)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (r *Room) join(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// leave removes c and closes its send channel, which ends its write pump.
func (r *Room) leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}
}

func (r *Room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for c := range r.clients {
		delete(r.clients, c)
		close(c.send)
	}
}
