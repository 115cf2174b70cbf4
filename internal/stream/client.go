package stream

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Controller is the slice of the engine a stream client drives.
type Controller interface {
	ClickIn(generation uint64, tileID int) game.Verdict
	Restart() error
	Snapshot() game.Snapshot
}

// Hooks observe what a client did. Nil fields are skipped.
type Hooks struct {
	OnVerdict func(game.Verdict) // every click, accepted or not
	OnRestart func()             // every successful restart
}

// Inbound is a client → server message.
type Inbound struct {
	Type       string `json:"type"`
	TileID     int    `json:"tileId"`
	Generation uint64 `json:"generation"`
}

// Client is one WebSocket connection watching a room.
type Client struct {
	conn  *websocket.Conn
	send  chan []byte
	room  *Room
	ctrl  Controller
	hooks Hooks
	log   zerolog.Logger
}

// Serve attaches conn to room and runs until the connection closes.
func Serve(conn *websocket.Conn, room *Room, ctrl Controller, hooks Hooks, lg zerolog.Logger) {
	c := &Client{
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		room:  room,
		ctrl:  ctrl,
		hooks: hooks,
		log:   lg,
	}
	if !room.join(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"), time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	go c.writePump()

	snap := ctrl.Snapshot()
	room.sendTo(c, Message{Type: MsgState, State: &snap})

	c.readPump()
}

func (c *Client) readPump() {
	defer c.room.leave(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("stream read")
			}
			return
		}
		var in Inbound
		if err := json.Unmarshal(raw, &in); err != nil {
			c.room.sendTo(c, Message{Type: MsgError, Error: "bad_json"})
			continue
		}
		c.handle(in)
	}
}

func (c *Client) handle(in Inbound) {
	switch in.Type {
	case MsgClick:
		v := c.ctrl.ClickIn(in.Generation, in.TileID)
		if c.hooks.OnVerdict != nil {
			c.hooks.OnVerdict(v)
		}
		id := in.TileID
		c.room.sendTo(c, Message{Type: MsgVerdict, TileID: &id, Verdict: v.String()})
	case MsgRestart:
		if err := c.ctrl.Restart(); err != nil {
			c.room.sendTo(c, Message{Type: MsgError, Error: err.Error()})
			return
		}
		if c.hooks.OnRestart != nil {
			c.hooks.OnRestart()
		}
	case MsgPing:
		c.room.sendTo(c, Message{Type: MsgPong})
	default:
		c.room.sendTo(c, Message{Type: MsgError, Error: "unknown_type"})
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug().Err(err).Msg("stream write")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
