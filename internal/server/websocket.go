package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/zeusync/nodetree/internal/core/events/bus"
	"github.com/zeusync/nodetree/internal/core/observability/log"
)

// EventHello is sent to every websocket client once it is subscribed.
const EventHello = "inspector.hello"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type client struct {
	conn   *websocket.Conn
	filter string
	send   chan []byte

	once sync.Once
	done chan struct{}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *client) wants(eventType string) bool {
	return c.filter == "" || c.filter == eventType
}

// handleWebSocket streams bus events as JSON. ?type= limits the stream to one
// event type.
func (s *Inspector) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{
		conn:   conn,
		filter: r.URL.Query().Get("type"),
		send:   make(chan []byte, s.config.SendBuffer),
		done:   make(chan struct{}),
	}
	// hello must be queued before broadcast can see the client.
	if hello, err := json.Marshal(bus.NewEvent(EventHello, "inspector", nil)); err == nil {
		c.send <- hello
	}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug("websocket client connected", log.String("remote", conn.RemoteAddr().String()))

	go s.readPump(c)
	s.writePump(c)
}

// readPump discards client frames and notices disconnects.
func (s *Inspector) readPump(c *client) {
	defer c.close()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Inspector) writePump(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		_ = c.conn.Close()
		s.logger.Debug("websocket client disconnected", log.String("remote", c.conn.RemoteAddr().String()))
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// broadcast runs on the publisher's goroutine and never blocks on a slow
// client.
func (s *Inspector) broadcast(event bus.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) == 0 {
		return nil
	}

	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}
	for c := range s.clients {
		if !c.wants(event.Type) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			s.logger.Debug("websocket client lagging, event dropped", log.String("event", event.Type))
		}
	}
	return nil
}
