package server

import (
	"encoding/json"
	"sync"

	"fortio.org/log"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/chazu/kiln/pkg/editor"
	"github.com/chazu/kiln/pkg/pick"
)

// Event types sent by clients.
const (
	EventPointerDown = "pointerdown"
	EventPointerMove = "pointermove"
	EventPointerUp   = "pointerup"
	EventCamera      = "camera"
	EventViewport    = "viewport"
	EventTick        = "tick"
)

// Message types sent to clients.
const (
	MessageSnapshot = "snapshot"
	MessagePointer  = "pointer"
	MessageError    = "error"
)

// Event is a client to server websocket message. X and Y are pointer
// coordinates in the viewport's space.
type Event struct {
	Type     string         `json:"type"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Camera   *pick.Camera   `json:"camera,omitempty"`
	Viewport *pick.Viewport `json:"viewport,omitempty"`
}

// Message is a server to client websocket message.
type Message struct {
	Type     string                `json:"type"`
	Snapshot *editor.Snapshot      `json:"snapshot,omitempty"`
	Pointer  *editor.PointerResult `json:"pointer,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// hub tracks connected clients. Writes to one connection are serialized
// by its own lock.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]*sync.Mutex)}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = &sync.Mutex{}
	log.Infof("server: client %s connected (%d total)", conn.RemoteAddr(), len(h.clients))
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
	log.Infof("server: client %s disconnected (%d total)", conn.RemoteAddr(), len(h.clients))
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) send(conn *websocket.Conn, data []byte) error {
	h.mu.Lock()
	lock, ok := h.clients[conn]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	lock.Lock()
	defer lock.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *hub) broadcast(data []byte) {
	h.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := h.send(c, data); err != nil {
			log.Warnf("server: write to %s: %v", c.RemoteAddr(), err)
			h.remove(c)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) snapshotMessage() ([]byte, error) {
	snap, err := s.ed.Snapshot()
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: MessageSnapshot, Snapshot: &snap})
}

// broadcast sends the current snapshot to every client.
func (s *Server) broadcast() {
	if s.hub.len() == 0 {
		return
	}
	data, err := s.snapshotMessage()
	if err != nil {
		log.Errf("server: snapshot: %v", err)
		return
	}
	s.hub.broadcast(data)
}

func (s *Server) reply(conn *websocket.Conn, m Message) {
	data, err := json.Marshal(m)
	if err != nil {
		log.Errf("server: encode %s message: %v", m.Type, err)
		return
	}
	if err := s.hub.send(conn, data); err != nil {
		log.Warnf("server: write to %s: %v", conn.RemoteAddr(), err)
	}
}

func (s *Server) serveWS(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already answered the request.
		log.Warnf("server: websocket upgrade: %v", err)
		return nil
	}
	s.hub.add(conn)
	sess := &session{conn: conn}
	defer func() {
		s.hub.remove(conn)
		// A drag nobody can release would lock every command out.
		if sess.dragging && s.ed.CancelDrag() {
			log.Infof("server: %s left mid-drag, drag abandoned", conn.RemoteAddr())
			s.broadcast()
		}
	}()

	data, err := s.snapshotMessage()
	if err != nil {
		log.Errf("server: snapshot: %v", err)
		return nil
	}
	if err := s.hub.send(conn, data); err != nil {
		return nil
	}

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warnf("server: read from %s: %v", conn.RemoteAddr(), err)
			}
			return nil
		}
		s.handleEvent(sess, ev)
	}
}

// session is one websocket client.
type session struct {
	conn *websocket.Conn
	// dragging is set between a pointer-down this client started a drag
	// with and the matching pointer-up.
	dragging bool
}

// handleEvent applies one client event and broadcasts the resulting frame
// when anything visible changed.
func (s *Server) handleEvent(sess *session, ev Event) {
	conn := sess.conn
	changed := true
	switch ev.Type {
	case EventPointerDown:
		res := s.ed.PointerDown(ev.X, ev.Y)
		if res.Consumed {
			sess.dragging = true
		}
		s.reply(conn, Message{Type: MessagePointer, Pointer: &res})
	case EventPointerMove:
		changed = s.ed.PointerMove(ev.X, ev.Y)
	case EventPointerUp:
		sess.dragging = false
		changed = s.ed.PointerUp()
	case EventCamera:
		if ev.Camera == nil {
			s.reply(conn, Message{Type: MessageError, Error: "camera event without camera"})
			return
		}
		s.ed.SetCamera(*ev.Camera)
	case EventViewport:
		if ev.Viewport == nil {
			s.reply(conn, Message{Type: MessageError, Error: "viewport event without viewport"})
			return
		}
		s.ed.SetViewport(*ev.Viewport)
	case EventTick:
		s.ed.Tick()
	default:
		s.reply(conn, Message{Type: MessageError, Error: "unknown event type " + ev.Type})
		return
	}
	if changed {
		s.broadcast()
	}
}
