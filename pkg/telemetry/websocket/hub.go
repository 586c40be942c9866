// Package websocket broadcasts telemetry packets to websocket clients.
package websocket

import (
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/radariq.go/pkg/framework"
)

// ReadWriter implements telemetry.PacketReader and telemetry.PacketWriter
// on a websocket connection.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadPacket implements telemetry.PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements telemetry.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Hub keeps the connected clients. It implements http.Handler for the
// upgrade and telemetry.PacketWriter for broadcasting.
type Hub struct {
	lock    sync.RWMutex
	clients map[*ReadWriter]struct{}
	handler http.Handler
}

// NewHub creates a Hub.
func NewHub() *Hub {
	h := &Hub{clients: make(map[*ReadWriter]struct{})}
	h.handler = websocket.Handler(h.serve)
	return h
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients)
}

// ServeHTTP implements http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// WritePacket implements telemetry.PacketWriter. Clients failing to
// receive are disconnected.
func (h *Hub) WritePacket(pkt []byte) error {
	h.lock.RLock()
	clients := make([]*ReadWriter, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.lock.RUnlock()

	var errs fx.AggregatedError
	for _, c := range clients {
		if err := c.WritePacket(pkt); err != nil {
			errs.Add(err)
			h.remove(c)
		}
	}
	return errs.Aggregate()
}

// Close disconnects all clients.
func (h *Hub) Close() error {
	h.lock.Lock()
	clients := h.clients
	h.clients = make(map[*ReadWriter]struct{})
	h.lock.Unlock()
	var errs fx.AggregatedError
	for c := range clients {
		errs.Add((*websocket.Conn)(c).Close())
	}
	return errs.Aggregate()
}

func (h *Hub) serve(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	c := New(conn)
	h.lock.Lock()
	h.clients[c] = struct{}{}
	h.lock.Unlock()
	glog.Infof("websocket client %s connected", conn.Request().RemoteAddr)
	// Clients only listen; reading detects the disconnect.
	for {
		if _, err := c.ReadPacket(); err != nil {
			break
		}
	}
	h.remove(c)
	glog.Infof("websocket client %s disconnected", conn.Request().RemoteAddr)
}

func (h *Hub) remove(c *ReadWriter) {
	h.lock.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.lock.Unlock()
	if ok {
		(*websocket.Conn)(c).Close()
	}
}
