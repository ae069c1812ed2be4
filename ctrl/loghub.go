// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctrl

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The control API is bound to trusted interfaces.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const logWriteTimeout = 2 * time.Second

// logRecord is the wire form of one log line.
type logRecord struct {
	Time  time.Time      `json:"time"`
	Level string         `json:"level"`
	Msg   string         `json:"msg"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// connSet is the shared set of websocket subscribers.
type connSet struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func (cs *connSet) add(c *websocket.Conn) {
	cs.mu.Lock()
	cs.conns[c] = true
	cs.mu.Unlock()
}

func (cs *connSet) remove(c *websocket.Conn) {
	cs.mu.Lock()
	delete(cs.conns, c)
	cs.mu.Unlock()
	c.Close()
}

func (cs *connSet) broadcast(rec logRecord) {
	cs.mu.Lock()
	var dead []*websocket.Conn
	for c := range cs.conns {
		c.SetWriteDeadline(time.Now().Add(logWriteTimeout))
		if err := c.WriteJSON(rec); err != nil {
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		delete(cs.conns, c)
		c.Close()
	}
	cs.mu.Unlock()
}

// LogHub is a slog.Handler that forwards records to an inner handler
// and mirrors them to websocket subscribers of the /log endpoint.
type LogHub struct {
	inner slog.Handler
	attrs []slog.Attr
	set   *connSet
}

// NewLogHub wraps the given handler.
func NewLogHub(inner slog.Handler) *LogHub {
	return &LogHub{
		inner: inner,
		set:   &connSet{conns: map[*websocket.Conn]bool{}},
	}
}

func (h *LogHub) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *LogHub) Handle(ctx context.Context, rec slog.Record) error {
	out := logRecord{
		Time:  rec.Time,
		Level: rec.Level.String(),
		Msg:   rec.Message,
	}
	add := func(a slog.Attr) bool {
		if out.Attrs == nil {
			out.Attrs = map[string]any{}
		}
		out.Attrs[a.Key] = a.Value.String()
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	rec.Attrs(add)
	h.set.broadcast(out)
	return h.inner.Handle(ctx, rec)
}

func (h *LogHub) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHub{
		inner: h.inner.WithAttrs(attrs),
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
		set:   h.set,
	}
}

func (h *LogHub) WithGroup(name string) slog.Handler {
	return &LogHub{inner: h.inner.WithGroup(name), attrs: h.attrs, set: h.set}
}

// serve upgrades the request and subscribes it to the log stream
// until the peer disconnects.
func (h *LogHub) serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	h.set.add(conn)
	// Drain the connection; any read error means the peer is gone.
	go func() {
		defer h.set.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
