// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ctrl is the embedded control API: an HTTP surface over the
// attribute registries of the running show, plus a websocket log
// stream. Everything a show file can set, the control API can set
// live.
package ctrl

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/prismap/prismap/values"
)

// Object is anything exposing an attribute registry.
type Object interface {
	Attributes() *values.Registry
}

// Server serves attribute access over HTTP.
type Server struct {
	mu      sync.RWMutex
	objects map[string]Object
	hub     *LogHub
}

// New returns a server streaming logs from the given hub; hub may be
// nil to disable the log endpoint.
func New(hub *LogHub) *Server {
	return &Server{objects: map[string]Object{}, hub: hub}
}

// Register exposes an object under the given name.
func (s *Server) Register(name string, obj Object) {
	s.mu.Lock()
	s.objects[name] = obj
	s.mu.Unlock()
}

func (s *Server) object(name string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	return obj, ok
}

// Router builds the HTTP routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/objects", s.listObjects)
	r.GET("/objects/:name/attributes", s.listAttributes)
	r.GET("/objects/:name/attributes/:attr", s.getAttribute)
	r.POST("/objects/:name/attributes/:attr", s.setAttribute)
	if s.hub != nil {
		r.GET("/log", s.hub.serve)
	}
	return r
}

func (s *Server) listObjects(c *gin.Context) {
	s.mu.RLock()
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"objects": names})
}

func (s *Server) listAttributes(c *gin.Context) {
	obj, ok := s.object(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such object"})
		return
	}
	reg := obj.Attributes()
	attrs := gin.H{}
	for _, name := range reg.Names() {
		if vals, ok := reg.Get(name); ok {
			attrs[name] = encodeValues(vals)
		}
	}
	c.JSON(http.StatusOK, gin.H{"attributes": attrs})
}

func (s *Server) getAttribute(c *gin.Context) {
	obj, ok := s.object(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such object"})
		return
	}
	vals, ok := obj.Attributes().Get(c.Param("attr"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such attribute"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": encodeValues(vals)})
}

func (s *Server) setAttribute(c *gin.Context) {
	obj, ok := s.object(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such object"})
		return
	}
	var body []any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	args, err := decodeValues(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !obj.Attributes().Set(c.Param("attr"), args) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "attribute rejected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// encodeValues renders an argument list as a JSON array.
func encodeValues(vals values.Values) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		switch v.Kind() {
		case values.KindString:
			out[i] = v.Str()
		case values.KindList:
			out[i] = encodeValues(v.List())
		default:
			out[i] = v.Float()
		}
	}
	return out
}

func decodeValues(body []any) (values.Values, error) {
	out := make(values.Values, len(body))
	for i, e := range body {
		switch x := e.(type) {
		case float64:
			out[i] = values.Float(x)
		case bool:
			out[i] = values.Bool(x)
		case string:
			out[i] = values.String(x)
		case []any:
			nested, err := decodeValues(x)
			if err != nil {
				return nil, err
			}
			out[i] = values.ListOf(nested)
		default:
			return nil, fmt.Errorf("unsupported argument %T", e)
		}
	}
	return out, nil
}
