// Copyright (c) 2026, Prismap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Prismap renders a projection-mapping show: cameras draw into
// textures, windows composite them onto displays, and the control API
// and show-file watcher tune everything live.
package main

import (
	"context"
	"flag"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prismap/prismap/camera"
	"github.com/prismap/prismap/config"
	"github.com/prismap/prismap/ctrl"
	"github.com/prismap/prismap/gpu"
	"github.com/prismap/prismap/render"
	"github.com/prismap/prismap/window"
)

func init() {
	// The windowing system and surfaces are main-thread only.
	runtime.LockOSThread()
}

func main() {
	showPath := flag.String("show", "show.toml", "show file to load")
	addr := flag.String("addr", "localhost:9090", "control API listen address")
	fps := flag.Int("fps", 60, "target frame rate")
	flag.Parse()

	hub := ctrl.NewLogHub(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(slog.New(hub))

	if err := run(*showPath, *addr, *fps, hub); err != nil {
		slog.Error("prismap: fatal", "err", err)
		os.Exit(1)
	}
}

func run(showPath, addr string, fps int, hub *ctrl.LogHub) error {
	show, err := config.Load(showPath)
	if err != nil {
		return err
	}

	if err := gpu.Init(); err != nil {
		return err
	}
	defer gpu.Terminate()

	dev, err := gpu.New("prismap")
	if err != nil {
		return err
	}
	defer dev.Release()

	arena := render.NewArena()
	objects := map[string]config.Attributed{}

	cameras := make(map[string]*camera.Camera, len(show.Cameras))
	for _, o := range show.Cameras {
		cam, err := camera.New(o.Name, dev, arena)
		if err != nil {
			return err
		}
		cameras[o.Name] = cam
		objects[o.Name] = cam
	}

	windows := make(map[string]*window.Window, len(show.Windows))
	var surfaces []*gpu.Surface
	for _, o := range show.Windows {
		surface, err := gpu.NewSurface(dev, image.Point{1280, 720}, o.Name)
		if err != nil {
			return err
		}
		surfaces = append(surfaces, surface)
		quad, err := gpu.NewScreenQuad(dev, surface)
		if err != nil {
			return err
		}
		win := window.New(o.Name, surface, dev, quad)
		surface.InstallCallbacks(win)
		windows[o.Name] = win
		objects[o.Name] = win
	}
	defer func() {
		for _, s := range surfaces {
			s.Destroy()
		}
	}()

	for _, l := range show.Links {
		cam, okc := cameras[l.Camera]
		win, okw := windows[l.Window]
		if !okc || !okw {
			slog.Warn("prismap: dangling link", "camera", l.Camera, "window", l.Window)
			continue
		}
		win.LinkTexture(cam.Target().Colors[0], window.LinkCamera)
	}

	if err := show.Apply(objects); err != nil {
		slog.Warn("prismap: applying show", "err", err)
	}

	server := ctrl.New(hub)
	for name, obj := range objects {
		server.Register(name, obj.(ctrl.Object))
	}
	go func() {
		if err := server.Router().Run(addr); err != nil {
			slog.Error("prismap: control API", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	// File changes are parsed off-thread but applied on the render
	// thread between frames.
	reload := make(chan *config.Show, 1)
	go func() {
		err := config.Watch(ctx, showPath, func(s *config.Show) {
			select {
			case reload <- s:
			default:
			}
		})
		if err != nil && ctx.Err() == nil {
			slog.Warn("prismap: show watch stopped", "err", err)
		}
	}()

	var group window.SwapGroup
	ticker := time.NewTicker(time.Second / time.Duration(max(fps, 1)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-reload:
			if err := s.Apply(objects); err != nil {
				slog.Warn("prismap: applying show", "err", err)
			}
		case <-ticker.C:
		}

		gpu.PollEvents()
		for _, win := range windows {
			if win.ShouldClose() {
				return nil
			}
		}

		for name, cam := range cameras {
			if err := cam.Render(); err != nil {
				slog.Warn("prismap: camera render", "camera", name, "err", err)
			}
		}
		for name, win := range windows {
			if err := win.Render(); err != nil {
				slog.Warn("prismap: window render", "window", name, "err", err)
			}
		}
		group.Reset()
		for _, win := range windows {
			win.SwapBuffers(&group)
		}
	}
}
