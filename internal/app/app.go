// Package app drives frames: it pumps the runtime, runs queued
// completions, ticks the systems and hands the scene to a renderer.
package app

import (
	"context"
	"time"

	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/world"
	"go.uber.org/zap"
)

// Renderer draws one frame of the scene from a camera.
type Renderer interface {
	Render(root *scene.Node, cam *scene.Camera)
}

// App owns the frame loop.
type App struct {
	ws       *world.State
	runner   *coresys.Runner
	renderer Renderer
	log      *zap.Logger
}

func New(ws *world.State, runner *coresys.Runner, renderer Renderer, log *zap.Logger) *App {
	return &App{ws: ws, runner: runner, renderer: renderer, log: log}
}

// Frame runs one frame: runtime update, completion drain, system tick and
// render, in that order. It reports false when the tick was refused.
func (a *App) Frame(dt time.Duration) bool {
	a.ws.BeginFrame()
	a.ws.Runtime.Update()
	a.ws.Async.Drain()
	if !a.runner.Tick(dt) {
		a.log.Warn("frame tick refused, previous frame still running", zap.Uint64("frame", a.ws.Frame()))
		return false
	}
	if a.renderer != nil {
		a.renderer.Render(a.ws.Scene, a.ws.Camera)
	}
	return true
}

// Run ticks frames every interval until ctx is done or maxFrames frames
// have run (0 means no limit). dt is the wall time since the last frame.
func (a *App) Run(ctx context.Context, interval time.Duration, maxFrames uint64) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := a.ws.Now()
	var frames uint64
	for {
		select {
		case <-ctx.Done():
			a.log.Info("frame loop stopped", zap.Uint64("frames", frames))
			return nil
		case <-ticker.C:
			now := a.ws.Now()
			dt := now.Sub(last)
			last = now
			if a.Frame(dt) {
				frames++
			}
			if maxFrames > 0 && frames >= maxFrames {
				a.log.Info("frame limit reached", zap.Uint64("frames", frames))
				return nil
			}
		}
	}
}
