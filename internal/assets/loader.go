// Package assets turns catalog prototypes into scene subtrees.
package assets

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/xrplace/sandbox/internal/data"
	"github.com/xrplace/sandbox/internal/scene"
	"go.uber.org/zap"
)

// Loader loads a prototype's model. done may be called on any goroutine.
type Loader interface {
	Load(p *data.Prototype, done func(*scene.Node, error))
}

// Placeholder builds a stand-in mesh for each prototype on a background
// goroutine after Latency. Model decoding belongs to the renderer; the
// systems only need a named subtree to clone.
type Placeholder struct {
	Latency time.Duration
	Log     *zap.Logger
}

var supportedExt = map[string]bool{".gltf": true, ".glb": true, "": true}

func (l *Placeholder) Load(p *data.Prototype, done func(*scene.Node, error)) {
	go func() {
		if l.Latency > 0 {
			time.Sleep(l.Latency)
		}
		n, err := Build(p)
		if err == nil && l.Log != nil {
			l.Log.Debug("prototype loaded", zap.String("prototype", p.Name), zap.String("asset", p.Asset))
		}
		done(n, err)
	}()
}

// Build returns the placeholder subtree for p: a group named after the
// prototype holding one mesh.
func Build(p *data.Prototype) (*scene.Node, error) {
	ext := strings.ToLower(path.Ext(p.Asset))
	if !supportedExt[ext] {
		return nil, fmt.Errorf("prototype %s: unsupported asset %q", p.Name, p.Asset)
	}
	root := scene.NewGroup(p.Name)
	root.ARScale = p.ARScale
	root.Source = p.Asset
	root.Visible = p.Preview
	mesh := scene.NewNode(p.Name+"-mesh", scene.KindMesh)
	mesh.Material = &scene.Material{Color: 0xcccccc, Opacity: 1}
	root.Add(mesh)
	return root, nil
}
