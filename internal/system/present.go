package system

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/xrplace/sandbox/internal/assets"
	"github.com/xrplace/sandbox/internal/core/async"
	"github.com/xrplace/sandbox/internal/core/event"
	coresys "github.com/xrplace/sandbox/internal/core/system"
	"github.com/xrplace/sandbox/internal/data"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/world"
	"github.com/xrplace/sandbox/internal/xr"
	"github.com/xrplace/sandbox/internal/xr/button"
	"go.uber.org/zap"
)

// PreviewContainerName is the node holding loaded prototypes.
const PreviewContainerName = "preview-container"

// PreviewCameraPosition is where the preview camera starts and returns to.
var PreviewCameraPosition = mgl64.Vec3{0, 0.1, 0.4}

// Mode of the presentation controller.
type Mode int

const (
	ModeSetup Mode = iota
	ModePreview
	ModeImmersive
)

func (m Mode) String() string {
	switch m {
	case ModePreview:
		return "preview"
	case ModeImmersive:
		return "immersive"
	}
	return "setup"
}

// PresentationOptions configure session entry.
type PresentationOptions struct {
	Init      xr.SessionInit
	Language  string
	PageURL   string
	AutoEnter bool
}

// PresentationSystem switches the scene between the orbiting preview and
// the immersive session. It acts only on transitions, so repeated frames
// in the same state change nothing. Phase 4 (Present).
type PresentationSystem struct {
	ws     *world.State
	log    *zap.Logger
	opts   PresentationOptions
	loader assets.Loader

	mode        Mode
	container   *scene.Node
	orbit       *scene.Orbit
	button      *button.Button
	launchURL   string
	transitions int
}

func NewPresentationSystem(ws *world.State, loader assets.Loader, opts PresentationOptions, log *zap.Logger) *PresentationSystem {
	return &PresentationSystem{
		ws:     ws,
		log:    log,
		opts:   opts,
		loader: loader,
	}
}

func (s *PresentationSystem) Phase() coresys.Phase { return coresys.PhasePresent }

func (s *PresentationSystem) Mode() Mode { return s.mode }

// Button is the AR entry button, nil before setup.
func (s *PresentationSystem) Button() *button.Button { return s.button }

// LaunchURL is the headset launch link, set when the runtime cannot
// present AR.
func (s *PresentationSystem) LaunchURL() string { return s.launchURL }

// Container holds the preview prototypes, nil before setup.
func (s *PresentationSystem) Container() *scene.Node { return s.container }

// Transitions counts preview/immersive switches.
func (s *PresentationSystem) Transitions() int { return s.transitions }

func (s *PresentationSystem) Update(dt time.Duration) {
	if s.mode == ModeSetup {
		s.setup()
		s.mode = ModePreview
		return
	}

	presenting := s.ws.Runtime.IsPresenting()
	switch {
	case s.mode == ModePreview && presenting:
		s.enterImmersive()
	case s.mode == ModeImmersive && !presenting:
		s.exitImmersive()
	}

	if s.container.Visible {
		s.orbit.Update(s.ws.Camera, dt.Seconds())
	}
}

func (s *PresentationSystem) setup() {
	s.container = scene.NewNode(PreviewContainerName, scene.KindMesh)
	s.container.Material = &scene.Material{Color: 0xffffff, Opacity: 1, DoubleSided: true}
	s.ws.Scene.Add(s.container)

	if s.ws.Prototypes != nil {
		for _, p := range s.ws.Prototypes.All() {
			s.load(p)
		}
	}

	s.ws.Camera.Position = PreviewCameraPosition
	s.ws.Camera.Zoom = 100
	s.orbit = &scene.Orbit{AutoRotate: true, Speed: scene.AutoRotateSpeed(math.Pi)}
	s.ws.Camera.LookAt(s.orbit.Target)

	// The button settles once the runtime answers the probe; the preview
	// runs in the meantime.
	s.button = button.Convert(s.ws.Runtime, s.ws.Async, button.Options{
		Init:          s.opts.Init,
		Language:      s.opts.Language,
		OnReady:       s.onReady,
		OnUnsupported: s.onUnsupported,
	}, s.log)
}

func (s *PresentationSystem) onReady() {
	s.log.Info("presentation ready", zap.String("label", s.button.Label()))
	if !s.opts.AutoEnter {
		return
	}
	if err := s.button.Click(); err != nil {
		s.log.Warn("auto enter failed", zap.Error(err))
	}
}

func (s *PresentationSystem) onUnsupported() {
	s.button.Visible = false
	s.launchURL = button.LaunchURL(s.opts.PageURL)
	s.log.Info("immersive AR unavailable, offering headset link", zap.String("url", s.launchURL))
}

func (s *PresentationSystem) load(p *data.Prototype) {
	s.loader.Load(p, async.Deliver(s.ws.Async, func(node *scene.Node, err error) {
		if err != nil {
			s.log.Warn("prototype load failed", zap.String("prototype", p.Name), zap.Error(err))
			return
		}
		node.Name = p.Name
		node.ARScale = p.ARScale
		s.container.Add(node)
	}))
}

func (s *PresentationSystem) enterImmersive() {
	s.container.Visible = false
	s.setXROnly(true)
	s.mode = ModeImmersive
	s.transitions++
	event.Emit(s.ws.Bus, event.SessionStarted{At: s.ws.Now()})
	s.log.Info("entered immersive mode")
}

func (s *PresentationSystem) exitImmersive() {
	s.container.Visible = true
	s.ws.Camera.Position = PreviewCameraPosition
	s.ws.Camera.LookAt(s.orbit.Target)
	s.setXROnly(false)
	s.mode = ModePreview
	s.transitions++
	s.button.Sync()
	event.Emit(s.ws.Bus, event.SessionEnded{At: s.ws.Now()})
	s.log.Info("returned to preview")
}

func (s *PresentationSystem) setXROnly(visible bool) {
	s.ws.Scene.Traverse(func(n *scene.Node) {
		if n.XROnly {
			n.Visible = visible
		}
	})
}
