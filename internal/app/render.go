package app

import (
	"github.com/xrplace/sandbox/internal/scene"
	"go.uber.org/zap"
)

// LogRenderer stands in for a GPU renderer: every Every frames it logs
// what would be drawn.
type LogRenderer struct {
	Log   *zap.Logger
	Every uint64

	frames uint64
}

// Stats summarises one rendered frame.
type Stats struct {
	Nodes   int
	Visible int
	Meshes  int
	Planes  int
}

func (r *LogRenderer) Render(root *scene.Node, cam *scene.Camera) {
	r.frames++
	if r.Every == 0 || r.frames%r.Every != 0 {
		return
	}
	st := Collect(root)
	pos := cam.WorldPosition()
	r.Log.Debug("frame",
		zap.Uint64("frame", r.frames),
		zap.Int("nodes", st.Nodes),
		zap.Int("visible", st.Visible),
		zap.Int("meshes", st.Meshes),
		zap.Int("planes", st.Planes),
		zap.Float64s("camera", []float64{pos.X(), pos.Y(), pos.Z()}),
	)
}

// Collect walks the graph. Hidden subtrees count as nodes but not as
// visible, matching how a renderer culls them.
func Collect(root *scene.Node) Stats {
	var s Stats
	var walk func(n *scene.Node, shown bool)
	walk = func(n *scene.Node, shown bool) {
		s.Nodes++
		shown = shown && n.Visible
		if shown {
			s.Visible++
			switch n.Kind {
			case scene.KindMesh:
				s.Meshes++
			case scene.KindPlane:
				s.Planes++
			}
		}
		for _, c := range n.Children() {
			walk(c, shown)
		}
	}
	walk(root, true)
	return s
}
