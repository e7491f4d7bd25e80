package system

import (
	"testing"
	"time"

	"github.com/xrplace/sandbox/internal/core/event"
	"github.com/xrplace/sandbox/internal/scene"
	"github.com/xrplace/sandbox/internal/world"
	"github.com/xrplace/sandbox/internal/xr"
	"github.com/xrplace/sandbox/internal/xr/emulator"
)

func TestAnchoredObjectAttachesToAnchor(t *testing.T) {
	h := newHarness(t, harnessOpts{
		controls: world.PageControls{Anchor: true},
		device:   func(o *emulator.Options) { o.AnchorLatency = 50 * time.Millisecond },
	})
	h.immersive()
	h.click(xr.HandRight)
	if len(h.placed()) != 0 {
		t.Fatalf("object placed before its anchor resolved")
	}
	if h.actual.AwaitingAnchors() != 1 {
		t.Fatalf("awaiting = %d, want 1", h.actual.AwaitingAnchors())
	}

	h.step(10)
	objs := h.placed()
	if len(objs) != 1 {
		t.Fatalf("placed objects = %d, want 1", len(objs))
	}
	if p := objs[0].Parent(); p == nil || p.Kind != scene.KindAnchor {
		t.Fatalf("object parent = %v, want an anchor", p)
	}
	if len(h.sink.placements) != 1 || !h.sink.placements[0].Anchored {
		t.Fatalf("journal = %+v", h.sink.placements)
	}
}

func TestAnchorResolvingAfterSessionEnd(t *testing.T) {
	h := newHarness(t, harnessOpts{
		controls: world.PageControls{Anchor: true},
		device:   func(o *emulator.Options) { o.AnchorLatency = 300 * time.Millisecond },
	})
	h.immersive()
	h.click(xr.HandRight)
	if err := h.present.Button().Click(); err != nil {
		t.Fatalf("exit click: %v", err)
	}
	h.step(40)

	if h.present.Mode() != ModePreview {
		t.Fatalf("mode = %v, want preview", h.present.Mode())
	}
	if h.actual.AwaitingAnchors() != 0 {
		t.Fatalf("anchor still pending")
	}
	objs := h.placed()
	if len(objs) != 1 {
		t.Fatalf("placed objects = %d, want 1", len(objs))
	}
	if objs[0].Visible {
		t.Fatalf("late object visible outside the session")
	}
}

func TestAnchorFailureIsSilent(t *testing.T) {
	h := newHarness(t, harnessOpts{
		controls: world.PageControls{Anchor: true},
		device:   func(o *emulator.Options) { o.AnchorFailureRate = 1 },
	})
	h.immersive()

	var failed []event.AnchorFailed
	event.Subscribe(h.ws.Bus, func(e event.AnchorFailed) { failed = append(failed, e) })

	h.click(xr.HandRight)
	h.step(3)

	if len(h.placed()) != 0 {
		t.Fatalf("object placed despite anchor failure")
	}
	if len(failed) != 1 || failed[0].RequestID != 1 {
		t.Fatalf("anchor failures = %+v", failed)
	}
	if h.ws.C.Spinners.Len() != 0 {
		t.Fatalf("spinner kept for an object that never entered the scene")
	}
	if len(h.sink.placements) != 0 {
		t.Fatalf("failed placement journaled")
	}

	h.click(xr.HandRight)
	h.step(3)
	if len(failed) != 2 {
		t.Fatalf("second failure not reported")
	}
}

func TestObjectsHiddenInPreviewAndShownInSession(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	h.immersive()
	h.click(xr.HandRight)

	obj := h.placed()[0]
	if !obj.Visible {
		t.Fatalf("object hidden while presenting")
	}
	if err := h.present.Button().Click(); err != nil {
		t.Fatal(err)
	}
	h.step(1)
	if obj.Visible {
		t.Fatalf("object visible in preview")
	}
	if err := h.present.Button().Click(); err != nil {
		t.Fatal(err)
	}
	h.step(1)
	if !obj.Visible {
		t.Fatalf("object hidden after re-entering the session")
	}
}
