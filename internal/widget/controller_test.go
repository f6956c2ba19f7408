package widget

import (
	"testing"

	"github.com/pressdeck/editorial-chat/internal/kvstore"
)

func newTestController(kv kvstore.Store) *Controller {
	return NewController(ControllerConfig{
		KV:       kv,
		Viewport: Viewport{Width: 1280, Height: 800},
		Button:   Size{Width: 48, Height: 48},
		Panel:    Size{Width: 320, Height: 420},
	})
}

func TestClick_TogglesWithoutMovingButton(t *testing.T) {
	kv := kvstore.NewMemStore()
	c := newTestController(kv)
	start := c.Position()

	// sub-threshold wiggle still counts as a click
	c.HandlePointer(PointerEvent{Kind: PointerDown, X: start.X + 10, Y: start.Y + 10})
	c.HandlePointer(PointerEvent{Kind: PointerMove, X: start.X + 11, Y: start.Y + 11})
	toggled := c.HandlePointer(PointerEvent{Kind: PointerUp, X: start.X + 11, Y: start.Y + 11})

	if !toggled {
		t.Fatalf("expected click to toggle")
	}
	if c.State() != StateOpen {
		t.Fatalf("expected open, got %v", c.State())
	}
	if c.Position() != start {
		t.Fatalf("click must not move the button: %+v -> %+v", start, c.Position())
	}
	if _, err := kv.Get(PositionKey); err != kvstore.ErrNotFound {
		t.Fatalf("click must not persist a position, got err=%v", err)
	}

	// second click closes again
	c.HandlePointer(PointerEvent{Kind: PointerDown, X: start.X + 10, Y: start.Y + 10})
	c.HandlePointer(PointerEvent{Kind: PointerUp, X: start.X + 10, Y: start.Y + 10})
	if c.State() != StateClosed {
		t.Fatalf("expected closed, got %v", c.State())
	}
}

func TestDrag_MovesButtonWithoutToggling(t *testing.T) {
	kv := kvstore.NewMemStore()
	c := newTestController(kv)
	start := c.Position()

	c.HandlePointer(PointerEvent{Kind: PointerDown, X: start.X + 5, Y: start.Y + 5})
	c.HandlePointer(PointerEvent{Kind: PointerMove, X: start.X + 105, Y: start.Y - 95})
	if c.State() != StateDragging {
		t.Fatalf("expected dragging, got %v", c.State())
	}
	toggled := c.HandlePointer(PointerEvent{Kind: PointerUp, X: start.X + 105, Y: start.Y - 95})

	if toggled {
		t.Fatalf("drag must not toggle")
	}
	if c.State() != StateClosed {
		t.Fatalf("expected closed after drag, got %v", c.State())
	}
	want := Position{X: start.X + 100, Y: start.Y - 100}
	if c.Position() != want {
		t.Fatalf("expected %+v, got %+v", want, c.Position())
	}
	if _, err := kv.Get(PositionKey); err != nil {
		t.Fatalf("drag end must persist position: %v", err)
	}
}

func TestDrag_RestoresVisibilityFromBeforeDrag(t *testing.T) {
	kv := kvstore.NewMemStore()
	c := newTestController(kv)
	start := c.Position()

	// open first
	c.HandlePointer(PointerEvent{Kind: PointerDown, X: start.X, Y: start.Y})
	c.HandlePointer(PointerEvent{Kind: PointerUp, X: start.X, Y: start.Y})
	if c.State() != StateOpen {
		t.Fatalf("setup: expected open")
	}

	c.HandlePointer(PointerEvent{Kind: PointerDown, X: start.X, Y: start.Y})
	c.HandlePointer(PointerEvent{Kind: PointerMove, X: start.X + 50, Y: start.Y})
	c.HandlePointer(PointerEvent{Kind: PointerUp, X: start.X + 50, Y: start.Y})

	if c.State() != StateOpen {
		t.Fatalf("expected open restored after drag, got %v", c.State())
	}
}

func TestDrag_ClampsToViewport(t *testing.T) {
	kv := kvstore.NewMemStore()
	c := newTestController(kv)
	start := c.Position()

	c.HandlePointer(PointerEvent{Kind: PointerDown, X: start.X, Y: start.Y})
	c.HandlePointer(PointerEvent{Kind: PointerMove, X: 5000, Y: -5000})
	c.HandlePointer(PointerEvent{Kind: PointerUp, X: 5000, Y: -5000})

	got := c.Position()
	if got.X != 1280-48 || got.Y != 0 {
		t.Fatalf("expected clamped corner {%d 0}, got %+v", 1280-48, got)
	}
}

func TestUnread_IncrementsWhileClosedResetsOnOpen(t *testing.T) {
	kv := kvstore.NewMemStore()
	c := newTestController(kv)
	start := c.Position()

	c.NoteIngest()
	c.NoteIngest()
	if c.Unread() != 2 {
		t.Fatalf("expected 2 unread, got %d", c.Unread())
	}

	// open resets
	c.HandlePointer(PointerEvent{Kind: PointerDown, X: start.X, Y: start.Y})
	c.HandlePointer(PointerEvent{Kind: PointerUp, X: start.X, Y: start.Y})
	if c.Unread() != 0 {
		t.Fatalf("expected unread reset on open, got %d", c.Unread())
	}

	// ingest while open does not count
	c.NoteIngest()
	if c.Unread() != 0 {
		t.Fatalf("expected 0 unread while open, got %d", c.Unread())
	}
}

func TestPanelPosition_StaysOnScreen(t *testing.T) {
	kv := kvstore.NewMemStore()
	c := newTestController(kv)

	// drag the button to the top-right corner
	start := c.Position()
	c.HandlePointer(PointerEvent{Kind: PointerDown, X: start.X, Y: start.Y})
	c.HandlePointer(PointerEvent{Kind: PointerMove, X: 5000, Y: -5000})
	c.HandlePointer(PointerEvent{Kind: PointerUp, X: 5000, Y: -5000})

	p := c.PanelPosition()
	if p.X < 0 || p.X > 1280-320 || p.Y < 0 || p.Y > 800-420 {
		t.Fatalf("panel off-screen: %+v", p)
	}
}

func TestPersistedPositionSurvivesRestart(t *testing.T) {
	kv := kvstore.NewMemStore()
	c := newTestController(kv)
	start := c.Position()

	c.HandlePointer(PointerEvent{Kind: PointerDown, X: start.X, Y: start.Y})
	c.HandlePointer(PointerEvent{Kind: PointerMove, X: start.X + 200, Y: start.Y - 100})
	c.HandlePointer(PointerEvent{Kind: PointerUp, X: start.X + 200, Y: start.Y - 100})
	moved := c.Position()

	again := newTestController(kv)
	if again.Position() != moved {
		t.Fatalf("expected restored position %+v, got %+v", moved, again.Position())
	}
}

func TestGate_AllowsElevatedRolesOnly(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{"admin", true},
		{"editor", true},
		{"author", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := Allowed(Identity{UserID: 1, Role: tc.role}); got != tc.want {
			t.Fatalf("role %q: expected %v, got %v", tc.role, tc.want, got)
		}
	}
}
