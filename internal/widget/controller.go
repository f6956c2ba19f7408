package widget

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pressdeck/editorial-chat/internal/kvstore"
)

// DragThreshold is the pointer travel, in pixels, beyond which a press
// becomes a drag instead of a click.
const DragThreshold = 3

type State int

const (
	StateClosed State = iota
	StateOpen
	StateDragging
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateDragging:
		return "dragging"
	}
	return "unknown"
}

type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

type PointerEvent struct {
	Kind PointerKind
	X    int
	Y    int
}

// Controller is the trigger-button state machine: closed/open visibility,
// click-vs-drag disambiguation, position persistence and unread tracking.
// A Controller instance owns all of its state; nothing is ambient.
type Controller struct {
	kv       kvstore.Store
	viewport Viewport
	button   Size
	panel    Size

	// mu guards open and unread: pointer events arrive on the UI path
	// while NoteIngest fires from the store's consume goroutine.
	mu   sync.Mutex
	open bool
	pos  Position

	pressed     bool
	dragging    bool
	pressOrigin Position
	grabOffset  Position
	openBefore  bool

	unread int
}

type ControllerConfig struct {
	KV       kvstore.Store
	Viewport Viewport
	Button   Size
	Panel    Size
}

func NewController(cfg ControllerConfig) *Controller {
	return &Controller{
		kv:       cfg.KV,
		viewport: cfg.Viewport,
		button:   cfg.Button,
		panel:    cfg.Panel,
		pos:      LoadPosition(cfg.KV, cfg.Viewport, cfg.Button),
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dragging {
		return StateDragging
	}
	if c.open {
		return StateOpen
	}
	return StateClosed
}

func (c *Controller) Position() Position { return c.pos }

func (c *Controller) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// SetViewport re-clamps the button on viewport resize.
func (c *Controller) SetViewport(v Viewport) {
	c.viewport = v
	c.pos = c.pos.Clamp(v, c.button)
}

// HandlePointer advances the state machine and reports whether the gesture
// toggled visibility. Touch move/end events feed the same path.
func (c *Controller) HandlePointer(ev PointerEvent) (toggled bool) {
	switch ev.Kind {
	case PointerDown:
		c.pressed = true
		c.dragging = false
		c.pressOrigin = Position{X: ev.X, Y: ev.Y}
		c.grabOffset = Position{X: ev.X - c.pos.X, Y: ev.Y - c.pos.Y}
		return false

	case PointerMove:
		if !c.pressed {
			return false
		}
		if !c.dragging && travelExceeds(c.pressOrigin, ev, DragThreshold) {
			// The pending click is cancelled for the rest of this gesture.
			c.mu.Lock()
			c.dragging = true
			c.openBefore = c.open
			c.mu.Unlock()
		}
		if c.dragging {
			c.pos = Position{
				X: ev.X - c.grabOffset.X,
				Y: ev.Y - c.grabOffset.Y,
			}.Clamp(c.viewport, c.button)
		}
		return false

	case PointerUp:
		if !c.pressed {
			return false
		}
		c.pressed = false
		if c.dragging {
			c.mu.Lock()
			c.dragging = false
			c.open = c.openBefore
			c.mu.Unlock()
			if err := SavePosition(c.kv, c.pos); err != nil {
				log.Warn().Err(err).Msg("widget position save failed")
			}
			return false
		}
		c.toggle()
		return true
	}
	return false
}

func (c *Controller) toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = !c.open
	if c.open {
		c.unread = 0
	}
}

// NoteIngest counts a message ingested while the panel is closed. Wired to
// the message store's ingest callback.
func (c *Controller) NoteIngest() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		c.unread++
	}
}

// PanelPosition derives the open panel's placement from the button and
// clamps it independently, so the panel never renders off-screen wherever
// the button was dragged.
func (c *Controller) PanelPosition() Position {
	p := Position{
		X: c.pos.X,
		Y: c.pos.Y - c.panel.Height - 8,
	}
	return p.Clamp(c.viewport, c.panel)
}

func travelExceeds(origin Position, ev PointerEvent, threshold int) bool {
	dx := ev.X - origin.X
	dy := ev.Y - origin.Y
	return dx*dx+dy*dy >= threshold*threshold
}
