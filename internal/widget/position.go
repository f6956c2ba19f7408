package widget

import (
	"encoding/json"

	"github.com/pressdeck/editorial-chat/internal/kvstore"
)

// PositionKey is the client-local persistence key for the trigger button
// position. Independent of any conversation.
const PositionKey = "editorial_chat.widget_position"

// DefaultMargin offsets the default bottom-left position from the viewport
// edge.
const DefaultMargin = 24

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Size struct {
	Width  int
	Height int
}

type Viewport struct {
	Width  int
	Height int
}

// Clamp bounds p so a box of the given size stays fully inside the
// viewport.
func (p Position) Clamp(v Viewport, box Size) Position {
	maxX := v.Width - box.Width
	maxY := v.Height - box.Height
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	if p.X < 0 {
		p.X = 0
	}
	if p.X > maxX {
		p.X = maxX
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.Y > maxY {
		p.Y = maxY
	}
	return p
}

// DefaultPosition anchors the button bottom-left of the viewport minus a
// fixed margin.
func DefaultPosition(v Viewport, button Size) Position {
	return Position{
		X: DefaultMargin,
		Y: v.Height - button.Height - DefaultMargin,
	}.Clamp(v, button)
}

// LoadPosition reads the persisted position, falling back to the default
// when nothing was stored or the stored value does not parse.
func LoadPosition(kv kvstore.Store, v Viewport, button Size) Position {
	raw, err := kv.Get(PositionKey)
	if err != nil {
		return DefaultPosition(v, button)
	}
	var p Position
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return DefaultPosition(v, button)
	}
	return p.Clamp(v, button)
}

// SavePosition persists the position for the next session.
func SavePosition(kv kvstore.Store, p Position) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return kv.Set(PositionKey, string(b))
}
