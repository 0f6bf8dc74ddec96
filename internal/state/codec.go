package state

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptBoard is returned when persisted board data cannot be decoded or
// breaks a board invariant.
var ErrCorruptBoard = errors.New("corrupt board data")

// BoardState is the persisted and undoable unit: the element list plus camera.
type BoardState struct {
	Elements []Element `json:"elements"`
	Camera   Camera    `json:"camera"`
}

// Clone deep-copies the board.
func (b BoardState) Clone() BoardState {
	out := BoardState{Camera: b.Camera, Elements: make([]Element, 0, len(b.Elements))}
	for _, e := range b.Elements {
		if e != nil {
			out.Elements = append(out.Elements, e.Clone())
		}
	}
	return out
}

// Validate checks that every element is present, has a unique id and, for
// shapes, a known form.
func (b BoardState) Validate() error {
	seen := make(map[string]struct{}, len(b.Elements))
	for i, e := range b.Elements {
		if e == nil {
			return fmt.Errorf("%w: element %d is null", ErrCorruptBoard, i)
		}
		id := e.Header().ID
		if id == "" {
			return fmt.Errorf("%w: element %d has no id", ErrCorruptBoard, i)
		}
		if s, ok := e.(*Shape); ok && !IsShapeKind(s.Form) {
			return fmt.Errorf("%w: element %q has unknown shape %q", ErrCorruptBoard, id, s.Form)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate element id %q", ErrCorruptBoard, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (b BoardState) MarshalJSON() ([]byte, error) {
	elements := b.Elements
	if elements == nil {
		elements = []Element{}
	}
	return json.Marshal(struct {
		Elements []Element `json:"elements"`
		Camera   Camera    `json:"camera"`
	}{elements, b.Camera})
}

func (b *BoardState) UnmarshalJSON(data []byte) error {
	var raw struct {
		Elements []json.RawMessage `json:"elements"`
		Camera   *Camera           `json:"camera"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	elements := make([]Element, 0, len(raw.Elements))
	for i, msg := range raw.Elements {
		e, err := DecodeElement(msg)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		elements = append(elements, e)
	}
	b.Elements = elements
	b.Camera = DefaultCamera()
	if raw.Camera != nil {
		b.Camera = *raw.Camera
	}
	b.Camera.Zoom = clampZoom(b.Camera.Zoom)
	return nil
}

// DecodeElement decodes one element, dispatching on its "type" field.
func DecodeElement(data []byte) (Element, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	var e Element
	switch head.Type {
	case KindStroke:
		e = &Stroke{}
	case KindLine:
		e = &Line{}
	case KindArrow:
		e = &Line{Arrow: true}
	case KindRectangle, KindEllipse, KindDiamond:
		e = &Shape{Form: head.Type}
	case KindText:
		e = &Text{}
	case KindImage:
		e = &Image{}
	default:
		return nil, fmt.Errorf("unknown element type %q", head.Type)
	}
	if err := json.Unmarshal(data, e); err != nil {
		return nil, err
	}
	return e, nil
}

// The variants only customize encoding; decoding goes through DecodeElement
// so the "type" field picks the concrete struct.

func (s *Stroke) MarshalJSON() ([]byte, error) {
	type plain Stroke
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{s.Kind(), (*plain)(s)})
}

func (l *Line) MarshalJSON() ([]byte, error) {
	type plain Line
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{l.Kind(), (*plain)(l)})
}

func (s *Shape) MarshalJSON() ([]byte, error) {
	type plain Shape
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{s.Kind(), (*plain)(s)})
}

func (t *Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{t.Kind(), (*plain)(t)})
}

func (i *Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*plain
	}{i.Kind(), (*plain)(i)})
}
