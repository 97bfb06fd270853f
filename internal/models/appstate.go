package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var ErrMalformedCollaborators = errors.New("collaborators must be a list of [id, presence] pairs")

type Zoom struct {
	Value float64 `json:"value"`
}

// AppState is the persisted subset of the canvas editor's view state.
// Only the fields below survive projection; everything else the editor
// reports (active tool, text-edit state, selection) is transient.
type AppState struct {
	ViewBackgroundColor        *string       `json:"viewBackgroundColor,omitempty"`
	Theme                      *string       `json:"theme,omitempty"`
	GridSize                   *float64      `json:"gridSize,omitempty"`
	ZenModeEnabled             *bool         `json:"zenModeEnabled,omitempty"`
	ScrollX                    *float64      `json:"scrollX,omitempty"`
	ScrollY                    *float64      `json:"scrollY,omitempty"`
	Zoom                       *Zoom         `json:"zoom,omitempty"`
	CurrentItemStrokeColor     *string       `json:"currentItemStrokeColor,omitempty"`
	CurrentItemBackgroundColor *string       `json:"currentItemBackgroundColor,omitempty"`
	CurrentItemFillStyle       *string       `json:"currentItemFillStyle,omitempty"`
	CurrentItemStrokeWidth     *float64      `json:"currentItemStrokeWidth,omitempty"`
	CurrentItemStrokeStyle     *string       `json:"currentItemStrokeStyle,omitempty"`
	CurrentItemRoughness       *float64      `json:"currentItemRoughness,omitempty"`
	CurrentItemOpacity         *float64      `json:"currentItemOpacity,omitempty"`
	CurrentItemFontFamily      *float64      `json:"currentItemFontFamily,omitempty"`
	CurrentItemFontSize        *float64      `json:"currentItemFontSize,omitempty"`
	CurrentItemTextAlign       *string       `json:"currentItemTextAlign,omitempty"`
	CurrentItemStartArrowhead  *string       `json:"currentItemStartArrowhead,omitempty"`
	CurrentItemEndArrowhead    *string       `json:"currentItemEndArrowhead,omitempty"`
	CurrentItemRoundness       *string       `json:"currentItemRoundness,omitempty"`
	Collaborators              Collaborators `json:"collaborators"`
}

func (a AppState) Clone() AppState {
	out := a
	out.ViewBackgroundColor = clonePtr(a.ViewBackgroundColor)
	out.Theme = clonePtr(a.Theme)
	out.GridSize = clonePtr(a.GridSize)
	out.ZenModeEnabled = clonePtr(a.ZenModeEnabled)
	out.ScrollX = clonePtr(a.ScrollX)
	out.ScrollY = clonePtr(a.ScrollY)
	out.Zoom = clonePtr(a.Zoom)
	out.CurrentItemStrokeColor = clonePtr(a.CurrentItemStrokeColor)
	out.CurrentItemBackgroundColor = clonePtr(a.CurrentItemBackgroundColor)
	out.CurrentItemFillStyle = clonePtr(a.CurrentItemFillStyle)
	out.CurrentItemStrokeWidth = clonePtr(a.CurrentItemStrokeWidth)
	out.CurrentItemStrokeStyle = clonePtr(a.CurrentItemStrokeStyle)
	out.CurrentItemRoughness = clonePtr(a.CurrentItemRoughness)
	out.CurrentItemOpacity = clonePtr(a.CurrentItemOpacity)
	out.CurrentItemFontFamily = clonePtr(a.CurrentItemFontFamily)
	out.CurrentItemFontSize = clonePtr(a.CurrentItemFontSize)
	out.CurrentItemTextAlign = clonePtr(a.CurrentItemTextAlign)
	out.CurrentItemStartArrowhead = clonePtr(a.CurrentItemStartArrowhead)
	out.CurrentItemEndArrowhead = clonePtr(a.CurrentItemEndArrowhead)
	out.CurrentItemRoundness = clonePtr(a.CurrentItemRoundness)
	out.Collaborators = a.Collaborators.Clone()
	return out
}

// ProjectAppState keeps the allow-listed fields of the editor's full view
// state. Values of the wrong type are ignored. The collaborator set is
// accepted either as an object keyed by participant id or as a pair list,
// and is never nil in the result.
func ProjectAppState(raw map[string]any) AppState {
	state := AppState{
		ViewBackgroundColor:        stringField(raw, "viewBackgroundColor"),
		Theme:                      stringField(raw, "theme"),
		GridSize:                   numberField(raw, "gridSize"),
		ZenModeEnabled:             boolField(raw, "zenModeEnabled"),
		ScrollX:                    numberField(raw, "scrollX"),
		ScrollY:                    numberField(raw, "scrollY"),
		Zoom:                       zoomField(raw),
		CurrentItemStrokeColor:     stringField(raw, "currentItemStrokeColor"),
		CurrentItemBackgroundColor: stringField(raw, "currentItemBackgroundColor"),
		CurrentItemFillStyle:       stringField(raw, "currentItemFillStyle"),
		CurrentItemStrokeWidth:     numberField(raw, "currentItemStrokeWidth"),
		CurrentItemStrokeStyle:     stringField(raw, "currentItemStrokeStyle"),
		CurrentItemRoughness:       numberField(raw, "currentItemRoughness"),
		CurrentItemOpacity:         numberField(raw, "currentItemOpacity"),
		CurrentItemFontFamily:      numberField(raw, "currentItemFontFamily"),
		CurrentItemFontSize:        numberField(raw, "currentItemFontSize"),
		CurrentItemTextAlign:       stringField(raw, "currentItemTextAlign"),
		CurrentItemStartArrowhead:  stringField(raw, "currentItemStartArrowhead"),
		CurrentItemEndArrowhead:    stringField(raw, "currentItemEndArrowhead"),
		CurrentItemRoundness:       stringField(raw, "currentItemRoundness"),
		Collaborators:              Collaborators{},
	}
	if c, err := CollaboratorsFromValue(raw["collaborators"]); err == nil {
		state.Collaborators = c
	}
	return state
}

func stringField(raw map[string]any, key string) *string {
	if v, ok := raw[key].(string); ok {
		return &v
	}
	return nil
}

func boolField(raw map[string]any, key string) *bool {
	if v, ok := raw[key].(bool); ok {
		return &v
	}
	return nil
}

func numberField(raw map[string]any, key string) *float64 {
	if v, ok := toFloat(raw[key]); ok {
		return &v
	}
	return nil
}

func zoomField(raw map[string]any) *Zoom {
	switch z := raw["zoom"].(type) {
	case map[string]any:
		if v, ok := toFloat(z["value"]); ok {
			return &Zoom{Value: v}
		}
	case Zoom:
		return &Zoom{Value: z.Value}
	case *Zoom:
		if z != nil {
			return &Zoom{Value: z.Value}
		}
	default:
		if v, ok := toFloat(z); ok {
			return &Zoom{Value: v}
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Presence is the opaque presence record of one collaborator
// (username, pointer position, selected element ids...).
type Presence map[string]any

// Collaborators maps participant ids to presence. It serializes as an
// ordered list of [id, presence] pairs rather than a JSON object.
type Collaborators map[string]Presence

func (c Collaborators) Clone() Collaborators {
	out := make(Collaborators, len(c))
	for id, p := range c {
		if p == nil {
			out[id] = nil
			continue
		}
		out[id] = Presence(cloneObject(p))
	}
	return out
}

func (c Collaborators) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	pairs := make([][2]any, 0, len(ids))
	for _, id := range ids {
		presence := c[id]
		if presence == nil {
			presence = Presence{}
		}
		pairs = append(pairs, [2]any{id, presence})
	}
	return json.Marshal(pairs)
}

func (c *Collaborators) UnmarshalJSON(data []byte) error {
	parsed, err := ParseCollaborators(data)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCollaborators decodes the pair-list form. Absent or null input
// yields an empty set.
func ParseCollaborators(data []byte) (Collaborators, error) {
	if len(data) == 0 || string(data) == "null" {
		return Collaborators{}, nil
	}
	var pairs []json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return Collaborators{}, ErrMalformedCollaborators
	}
	out := make(Collaborators, len(pairs))
	for i, raw := range pairs {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return Collaborators{}, fmt.Errorf("pair %d: %w", i, ErrMalformedCollaborators)
		}
		var id string
		if err := json.Unmarshal(pair[0], &id); err != nil {
			return Collaborators{}, fmt.Errorf("pair %d id: %w", i, ErrMalformedCollaborators)
		}
		var presence Presence
		if err := json.Unmarshal(pair[1], &presence); err != nil {
			return Collaborators{}, fmt.Errorf("pair %d presence: %w", i, ErrMalformedCollaborators)
		}
		if presence == nil {
			presence = Presence{}
		}
		out[id] = presence
	}
	return out, nil
}

// CollaboratorsFromValue converts a decoded JSON value (object or pair
// list) into a collaborator set.
func CollaboratorsFromValue(v any) (Collaborators, error) {
	switch t := v.(type) {
	case nil:
		return Collaborators{}, nil
	case Collaborators:
		return t.Clone(), nil
	case map[string]any:
		out := make(Collaborators, len(t))
		for id, p := range t {
			presence, _ := p.(map[string]any)
			if presence == nil {
				presence = map[string]any{}
			}
			out[id] = Presence(cloneObject(presence))
		}
		return out, nil
	case []any:
		out := make(Collaborators, len(t))
		for i, item := range t {
			pair, ok := item.([]any)
			if !ok || len(pair) != 2 {
				return Collaborators{}, fmt.Errorf("pair %d: %w", i, ErrMalformedCollaborators)
			}
			id, ok := pair[0].(string)
			if !ok {
				return Collaborators{}, fmt.Errorf("pair %d id: %w", i, ErrMalformedCollaborators)
			}
			presence, _ := pair[1].(map[string]any)
			if presence == nil {
				presence = map[string]any{}
			}
			out[id] = Presence(cloneObject(presence))
		}
		return out, nil
	default:
		return Collaborators{}, ErrMalformedCollaborators
	}
}
