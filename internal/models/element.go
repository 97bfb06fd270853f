package models

// Element is a single drawable shape record as emitted by the canvas
// editor. The store treats its geometry and style attributes as opaque.
type Element map[string]any

func (e Element) ID() string {
	id, _ := e["id"].(string)
	return id
}

// IsDeleted reports whether the editor soft-deleted the element.
func (e Element) IsDeleted() bool {
	deleted, _ := e["isDeleted"].(bool)
	return deleted
}

func (e Element) Clone() Element {
	if e == nil {
		return nil
	}
	return Element(cloneObject(e))
}

// LiveElements drops soft-deleted elements, keeping order. The result is
// never nil.
func LiveElements(elements []Element) []Element {
	out := make([]Element, 0, len(elements))
	for _, el := range elements {
		if el == nil || el.IsDeleted() {
			continue
		}
		out = append(out, el)
	}
	return out
}

func CloneElements(elements []Element) []Element {
	if elements == nil {
		return nil
	}
	out := make([]Element, len(elements))
	for i, el := range elements {
		out[i] = el.Clone()
	}
	return out
}

// BinaryFile is an asset attached to a drawing slide (usually an image
// referenced by an element's fileId). Like elements it is kept as the
// editor's opaque record so fields such as version or status survive.
type BinaryFile map[string]any

func (f BinaryFile) ID() string {
	id, _ := f["id"].(string)
	return id
}

// Files maps file ids to attached assets. A nil map persists as null.
type Files map[string]BinaryFile

func (f Files) Clone() Files {
	if f == nil {
		return nil
	}
	out := make(Files, len(f))
	for k, v := range f {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = BinaryFile(cloneObject(v))
	}
	return out
}

func cloneObject(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneObject(t)
	case Element:
		return Element(cloneObject(t))
	case BinaryFile:
		return BinaryFile(cloneObject(t))
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
