package templatesync

// ElementKind identifies what a template slot renders.
type ElementKind string

const (
	KindText        ElementKind = "text"
	KindImage       ElementKind = "image"
	KindVideo       ElementKind = "video"
	KindComposition ElementKind = "composition"
)

// Element is one node of the element tree a preview instance reports for the
// currently loaded template. Name is empty for slots the template author did
// not expose for personalization; such nodes are never editable.
//
// GlobalTime is the node's start offset on the instance's timeline in seconds,
// already resolved against any enclosing composition by the preview engine.
type Element struct {
	ID         string      `json:"id"`
	Name       string      `json:"name,omitempty"`
	Kind       ElementKind `json:"kind"`
	Text       string      `json:"text,omitempty"`
	GlobalTime float64     `json:"globalTime"`
	Duration   float64     `json:"duration,omitempty"`
	Children   []Element   `json:"children,omitempty"`
}

// findByName returns the first element with the given name, searching the top
// level and the direct children of composition nodes. Templates shipped by the
// preview engine nest editable slots at most one composition deep, so lookup
// mirrors the resolver and does not descend further.
func findByName(tree []Element, name string) (Element, bool) {
	for _, el := range tree {
		if el.Name == name {
			return el, true
		}
		if el.Kind != KindComposition {
			continue
		}
		for _, child := range el.Children {
			if child.Name == name {
				return child, true
			}
		}
	}
	return Element{}, false
}
