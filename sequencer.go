package templatesync

import (
	"context"
	"fmt"
)

// DefaultSeekLead is how far past an element's start the playhead is placed
// before writing to it, in seconds.
const DefaultSeekLead = 1.5

// EnsureVisible seeks target so the element named sourceName sits inside its
// active timeline window before any property write is issued. The preview
// engine only guarantees that a written property visibly applies to an element
// that is active at the moment of the instruction; writing to an off-screen
// element can silently produce no visible change.
//
// If the target's template has no element with that name (aspect-ratio
// variants legitimately omit slots) the call is a no-op, not an error.
func EnsureVisible(ctx context.Context, target *Target, sourceName string, lead float64) error {
	elements, err := target.Instance.Elements(ctx)
	if err != nil {
		return fmt.Errorf("fetch elements for %q: %w", target.Key, err)
	}

	el, ok := findByName(elements, sourceName)
	if !ok {
		return nil
	}

	if err := target.Instance.SetTime(ctx, el.GlobalTime+lead); err != nil {
		return fmt.Errorf("seek %q to %s: %w", target.Key, sourceName, err)
	}
	return nil
}
