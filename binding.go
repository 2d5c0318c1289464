package templatesync

import (
	"fmt"
	"regexp"
	"strconv"
)

// Role is the editable field type a named template slot resolves to.
type Role int

const (
	// RolePlainText renders a free-text input backed by the debounced channel.
	RolePlainText Role = iota
	// RoleGenericFile renders a plain upload control for image/video slots
	// with no reserved meaning.
	RoleGenericFile
	// RoleFrontImagePicker renders the image-catalog picker.
	RoleFrontImagePicker
	// RoleSponsorLogoPicker renders the sponsor-catalog picker.
	RoleSponsorLogoPicker
	// RoleTeamLogoLeftPicker renders the team-catalog picker for the left side.
	RoleTeamLogoLeftPicker
	// RoleTeamLogoRightPicker renders the team-catalog picker for the right side.
	RoleTeamLogoRightPicker
	// RolePlayerPicker renders the player-catalog picker for one numbered slot.
	RolePlayerPicker
)

// String returns a human-readable role name for logging.
func (r Role) String() string {
	switch r {
	case RolePlainText:
		return "plainText"
	case RoleGenericFile:
		return "genericFile"
	case RoleFrontImagePicker:
		return "frontImagePicker"
	case RoleSponsorLogoPicker:
		return "sponsorLogoPicker"
	case RoleTeamLogoLeftPicker:
		return "teamLogoLeftPicker"
	case RoleTeamLogoRightPicker:
		return "teamLogoRightPicker"
	case RolePlayerPicker:
		return "playerPicker"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// FieldBinding is one resolved editable unit of the current template.
// PlayerIndex is only meaningful when Role is RolePlayerPicker.
type FieldBinding struct {
	SourceName  string
	Role        Role
	PlayerIndex int
}

// Reserved slot names the preview templates use by convention. Matching is
// exact and takes priority over everything else.
const (
	nameFrontImage    = "Front Image"
	nameSponsorLogo   = "Sponsor Logo"
	nameTeamLogoLeft  = "teamLogoLeft"
	nameTeamLogoRight = "teamLogoRight"
)

var playerImagePattern = regexp.MustCompile(`^playerImage(\d+)$`)

// classify maps a slot name and kind to its role. Priority order: reserved
// vocabulary, then the playerImage{n} pattern, then a kind-based fallback.
// ok is false for slots that are not editable at all (compositions, unnamed
// or unknown kinds).
func classify(name string, kind ElementKind) (role Role, playerIndex int, ok bool) {
	if name == "" {
		return 0, 0, false
	}

	switch name {
	case nameFrontImage:
		return RoleFrontImagePicker, 0, true
	case nameSponsorLogo:
		return RoleSponsorLogoPicker, 0, true
	case nameTeamLogoLeft:
		return RoleTeamLogoLeftPicker, 0, true
	case nameTeamLogoRight:
		return RoleTeamLogoRightPicker, 0, true
	}

	if m := playerImagePattern.FindStringSubmatch(name); m != nil {
		idx, err := strconv.Atoi(m[1])
		if err == nil {
			return RolePlayerPicker, idx, true
		}
	}

	switch kind {
	case KindImage, KindVideo:
		return RoleGenericFile, 0, true
	case KindText:
		return RolePlainText, 0, true
	default:
		return 0, 0, false
	}
}

// ResolveBindings walks an element tree and returns one FieldBinding per
// distinct named editable slot, in first-occurrence document order. Duplicate
// names (template variants often repeat a reserved slot) resolve to a single
// binding. Composition nodes are unwrapped exactly one level: their direct
// children are classified with the same rules, the composition itself is
// never editable.
func ResolveBindings(tree []Element) []FieldBinding {
	var bindings []FieldBinding
	seen := make(map[string]struct{})

	add := func(el Element) {
		role, idx, ok := classify(el.Name, el.Kind)
		if !ok {
			return
		}
		if _, dup := seen[el.Name]; dup {
			return
		}
		seen[el.Name] = struct{}{}
		bindings = append(bindings, FieldBinding{
			SourceName:  el.Name,
			Role:        role,
			PlayerIndex: idx,
		})
	}

	for _, el := range tree {
		if el.Kind == KindComposition {
			for _, child := range el.Children {
				add(child)
			}
			continue
		}
		add(el)
	}

	return bindings
}
