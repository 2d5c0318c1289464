package templatesync

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestResolveBindings_SingleTextNode covers the smallest template: one named
// text slot yields one plain-text binding.
func TestResolveBindings_SingleTextNode(t *testing.T) {
	tree := []Element{
		{ID: "e1", Name: "Headline", Kind: KindText, Text: "Hi"},
	}

	got := ResolveBindings(tree)
	want := []FieldBinding{
		{SourceName: "Headline", Role: RolePlainText},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

// TestResolveBindings_FirstOccurrenceOrder verifies document order and one
// binding per distinct name.
func TestResolveBindings_FirstOccurrenceOrder(t *testing.T) {
	tree := []Element{
		{ID: "e1", Name: "Front Image", Kind: KindImage},
		{ID: "e2", Name: "Headline", Kind: KindText},
		{ID: "e3", Name: "teamLogoLeft", Kind: KindImage},
		{ID: "e4", Name: "background", Kind: KindVideo},
	}

	got := ResolveBindings(tree)
	want := []FieldBinding{
		{SourceName: "Front Image", Role: RoleFrontImagePicker},
		{SourceName: "Headline", Role: RolePlainText},
		{SourceName: "teamLogoLeft", Role: RoleTeamLogoLeftPicker},
		{SourceName: "background", Role: RoleGenericFile},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

// TestResolveBindings_DuplicateReservedName: two slots named "Sponsor Logo"
// (template variants repeat reserved slots) render exactly one control.
func TestResolveBindings_DuplicateReservedName(t *testing.T) {
	tree := []Element{
		{ID: "e1", Name: "Sponsor Logo", Kind: KindImage},
		{ID: "e2", Name: "Sponsor Logo", Kind: KindImage},
	}

	got := ResolveBindings(tree)
	if len(got) != 1 {
		t.Fatalf("ResolveBindings returned %d bindings, want 1", len(got))
	}
	if got[0].Role != RoleSponsorLogoPicker {
		t.Errorf("role = %s, want %s", got[0].Role, RoleSponsorLogoPicker)
	}
}

// TestResolveBindings_UnnamedSkipped: nodes without a name are dropped
// silently, not an error.
func TestResolveBindings_UnnamedSkipped(t *testing.T) {
	tree := []Element{
		{ID: "e1", Kind: KindText, Text: "decoration"},
		{ID: "e2", Name: "Headline", Kind: KindText},
		{ID: "e3", Kind: KindImage},
	}

	got := ResolveBindings(tree)
	if len(got) != 1 {
		t.Fatalf("ResolveBindings returned %d bindings, want 1", len(got))
	}
	if got[0].SourceName != "Headline" {
		t.Errorf("sourceName = %q, want %q", got[0].SourceName, "Headline")
	}
}

// TestResolveBindings_CompositionUnwrappedOneLevel: direct children of a
// composition are resolved with the normal rules; the composition itself is
// never editable and deeper nesting is ignored.
func TestResolveBindings_CompositionUnwrappedOneLevel(t *testing.T) {
	tree := []Element{
		{ID: "c1", Name: "Scene 1", Kind: KindComposition, Children: []Element{
			{ID: "e1", Name: "Headline", Kind: KindText},
			{ID: "c2", Name: "Nested Scene", Kind: KindComposition, Children: []Element{
				{ID: "e2", Name: "Too Deep", Kind: KindText},
			}},
		}},
		{ID: "e3", Name: "Front Image", Kind: KindImage},
	}

	got := ResolveBindings(tree)
	want := []FieldBinding{
		{SourceName: "Headline", Role: RolePlainText},
		{SourceName: "Front Image", Role: RoleFrontImagePicker},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

// TestClassify_PriorityOrder pins the routing priority: reserved vocabulary
// first, then the playerImage pattern, then the kind fallback.
func TestClassify_PriorityOrder(t *testing.T) {
	tests := []struct {
		name      string
		kind      ElementKind
		wantRole  Role
		wantIndex int
		wantOK    bool
	}{
		{"Front Image", KindImage, RoleFrontImagePicker, 0, true},
		{"Sponsor Logo", KindImage, RoleSponsorLogoPicker, 0, true},
		{"teamLogoLeft", KindImage, RoleTeamLogoLeftPicker, 0, true},
		{"teamLogoRight", KindImage, RoleTeamLogoRightPicker, 0, true},
		{"playerImage7", KindImage, RolePlayerPicker, 7, true},
		{"playerImage12", KindVideo, RolePlayerPicker, 12, true},
		{"playerImage", KindImage, RoleGenericFile, 0, true}, // no index, falls through
		{"background", KindVideo, RoleGenericFile, 0, true},
		{"poster", KindImage, RoleGenericFile, 0, true},
		{"Headline", KindText, RolePlainText, 0, true},
		{"Scene", KindComposition, 0, 0, false},
		{"", KindText, 0, 0, false},
	}

	for _, tt := range tests {
		role, idx, ok := classify(tt.name, tt.kind)
		if ok != tt.wantOK {
			t.Errorf("classify(%q, %s) ok = %v, want %v", tt.name, tt.kind, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if role != tt.wantRole || idx != tt.wantIndex {
			t.Errorf("classify(%q, %s) = (%s, %d), want (%s, %d)",
				tt.name, tt.kind, role, idx, tt.wantRole, tt.wantIndex)
		}
	}
}

// TestFindByName mirrors the resolver's one-level composition lookup.
func TestFindByName(t *testing.T) {
	tree := []Element{
		{ID: "e1", Name: "Headline", Kind: KindText, GlobalTime: 2.0},
		{ID: "c1", Name: "Scene", Kind: KindComposition, Children: []Element{
			{ID: "e2", Name: "Subline", Kind: KindText, GlobalTime: 4.5},
		}},
	}

	el, ok := findByName(tree, "Subline")
	if !ok {
		t.Fatal("findByName did not find a composition child")
	}
	if el.GlobalTime != 4.5 {
		t.Errorf("globalTime = %v, want 4.5", el.GlobalTime)
	}

	if _, ok := findByName(tree, "missing"); ok {
		t.Error("findByName found a nonexistent element")
	}
}
