package templatesync

import (
	"context"
	"testing"
)

func testTree() []Element {
	return []Element{
		{ID: "e1", Name: "Headline", Kind: KindText, GlobalTime: 2.0},
		{ID: "e2", Name: "Sponsor Logo", Kind: KindImage, GlobalTime: 6.0},
	}
}

func newTestSession(t *testing.T, main PreviewInstance, opts ...SessionOption) *Session {
	t.Helper()
	s, err := NewSession(main, opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

// TestSession_EditReachesOnlyActiveTargets: 1 main + 2 secondaries with only
// the first activated; the edit reaches main and secondary #1, never #2.
func TestSession_EditReachesOnlyActiveTargets(t *testing.T) {
	main := newFakeInstance(testTree()...)
	sec1 := newFakeInstance(testTree()...)
	sec2 := newFakeInstance(testTree()...)

	s := newTestSession(t, main)
	if err := s.AttachPreview("square", sec1); err != nil {
		t.Fatalf("AttachPreview: %v", err)
	}
	if err := s.AttachPreview("story", sec2); err != nil {
		t.Fatalf("AttachPreview: %v", err)
	}
	if err := s.SetPreviewActive("square", true); err != nil {
		t.Fatalf("SetPreviewActive: %v", err)
	}

	outcomes := s.ApplyEdit(context.Background(), "Headline", "Hello")
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}

	if main.pushCount() != 1 {
		t.Errorf("main received %d pushes, want 1", main.pushCount())
	}
	if sec1.pushCount() != 1 {
		t.Errorf("active secondary received %d pushes, want 1", sec1.pushCount())
	}
	if sec2.pushCount() != 0 {
		t.Errorf("inactive secondary received %d pushes, want 0", sec2.pushCount())
	}
}

// TestSession_SeekPrecedesWrite within each target's pipeline.
func TestSession_SeekPrecedesWrite(t *testing.T) {
	main := newFakeInstance(testTree()...)
	s := newTestSession(t, main)

	s.ApplyEdit(context.Background(), "Headline", "Hello")

	order := main.callOrder()
	want := []string{"elements", "seek", "push"}
	if len(order) != len(want) {
		t.Fatalf("call order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("call order = %v, want %v", order, want)
		}
	}
	if main.seeks[0] != 2.0+DefaultSeekLead {
		t.Errorf("seek = %v, want %v", main.seeks[0], 2.0+DefaultSeekLead)
	}
}

// TestSession_FailingSecondaryDoesNotBlockOthers: a broken secondary is
// contained in its own outcome; main and the other secondary still get the
// write, and the shared store keeps the value.
func TestSession_FailingSecondaryDoesNotBlockOthers(t *testing.T) {
	main := newFakeInstance(testTree()...)
	broken := newFakeInstance(testTree()...)
	broken.setModsErr = errBroken
	sec2 := newFakeInstance(testTree()...)

	s := newTestSession(t, main)
	_ = s.AttachPreview("broken", broken)
	_ = s.AttachPreview("story", sec2)
	_ = s.SetPreviewActive("broken", true)
	_ = s.SetPreviewActive("story", true)

	outcomes := s.ApplyEdit(context.Background(), "Headline", "Hello")

	if main.pushCount() != 1 || sec2.pushCount() != 1 {
		t.Errorf("healthy targets got %d/%d pushes, want 1/1",
			main.pushCount(), sec2.pushCount())
	}
	failures := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failures++
			if o.Key != "broken" {
				t.Errorf("unexpected failure on %q: %v", o.Key, o.Err)
			}
		}
	}
	if failures != 1 {
		t.Errorf("got %d failed outcomes, want 1", failures)
	}
	if v, _ := s.Store().Get("Headline"); v != "Hello" {
		t.Errorf("store value = %q, want Hello", v)
	}
}

// TestSession_PushCarriesFullSnapshot: every target receives the whole
// modification set, which is what keeps the previews visually identical.
func TestSession_PushCarriesFullSnapshot(t *testing.T) {
	main := newFakeInstance(testTree()...)
	s := newTestSession(t, main)

	s.ApplyEdit(context.Background(), "Headline", "Hello")
	s.ApplyEdit(context.Background(), "Sponsor Logo", "https://cdn/logo.png")

	push := main.lastPush()
	if len(push) != 2 {
		t.Fatalf("last push carried %d keys, want 2", len(push))
	}
	if push["Headline"] != "Hello" || push["Sponsor Logo"] != "https://cdn/logo.png" {
		t.Errorf("last push = %v", push)
	}
}

// TestSession_EmptyValueRemovesOverride: clearing a field drops the selector
// from the pushed set, handing the slot back to the template default.
func TestSession_EmptyValueRemovesOverride(t *testing.T) {
	main := newFakeInstance(testTree()...)
	s := newTestSession(t, main)

	s.ApplyEdit(context.Background(), "Headline", "Hello")
	s.ApplyEdit(context.Background(), "Headline", "")

	if _, ok := s.Store().Get("Headline"); ok {
		t.Error("cleared selector still in store")
	}
	if len(main.lastPush()) != 0 {
		t.Errorf("last push = %v, want empty", main.lastPush())
	}
}

// TestSession_StateChangeReResolvesBindings and leaves the modification store
// untouched across the reload.
func TestSession_StateChangeReResolvesBindings(t *testing.T) {
	main := newFakeInstance(testTree()...)

	var notified [][]FieldBinding
	s := newTestSession(t, main, WithBindingsFunc(func(b []FieldBinding) {
		notified = append(notified, b)
	}))

	s.ApplyEdit(context.Background(), "Headline", "Hello")
	s.HandleStateChange(testTree())

	if len(notified) != 1 {
		t.Fatalf("bindings callback fired %d times, want 1", len(notified))
	}
	if len(s.Bindings()) != 2 {
		t.Errorf("got %d bindings, want 2", len(s.Bindings()))
	}
	if v, _ := s.Store().Get("Headline"); v != "Hello" {
		t.Error("modification store did not survive the reload")
	}

	if _, ok := s.Binding("Sponsor Logo"); !ok {
		t.Error("Binding(Sponsor Logo) not found after state change")
	}
}

// TestSession_ApplyEditsSequential: a derived list lands in order, each step
// pushing a strictly growing snapshot.
func TestSession_ApplyEditsSequential(t *testing.T) {
	main := newFakeInstance(testTree()...)
	s := newTestSession(t, main)

	s.ApplyEdits(context.Background(), []Edit{
		{Selector: "a", Value: "1"},
		{Selector: "b", Value: "2"},
		{Selector: "c", Value: "3"},
	})

	if main.pushCount() != 3 {
		t.Fatalf("got %d pushes, want 3", main.pushCount())
	}
	for i, wantLen := range []int{1, 2, 3} {
		if len(main.pushes[i]) != wantLen {
			t.Errorf("push %d carried %d keys, want %d", i, len(main.pushes[i]), wantLen)
		}
	}
}

// TestSession_Stats counts edits and per-target write outcomes.
func TestSession_Stats(t *testing.T) {
	main := newFakeInstance(testTree()...)
	broken := newFakeInstance(testTree()...)
	broken.setModsErr = errBroken

	s := newTestSession(t, main)
	_ = s.AttachPreview("broken", broken)
	_ = s.SetPreviewActive("broken", true)

	s.ApplyEdit(context.Background(), "Headline", "Hello")

	stats := s.Stats()
	if stats.EditsApplied != 1 {
		t.Errorf("EditsApplied = %d, want 1", stats.EditsApplied)
	}
	if stats.WritesApplied != 1 {
		t.Errorf("WritesApplied = %d, want 1", stats.WritesApplied)
	}
	if stats.WriteFailures != 1 {
		t.Errorf("WriteFailures = %d, want 1", stats.WriteFailures)
	}
}
