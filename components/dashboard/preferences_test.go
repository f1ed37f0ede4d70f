package dashboard

import (
	"context"
	"testing"
)

func TestInMemoryPreferenceStore(t *testing.T) {
	store := NewInMemoryPreferenceStore()
	viewer := ViewerContext{UserID: "user-1", Locale: "en"}

	initial, err := store.ShellState(context.Background(), viewer)
	if err != nil {
		t.Fatalf("ShellState returned error: %v", err)
	}
	if initial != DefaultShellState() {
		t.Fatalf("expected defaults for unknown viewer, got %+v", initial)
	}

	state := ShellState{View: ViewMarketIntel, Channel: "TikTok", DateRange: "Last 7 Days"}
	if err := store.SaveShellState(context.Background(), viewer, state); err != nil {
		t.Fatalf("SaveShellState returned error: %v", err)
	}
	out, err := store.ShellState(context.Background(), viewer)
	if err != nil {
		t.Fatalf("ShellState returned error: %v", err)
	}
	if out != state {
		t.Fatalf("expected %+v, got %+v", state, out)
	}
}

func TestInMemoryPreferenceStoreFillsDefaults(t *testing.T) {
	store := NewInMemoryPreferenceStore()
	viewer := ViewerContext{UserID: "user-2"}
	if err := store.SaveShellState(context.Background(), viewer, ShellState{Channel: "Facebook"}); err != nil {
		t.Fatalf("SaveShellState returned error: %v", err)
	}
	out, _ := store.ShellState(context.Background(), viewer)
	if out.View != ViewOverview || out.DateRange != DefaultDateRange || out.Channel != "Facebook" {
		t.Fatalf("expected defaults around the stored channel, got %+v", out)
	}
}

func TestInMemoryPreferenceStoreRequiresViewer(t *testing.T) {
	store := NewInMemoryPreferenceStore()
	if err := store.SaveShellState(context.Background(), ViewerContext{}, DefaultShellState()); err == nil {
		t.Fatalf("expected error without viewer id")
	}
}
