package enricher

import "testing"

func TestDomainRepair(t *testing.T) {
	domain := Domain{"Vibe Coding", "Idea Collection", "Good Design"}

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"exact match", "Good Design", "Good Design"},
		{"lowercase", "good design", "Good Design"},
		{"uppercase", "GOOD DESIGN", "Good Design"},
		{"label inside longer answer", "The category is Good Design.", "Good Design"},
		{"partial answer inside label", "Idea", "Idea Collection"},
		{"whitespace around answer", "  Vibe Coding  ", "Vibe Coding"},
		{"gibberish falls back to default", "flibbertigibbet", "Idea Collection"},
		{"empty falls back to default", "", "Idea Collection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.Repair(tt.raw); got != tt.want {
				t.Errorf("Repair(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDomainDefault(t *testing.T) {
	if got := DefaultDomain.Default(); got != "Idea Collection" {
		t.Errorf("Default() = %q, want 'Idea Collection'", got)
	}

	single := Domain{"Only"}
	if got := single.Default(); got != "Only" {
		t.Errorf("single-entry Default() = %q, want 'Only'", got)
	}
}
