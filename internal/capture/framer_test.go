package capture

import "testing"

func ramp(from, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(from + i)
	}
	return out
}

func TestFramerWindows(t *testing.T) {
	f := NewFramer(4, 2)

	if got := f.Push(ramp(0, 3)); len(got) != 0 {
		t.Fatalf("Expected no window yet, got %v", got)
	}
	got := f.Push(ramp(3, 5))
	if len(got) != 3 {
		t.Fatalf("Expected 3 windows, got %d", len(got))
	}
	want := [][]float64{{0, 1, 2, 3}, {2, 3, 4, 5}, {4, 5, 6, 7}}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("Window %d: expected %v, got %v", i, want[i], got[i])
			}
		}
	}
	if f.Buffered() != 2 {
		t.Errorf("Expected 2 buffered samples, got %d", f.Buffered())
	}

	got[0][0] = 99
	if got[1][0] != 2 {
		t.Error("Expected windows not to alias each other")
	}
}

func TestFramerDefaults(t *testing.T) {
	f := NewFramer(0, 0)
	if f.size != 2048 || f.hop != 2048 {
		t.Errorf("Expected defaults 2048/2048, got %d/%d", f.size, f.hop)
	}
	if g := NewFramer(8, 16); g.hop != 8 {
		t.Errorf("Expected hop clamped to size, got %d", g.hop)
	}
}
