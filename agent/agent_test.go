package agent

import (
	"math"
	"testing"
)

func TestPathMemoryRingBufferOrdering(t *testing.T) {
	a := &Agent{}
	for i := 0; i < 5; i++ {
		a.PushPathMemory(GridCell{X: i, Y: i})
	}
	mem := a.PathMemory()
	if len(mem) != 5 {
		t.Fatalf("len(PathMemory()) = %d, want 5", len(mem))
	}
	for i, c := range mem {
		if c.X != i || c.Y != i {
			t.Fatalf("PathMemory()[%d] = %v, want {%d %d}", i, c, i, i)
		}
	}
}

func TestPathMemoryWrapsAtCapacity(t *testing.T) {
	a := &Agent{}
	for i := 0; i < pathMemorySize+10; i++ {
		a.PushPathMemory(GridCell{X: i})
	}
	mem := a.PathMemory()
	if len(mem) != pathMemorySize {
		t.Fatalf("len(PathMemory()) = %d, want %d", len(mem), pathMemorySize)
	}
	if mem[0].X != 10 {
		t.Fatalf("oldest retained cell X = %d, want 10", mem[0].X)
	}
	if mem[len(mem)-1].X != pathMemorySize+9 {
		t.Fatalf("newest cell X = %d, want %d", mem[len(mem)-1].X, pathMemorySize+9)
	}
}

func TestClearPathMemory(t *testing.T) {
	a := &Agent{}
	a.PushPathMemory(GridCell{X: 1})
	a.ClearPathMemory()
	if len(a.PathMemory()) != 0 {
		t.Fatalf("PathMemory() after Clear should be empty")
	}
}

func TestNormalizeHeadingStaysInRange(t *testing.T) {
	cases := []float64{0, math.Pi, -math.Pi, 3 * math.Pi, -3 * math.Pi, 10}
	for _, h := range cases {
		n := NormalizeHeading(h)
		if n <= -math.Pi || n > math.Pi {
			t.Fatalf("NormalizeHeading(%v) = %v, out of (-pi, pi]", h, n)
		}
	}
}
