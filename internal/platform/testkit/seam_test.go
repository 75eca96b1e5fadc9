package testkit

import (
	"sync"
	"testing"
	"time"
)

var (
	nowFn       = func() int { return 1 }
	swapTargetI = 10
)

func TestSwap_RestoresAfterSubtest(t *testing.T) {
	t.Run("swap", func(t *testing.T) {
		Swap(t, &nowFn, func() int { return 99 })
		if got := nowFn(); got != 99 {
			t.Fatalf("swap did not take effect, got %d", got)
		}
	})
	if got := nowFn(); got != 1 {
		t.Fatalf("swap did not restore original, got %d", got)
	}
}

func TestSwap_Value(t *testing.T) {
	t.Run("int", func(t *testing.T) {
		Swap(t, &swapTargetI, 42)
		if swapTargetI != 42 {
			t.Fatalf("swap failed, got %d", swapTargetI)
		}
	})
	if swapTargetI != 10 {
		t.Fatalf("swap did not restore original, got %d", swapTargetI)
	}
}

func TestSerial_NoInterleaving(t *testing.T) {
	var mu sync.Mutex
	var seq []string
	record := func(s string) {
		mu.Lock()
		seq = append(seq, s)
		mu.Unlock()
	}

	t.Run("group", func(t *testing.T) {
		for _, name := range []string{"A", "B"} {
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				Serial(t)
				record(name + "-start")
				time.Sleep(20 * time.Millisecond)
				record(name + "-end")
			})
		}
	})

	if len(seq) != 4 {
		t.Fatalf("unexpected sequence %v", seq)
	}
	if seq[0][0] != seq[1][0] || seq[2][0] != seq[3][0] {
		t.Fatalf("expected grouped execution, got %v", seq)
	}
}
