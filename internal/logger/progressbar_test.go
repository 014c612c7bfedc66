package logger

import (
	"strings"
	"sync"
	"testing"
)

func TestProgressBarRender(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		width    int
		expected string
	}{
		{"empty progress", 0, 10, 10, "[          ] 0/10 (0%)"},
		{"half progress", 5, 10, 10, "[=====     ] 5/10 (50%)"},
		{"full progress", 10, 10, 10, "[==========] 10/10 (100%)"},
		{"quarter progress", 2, 8, 8, "[==      ] 2/8 (25%)"},
		{"large width", 30, 100, 20, "[======              ] 30/100 (30%)"},
		{"zero total", 0, 0, 4, "[    ] 0/0 (0%)"},
		{"overflow clamps", 12, 10, 5, "[=====] 12/10 (100%)"},
		{"default width", 1, 2, 0, "[=====     ] 1/2 (50%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, tt.width, false)
			pb.Update(tt.current)
			if got := pb.Render(); got != tt.expected {
				t.Errorf("Render() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestProgressBarPrefixAndColor(t *testing.T) {
	pb := NewProgressBar(4, 4, true)
	pb.SetPrefix("Succeeded: ")
	pb.Update(2)

	got := pb.Render()
	if !strings.Contains(got, "Succeeded: [==  ] 2/4 (50%)") {
		t.Errorf("Render() = %q", got)
	}
	if !strings.HasPrefix(got, "\033[36m") {
		t.Errorf("in-progress bar should be cyan: %q", got)
	}

	pb.Update(4)
	if got := pb.Render(); !strings.HasPrefix(got, "\033[32m") {
		t.Errorf("complete bar should be green: %q", got)
	}
}

func TestProgressBarConcurrentIncrement(t *testing.T) {
	pb := NewProgressBar(100, 10, false)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pb.Increment()
			_ = pb.Render()
		}()
	}
	wg.Wait()

	if pb.Current() != 100 {
		t.Errorf("Current() = %d, want 100", pb.Current())
	}
	if pb.Total() != 100 {
		t.Errorf("Total() = %d, want 100", pb.Total())
	}
	if pb.Percentage() != 100 {
		t.Errorf("Percentage() = %d, want 100", pb.Percentage())
	}
}
