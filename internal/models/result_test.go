package models

import (
	"errors"
	"testing"
	"time"
)

func TestWalkSummary_Succeeded(t *testing.T) {
	tests := []struct {
		name    string
		summary WalkSummary
		want    int
	}{
		{name: "no failures", summary: WalkSummary{Visited: 7}, want: 7},
		{name: "one failure", summary: WalkSummary{Visited: 10, Failed: 1}, want: 9},
		{name: "empty walk", summary: WalkSummary{}, want: 0},
		// Expansion failures can be counted for a node that was visited successfully,
		// but never more failures than visits; guard against negative counts anyway.
		{name: "inconsistent counts", summary: WalkSummary{Visited: 1, Failed: 2}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.summary.Succeeded(); got != tt.want {
				t.Errorf("Succeeded() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWalkSummary_SuccessRate(t *testing.T) {
	tests := []struct {
		name    string
		summary WalkSummary
		want    float64
	}{
		{name: "all succeeded", summary: WalkSummary{Visited: 4}, want: 1},
		{name: "half failed", summary: WalkSummary{Visited: 4, Failed: 2}, want: 0.5},
		{name: "nothing visited", summary: WalkSummary{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.summary.SuccessRate(); got != tt.want {
				t.Errorf("SuccessRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVisitResult_Failed(t *testing.T) {
	ok := VisitResult{Node: "a", Status: StatusVisited, Duration: time.Millisecond}
	if ok.Failed() {
		t.Error("expected visited result not to report failure")
	}

	bad := VisitResult{Node: "b", Status: StatusFailed, Phase: "visit", Error: errors.New("boom")}
	if !bad.Failed() {
		t.Error("expected failed result to report failure")
	}
}
