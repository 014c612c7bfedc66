package walker

import "testing"

func drain(b *backlog[int]) []int {
	var out []int
	for {
		v, ok := b.pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestBacklogOrder(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  []int
	}{
		{name: "lifo", order: OrderLIFO, want: []int{3, 2, 1}},
		{name: "fifo", order: OrderFIFO, want: []int{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBacklog[int](tt.order)
			b.push(1)
			b.push(2)
			b.push(3)

			if b.len() != 3 {
				t.Fatalf("len() = %d, want 3", b.len())
			}
			got := drain(b)
			if len(got) != len(tt.want) {
				t.Fatalf("drained %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("drained %v, want %v", got, tt.want)
				}
			}
			if b.len() != 0 {
				t.Errorf("len() after drain = %d, want 0", b.len())
			}
		})
	}
}

func TestBacklogFIFOInterleaved(t *testing.T) {
	b := newBacklog[int](OrderFIFO)
	b.push(1)
	b.push(2)
	if v, _ := b.pop(); v != 1 {
		t.Fatalf("pop() = %d, want 1", v)
	}
	b.push(3)
	if got := drain(b); len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("drained %v, want [2 3]", got)
	}

	// Storage is reused once the queue empties.
	b.push(4)
	if b.head != 0 || b.len() != 1 {
		t.Errorf("head = %d, len = %d after reuse", b.head, b.len())
	}
}

func TestBacklogReset(t *testing.T) {
	for _, order := range []Order{OrderLIFO, OrderFIFO} {
		b := newBacklog[int](order)
		b.push(1)
		b.push(2)
		b.pop()
		b.reset()

		if b.len() != 0 {
			t.Errorf("%s: len() after reset = %d", order, b.len())
		}
		if _, ok := b.pop(); ok {
			t.Errorf("%s: pop() after reset returned an item", order)
		}
	}
}
