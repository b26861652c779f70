package domain

import "testing"

func makeNodes(n int) []Node {
	nodes := make([]Node, n)
	for i := range nodes {
		nodes[i] = Node{ID: string(rune('a' + i)), Position: i}
	}
	return nodes
}

func TestSampleNodes_SmallListUnchanged(t *testing.T) {
	nodes := makeNodes(2)
	got := SampleNodes(nodes, 3)
	if len(got) != 2 {
		t.Fatalf("expected all 2 nodes, got %d", len(got))
	}
	for i := range got {
		if got[i].ID != nodes[i].ID {
			t.Errorf("node %d reordered: got %s want %s", i, got[i].ID, nodes[i].ID)
		}
	}
}

func TestSampleNodes_Empty(t *testing.T) {
	if got := SampleNodes(nil, 2); len(got) != 0 {
		t.Errorf("empty input should yield empty output, got %d", len(got))
	}
}

func TestSampleNodes_Stride(t *testing.T) {
	// 10 nodes, count 3: stride 3, indices 0, 3, 6.
	nodes := makeNodes(10)
	got := SampleNodes(nodes, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(got))
	}
	wantIdx := []int{0, 3, 6}
	for i, w := range wantIdx {
		if got[i].Position != w {
			t.Errorf("sample[%d] at position %d, want %d", i, got[i].Position, w)
		}
	}
}

func TestSampleNodes_Deterministic(t *testing.T) {
	nodes := makeNodes(7)
	a := SampleNodes(nodes, 2)
	b := SampleNodes(nodes, 2)
	if len(a) != len(b) {
		t.Fatalf("sample sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("sampling is not deterministic at index %d", i)
		}
	}
}
