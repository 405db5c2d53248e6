package vdom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLongestIncreasing(t *testing.T) {
	tests := []struct {
		in   []int
		want []int
	}{
		{[]int{3, 1, 2}, []int{1, 2}},
		{[]int{1, 2, 3}, []int{0, 1, 2}},
		{[]int{4, 3, 2, 1}, []int{3}},
		{[]int{0, 2, 0, 3, 1}, []int{1, 3}},
		{[]int{2, 5, 3, 4, 1}, []int{0, 2, 3}},
		{[]int{0, 0}, []int{}},
	}
	for _, tt := range tests {
		got := longestIncreasing(tt.in)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("longestIncreasing(%v) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestElementConstructors(t *testing.T) {
	var nilNode *VNode
	n := Div(nil, nilNode, Key(7), Class("a", "b"), []*VNode{Text("x"), nil}, "y",
		[]Attr{ID("i"), {}}, Attrs{"data-n": 1})

	if n.Key != "7" {
		t.Errorf("expected key 7, got %q", n.Key)
	}
	if _, ok := n.Attrs["key"]; ok {
		t.Error("key should not be stored as an attribute")
	}
	want := Attrs{"class": "a b", "id": "i", "data-n": 1}
	if diff := cmp.Diff(want, n.Attrs); diff != "" {
		t.Errorf("attrs mismatch (-want +got):\n%s", diff)
	}
	if len(n.Children) != 2 || n.Children[1].Text != "y" {
		t.Errorf("expected two text children, got %d", len(n.Children))
	}
	if s := Svg(Circle()); s.Namespace != SVGNamespace || s.Children[0].Namespace != SVGNamespace {
		t.Error("svg helpers should set the namespace")
	}
}
