package puzzle

import (
	"reflect"
	"testing"
)

func TestSolved(t *testing.T) {
	cases := []struct {
		name  string
		order []int
		want  bool
	}{
		{"identity", []int{0, 1, 2, 3}, true},
		{"scrambled", []int{1, 0, 2, 3}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		st := &State{GridSize: 2, TileOrder: tc.order}
		if got := st.Solved(); got != tc.want {
			t.Fatalf("%s: Solved() = %v; want %v", tc.name, got, tc.want)
		}
	}
	var nilState *State
	if nilState.Solved() {
		t.Fatal("nil state reported solved")
	}
}

func TestValidOrder(t *testing.T) {
	cases := []struct {
		name  string
		grid  int
		order []int
		want  bool
	}{
		{"ok", 2, []int{3, 1, 0, 2}, true},
		{"short", 2, []int{0, 1, 2}, false},
		{"duplicate", 2, []int{0, 0, 2, 3}, false},
		{"out of range", 2, []int{0, 1, 2, 4}, false},
		{"negative", 2, []int{0, 1, 2, -1}, false},
	}
	for _, tc := range cases {
		st := &State{GridSize: tc.grid, TileOrder: tc.order}
		if got := st.ValidOrder(); got != tc.want {
			t.Fatalf("%s: ValidOrder() = %v; want %v", tc.name, got, tc.want)
		}
	}
}

func TestSwap(t *testing.T) {
	st := &State{GridSize: 2, TileOrder: []int{0, 1, 2, 3}}
	st.Swap(0, 3)
	if !reflect.DeepEqual(st.TileOrder, []int{3, 1, 2, 0}) {
		t.Fatalf("after swap: %v", st.TileOrder)
	}
	if st.MoveCount != 1 {
		t.Fatalf("move count = %d", st.MoveCount)
	}
}

func TestCloneIsDeep(t *testing.T) {
	st := &State{ImageRef: "img:x", GridSize: 2, TileOrder: []int{1, 0, 3, 2}}
	c := st.Clone()
	c.TileOrder[0] = 9
	if st.TileOrder[0] != 1 {
		t.Fatal("clone aliases the original tile order")
	}
	if (*State)(nil).Clone() != nil {
		t.Fatal("nil clone should stay nil")
	}
}
