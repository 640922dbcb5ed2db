package logic

import (
	"reflect"
	"testing"
)

func TestCursor(t *testing.T) {
	c := NewCursor(3, 2)
	if c.Next() != 0 {
		t.Error("expected wrap from 2 to 0")
	}
	if c.Next() != 1 || c.Index() != 1 {
		t.Error("expected index 1")
	}
	if c.Len() != 3 {
		t.Errorf("expected len 3, got %d", c.Len())
	}

	if NewCursor(3, 7).Index() != 0 {
		t.Error("expected out-of-range start at 0")
	}
	if NewCursor(3, -1).Index() != 0 {
		t.Error("expected negative start at 0")
	}

	var empty Cursor
	if empty.Next() != 0 {
		t.Error("expected empty cursor to stay at 0")
	}
}

func TestDutyLadder(t *testing.T) {
	tests := []struct {
		step int
		want []int
	}{
		{20, []int{0, 20, 40, 60, 80, 100}},
		{25, []int{0, 25, 50, 75, 100}},
		{30, []int{0, 30, 60, 90, 100}},
		{100, []int{0, 100}},
		{0, []int{0, 20, 40, 60, 80, 100}},
		{-5, []int{0, 20, 40, 60, 80, 100}},
		{101, []int{0, 20, 40, 60, 80, 100}},
	}
	for _, tt := range tests {
		if got := DutyLadder(tt.step); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DutyLadder(%d) = %v, want %v", tt.step, got, tt.want)
		}
	}
}
