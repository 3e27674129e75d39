package f

import (
	"reflect"
	"testing"
)

func TestSet(t *testing.T) {
	s := NewSet[int]()
	s.Add(1)
	if !s.Contains(1) {
		t.Error("Set should contain Added item")
	}
	if s.Contains(2) {
		t.Error("Set should not contain missing item")
	}
}

func TestMap(t *testing.T) {
	ts := []int{1, 2, 3}
	f := func(t int) int {
		return t * 2
	}
	if !reflect.DeepEqual(Map(ts, f), []int{2, 4, 6}) {
		t.Error("Should multiply each item by 2")
	}
}

func TestRemoveDuplicates(t *testing.T) {
	tt := []struct {
		input    []string
		expected []string
	}{
		{[]string{"a", "b", "a", "c", "b"}, []string{"a", "b", "c"}},
		{[]string{"a"}, []string{"a"}},
		{[]string{}, []string{}},
	}
	for _, tc := range tt {
		if got := RemoveDuplicates(tc.input); !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("Expected %v, got %v", tc.expected, got)
		}
	}
}
