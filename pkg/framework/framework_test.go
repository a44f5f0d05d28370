package framework

import (
	"reflect"
	"testing"
)

func TestMajorVersion(t *testing.T) {
	tests := []struct {
		version string
		want    int
	}{
		{"2.3.1", 2},
		{"1.15.0", 1},
		{"v2.0.0", 2},
		{"10", 10},
		{"", 0},
		{"latest", 0},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			if got := MajorVersion(tt.version); got != tt.want {
				t.Errorf("MajorVersion(%q) = %v, want %v", tt.version, got, tt.want)
			}
		})
	}
}

func TestFrameRecords(t *testing.T) {
	frame := Frame{
		Columns: []string{"a", "b"},
		Rows:    [][]interface{}{{1.0, "x"}, {2.0, "y"}},
	}
	want := []map[string]interface{}{
		{"a": 1.0, "b": "x"},
		{"a": 2.0, "b": "y"},
	}
	if got := frame.Records(); !reflect.DeepEqual(got, want) {
		t.Errorf("Records() = %v, want %v", got, want)
	}
}
