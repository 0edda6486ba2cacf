package workflow

import (
	"reflect"
	"testing"
)

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name          string
		original      map[string]any
		modifications map[string]any
		want          map[string]any
	}{
		{
			name:          "ModificationWinsOnConflict",
			original:      map[string]any{"hypothesis": "old", "score": 0.4},
			modifications: map[string]any{"hypothesis": "new"},
			want:          map[string]any{"hypothesis": "new", "score": 0.4},
		},
		{
			name:          "NestedMapsMergeRecursively",
			original:      map[string]any{"a": map[string]any{"b": 1, "c": 3}},
			modifications: map[string]any{"a": map[string]any{"b": 2}},
			want:          map[string]any{"a": map[string]any{"b": 2, "c": 3}},
		},
		{
			name:          "MapReplacesScalar",
			original:      map[string]any{"a": "flat"},
			modifications: map[string]any{"a": map[string]any{"b": 1}},
			want:          map[string]any{"a": map[string]any{"b": 1}},
		},
		{
			name:          "NewKeysAdded",
			original:      map[string]any{"a": 1},
			modifications: map[string]any{"b": 2},
			want:          map[string]any{"a": 1, "b": 2},
		},
		{
			name:          "EmptyModifications",
			original:      map[string]any{"a": 1},
			modifications: map[string]any{},
			want:          map[string]any{"a": 1},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := DeepMerge(test.original, test.modifications)
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("DeepMerge() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestDeepMergeDoesNotMutateInputs(t *testing.T) {
	original := map[string]any{"a": map[string]any{"b": 1}}
	modifications := map[string]any{"a": map[string]any{"c": 2}}

	DeepMerge(original, modifications)

	inner := original["a"].(map[string]any)
	if _, ok := inner["c"]; ok {
		t.Error("DeepMerge() mutated the original map")
	}
}
