package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		src  string
		want Path
	}{
		{"name", Path{{Name: "name"}}},
		{"release_date.value", Path{{Name: "release_date"}, {Name: "value"}}},
		{"[1]", Path{{Index: 1}}},
		{"[0].key", Path{{Index: 0}, {Name: "key"}}},
		{"pairs[2].value", Path{{Name: "pairs"}, {Index: 2}, {Name: "value"}}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ParsePath(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.src, got.String())
		})
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, src := range []string{"", ".name", "a..b", "[x]", "[-1]", "[1", "a b", "9lives"} {
		t.Run(src, func(t *testing.T) {
			_, err := ParsePath(src)
			var pathErr *PathError
			assert.ErrorAs(t, err, &pathErr)
		})
	}
}

func TestPathTypeOf(t *testing.T) {
	album := testAlbumSpec()
	lookup := func(name string) (*RecordSpec, bool) {
		if name == album.Name {
			return album, true
		}
		return nil, false
	}

	tests := []struct {
		root string
		path string
		want string
	}{
		{"Album", "name", "string"},
		{"Album", "release_date", "optional<date>"},
		{"Album", "release_date.present", "bool"},
		{"Album", "release_date.value", "date"},
		{"entry<string,int>", "key", "string"},
		{"entry<string,int>", "value", "int"},
		{"tuple<int,Album>", "[1].asking_price", "decimal"},
	}

	for _, tt := range tests {
		t.Run(tt.root+"/"+tt.path, func(t *testing.T) {
			got, err := MustParsePath(tt.path).TypeOf(MustParseType(tt.root), lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestPathTypeOfErrors(t *testing.T) {
	album := testAlbumSpec()
	lookup := func(name string) (*RecordSpec, bool) {
		if name == album.Name {
			return album, true
		}
		return nil, false
	}

	tests := []struct {
		root    string
		params  []string
		path    string
		message string
	}{
		{"Album", nil, "label", `has no field "label"`},
		{"Album", nil, "[0]", "cannot be indexed"},
		{"CompactDisc", nil, "name", "unknown record CompactDisc"},
		{"optional<int>", nil, "key", "has no member key"},
		{"tuple<int,int>", nil, "[2]", "out of range"},
		{"optional<T>", []string{"T"}, "value.name", "opaque"},
	}

	for _, tt := range tests {
		t.Run(tt.root+"/"+tt.path, func(t *testing.T) {
			_, err := MustParsePath(tt.path).TypeOf(MustParseType(tt.root, tt.params...), lookup)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
