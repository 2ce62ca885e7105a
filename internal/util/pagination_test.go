package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 1, ParseIntDefault("", 1))
	assert.Equal(t, 7, ParseIntDefault("7", 1))
	assert.Equal(t, 1, ParseIntDefault("abc", 1))
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name         string
		page, size   int
		offset, want int
	}{
		{name: "first page", page: 1, size: 10, offset: 0, want: 10},
		{name: "third page", page: 3, size: 10, offset: 20, want: 10},
		{name: "page below one", page: 0, size: 10, offset: 0, want: 10},
		{name: "zero size", page: 2, size: 0, offset: DefaultPageSize, want: DefaultPageSize},
		{name: "oversized", page: 1, size: 500, offset: 0, want: DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := Calculate(tt.page, tt.size)
			assert.Equal(t, tt.offset, offset)
			assert.Equal(t, tt.want, limit)
		})
	}
}

func TestPageMeta(t *testing.T) {
	meta := PageMeta(2, 10, 10, 25)
	assert.EqualValues(t, 3, meta["total_pages"])
	assert.Equal(t, true, meta["has_prev"])
	assert.Equal(t, true, meta["has_next"])

	last := PageMeta(3, 10, 20, 25)
	assert.Equal(t, false, last["has_next"])
}
