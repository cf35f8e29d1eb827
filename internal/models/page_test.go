package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequest_Normalized(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"defaults", PageRequest{}, PageRequest{Page: 0, Size: DefaultPageSize}},
		{"negative page", PageRequest{Page: -3, Size: 5}, PageRequest{Page: 0, Size: 5}},
		{"size capped", PageRequest{Page: 2, Size: 1000}, PageRequest{Page: 2, Size: MaxPageSize}},
		{"page capped", PageRequest{Page: 461168601842738791, Size: 20}, PageRequest{Page: MaxPage, Size: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalized())
		})
	}
}

func TestPageRequest_OffsetStaysPositive(t *testing.T) {
	p := PageRequest{Page: 461168601842738791, Size: 1000}.Normalized()
	assert.Positive(t, p.Offset())
	assert.Equal(t, MaxPage*MaxPageSize, p.Offset())
}

func TestPageRequest_WithDefaultSort(t *testing.T) {
	newest := SortOrder{Field: "createdAt", Desc: true}

	p := PageRequest{}.WithDefaultSort(newest)
	assert.Equal(t, []SortOrder{newest}, p.Sort)

	explicit := PageRequest{Sort: []SortOrder{{Field: "rating"}}}.WithDefaultSort(newest)
	assert.Equal(t, []SortOrder{{Field: "rating"}}, explicit.Sort)
}

func TestPageRequest_ValidateSort(t *testing.T) {
	ok := PageRequest{Sort: []SortOrder{{Field: "rating", Desc: true}}}
	assert.NoError(t, ok.ValidateSort(ReviewSortColumns))

	bad := PageRequest{Sort: []SortOrder{{Field: "rating"}, {Field: "authorId"}}}
	err := bad.ValidateSort(ReviewSortColumns)
	require.Error(t, err)
	appErr, isApp := AsAppError(err)
	require.True(t, isApp)
	assert.Equal(t, CodeInvalidInput, appErr.Code)
	assert.Equal(t, "sort", appErr.Field)
	assert.Contains(t, appErr.Message, "authorId")
}

func TestNewPage_TotalPages(t *testing.T) {
	req := PageRequest{Page: 1, Size: 10}
	p := NewPage([]int{1, 2, 3}, req, 23)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(23), p.TotalElements)
	assert.Equal(t, 1, p.Page)

	empty := NewPage[int](nil, req, 0)
	assert.NotNil(t, empty.Content)
	assert.Equal(t, 0, empty.TotalPages)
}
