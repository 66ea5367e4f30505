package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCount(t *testing.T) {
	assert.Equal(t, 1, PageCount(0), "empty lists still have one page")
	assert.Equal(t, 1, PageCount(1))
	assert.Equal(t, 1, PageCount(PageSize))
	assert.Equal(t, 2, PageCount(PageSize+1))
	assert.Equal(t, 3, PageCount(23))
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 3))
	assert.Equal(t, 1, ClampPage(-5, 3))
	assert.Equal(t, 2, ClampPage(2, 3))
	assert.Equal(t, 3, ClampPage(99, 3))
	assert.Equal(t, 1, ClampPage(1, 1))
}
