package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnpack(t *testing.T) {
	var a, b, c string
	Unpack([]string{"inspect", "windows"}, &a, &b, &c)
	assert.Equal(t, "inspect", a)
	assert.Equal(t, "windows", b)
	assert.Equal(t, "", c, "missing elements leave the variable alone")

	var x, y int
	Unpack([]int{1, 2, 3}, &x, &y)
	assert.Equal(t, 1, x)
	assert.Equal(t, 2, y)
}
