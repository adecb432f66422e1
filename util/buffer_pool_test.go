package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferPoolReuse(t *testing.T) {
	pool := newBufferPool()

	buf := pool.Get()
	buf.WriteString("hello")
	pool.Put(buf)

	reused := pool.Get()
	assert.Equal(t, 0, reused.Len())
}

func TestBufferPoolEmptyGet(t *testing.T) {
	pool := newBufferPool()
	assert.NotNil(t, pool.Get())
}
