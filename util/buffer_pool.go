// Package util holds small shared helpers with no better home.
package util

import "bytes"

// SharedBufferPool is the process-wide pool for short-lived formatting
// buffers (log lines, result rows).
var SharedBufferPool = newBufferPool()

type BufferPool chan *bytes.Buffer

func newBufferPool() BufferPool {
	return make(BufferPool, 128)
}

func (b BufferPool) Get() *bytes.Buffer {
	select {
	case buf := <-b:
		return buf
	default:
		return &bytes.Buffer{}
	}
}

func (b BufferPool) Put(buf *bytes.Buffer) {
	buf.Reset()
	select {
	case b <- buf:
	default:
	}
}
