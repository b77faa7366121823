package ring_buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer_Add(t *testing.T) {
	t.Run("fill ring buffer with digits until it loops, and test that it works", func(t *testing.T) {
		ringBuffer := New(10)

		for i := 0; i < 20; i++ {
			ringBuffer.Add([]int16{int16(i)})
		}

		assert.Equal(t, []int16{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, ringBuffer.Read())
		assert.Equal(t, 10, ringBuffer.Filled())
	})

	t.Run("partly filled buffer only returns what was added", func(t *testing.T) {
		ringBuffer := New(8)

		ringBuffer.Add([]int16{1, 2, 3})

		assert.Equal(t, []int16{1, 2, 3}, ringBuffer.Read())
		assert.Equal(t, 3, ringBuffer.Filled())
	})

	t.Run("a chunk larger than the buffer keeps its tail", func(t *testing.T) {
		ringBuffer := New(4)

		ringBuffer.Add([]int16{1, 2, 3, 4, 5, 6})

		assert.Equal(t, []int16{3, 4, 5, 6}, ringBuffer.Read())
	})
}

func TestRingBuffer_Clear(t *testing.T) {
	ringBuffer := New(4)
	ringBuffer.Add([]int16{7, 8, 9})

	ringBuffer.Clear()

	assert.Empty(t, ringBuffer.Read())
	assert.Equal(t, 0, ringBuffer.Filled())

	ringBuffer.Add([]int16{5})
	assert.Equal(t, []int16{5}, ringBuffer.Read())
}
