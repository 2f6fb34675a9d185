package pool

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(i int) int { return i * i }

func TestParallelize(t *testing.T) {
	for _, p := range []*Pool{nil, NewPool(0), NewPool(3)} {
		got := Parallelize(p, 50, square)
		require.Len(t, got, 50)
		for i, v := range got {
			assert.Equal(t, i*i, v)
		}
		assert.Empty(t, Parallelize(p, 0, square))
		p.TearDown()
	}
}

func TestParallelize_AfterTearDown(t *testing.T) {
	p := NewPool(2)
	p.TearDown()
	p.TearDown()
	assert.Equal(t, []int{0, 1, 4}, Parallelize(p, 3, square))
}

func TestParallelizeErr(t *testing.T) {
	p := NewPool(4)
	defer p.TearDown()

	got, err := ParallelizeErr(p, 10, func(i int) (string, error) {
		return fmt.Sprint(i), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "7", got[7])

	errOdd := errors.New("odd")
	_, err = ParallelizeErr(p, 10, func(i int) (int, error) {
		if i%2 == 1 {
			return 0, fmt.Errorf("index %d: %w", i, errOdd)
		}
		return i, nil
	})
	require.ErrorIs(t, err, errOdd)
	assert.Contains(t, err.Error(), "index 1")
}

func TestWorkers(t *testing.T) {
	var p *Pool
	assert.Equal(t, 1, p.Workers())
	p = NewPool(5)
	defer p.TearDown()
	assert.Equal(t, 5, p.Workers())
}
