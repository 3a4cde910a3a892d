package stream

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFIFORejectsInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := NewFIFO(capacity)
		require.ErrorIs(t, err, ErrResourceExhausted)
	}
}

func TestPushPop(t *testing.T) {
	f, err := NewFIFO(16)
	require.NoError(t, err)

	require.NoError(t, f.Push([]byte("hello")))
	require.Equal(t, 5, f.Len())

	buf := make([]byte, 8)
	n := f.Pop(buf)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf[:n]))
	require.Zero(t, f.Len())
}

func TestPopCopiesAtMostLen(t *testing.T) {
	f, err := NewFIFO(16)
	require.NoError(t, err)
	require.NoError(t, f.Push([]byte("abcdef")))

	buf := make([]byte, 4)
	require.Equal(t, 4, f.Pop(buf))
	require.Equal(t, "abcd", string(buf))
	require.Equal(t, 2, f.Pop(buf))
	require.Equal(t, "ef", string(buf[:2]))
}

func TestPushOverflowDropsWholePayload(t *testing.T) {
	f, err := NewFIFO(8)
	require.NoError(t, err)

	require.NoError(t, f.Push([]byte("abcde")))
	err = f.Push([]byte("fghij")) // only 3 bytes free
	require.ErrorIs(t, err, ErrOverflow)

	require.Equal(t, 5, f.Len(), "overflowing payload must be dropped whole")
	require.Equal(t, uint64(5), f.Dropped())

	buf := make([]byte, 8)
	n := f.Pop(buf)
	require.Equal(t, "abcde", string(buf[:n]), "prior data must remain uncorrupted")
}

func TestWrapAround(t *testing.T) {
	f, err := NewFIFO(8)
	require.NoError(t, err)

	buf := make([]byte, 8)
	require.NoError(t, f.Push([]byte("abcdef")))
	require.Equal(t, 6, f.Pop(buf))

	// head is now at offset 6; this push wraps.
	require.NoError(t, f.Push([]byte("123456")))
	n := f.Pop(buf)
	require.Equal(t, "123456", string(buf[:n]), "wrapping data must read back contiguous")
}

func TestWakeSignalledOnPush(t *testing.T) {
	f, err := NewFIFO(8)
	require.NoError(t, err)

	select {
	case <-f.Wake():
		t.Fatal("wake should not be signalled before any push")
	default:
	}

	require.NoError(t, f.Push([]byte("x")))
	select {
	case <-f.Wake():
	default:
		t.Fatal("push should signal wake")
	}
}

func TestEmptyPushIsNoop(t *testing.T) {
	f, err := NewFIFO(4)
	require.NoError(t, err)
	require.NoError(t, f.Push(nil))
	require.Zero(t, f.Len())
	select {
	case <-f.Wake():
		t.Fatal("empty push should not signal wake")
	default:
	}
}
