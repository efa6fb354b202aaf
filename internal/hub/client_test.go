package hub

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestEnqueueConcurrentWithClose(t *testing.T) {
	// Enqueue racing Close must never panic on the send channel.
	for i := 0; i < 500; i++ {
		c := NewClient(&fakeConn{}, time.Second)

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					c.Enqueue([]byte("frame"))
				}
			}()
		}
		c.Close()
		wg.Wait()
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	c := NewClient(&fakeConn{}, time.Second)
	c.Close()
	if c.Enqueue([]byte("frame")) {
		t.Fatal("enqueue accepted a frame after close")
	}
}

func TestCloseIdempotent(t *testing.T) {
	c := NewClient(&fakeConn{}, time.Second)
	c.Close()
	c.Close()
}

func TestEnqueueStopsAfterWriteFailure(t *testing.T) {
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	c := NewClient(conn, time.Second)

	// The first frame reaches the writer, whose failed write marks the
	// client dead.
	c.Enqueue([]byte("frame"))
	waitFor(t, func() bool { return !c.Enqueue([]byte("frame")) })

	if !conn.isClosed() {
		t.Fatal("failed writer must close the connection")
	}

	// A later Close on the already-dead client is still safe.
	c.Close()
}
