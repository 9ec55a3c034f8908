package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu       sync.Mutex
	messages [][]byte
	failing  bool
	closed   bool
}

func (c *fakeClient) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeClient) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.messages...)
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &fakeClient{}
	hub.Register <- client

	productID := uuid.New()
	hub.Publish(StockEvent{
		Action:    "stock_adjusted",
		ProductID: productID,
		Variants:  []VariantState{{ID: uuid.New(), Color: "Red", Size: "M", InventoryCount: 4}},
	})

	require.Eventually(t, func() bool { return len(client.received()) == 1 }, time.Second, 5*time.Millisecond)

	var got StockEvent
	require.NoError(t, json.Unmarshal(client.received()[0], &got))
	assert.Equal(t, "stock_update", got.Type)
	assert.Equal(t, productID, got.ProductID)
	assert.Equal(t, 4, got.Variants[0].InventoryCount)
}

func TestHub_DropsFailingClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	bad := &fakeClient{failing: true}
	hub.Register <- bad
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(StockEvent{Action: "stock_adjusted"})

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, bad.isClosed())
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub() // not running, nothing drains the buffer

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+10; i++ {
			hub.Publish(StockEvent{Action: "stock_adjusted"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()

	client := &fakeClient{}
	hub.Register <- client
	hub.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.True(t, client.isClosed())
	hub.Stop()
}

func TestHub_JoinAndLeaveAfterStopDoNotBlock(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &fakeClient{}
	require.True(t, hub.Join(client))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()
	require.Eventually(t, client.isClosed, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		hub.Leave(client)
		assert.False(t, hub.Join(&fakeClient{}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Leave or Join blocked after Stop")
	}
}
