package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 断连与广播并发时, worker 往收尾中连接的队列写入不能崩掉进程。
func TestFanoutSurvivesClosedClient(t *testing.T) {
	f := NewFanout(1, 8)

	gone := NewClient("conn_gone", nil, 1)
	gone.CloseSend()
	live := NewClient("conn_live", nil, 8)

	payload := []byte(`{"type":"pong"}`)
	f.Broadcast([]*Client{gone, live}, payload)

	select {
	case got := <-live.Send:
		assert.Equal(t, payload, got)
	case <-time.After(time.Second):
		t.Fatal("live client never received payload")
	}

	// worker 还活着, 后续广播照常投递
	f.Broadcast([]*Client{live}, payload)
	select {
	case <-live.Send:
	case <-time.After(time.Second):
		t.Fatal("worker died after hitting closed client")
	}
}

func TestClientCloseSendIdempotent(t *testing.T) {
	c := NewClient("conn_x", nil, 2)
	c.CloseSend()
	c.CloseSend()

	select {
	case <-c.Closing():
	default:
		t.Fatal("quit signal not raised")
	}

	// 队列保持打开, 竞态中的入队不 panic
	require.NotPanics(t, func() {
		select {
		case c.Send <- []byte("late"):
		default:
		}
	})
}
