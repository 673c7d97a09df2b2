package gateway

import (
	"testing"

	"PSocial/module/social/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoundClient(connID, userID string, areas []string) *Client {
	c := NewClient(connID, nil, 8)
	c.Bind(userID, "m_"+userID, areas)
	return c
}

func TestRegistryMultiDevice(t *testing.T) {
	r := NewRegistry(NewFanout(1, 16))

	phone := newBoundClient("c1", "u1", []string{model.AreaSocial, model.AreaChat})
	laptop := newBoundClient("c2", "u1", []string{model.AreaSocial})
	r.Add(phone)
	r.Add(laptop)

	assert.Len(t, r.ListByUser(model.AreaSocial, "u1"), 2)
	assert.Len(t, r.ListByUser(model.AreaChat, "u1"), 1)
	assert.Equal(t, 2, r.ConnCount())
	assert.Same(t, phone, r.GetByConnID("c1"))
}

func TestRegistryAreaIsolation(t *testing.T) {
	r := NewRegistry(NewFanout(1, 16))

	chatOnly := newBoundClient("c1", "u1", []string{model.AreaChat})
	r.Add(chatOnly)

	assert.Empty(t, r.ListByUser(model.AreaSocial, "u1"))
	assert.Len(t, r.ListByUser(model.AreaChat, "u1"), 1)
}

func TestRegistryRemoveLastSocial(t *testing.T) {
	r := NewRegistry(NewFanout(1, 16))

	phone := newBoundClient("c1", "u1", []string{model.AreaSocial})
	laptop := newBoundClient("c2", "u1", []string{model.AreaSocial})
	r.Add(phone)
	r.Add(laptop)

	assert.False(t, r.Remove(phone), "one social handle still up")
	assert.True(t, r.Remove(laptop), "last social handle dropped")
	assert.Empty(t, r.ListByUser(model.AreaSocial, "u1"))
}

func TestRegistryRemoveChatOnlyNeverLastSocial(t *testing.T) {
	r := NewRegistry(NewFanout(1, 16))

	c := newBoundClient("c1", "u1", []string{model.AreaChat})
	r.Add(c)
	assert.False(t, r.Remove(c))
}

func TestRegistryPushToUser(t *testing.T) {
	r := NewRegistry(NewFanout(1, 16))

	phone := newBoundClient("c1", "u1", []string{model.AreaSocial})
	laptop := newBoundClient("c2", "u1", []string{model.AreaSocial})
	other := newBoundClient("c3", "u2", []string{model.AreaSocial})
	r.Add(phone)
	r.Add(laptop)
	r.Add(other)

	payload := []byte(`{"type":"presence"}`)
	n := r.PushToUser(model.AreaSocial, "u1", payload)
	assert.Equal(t, 2, n)

	// 扇出池异步投递, 两条连接各收一份
	got := 0
	for got < 2 {
		select {
		case msg := <-phone.Send:
			require.Equal(t, payload, msg)
			got++
		case msg := <-laptop.Send:
			require.Equal(t, payload, msg)
			got++
		}
	}
	select {
	case <-other.Send:
		t.Fatal("unrelated user must not receive the payload")
	default:
	}

	assert.Equal(t, 0, r.PushToUser(model.AreaChat, "u1", payload))
}
