package handlers

import (
	"encoding/json"
	"testing"

	"PSocial/module/social/model"
	"PSocial/module/social/store"
	"PSocial/service/gateway"
	"PSocial/tools/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 已认证连接上再发 auth 帧必须整帧拒绝:
// 既不能换绑到新用户, 也不能在注册表里留下旧用户的条目。
func TestAuthRejectsRebind(t *testing.T) {
	ms := store.NewMemStores()
	s := gateway.NewServer(gateway.Config{
		GatewayID: "gw-test",
		JWT:       security.DefaultOptions([]byte("test-secret")),
	}, ms.Users())
	RegisterAll(s)

	c := gateway.NewClient("conn_1", nil, 8)
	c.Bind("u1", "m_alice", model.Areas)
	s.Registry().Add(c)

	frame := &gateway.ClientFrame{
		Type: gateway.FrameAuth,
		Data: map[string]any{"token": "whatever", "areas": []any{model.AreaSocial}},
	}
	h := NewAuthHandler()
	require.NoError(t, h.Handle(&gateway.Context{S: s}, frame, c))

	// 身份未变, 原条目仍在
	assert.Equal(t, "u1", c.UserID)
	assert.Equal(t, "m_alice", c.MemberID)
	assert.Len(t, s.Registry().ListByUser(model.AreaSocial, "u1"), 1)

	// 连接收到 error 帧
	select {
	case payload := <-c.Send:
		reply := model.Frame{}
		require.NoError(t, json.Unmarshal(payload, &reply))
		assert.Equal(t, gateway.FrameError, reply.Type)
	default:
		t.Fatal("expected an error frame on the connection")
	}
}
