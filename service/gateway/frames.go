package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"PSocial/module/social/model"
	decode "PSocial/tools/decode"
)

// ===== 客户端帧 =====

// 客户端入站帧类型。
const (
	FrameAuth   = "auth"
	FramePing   = "ping"
	FrameStatus = "status"
)

// 服务端回执帧类型。
const (
	FrameConnAck = "conn_ack"
	FrameAuthAck = "auth_ack"
	FramePong    = "pong"
	FrameError   = "error"
)

// ClientFrame 客户端入站帧, data 为松散负载, 各 handler 自行解码。
type ClientFrame struct {
	Type string         `json:"type"`
	Ts   int64          `json:"ts,omitempty"`
	Data map[string]any `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*ClientFrame, error) {
	frame := &ClientFrame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	if frame.Type == "" {
		return nil, fmt.Errorf("frame type is empty")
	}
	return frame, nil
}

type AuthPayload struct {
	Token string   `json:"token"`
	Areas []string `json:"areas"`
}

type StatusPayload struct {
	Status string `json:"status"`
}

func ExtractAuthPayload(f *ClientFrame) (*AuthPayload, error) {
	return decode.DecodePayload[AuthPayload](f.Data)
}

func ExtractStatusPayload(f *ClientFrame) (*StatusPayload, error) {
	return decode.DecodePayload[StatusPayload](f.Data)
}

// ---- 构造服务端回执 ----

func BuildConnAck(connID, gatewayID string) *model.Frame {
	return model.NewFrame(FrameConnAck, map[string]any{
		"conn_id":    connID,
		"gateway_id": gatewayID,
	})
}

func BuildAuthAck(c *Client) *model.Frame {
	return model.NewFrame(FrameAuthAck, map[string]any{
		"member_id": c.MemberID,
		"conn_id":   c.ConnID,
		"areas":     c.Areas,
	})
}

func BuildPong() *model.Frame {
	return model.NewFrame(FramePong, map[string]any{"server_time": time.Now().UnixMilli()})
}

func BuildError(code int, msg string) *model.Frame {
	return model.NewFrame(FrameError, map[string]any{"code": code, "msg": msg})
}
