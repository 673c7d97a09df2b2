package handlers

import (
	"PSocial/service/gateway"
)

// RegisterAll 装配网关的全部帧处理器。
func RegisterAll(s *gateway.Server) {
	s.Disp().Register(NewAuthHandler())
	s.Disp().Register(NewPingHandler())
	s.Disp().Register(NewStatusHandler())
}
