package gateway

import (
	"PSocial/logger"
	"PSocial/module/social/model"
	"PSocial/module/social/service"
	"PSocial/module/social/store"
	"PSocial/tools/security"
)

// ===== 网关服务 =====

// Handler 处理一种入站帧。
type Handler interface {
	Type() string
	Handle(ctx *Context, f *ClientFrame, c *Client) error
}

type Context struct {
	S *Server
}

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Type()] = h }

func (d *Dispatcher) GetHandler(typ string) Handler {
	h, ok := d.handlers[typ]
	if !ok {
		return nil
	}
	return h
}

type Config struct {
	GatewayID     string
	FanoutWorkers int
	FanoutQueue   int
	SendQueueSize int
	JWT           security.Options
}

// Server 聚合网关侧资源: 注册表、扇出池、帧分发器与业务服务。
type Server struct {
	cfg      Config
	reg      *Registry
	fan      *Fanout
	disp     *Dispatcher
	presence *service.PresenceService
	users    store.UserStore
}

// NewServer 先建注册表与扇出池; 在线状态服务依赖注册表 (经广播器),
// 装配完成后再 AttachPresence。
func NewServer(cfg Config, users store.UserStore) *Server {
	if cfg.FanoutWorkers <= 0 {
		cfg.FanoutWorkers = 4
	}
	if cfg.FanoutQueue <= 0 {
		cfg.FanoutQueue = 1024
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = 256
	}
	fan := NewFanout(cfg.FanoutWorkers, cfg.FanoutQueue)
	return &Server{
		cfg:   cfg,
		reg:   NewRegistry(fan),
		fan:   fan,
		disp:  NewDispatcher(),
		users: users,
	}
}

// AttachPresence 装配期注入在线状态服务。
func (s *Server) AttachPresence(p *service.PresenceService) { s.presence = p }

func (s *Server) GwID() string                       { return s.cfg.GatewayID }
func (s *Server) Registry() *Registry                { return s.reg }
func (s *Server) Disp() *Dispatcher                  { return s.disp }
func (s *Server) Presence() *service.PresenceService { return s.presence }
func (s *Server) Users() store.UserStore             { return s.users }
func (s *Server) JWTOpts() security.Options          { return s.cfg.JWT }
func (s *Server) SendQueueSize() int                 { return s.cfg.SendQueueSize }

// Reply 给单条连接回帧, 队列满即丢弃。
func (s *Server) Reply(c *Client, frame *model.Frame) {
	payload, err := frame.Marshal()
	if err != nil {
		logger.Errorf("[gateway] marshal reply failed type=%s err=%v", frame.Type, err)
		return
	}
	select {
	case <-c.quit:
	case c.Send <- payload:
	default:
		logger.Warnf("[gateway] send queue full, drop %s conn=%s", frame.Type, c.ConnID)
	}
}
