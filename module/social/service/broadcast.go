package service

import (
	"context"

	"PSocial/logger"
	"PSocial/module/social/model"
)

// Pusher 本地连接注册表：把负载投给某用户在某区域的全部在线连接。
// 返回实际投递的连接数（0 不是错误：无连接时靠落库兜底）。
type Pusher interface {
	PushToUser(area, userID string, payload []byte) int
}

// Bus 跨节点事件总线；单节点部署可为 nil。
type Bus interface {
	Publish(ctx context.Context, env *model.EventEnvelope) error
}

// Broadcaster 把变更扇出到目标用户的全部在线连接：
// 先投本地注册表，再发总线让其他节点投各自的本地连接。
// 推送失败只记日志不回传——持久化在推送之前已经完成。
type Broadcaster struct {
	local Pusher
	bus   Bus
	gwID  string
}

func NewBroadcaster(local Pusher, bus Bus, gwID string) *Broadcaster {
	return &Broadcaster{local: local, bus: bus, gwID: gwID}
}

// Push 给单个用户在单个区域扇出一帧。
func (b *Broadcaster) Push(ctx context.Context, area, userID string, frame *model.Frame) {
	if b == nil {
		return
	}
	payload, err := frame.Marshal()
	if err != nil {
		logger.Errorf("[broadcast] marshal frame failed type=%s err=%v", frame.Type, err)
		return
	}
	if b.local != nil {
		n := b.local.PushToUser(area, userID, payload)
		logger.Debugf("[broadcast] local push area=%s user=%s type=%s conns=%d", area, userID, frame.Type, n)
	}
	if b.bus != nil {
		env := &model.EventEnvelope{
			Area:          area,
			ToUserID:      userID,
			OriginGateway: b.gwID,
			Payload:       payload,
		}
		if err := b.bus.Publish(ctx, env); err != nil {
			logger.Errorf("[broadcast] bus publish failed area=%s user=%s err=%v", area, userID, err)
		}
	}
}

// PushAllAreas 跨切面事件按静态区域清单逐一扇出。
func (b *Broadcaster) PushAllAreas(ctx context.Context, userID string, frame *model.Frame) {
	for _, area := range model.Areas {
		b.Push(ctx, area, userID, frame)
	}
}
