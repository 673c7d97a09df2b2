package service

import (
	"context"
	"fmt"

	"PSocial/data/database/utils/tx"
	"PSocial/module/social/model"
	"PSocial/module/social/store"
	"PSocial/tools/errs"
)

// FriendService 好友关系状态机：none -> pending -> {list, none}。
// 所有触碰两份档案的迁移都走事务执行器；合法性检查一律在首个写之前，
// 被拒的请求零副作用。
type FriendService struct {
	users  store.UserStore
	graphs store.FriendGraphStore
	notifs store.NotificationStore
	tx     tx.Tx

	notify *NotificationService
	bc     *Broadcaster
}

func NewFriendService(
	users store.UserStore,
	graphs store.FriendGraphStore,
	notifs store.NotificationStore,
	txe tx.Tx,
	notify *NotificationService,
	bc *Broadcaster,
) *FriendService {
	return &FriendService{
		users:  users,
		graphs: graphs,
		notifs: notifs,
		tx:     txe,
		notify: notify,
		bc:     bc,
	}
}

// Request none -> pending。
// 校验顺序：自指 / 对方存在 / 对方已验证 / 双向未拉黑 / 当前确为 none。
// 通过后一个事务写两处：对方档案的 pending + 对方通知档案的 friend_requests。
func (s *FriendService) Request(ctx context.Context, actor model.Identity, peerMemberID string) error {
	if peerMemberID == "" || peerMemberID == actor.MemberID {
		return errs.ErrArgs.WrapMsg("invalid peer", "member_id", peerMemberID)
	}
	peer, err := s.users.GetByMemberID(ctx, peerMemberID)
	if err != nil {
		return err
	}
	if !peer.Verified {
		return errs.ErrNoPermission.WrapMsg("recipient account not verified")
	}
	// 拉黑优先：任一方向拉黑都在任何状态变更之前失败
	actorUser, err := s.users.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if peer.HasBlocked(actor.MemberID) || actorUser.HasBlocked(peer.MemberID) {
		return errs.ErrNoPermission.WrapMsg("pair is blocked")
	}
	state, err := s.pairState(ctx, actor, peer)
	if err != nil {
		return err
	}
	if state != model.RelationNone {
		// 重复请求是错误，不是静默无操作
		return errs.ErrDuplicateKey.WrapMsg("relationship already exists", "state", state)
	}

	actorRef := actor.Ref()
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.graphs.AddPending(ctx, peer.UserID, actorRef); err != nil {
			return err
		}
		return s.notifs.AddFriendRequest(ctx, peer.UserID, actorRef)
	})
	if err != nil {
		return err
	}

	s.bc.Push(ctx, model.AreaSocial, peer.UserID, model.NewFrame(model.EventFriendAction, model.FriendActionEvent{
		ActionType: model.ActionRequest,
		Friend:     actorRef,
	}))
	s.bc.Push(ctx, model.AreaSocial, peer.UserID, model.NewFrame(model.EventFriendList, model.DeltaUpdate("pending", actorRef)))
	return nil
}

// Accept pending -> list（双边）。
// 三路对称写：清掉接受方的 pending 与申请通知条目，双方 list 各插一条，
// 全部落在一个事务里，要么全成要么全不动。
func (s *FriendService) Accept(ctx context.Context, actor model.Identity, peerMemberID string) error {
	peer, err := s.requirePending(ctx, actor, peerMemberID)
	if err != nil {
		return err
	}

	actorRef := actor.Ref()
	peerRef := peer.Ref()
	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.graphs.RemovePending(ctx, actor.UserID, peer.MemberID); err != nil {
			return err
		}
		if err := s.notifs.RemoveFriendRequest(ctx, actor.UserID, peer.MemberID); err != nil {
			return err
		}
		if err := s.graphs.AddFriend(ctx, actor.UserID, peerRef); err != nil {
			return err
		}
		return s.graphs.AddFriend(ctx, peer.UserID, actorRef)
	})
	if err != nil {
		return err
	}

	// 原发起方：好友动作 + 列表增量
	s.bc.Push(ctx, model.AreaSocial, peer.UserID, model.NewFrame(model.EventFriendAction, model.FriendActionEvent{
		ActionType: model.ActionAdd,
		Friend:     actorRef,
	}))
	s.bc.Push(ctx, model.AreaSocial, peer.UserID, model.NewFrame(model.EventFriendList, model.DeltaUpdate("list", actorRef)))
	// 接受方的其他设备：pending 清除 + 列表增量
	s.bc.Push(ctx, model.AreaSocial, actor.UserID, model.NewFrame(model.EventFriendList, model.DeltaRemove("pending", peer.MemberID)))
	s.bc.Push(ctx, model.AreaSocial, actor.UserID, model.NewFrame(model.EventFriendList, model.DeltaUpdate("list", peerRef)))
	return nil
}

// Decline pending -> none。
// 清掉拒绝方的 pending 与申请通知条目，并在同一事务里
// 给原发起方落一条静默通知（不做在线强推）。
func (s *FriendService) Decline(ctx context.Context, actor model.Identity, peerMemberID string) error {
	peer, err := s.requirePending(ctx, actor, peerMemberID)
	if err != nil {
		return err
	}

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.graphs.RemovePending(ctx, actor.UserID, peer.MemberID); err != nil {
			return err
		}
		if err := s.notifs.RemoveFriendRequest(ctx, actor.UserID, peer.MemberID); err != nil {
			return err
		}
		_, err := s.notify.Emit(ctx, peer.UserID, model.Notification{
			Type:    model.TypeFriendDeclined,
			Title:   "Friend request declined",
			Message: fmt.Sprintf("%s declined your friend request", actor.Username),
		}, EmitOptions{Silent: true})
		return err
	})
	if err != nil {
		return err
	}

	// 拒绝方其他设备同步动作与 pending 清除；发起方不收在线推送
	s.bc.Push(ctx, model.AreaSocial, actor.UserID, model.NewFrame(model.EventFriendAction, model.FriendActionEvent{
		ActionType: model.ActionDecline,
		Friend:     peer.Ref(),
	}))
	s.bc.Push(ctx, model.AreaSocial, actor.UserID, model.NewFrame(model.EventFriendList, model.DeltaRemove("pending", peer.MemberID)))
	return nil
}

// Unfriend list -> none（双边对称删除），静默告知被移除方。
func (s *FriendService) Unfriend(ctx context.Context, actor model.Identity, peerMemberID string) error {
	peer, err := s.users.GetByMemberID(ctx, peerMemberID)
	if err != nil {
		return err
	}
	g, err := s.graphs.Get(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if g.StateWith(peer.MemberID) != model.RelationList {
		return errs.ErrRecordNotFound.WrapMsg("not friends", "member_id", peerMemberID)
	}

	err = s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.graphs.RemoveFriend(ctx, actor.UserID, peer.MemberID); err != nil {
			return err
		}
		if err := s.graphs.RemoveFriend(ctx, peer.UserID, actor.MemberID); err != nil {
			return err
		}
		_, err := s.notify.Emit(ctx, peer.UserID, model.Notification{
			Type:    model.TypeFriendRemoved,
			Title:   "Friend removed",
			Message: fmt.Sprintf("%s removed you from their friend list", actor.Username),
		}, EmitOptions{Silent: true})
		return err
	})
	if err != nil {
		return err
	}

	s.bc.Push(ctx, model.AreaSocial, actor.UserID, model.NewFrame(model.EventFriendList, model.DeltaRemove("list", peer.MemberID)))
	s.bc.Push(ctx, model.AreaSocial, peer.UserID, model.NewFrame(model.EventFriendList, model.DeltaRemove("list", actor.MemberID)))
	return nil
}

// Graph 全量好友视图（list + pending）。
func (s *FriendService) Graph(ctx context.Context, actor model.Identity) (*model.FriendGraph, error) {
	return s.graphs.Get(ctx, actor.UserID)
}

// pairState 任一侧可见的最强关系：list > pending > none。
// 两侧档案独立存储，请求合法性要看双向。
func (s *FriendService) pairState(ctx context.Context, actor model.Identity, peer *model.User) (string, error) {
	actorGraph, err := s.graphs.Get(ctx, actor.UserID)
	if err != nil {
		return "", err
	}
	peerGraph, err := s.graphs.Get(ctx, peer.UserID)
	if err != nil {
		return "", err
	}
	if actorGraph.StateWith(peer.MemberID) == model.RelationList || peerGraph.StateWith(actor.MemberID) == model.RelationList {
		return model.RelationList, nil
	}
	if actorGraph.StateWith(peer.MemberID) == model.RelationPending || peerGraph.StateWith(actor.MemberID) == model.RelationPending {
		return model.RelationPending, nil
	}
	return model.RelationNone, nil
}

// requirePending 校验 actor 档案里确有来自 peer 的待处理申请。
func (s *FriendService) requirePending(ctx context.Context, actor model.Identity, peerMemberID string) (*model.User, error) {
	peer, err := s.users.GetByMemberID(ctx, peerMemberID)
	if err != nil {
		return nil, err
	}
	g, err := s.graphs.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	switch g.StateWith(peer.MemberID) {
	case model.RelationPending:
		return peer, nil
	case model.RelationList:
		return nil, errs.ErrDuplicateKey.WrapMsg("already friends", "member_id", peerMemberID)
	default:
		return nil, errs.ErrRecordNotFound.WrapMsg("no pending request", "member_id", peerMemberID)
	}
}
