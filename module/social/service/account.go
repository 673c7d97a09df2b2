package service

import (
	"context"
	"time"

	"PSocial/data/database/utils/tx"
	"PSocial/module/social/model"
	"PSocial/module/social/store"
	"PSocial/tools/errs"
	"PSocial/tools/ids"
)

// ===== 账号服务 =====

// AccountService 负责开户: 用户档案 + 空好友图 + 空通知档案一并建好,
// 后续操作可假定两份档案必然存在。
type AccountService struct {
	users  store.UserStore
	graphs store.FriendGraphStore
	notifs store.NotificationStore
	tx     tx.Tx

	clock func() time.Time
}

func NewAccountService(users store.UserStore, graphs store.FriendGraphStore, notifs store.NotificationStore, txn tx.Tx) *AccountService {
	return &AccountService{
		users:  users,
		graphs: graphs,
		notifs: notifs,
		tx:     txn,
		clock:  time.Now,
	}
}

type CreateAccountReq struct {
	MemberID string `json:"member_id"`
	Username string `json:"username"`
	FaceURL  string `json:"face_url"`
	Verified bool   `json:"verified"`
}

// CreateAccount 建档。member_id 重复时返回冲突错误。
func (s *AccountService) CreateAccount(ctx context.Context, req *CreateAccountReq) (*model.User, error) {
	if req.MemberID == "" || req.Username == "" {
		return nil, errs.ErrArgs.WrapMsg("member_id and username are required")
	}
	now := s.clock()
	u := &model.User{
		UserID:     ids.GenerateString(),
		MemberID:   req.MemberID,
		Username:   req.Username,
		FaceURL:    req.FaceURL,
		Verified:   req.Verified,
		CreateTime: now,
		UpdateTime: now,
	}
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		if err := s.graphs.Init(ctx, u.UserID); err != nil {
			return err
		}
		return s.notifs.Init(ctx, u.UserID)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Lookup 按对外 member_id 取档案。
func (s *AccountService) Lookup(ctx context.Context, memberID string) (*model.User, error) {
	return s.users.GetByMemberID(ctx, memberID)
}
