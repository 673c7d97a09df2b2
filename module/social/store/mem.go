package store

import (
	"context"
	"sync"
	"time"

	"PSocial/module/social/model"
	"PSocial/tools/errs"
)

// MemStores 内存实现：单测与本地联调用。
// 与 Mongo 实现保持相同的错误语义（缺档案返回 RecordNotFound）。
type MemStores struct {
	mu       sync.RWMutex
	users    map[string]*model.User // user_id -> user
	byMember map[string]string      // member_id -> user_id
	graphs   map[string]*model.FriendGraph
	notifs   map[string]*model.NotificationRecord
}

func NewMemStores() *MemStores {
	return &MemStores{
		users:    make(map[string]*model.User),
		byMember: make(map[string]string),
		graphs:   make(map[string]*model.FriendGraph),
		notifs:   make(map[string]*model.NotificationRecord),
	}
}

func (m *MemStores) Users() UserStore                 { return &memUsers{m} }
func (m *MemStores) Graphs() FriendGraphStore         { return &memGraphs{m} }
func (m *MemStores) Notifications() NotificationStore { return &memNotifs{m} }

// Tx 返回快照回滚式事务执行器。
func (m *MemStores) Tx() *MemTx { return &MemTx{m: m} }

// ===== users =====

type memUsers struct{ m *MemStores }

func (s *memUsers) Create(ctx context.Context, u *model.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.byMember[u.MemberID]; ok {
		return errs.ErrDuplicateKey.WrapMsg("user already exists", "member_id", u.MemberID)
	}
	now := time.Now()
	u.CreateTime = now
	u.UpdateTime = now
	cp := *u
	s.m.users[u.UserID] = &cp
	s.m.byMember[u.MemberID] = u.UserID
	return nil
}

func (s *memUsers) GetByUserID(ctx context.Context, userID string) (*model.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	u, ok := s.m.users[userID]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found")
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) GetByMemberID(ctx context.Context, memberID string) (*model.User, error) {
	s.m.mu.RLock()
	uid, ok := s.m.byMember[memberID]
	s.m.mu.RUnlock()
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found")
	}
	return s.GetByUserID(ctx, uid)
}

// ===== friend graphs =====

type memGraphs struct{ m *MemStores }

func (s *memGraphs) Init(ctx context.Context, userID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.graphs[userID]; !ok {
		s.m.graphs[userID] = model.NewFriendGraph(userID)
	}
	return nil
}

func (s *memGraphs) Get(ctx context.Context, userID string) (*model.FriendGraph, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	g, ok := s.m.graphs[userID]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("friend graph not found", "user_id", userID)
	}
	return copyGraph(g), nil
}

func (s *memGraphs) AddPending(ctx context.Context, userID string, ref model.FriendRef) error {
	return s.mutate(userID, func(g *model.FriendGraph) {
		g.Pending[ref.MemberID] = ref
	})
}

func (s *memGraphs) RemovePending(ctx context.Context, userID, memberID string) error {
	return s.mutate(userID, func(g *model.FriendGraph) {
		delete(g.Pending, memberID)
	})
}

func (s *memGraphs) AddFriend(ctx context.Context, userID string, ref model.FriendRef) error {
	return s.mutate(userID, func(g *model.FriendGraph) {
		g.List[ref.MemberID] = ref
	})
}

func (s *memGraphs) RemoveFriend(ctx context.Context, userID, memberID string) error {
	return s.mutate(userID, func(g *model.FriendGraph) {
		delete(g.List, memberID)
	})
}

func (s *memGraphs) mutate(userID string, fn func(*model.FriendGraph)) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	g, ok := s.m.graphs[userID]
	if !ok {
		return errs.ErrRecordNotFound.WrapMsg("friend graph not found", "user_id", userID)
	}
	fn(g)
	g.UpdateTime = time.Now()
	return nil
}

// ===== notifications =====

type memNotifs struct{ m *MemStores }

func (s *memNotifs) Init(ctx context.Context, userID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.notifs[userID]; !ok {
		s.m.notifs[userID] = model.NewNotificationRecord(userID)
	}
	return nil
}

func (s *memNotifs) Get(ctx context.Context, userID string) (*model.NotificationRecord, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.notifs[userID]
	if !ok {
		return nil, errs.ErrRecordNotFound.WrapMsg("notification record not found", "user_id", userID)
	}
	return copyRecord(r), nil
}

func (s *memNotifs) Append(ctx context.Context, userID, category string, n model.Notification) error {
	if !validCategory(category) {
		return errs.ErrArgs.WrapMsg("unknown notification category", "category", category)
	}
	return s.mutate(userID, func(r *model.NotificationRecord) {
		switch category {
		case model.CategoryNews:
			r.News = append(r.News, n)
		case model.CategorySystem:
			r.System = append(r.System, n)
		case model.CategoryGeneral:
			r.General = append(r.General, n)
		}
	})
}

func (s *memNotifs) Delete(ctx context.Context, userID, category string, ids []string) error {
	if !validCategory(category) {
		return errs.ErrArgs.WrapMsg("unknown notification category", "category", category)
	}
	if len(ids) == 0 {
		return errs.ErrArgs.WrapMsg("empty notification id list")
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	filter := func(ns []model.Notification) []model.Notification {
		out := ns[:0]
		for _, n := range ns {
			if _, ok := drop[n.NotificationID]; !ok {
				out = append(out, n)
			}
		}
		return out
	}
	return s.mutate(userID, func(r *model.NotificationRecord) {
		switch category {
		case model.CategoryNews:
			r.News = filter(r.News)
		case model.CategorySystem:
			r.System = filter(r.System)
		case model.CategoryGeneral:
			r.General = filter(r.General)
		}
	})
}

func (s *memNotifs) AddFriendRequest(ctx context.Context, userID string, ref model.FriendRef) error {
	return s.mutate(userID, func(r *model.NotificationRecord) {
		for _, exist := range r.FriendRequests {
			if exist.MemberID == ref.MemberID {
				return
			}
		}
		r.FriendRequests = append(r.FriendRequests, ref)
	})
}

func (s *memNotifs) RemoveFriendRequest(ctx context.Context, userID, memberID string) error {
	return s.mutate(userID, func(r *model.NotificationRecord) {
		out := r.FriendRequests[:0]
		for _, ref := range r.FriendRequests {
			if ref.MemberID != memberID {
				out = append(out, ref)
			}
		}
		r.FriendRequests = out
	})
}

func (s *memNotifs) mutate(userID string, fn func(*model.NotificationRecord)) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.notifs[userID]
	if !ok {
		return errs.ErrRecordNotFound.WrapMsg("notification record not found", "user_id", userID)
	}
	fn(r)
	r.UpdateTime = time.Now()
	return nil
}

// ===== tx（快照回滚） =====

// MemTx 实现 tx.Tx：fn 出错时整体恢复到进入前的快照，
// 模拟 Mongo 事务的全有或全无。
type MemTx struct {
	m *MemStores
}

func (t *MemTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.m.mu.Lock()
	graphs := make(map[string]*model.FriendGraph, len(t.m.graphs))
	for k, v := range t.m.graphs {
		graphs[k] = copyGraph(v)
	}
	notifs := make(map[string]*model.NotificationRecord, len(t.m.notifs))
	for k, v := range t.m.notifs {
		notifs[k] = copyRecord(v)
	}
	t.m.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.m.mu.Lock()
		t.m.graphs = graphs
		t.m.notifs = notifs
		t.m.mu.Unlock()
		return err
	}
	return nil
}

// ===== copy helpers =====

func copyGraph(g *model.FriendGraph) *model.FriendGraph {
	cp := &model.FriendGraph{
		UserID:     g.UserID,
		Pending:    make(map[string]model.FriendRef, len(g.Pending)),
		List:       make(map[string]model.FriendRef, len(g.List)),
		UpdateTime: g.UpdateTime,
	}
	for k, v := range g.Pending {
		cp.Pending[k] = v
	}
	for k, v := range g.List {
		cp.List[k] = v
	}
	return cp
}

func copyRecord(r *model.NotificationRecord) *model.NotificationRecord {
	cp := &model.NotificationRecord{
		UserID:         r.UserID,
		News:           append([]model.Notification(nil), r.News...),
		System:         append([]model.Notification(nil), r.System...),
		General:        append([]model.Notification(nil), r.General...),
		FriendRequests: append([]model.FriendRef(nil), r.FriendRequests...),
		UpdateTime:     r.UpdateTime,
	}
	return cp
}
