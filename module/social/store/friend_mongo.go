package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"PSocial/module/social/model"
	"PSocial/tools/errs"
)

const collFriendGraphs = "friend_graphs"

type FriendGraphMongo struct {
	coll *mongo.Collection
}

func NewFriendGraphMongo(db *mongo.Database) *FriendGraphMongo {
	return &FriendGraphMongo{coll: db.Collection(collFriendGraphs)}
}

// Init 随账号创建空档案（幂等）。
func (s *FriendGraphMongo) Init(ctx context.Context, userID string) error {
	g := model.NewFriendGraph(userID)
	g.UpdateTime = time.Now()
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": g},
		options.Update().SetUpsert(true),
	)
	return errs.Wrap(err)
}

func (s *FriendGraphMongo) Get(ctx context.Context, userID string) (*model.FriendGraph, error) {
	var g model.FriendGraph
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("friend graph not found", "user_id", userID)
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	if g.Pending == nil {
		g.Pending = map[string]model.FriendRef{}
	}
	if g.List == nil {
		g.List = map[string]model.FriendRef{}
	}
	return &g, nil
}

func (s *FriendGraphMongo) AddPending(ctx context.Context, userID string, ref model.FriendRef) error {
	return s.setField(ctx, userID, "pending."+ref.MemberID, ref)
}

func (s *FriendGraphMongo) RemovePending(ctx context.Context, userID, memberID string) error {
	return s.unsetField(ctx, userID, "pending."+memberID)
}

func (s *FriendGraphMongo) AddFriend(ctx context.Context, userID string, ref model.FriendRef) error {
	return s.setField(ctx, userID, "list."+ref.MemberID, ref)
}

func (s *FriendGraphMongo) RemoveFriend(ctx context.Context, userID, memberID string) error {
	return s.unsetField(ctx, userID, "list."+memberID)
}

func (s *FriendGraphMongo) setField(ctx context.Context, userID, field string, v any) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set": bson.M{field: v, "update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.Wrap(err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("friend graph not found", "user_id", userID)
	}
	return nil
}

func (s *FriendGraphMongo) unsetField(ctx context.Context, userID, field string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$unset": bson.M{field: ""},
			"$set":   bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.Wrap(err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("friend graph not found", "user_id", userID)
	}
	return nil
}
