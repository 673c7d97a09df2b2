package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"PSocial/module/social/model"
	"PSocial/tools/errs"
)

const collUsers = "users"

type UserMongo struct {
	coll *mongo.Collection
}

func NewUserMongo(db *mongo.Database) *UserMongo {
	return &UserMongo{coll: db.Collection(collUsers)}
}

func (s *UserMongo) Create(ctx context.Context, u *model.User) error {
	now := time.Now()
	u.CreateTime = now
	u.UpdateTime = now
	_, err := s.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return errs.ErrDuplicateKey.WrapMsg("user already exists", "member_id", u.MemberID)
	}
	return errs.Wrap(err)
}

func (s *UserMongo) GetByUserID(ctx context.Context, userID string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

func (s *UserMongo) GetByMemberID(ctx context.Context, memberID string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"member_id": memberID})
}

func (s *UserMongo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	err := s.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found")
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &u, nil
}
