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

const collNotifications = "notifications"

type NotificationMongo struct {
	coll *mongo.Collection
}

func NewNotificationMongo(db *mongo.Database) *NotificationMongo {
	return &NotificationMongo{coll: db.Collection(collNotifications)}
}

func (s *NotificationMongo) Init(ctx context.Context, userID string) error {
	r := model.NewNotificationRecord(userID)
	r.UpdateTime = time.Now()
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": r},
		options.Update().SetUpsert(true),
	)
	return errs.Wrap(err)
}

func (s *NotificationMongo) Get(ctx context.Context, userID string) (*model.NotificationRecord, error) {
	var r model.NotificationRecord
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrRecordNotFound.WrapMsg("notification record not found", "user_id", userID)
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &r, nil
}

func (s *NotificationMongo) Append(ctx context.Context, userID, category string, n model.Notification) error {
	if !validCategory(category) {
		return errs.ErrArgs.WrapMsg("unknown notification category", "category", category)
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$push": bson.M{category: n},
			"$set":  bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.Wrap(err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("notification record not found", "user_id", userID)
	}
	return nil
}

// Delete 单条 $pull + $in，一次批量写搞定多条删除。
func (s *NotificationMongo) Delete(ctx context.Context, userID, category string, ids []string) error {
	if !validCategory(category) {
		return errs.ErrArgs.WrapMsg("unknown notification category", "category", category)
	}
	if len(ids) == 0 {
		return errs.ErrArgs.WrapMsg("empty notification id list")
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$pull": bson.M{category: bson.M{"notification_id": bson.M{"$in": ids}}},
			"$set":  bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.Wrap(err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("notification record not found", "user_id", userID)
	}
	return nil
}

func (s *NotificationMongo) AddFriendRequest(ctx context.Context, userID string, ref model.FriendRef) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			// addToSet 防重：同一发起方只留一条
			"$addToSet": bson.M{"friend_requests": ref},
			"$set":      bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.Wrap(err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("notification record not found", "user_id", userID)
	}
	return nil
}

func (s *NotificationMongo) RemoveFriendRequest(ctx context.Context, userID, memberID string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$pull": bson.M{"friend_requests": bson.M{"member_id": memberID}},
			"$set":  bson.M{"update_time": time.Now()},
		},
	)
	if err != nil {
		return errs.Wrap(err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("notification record not found", "user_id", userID)
	}
	return nil
}

func validCategory(c string) bool {
	switch c {
	case model.CategoryNews, model.CategorySystem, model.CategoryGeneral:
		return true
	}
	return false
}
