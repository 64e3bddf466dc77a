package comment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the collection used by MongoStore.
const CollectionName = "comments"

// MongoStore persists comments in MongoDB. Ids are object id hex strings.
type MongoStore struct {
	db   *mongo.Database
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoStore returns a store on the comments collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:   db,
		coll: db.Collection(CollectionName),
		now:  time.Now,
	}
}

// EnsureIndexes creates the index serving reply listings.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parentComment", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create comments index: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, c *Comment) error {
	if c.ParentComment != "" {
		n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: c.ParentComment}})
		if err != nil {
			return fmt.Errorf("find parent comment: %w", err)
		}
		if n == 0 {
			return ErrParentNotFound
		}
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	c.ID = bson.NewObjectID().Hex()
	c.CreatedAt, c.UpdatedAt = now, now
	c.IsEdited = false
	c.Replies, c.Likes = []string{}, []string{}

	if _, err := s.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	if c.ParentComment != "" {
		_, err := s.coll.UpdateByID(ctx, c.ParentComment, bson.D{
			{Key: "$push", Value: bson.D{{Key: "replies", Value: c.ID}}},
		})
		if err != nil {
			return fmt.Errorf("link reply to parent: %w", err)
		}
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return c.clone(), nil
}

func (s *MongoStore) Update(ctx context.Context, id, content string) (*Comment, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "content", Value: content},
		{Key: "isEdited", Value: true},
		{Key: "updatedAt", Value: s.now().UTC().Truncate(time.Millisecond)},
	}}}

	var c Comment
	err := s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, notFound(err)
	}
	return c.clone(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	var c Comment
	if err := s.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&c); err != nil {
		return notFound(err)
	}

	if c.ParentComment != "" {
		_, err := s.coll.UpdateByID(ctx, c.ParentComment, bson.D{
			{Key: "$pull", Value: bson.D{{Key: "replies", Value: id}}},
		})
		if err != nil {
			return fmt.Errorf("unlink reply from parent: %w", err)
		}
	}

	if len(c.Replies) > 0 {
		_, err := s.coll.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: c.Replies}}}})
		if err != nil {
			return fmt.Errorf("delete replies: %w", err)
		}
	}
	return nil
}

func (s *MongoStore) Like(ctx context.Context, id, userID string) ([]string, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "likes", Value: bson.D{{Key: "$ne", Value: userID}}},
	}
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "likes", Value: bson.D{
		{Key: "$each", Value: bson.A{userID}},
		{Key: "$position", Value: 0},
	}}}}}
	return s.updateLikes(ctx, id, filter, update, ErrAlreadyLiked)
}

func (s *MongoStore) Unlike(ctx context.Context, id, userID string) ([]string, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "likes", Value: userID},
	}
	update := bson.D{{Key: "$pull", Value: bson.D{{Key: "likes", Value: userID}}}}
	return s.updateLikes(ctx, id, filter, update, ErrNotLiked)
}

// updateLikes applies update when filter matches. A miss is reported as
// conflict when the comment exists and ErrNotFound otherwise.
func (s *MongoStore) updateLikes(ctx context.Context, id string, filter, update bson.D, conflict error) ([]string, error) {
	var c Comment
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err == nil {
		return c.clone().Likes, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update likes: %w", err)
	}

	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, conflict
}

func (s *MongoStore) ListReplies(ctx context.Context, id string, opts ListOptions) ([]*Comment, int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, 0, fmt.Errorf("find comment: %w", err)
	}
	if n == 0 {
		return nil, 0, ErrNotFound
	}

	filter := bson.D{{Key: "parentComment", Value: id}}
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count replies: %w", err)
	}

	find := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if opts.Skip > 0 {
		find.SetSkip(int64(opts.Skip))
	}
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}

	cur, err := s.coll.Find(ctx, filter, find)
	if err != nil {
		return nil, 0, fmt.Errorf("list replies: %w", err)
	}
	var replies []*Comment
	if err := cur.All(ctx, &replies); err != nil {
		return nil, 0, fmt.Errorf("decode replies: %w", err)
	}

	out := make([]*Comment, len(replies))
	for i, c := range replies {
		out[i] = c.clone()
	}
	return out, total, nil
}

// Ping checks the database connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("comment store: %w", err)
}
