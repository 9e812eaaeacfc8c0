// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pageza/homefoods/backend/internal/model"
	"github.com/pageza/homefoods/backend/internal/query"
	"github.com/pageza/homefoods/backend/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// DefaultDatabase is used when no database name is configured.
	DefaultDatabase = "homefoods"
	// Collection holds the food items.
	Collection = "fooditems"
)

// Store is a MongoDB backed food item store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Open connects to uri and selects database, falling back to
// DefaultDatabase.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("error connecting to mongodb: %w", err)
	}
	return New(client, database), nil
}

// New uses an existing client.
func New(client *mongo.Client, database string) *Store {
	if database == "" {
		database = DefaultDatabase
	}
	return &Store{client: client, coll: client.Database(database).Collection(Collection)}
}

// Collection exposes the underlying collection.
func (s *Store) Collection() *mongo.Collection {
	return s.coll
}

// now is truncated to the millisecond precision BSON dates keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: model.FieldName, Value: 1}}},
		{Keys: bson.D{{Key: model.FieldCategory, Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, item *model.FoodItem) error {
	doc, err := fromModel(item)
	if err != nil {
		return fmt.Errorf("invalid food item id %q: %w", item.ID, err)
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	doc.CreatedAt = now()
	doc.UpdatedAt = doc.CreatedAt

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert food item: %w", err)
	}
	*item = *doc.toModel()
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*model.FoodItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc foodDocument
	err = s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load food item %s: %w", id, err)
	}
	return doc.toModel(), nil
}

func (s *Store) Find(ctx context.Context, q *query.Query) ([]*model.FoodItem, error) {
	if q == nil {
		q = query.New()
	}
	filter, err := s.filter(q.Filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if p := projectionBSON(q.Projection); p != nil {
		opts.SetProjection(p)
	}
	if len(q.Sort) > 0 {
		opts.SetSort(sortBSON(q.Sort))
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query food items: %w", err)
	}
	var docs []foodDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode food items: %w", err)
	}
	out := make([]*model.FoodItem, len(docs))
	for i := range docs {
		out[i] = docs[i].toModel()
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, f query.Filter) (int64, error) {
	filter, err := s.filter(f)
	if err != nil {
		return 0, err
	}
	n, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count food items: %w", err)
	}
	return n, nil
}

func (s *Store) Save(ctx context.Context, item *model.FoodItem) error {
	doc, err := fromModel(item)
	if err != nil || doc.ID.IsZero() {
		return store.ErrNotFound
	}
	doc.UpdatedAt = now()

	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc)
	if err != nil {
		return fmt.Errorf("failed to save food item %s: %w", item.ID, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	item.UpdatedAt = doc.UpdatedAt
	if item.Ingredients == nil {
		item.Ingredients = model.StringArray{}
	}
	return nil
}

func (s *Store) SetFields(ctx context.Context, id string, patch model.FoodItemPatch, returnNew bool) (*model.FoodItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	if patch.Empty() {
		return s.FindByID(ctx, id)
	}

	set := append(setBSON(patch), bson.E{Key: model.FieldUpdatedAt, Value: now()})
	ret := options.Before
	if returnNew {
		ret = options.After
	}

	var doc foodDocument
	err = s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(ret),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update food item %s: %w", id, err)
	}
	return doc.toModel(), nil
}

func (s *Store) Delete(ctx context.Context, id string) (*model.FoodItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc foodDocument
	err = s.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete food item %s: %w", id, err)
	}
	return doc.toModel(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) filter(f query.Filter) (bson.D, error) {
	if err := query.Validate(f); err != nil {
		return nil, err
	}
	return toBSON(f)
}
