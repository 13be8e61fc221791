package store

import (
	"context"
	"errors"
	"time"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cardCollection = "cards"

type cardDoc struct {
	ID           string            `bson:"_id"`
	UserID       string            `bson:"user_id"`
	SpanishText  string            `bson:"spanish_text"`
	Translations map[string]string `bson:"translations,omitempty"`
	Category     string            `bson:"category"`
	CreatedAt    time.Time         `bson:"created_at"`
}

func (d cardDoc) card() models.Card {
	return models.Card{
		ID:           d.ID,
		UserID:       d.UserID,
		SpanishText:  d.SpanishText,
		Translations: d.Translations,
		Category:     d.Category,
		CreatedAt:    d.CreatedAt,
	}
}

// MongoStore is the MongoDB gateway.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(cardCollection)}
}

// EnsureIndexes creates the owner/category index used by every query.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "category", Value: 1}},
	})
	return wrap("ensure indexes", err)
}

func mongoFilter(owner string, f Filter) bson.M {
	m := bson.M{"user_id": owner}
	if f.ID != "" {
		m["_id"] = f.ID
	}
	if f.Category != "" {
		m["category"] = f.Category
	}
	return m
}

func mongoSort(o Order) bson.D {
	dir := -1
	if o == OldestFirst {
		dir = 1
	}
	return bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: 1}}
}

func (s *MongoStore) Query(ctx context.Context, owner string, f Filter, o Order) ([]models.Card, error) {
	cur, err := s.coll.Find(ctx, mongoFilter(owner, f), options.Find().SetSort(mongoSort(o)))
	if err != nil {
		return nil, wrap("query", err)
	}
	defer cur.Close(ctx)

	var docs []cardDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrap("query", err)
	}

	cards := make([]models.Card, 0, len(docs))
	for _, d := range docs {
		cards = append(cards, d.card())
	}
	return cards, nil
}

func newDoc(owner string, f models.CardFields, now time.Time) cardDoc {
	return cardDoc{
		ID:           uuid.New().String(),
		UserID:       owner,
		SpanishText:  f.SpanishText,
		Translations: f.Translations,
		Category:     f.Category,
		CreatedAt:    now,
	}
}

func (s *MongoStore) Insert(ctx context.Context, owner string, fields models.CardFields) (*models.Card, error) {
	doc := newDoc(owner, fields, time.Now().UTC().Truncate(time.Millisecond))
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, wrap("insert", err)
	}
	card := doc.card()
	return &card, nil
}

func (s *MongoStore) InsertBatch(ctx context.Context, owner string, fields []models.CardFields) ([]models.Card, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]interface{}, 0, len(fields))
	cards := make([]models.Card, 0, len(fields))
	for _, f := range fields {
		d := newDoc(owner, f, now)
		docs = append(docs, d)
		cards = append(cards, d.card())
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return nil, wrap("insert batch", err)
	}
	return cards, nil
}

func (s *MongoStore) Update(ctx context.Context, owner, id string, fields models.CardFields) (*models.Card, error) {
	update := bson.M{"$set": bson.M{
		"spanish_text": fields.SpanishText,
		"translations": fields.Translations,
		"category":     fields.Category,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc cardDoc
	err := s.coll.FindOneAndUpdate(ctx, mongoFilter(owner, Filter{ID: id}), update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCardNotFound
		}
		return nil, wrap("update", err)
	}
	card := doc.card()
	return &card, nil
}

func (s *MongoStore) Delete(ctx context.Context, owner, id string) error {
	res, err := s.coll.DeleteOne(ctx, mongoFilter(owner, Filter{ID: id}))
	if err != nil {
		return wrap("delete", err)
	}
	if res.DeletedCount == 0 {
		return ErrCardNotFound
	}
	return nil
}
