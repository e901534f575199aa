package player

import (
	"context"
	"errors"
	"time"

	"login_gateway/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	PlayerRepo struct {
		collection *mongo.Collection
	}
)

func NewPlayerRepo(db *mongo.Database) *PlayerRepo {
	return &PlayerRepo{
		collection: db.Collection("players"),
	}
}

// EnsureIndexes makes player names unique.
func (r *PlayerRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// GetByName returns nil, nil when no player has that name.
func (r *PlayerRepo) GetByName(ctx context.Context, name string) (*model.Player, error) {
	filter := bson.M{
		"name": name,
	}

	var p model.Player
	err := r.collection.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *PlayerRepo) Create(ctx context.Context, p *model.Player) (primitive.ObjectID, error) {
	res, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id := res.InsertedID.(primitive.ObjectID)
	p.ID = id
	return id, nil
}

// TouchLogin records the time and address of a successful login.
func (r *PlayerRepo) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time, address string) error {
	_, err := r.collection.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"last_login_at": at,
			"last_address":  address,
		},
	})
	return err
}
