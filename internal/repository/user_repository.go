package repository

import (
	"context"
	"errors"
	"fmt"

	"quizhub/internal/models"
	"quizhub/internal/service"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	Col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{Col: db.Collection("users")}
}

// InitializeIndexes creates the unique email index. Uniqueness is enforced
// here, not just by the check in the registration flow, so concurrent
// registrations for the same address cannot both insert.
func (r *UserRepository) InitializeIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// FindByEmail returns (nil, nil) when no user has the address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.Col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	cur, err := r.Col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := r.Col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		// The unique email index caught a concurrent registration that the
		// find-then-create sequence missed.
		return service.ErrAlreadyRegistered
	}
	return err
}

// Save replaces the whole document. Fields tagged omitempty (the OTP pair)
// disappear from the stored document when zeroed, which is how a cleared code
// is persisted.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	_, err := r.Col.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	return err
}
