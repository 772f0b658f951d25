package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/report-portal/internal/apperror"
	"github.com/sakif/report-portal/internal/model"
	"github.com/sakif/report-portal/internal/repository"
)

var _ repository.UserRepository = (*UserCollection)(nil)

// UserCollection stores users in the "users" collection.
type UserCollection struct {
	coll *mongo.Collection
}

// Create inserts the user. A duplicate key error from the unique email index
// becomes apperror.DuplicateEmail.
func (u *UserCollection) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.Email = model.NormalizeEmail(user.Email)
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := u.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.DuplicateEmail(user.Email)
		}
		return fmt.Errorf("mongodb: inserting user: %w", err)
	}
	return nil
}

func (u *UserCollection) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	return u.findOne(ctx, bson.M{"email": email}, email)
}

func (u *UserCollection) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.findOne(ctx, bson.M{"_id": id}, id)
}

func (u *UserCollection) findOne(ctx context.Context, filter bson.M, key string) (*model.User, error) {
	var user model.User
	err := u.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: finding user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}
