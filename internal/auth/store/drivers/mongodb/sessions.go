package mongodb

import (
	"context"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type sessionDoc struct {
	TokenHash   string    `bson:"_id"`
	AccountID   string    `bson:"accountId"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"name"`
	CreatedAt   time.Time `bson:"createdAt"`
	ExpiresAt   time.Time `bson:"expiresAt"`
}

type sessionsRepo struct {
	coll *mongo.Collection
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.coll.InsertOne(ctx, sessionDoc{
		TokenHash:   s.TokenHash,
		AccountID:   s.AccountID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		CreatedAt:   s.CreatedAt.UTC(),
		ExpiresAt:   s.ExpiresAt.UTC(),
	})
	return mapDuplicate(err)
}

func (r *sessionsRepo) GetSessionByHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	var doc sessionDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": tokenHash}).Decode(&doc); err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return domain.Session{
		TokenHash:   doc.TokenHash,
		AccountID:   doc.AccountID,
		Email:       doc.Email,
		DisplayName: doc.DisplayName,
		CreatedAt:   doc.CreatedAt,
		ExpiresAt:   doc.ExpiresAt,
	}, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": tokenHash})
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$lte": now.UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
