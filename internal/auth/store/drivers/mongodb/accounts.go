package mongodb

import (
	"context"
	"time"

	"github.com/aussiebroadwan/totpgate/internal/auth/domain"
	"github.com/aussiebroadwan/totpgate/internal/auth/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type accountDoc struct {
	ID                string    `bson:"_id"`
	Email             string    `bson:"email"`
	DisplayName       string    `bson:"name"`
	PasswordHash      string    `bson:"passwordHash"`
	TOTPSecret        string    `bson:"totpSecret,omitempty"`
	PendingTOTPSecret string    `bson:"pendingTotpSecret,omitempty"`
	IsVerified        bool      `bson:"isVerified"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
}

func (d accountDoc) toDomain() domain.Account {
	return domain.Account{
		ID:                d.ID,
		Email:             d.Email,
		DisplayName:       d.DisplayName,
		PasswordHash:      d.PasswordHash,
		TOTPSecret:        d.TOTPSecret,
		PendingTOTPSecret: d.PendingTOTPSecret,
		IsVerified:        d.IsVerified,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type accountsRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *accountsRepo) findOne(ctx context.Context, filter bson.M) (domain.Account, error) {
	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	now := r.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	_, err := r.coll.InsertOne(ctx, accountDoc{
		ID:                a.ID,
		Email:             a.Email,
		DisplayName:       a.DisplayName,
		PasswordHash:      a.PasswordHash,
		TOTPSecret:        a.TOTPSecret,
		PendingTOTPSecret: a.PendingTOTPSecret,
		IsVerified:        a.IsVerified,
		CreatedAt:         a.CreatedAt.UTC(),
		UpdatedAt:         a.UpdatedAt.UTC(),
	})
	return mapDuplicate(err)
}

func (r *accountsRepo) SetPendingTOTPSecret(ctx context.Context, id, secret string) error {
	filter := bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"isVerified": false},
			bson.M{"totpSecret": bson.M{"$exists": false}},
		},
	}
	update := bson.M{"$set": bson.M{"pendingTotpSecret": secret, "updatedAt": r.now()}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	return r.checkConditional(ctx, res, id)
}

func (r *accountsRepo) PromotePendingTOTPSecret(ctx context.Context, id, expected string) error {
	filter := bson.M{"_id": id, "pendingTotpSecret": expected}
	update := bson.M{
		"$set":   bson.M{"totpSecret": expected, "isVerified": true, "updatedAt": r.now()},
		"$unset": bson.M{"pendingTotpSecret": ""},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	return r.checkConditional(ctx, res, id)
}

// checkConditional tells "no such account" apart from "condition not met".
func (r *accountsRepo) checkConditional(ctx context.Context, res *mongo.UpdateResult, id string) error {
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrConflict
}
