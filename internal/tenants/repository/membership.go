package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	tenantserrors "voicebook/internal/tenants/errors"
	"voicebook/pkg/config"
	"voicebook/pkg/model"
)

const (
	MembershipCollectionName = "Memberships"
)

type MembershipRepository interface {
	Upsert(ctx context.Context, membership *model.Membership) error
	FindByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Membership, error)
	Delete(ctx context.Context, tenantID, subject string) error

	// RoleFor backs the authorization middleware's role checks.
	RoleFor(ctx context.Context, tenantID, subject string) (string, error)
}

type mongoMembershipRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoMembershipRepository(cfg *config.Config) MembershipRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoMembershipRepository{
		cfg:        cfg,
		collection: db.Collection(MembershipCollectionName),
	}
}

func (r *mongoMembershipRepository) Upsert(ctx context.Context, membership *model.Membership) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"tenant_id": membership.TenantID, "subject": membership.Subject}
	update := bson.M{
		"$set":         bson.M{"role": membership.Role},
		"$setOnInsert": bson.M{"created_at": time.Now().UTC().Truncate(time.Millisecond)},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

func (r *mongoMembershipRepository) FindByTenant(ctx context.Context, tenantID string, limit int, offset int64) ([]*model.Membership, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "subject", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"tenant_id": tenantID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find memberships: %w", err)
	}
	defer cursor.Close(ctx)

	var memberships []*model.Membership
	if err = cursor.All(ctx, &memberships); err != nil {
		return nil, fmt.Errorf("failed to decode memberships: %w", err)
	}
	return memberships, nil
}

func (r *mongoMembershipRepository) Delete(ctx context.Context, tenantID, subject string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"tenant_id": tenantID, "subject": subject})
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	if result.DeletedCount == 0 {
		return tenantserrors.ErrMembershipNotFound
	}
	return nil
}

func (r *mongoMembershipRepository) RoleFor(ctx context.Context, tenantID, subject string) (string, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var membership model.Membership
	err := r.collection.FindOne(ctx, bson.M{"tenant_id": tenantID, "subject": subject}).Decode(&membership)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", tenantserrors.ErrMembershipNotFound
		}
		return "", fmt.Errorf("failed to resolve membership role: %w", err)
	}
	return membership.Role, nil
}
