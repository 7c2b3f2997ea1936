package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/skillforge/referral_backend/models"
	"github.com/skillforge/referral_backend/services"
)

// LinkRepository persists referral links in the referral_links collection.
// Uniqueness of both code and referrerId is enforced by indexes created at
// startup.
type LinkRepository struct {
	collection *mongo.Collection
}

func NewLinkRepository(db *mongo.Database) *LinkRepository {
	return &LinkRepository{collection: db.Collection(CollReferralLinks)}
}

func (r *LinkRepository) Insert(ctx context.Context, link *models.ReferralLink) error {
	_, err := r.collection.InsertOne(ctx, link)
	return insertErr(err)
}

func (r *LinkRepository) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.ReferralLink, error) {
	var link models.ReferralLink
	err := r.collection.FindOne(ctx, bson.M{"referrerId": referrerID}).Decode(&link)
	if err != nil {
		return nil, findErr(err)
	}
	return &link, nil
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*models.ReferralLink, error) {
	var link models.ReferralLink
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&link)
	if err != nil {
		return nil, findErr(err)
	}
	return &link, nil
}

func (r *LinkRepository) IncrementClicks(ctx context.Context, code string, at time.Time) error {
	return r.increment(ctx, code, "clicks", at)
}

func (r *LinkRepository) IncrementConversions(ctx context.Context, code string, at time.Time) error {
	return r.increment(ctx, code, "conversions", at)
}

// increment is a single atomic $inc so concurrent clicks never lose updates.
func (r *LinkRepository) increment(ctx context.Context, code, field string, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"code": code}, bson.M{
		"$inc": bson.M{field: 1},
		"$set": bson.M{"lastUsedAt": at, "updatedAt": at},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}
