package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillforge/referral_backend/models"
	"github.com/skillforge/referral_backend/services"
)

// SettingsRepository persists per-referrer commission settings; referrerId is
// unique-indexed.
type SettingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{collection: db.Collection(CollCommissionSettings)}
}

func (r *SettingsRepository) Insert(ctx context.Context, s *models.CommissionSettings) error {
	_, err := r.collection.InsertOne(ctx, s)
	return insertErr(err)
}

func (r *SettingsRepository) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.CommissionSettings, error) {
	var settings models.CommissionSettings
	err := r.collection.FindOne(ctx, bson.M{"referrerId": referrerID}).Decode(&settings)
	if err != nil {
		return nil, findErr(err)
	}
	return &settings, nil
}

func (r *SettingsRepository) Update(ctx context.Context, s *models.CommissionSettings) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": s.ID}, bson.M{
		"$set": bson.M{
			"initialRate":   s.InitialRate,
			"recurringRate": s.RecurringRate,
			"paymentModel":  s.PaymentModel,
			"active":        s.Active,
			"customRates":   s.CustomRates,
			"updatedAt":     s.UpdatedAt,
		},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return services.ErrNotFound
	}
	return nil
}

// listSortFields maps the accepted sort keys onto document fields. Rates sort
// descending so the most generous overrides surface first.
var listSortFields = map[string]bson.D{
	"createdAt":     {{Key: "createdAt", Value: -1}},
	"initialRate":   {{Key: "initialRate", Value: -1}},
	"recurringRate": {{Key: "recurringRate", Value: -1}},
	"class":         {{Key: "referrerClass", Value: 1}},
}

func (r *SettingsRepository) List(ctx context.Context, class, sortBy string, page, limit int64) ([]models.CommissionSettings, int64, error) {
	filter := bson.M{}
	if class != "" {
		filter["referrerClass"] = class
	}

	sort, ok := listSortFields[sortBy]
	if !ok {
		sort = listSortFields["createdAt"]
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var settings []models.CommissionSettings
	if err := cursor.All(ctx, &settings); err != nil {
		return nil, 0, err
	}
	return settings, total, nil
}

func (r *SettingsRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
