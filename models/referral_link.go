package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralLink holds the unique referral code issued to a referrer together
// with its click/conversion counters. Counters are only ever mutated through
// atomic $inc updates.
type ReferralLink struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReferrerID  primitive.ObjectID `bson:"referrerId" json:"referrerId"`
	Code        string             `bson:"code" json:"code"`
	Clicks      int64              `bson:"clicks" json:"clicks"`
	Conversions int64              `bson:"conversions" json:"conversions"`
	LastUsedAt  *time.Time         `bson:"lastUsedAt,omitempty" json:"lastUsedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Referral records which referrer a signed-up user is attributed to. The
// referredUserId is unique: a user can be referred at most once, and this
// record is what purchase crediting resolves the referrer from.
type Referral struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReferrerID     primitive.ObjectID `bson:"referrerId" json:"referrerId"`
	ReferredUserID primitive.ObjectID `bson:"referredUserId" json:"referredUserId"`
	Code           string             `bson:"code" json:"code"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
