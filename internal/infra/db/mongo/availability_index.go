package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/catalog"
	"staybook/internal/domain/shared/daterange"
)

// AvailabilityIndex backs the conflict set with one document per occupied
// night, keyed "<property>|<date>". The primary-key uniqueness makes the
// check-then-insert atomic on the server: two concurrent admissions for an
// overlapping range race on at least one shared night document and exactly
// one InsertMany wins it.
type AvailabilityIndex struct {
	col *mongo.Collection
}

func NewAvailabilityIndex(db *mongo.Database) *AvailabilityIndex {
	col := db.Collection("availability_nights")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "reservation_id", Value: 1}},
	})
	return &AvailabilityIndex{col: col}
}

type nightDocument struct {
	ID            string    `bson:"_id"`
	PropertyID    string    `bson:"property_id"`
	Night         time.Time `bson:"night"`
	ReservationID string    `bson:"reservation_id"`
}

func nightKey(propertyID catalog.PropertyID, night time.Time) string {
	return fmt.Sprintf("%s|%s", propertyID, night.Format("2006-01-02"))
}

func (i *AvailabilityIndex) TryReserve(ctx context.Context, hold availability.Hold) error {
	count, err := i.col.CountDocuments(ctx, bson.M{"reservation_id": hold.ReservationID})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	nights := hold.Range.Days()
	docs := make([]interface{}, 0, len(nights))
	for _, night := range nights {
		docs = append(docs, nightDocument{
			ID:            nightKey(hold.PropertyID, night),
			PropertyID:    string(hold.PropertyID),
			Night:         night,
			ReservationID: hold.ReservationID,
		})
	}

	_, err = i.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Another reservation owns at least one night. Undo any nights
			// this attempt did insert before it hit the taken one.
			if _, delErr := i.col.DeleteMany(ctx, bson.M{"reservation_id": hold.ReservationID}); delErr != nil {
				return delErr
			}
			return availability.ErrConflict
		}
		return err
	}
	return nil
}

func (i *AvailabilityIndex) Release(ctx context.Context, reservationID string) error {
	_, err := i.col.DeleteMany(ctx, bson.M{"reservation_id": reservationID})
	return err
}

func (i *AvailabilityIndex) IsAvailable(ctx context.Context, propertyID catalog.PropertyID, dr daterange.DateRange) (bool, error) {
	keys := make([]string, 0, dr.Nights())
	for _, night := range dr.Days() {
		keys = append(keys, nightKey(propertyID, night))
	}
	count, err := i.col.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": keys}})
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
