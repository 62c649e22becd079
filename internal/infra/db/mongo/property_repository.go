package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"staybook/internal/domain/catalog"
	"staybook/internal/domain/shared/money"
)

// PropertyRepository reads the catalog projection maintained by the listing
// service. The reservation core never writes here.
type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("properties")}
}

type propertyDocument struct {
	ID                 string      `bson:"_id"`
	HostID             string      `bson:"host_id"`
	Title              string      `bson:"title"`
	NightlyRate        money.Money `bson:"nightly_rate"`
	MaxGuests          int         `bson:"max_guests"`
	Active             bool        `bson:"active"`
	CancellationPolicy string      `bson:"cancellation_policy"`
}

func (r *PropertyRepository) ByID(ctx context.Context, id catalog.PropertyID) (*catalog.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrPropertyNotFound
		}
		return nil, err
	}
	return &catalog.Property{
		ID:                 catalog.PropertyID(doc.ID),
		Host:               catalog.HostID(doc.HostID),
		Title:              doc.Title,
		NightlyRate:        doc.NightlyRate,
		MaxGuests:          doc.MaxGuests,
		Active:             doc.Active,
		CancellationPolicy: doc.CancellationPolicy,
	}, nil
}
