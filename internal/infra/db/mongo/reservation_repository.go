package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/internal/domain/catalog"
	"staybook/internal/domain/pricing"
	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

// ReservationRepository persists the reservation aggregate with optimistic
// concurrency: every Save matches on the version it read and bumps it, so a
// transition issued from a stale snapshot fails with ErrConcurrentUpdate
// instead of overwriting a concurrent decision.
type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	col := db.Collection("reservations")
	ctx := context.Background()
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return &ReservationRepository{col: col}
}

type reservationDocument struct {
	ID         string                     `bson:"_id"`
	PropertyID string                     `bson:"property_id"`
	GuestID    string                     `bson:"guest_id"`
	HostID     string                     `bson:"host_id"`
	CheckIn    time.Time                  `bson:"check_in"`
	CheckOut   time.Time                  `bson:"check_out"`
	Guests     int                        `bson:"guests"`
	Breakdown  reservation.GuestBreakdown `bson:"guest_breakdown"`
	Price      pricing.Breakdown          `bson:"price"`
	Policy     reservation.PolicySnapshot `bson:"policy"`
	State      string                     `bson:"state"`
	Reason     string                     `bson:"reason,omitempty"`
	Refund     *money.Money               `bson:"refund,omitempty"`
	CreatedAt  time.Time                  `bson:"created_at"`
	UpdatedAt  time.Time                  `bson:"updated_at"`
	Version    int64                      `bson:"version"`
}

func toDocument(r *reservation.Reservation) reservationDocument {
	return reservationDocument{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		GuestID:    r.GuestID,
		HostID:     r.HostID,
		CheckIn:    r.Range.CheckIn,
		CheckOut:   r.Range.CheckOut,
		Guests:     r.Guests,
		Breakdown:  r.Breakdown,
		Price:      r.Price,
		Policy:     r.Policy,
		State:      string(r.State),
		Reason:     r.Reason,
		Refund:     r.Refund,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		Version:    r.Version,
	}
}

func (d reservationDocument) toAggregate() *reservation.Reservation {
	return &reservation.Reservation{
		ID:         reservation.ID(d.ID),
		PropertyID: catalog.PropertyID(d.PropertyID),
		GuestID:    d.GuestID,
		HostID:     d.HostID,
		Range:      daterange.DateRange{CheckIn: d.CheckIn, CheckOut: d.CheckOut},
		Guests:     d.Guests,
		Breakdown:  d.Breakdown,
		Price:      d.Price,
		Policy:     d.Policy,
		State:      reservation.State(d.State),
		Reason:     d.Reason,
		Refund:     d.Refund,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		Version:    d.Version,
	}
}

func (r *ReservationRepository) ByID(ctx context.Context, id reservation.ID) (*reservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reservation.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *reservation.Reservation) error {
	doc := toDocument(res)
	doc.Version++

	if res.Version == 0 {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return reservation.ErrConcurrentUpdate
			}
			return err
		}
		res.Version = doc.Version
		return nil
	}

	result, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID, "version": res.Version}, doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		count, err := r.col.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if err != nil {
			return err
		}
		if count == 0 {
			return reservation.ErrNotFound
		}
		return reservation.ErrConcurrentUpdate
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) ListByGuest(ctx context.Context, guestID string) ([]*reservation.Reservation, error) {
	return r.list(ctx, bson.M{"guest_id": guestID})
}

func (r *ReservationRepository) ListByHost(ctx context.Context, hostID string) ([]*reservation.Reservation, error) {
	return r.list(ctx, bson.M{"host_id": hostID})
}

func (r *ReservationRepository) ListOverduePending(ctx context.Context, before time.Time) ([]*reservation.Reservation, error) {
	return r.list(ctx, bson.M{
		"state":      string(reservation.StatePending),
		"created_at": bson.M{"$lt": before},
	})
}

func (r *ReservationRepository) list(ctx context.Context, filter bson.M) ([]*reservation.Reservation, error) {
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*reservation.Reservation
	for cursor.Next(ctx) {
		var doc reservationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}
