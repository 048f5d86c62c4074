package slotRepo

import (
	"context"
	"fmt"
	"time"

	"staycal/config"
	"staycal/database"
	"staycal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxUpdateRetries bounds the optimistic retry loop. With a handful of
// fixed users racing on a single date the loop settles in one or two
// rounds; the cap only guards against a pathological hot spot.
const maxUpdateRetries = 8

// MongoSlotRepo implements SlotRepository using MongoDB, one document
// per date-key with an optimistic version field.
type MongoSlotRepo struct {
	coll *mongo.Collection
}

// NewMongoSlotRepo creates a new instance of SlotRepository using MongoDB.
func NewMongoSlotRepo() SlotRepository {
	coll := database.MongoClient.Database(config.AppConfig.DatabaseName).Collection("slots")
	repo := &MongoSlotRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoSlotRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Get retrieves one date's slot. An absent document decodes to an
// empty slot with version zero.
func (r *MongoSlotRepo) Get(ctx context.Context, date models.SlotDate) (*models.Slot, error) {
	var slot models.Slot
	err := r.coll.FindOne(ctx, bson.M{"date": date.Key()}).Decode(&slot)
	if err == mongo.ErrNoDocuments {
		return &models.Slot{Date: date, Key: date.Key()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slot %s: %w", date.Key(), err)
	}
	slot.Date = date
	return &slot, nil
}

// All returns every stored slot.
func (r *MongoSlotRepo) All(ctx context.Context) ([]models.Slot, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.Slot
	for cursor.Next(ctx) {
		var s models.Slot
		if err := cursor.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode slot: %w", err)
		}
		if d, err := models.ParseSlotDate(s.Key); err == nil {
			s.Date = d
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// Update implements the atomic read-modify-write contract with a
// compare-and-swap on the version field. Competing writers never
// overwrite each other: the loser's filter matches nothing and its
// decision is re-evaluated against fresh state.
func (r *MongoSlotRepo) Update(ctx context.Context, date models.SlotDate, fn UpdateFn) (*models.Slot, error) {
	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		current, err := r.Get(ctx, date)
		if err != nil {
			return nil, err
		}

		next, err := fn(append([]string(nil), current.Occupants...))
		if err != nil {
			return nil, err
		}

		committed, err := r.commit(ctx, date, current.Version, next)
		if err == ErrConflict {
			continue
		}
		if err != nil {
			return nil, err
		}
		return committed, nil
	}
	return nil, fmt.Errorf("slot %s update did not settle after %d attempts: %w", date.Key(), maxUpdateRetries, ErrConflict)
}

// commit writes the new occupant sequence iff the document still holds
// the version observed at read time. Empty sequences are kept as empty
// documents so the per-date version stays monotonic for subscribers;
// the janitor prunes them once the date has passed.
func (r *MongoSlotRepo) commit(ctx context.Context, date models.SlotDate, version int64, next []string) (*models.Slot, error) {
	now := time.Now()
	slot := &models.Slot{
		Date:      date,
		Key:       date.Key(),
		Occupants: next,
		Version:   version + 1,
		UpdatedAt: now,
	}

	if version == 0 {
		if _, err := r.coll.InsertOne(ctx, slot); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, ErrConflict
			}
			return nil, fmt.Errorf("failed to insert slot %s: %w", date.Key(), err)
		}
		return slot, nil
	}

	filter := bson.M{"date": date.Key(), "version": version}
	update := bson.M{
		"$set": bson.M{"occupants": next, "updatedAt": now},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update slot %s: %w", date.Key(), err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrConflict
	}
	return slot, nil
}

// PruneEmptyBefore deletes empty documents for dates that can no
// longer change. Comparing unpadded keys lexicographically is wrong,
// so candidates are decoded and compared as civil dates.
func (r *MongoSlotRepo) PruneEmptyBefore(ctx context.Context, date models.SlotDate) ([]string, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"occupants": bson.M{"$size": 0}})
	if err != nil {
		return nil, fmt.Errorf("failed to list empty slots: %w", err)
	}
	defer cursor.Close(ctx)

	var keys []string
	for cursor.Next(ctx) {
		var s models.Slot
		if err := cursor.Decode(&s); err != nil {
			continue
		}
		d, err := models.ParseSlotDate(s.Key)
		if err != nil || !d.Before(date) {
			continue
		}
		keys = append(keys, s.Key)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	if _, err := r.coll.DeleteMany(ctx, bson.M{
		"date":      bson.M{"$in": keys},
		"occupants": bson.M{"$size": 0},
	}); err != nil {
		return nil, fmt.Errorf("failed to prune empty slots: %w", err)
	}
	return keys, nil
}
