package services

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/brandonolsen/cleo-consolidator/app/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoCacheService is the durable L2 cache tier: an in-process LRU in
// front of a MongoDB collection, so a cold process still gets L1-speed
// hits for its hottest addresses after the first MongoDB round trip.
type MongoCacheService struct {
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, *models.GeocodeEntry]
	logger     *zap.Logger

	totalHits int64
	totalMiss int64
	l1Hits    int64
	l1Miss    int64
	mongoHits int64
	mongoMiss int64
}

// NewMongoCacheService builds the L2 cache over db, sizing the L1 LRU to
// l1Size entries.
func NewMongoCacheService(db *mongo.Database, l1Size int, logger *zap.Logger) (*MongoCacheService, error) {
	l1Cache, err := lru.New[string, *models.GeocodeEntry](l1Size)
	if err != nil {
		return nil, fmt.Errorf("creating lru cache: %w", err)
	}

	collection := db.Collection("geocode_cache")

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{bson.E{Key: "raw_fingerprint", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{bson.E{Key: "created_at", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "last_accessed", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("could not create indexes on geocode_cache", zap.Error(err))
	}

	return &MongoCacheService{collection: collection, l1Cache: l1Cache, logger: logger}, nil
}

func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.GeocodeEntry, bool, error) {
	if entry, found := mcs.l1Cache.Get(key); found {
		mcs.l1Hits++
		mcs.totalHits++
		return entry, true, nil
	}
	mcs.l1Miss++

	fingerprint := mcs.generateFingerprint(key)

	var cacheEntry models.GeocodeCacheEntry
	filter := bson.M{"raw_fingerprint": fingerprint}

	err := mcs.collection.FindOne(ctx, filter).Decode(&cacheEntry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			mcs.mongoMiss++
			mcs.totalMiss++
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("querying geocode cache: %w", err)
	}

	mcs.mongoHits++
	mcs.totalHits++

	go mcs.updateAccessStats(context.Background(), fingerprint)

	mcs.l1Cache.Add(key, &cacheEntry.Entry)
	return &cacheEntry.Entry, true, nil
}

func (mcs *MongoCacheService) Set(ctx context.Context, key string, entry *models.GeocodeEntry) error {
	mcs.l1Cache.Add(key, entry)

	fingerprint := mcs.generateFingerprint(key)
	cacheEntry := models.GeocodeCacheEntry{
		RawFingerprint: fingerprint,
		Key:            key,
		Entry:          *entry,
		CreatedAt:      time.Now(),
		LastAccessed:   time.Now(),
		AccessCount:    1,
	}

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"raw_fingerprint": fingerprint}

	_, err := mcs.collection.ReplaceOne(ctx, filter, cacheEntry, opts)
	if err != nil {
		mcs.logger.Error("saving geocode cache entry", zap.Error(err), zap.String("fingerprint", fingerprint))
		return fmt.Errorf("saving geocode cache entry: %w", err)
	}
	return nil
}

func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)

	fingerprint := mcs.generateFingerprint(key)
	_, err := mcs.collection.DeleteOne(ctx, bson.M{"raw_fingerprint": fingerprint})
	if err != nil {
		return fmt.Errorf("deleting geocode cache entry: %w", err)
	}
	return nil
}

func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clearing geocode cache: %w", err)
	}

	mcs.totalHits, mcs.totalMiss = 0, 0
	mcs.l1Hits, mcs.l1Miss = 0, 0
	mcs.mongoHits, mcs.mongoMiss = 0, 0
	return nil
}

func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	mongoCount, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("counting geocode cache documents: %w", err)
	}

	total := mcs.totalHits + mcs.totalMiss
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(mcs.totalHits) / float64(total)
	}

	return &CacheStats{
		HitRate:    hitRate,
		TotalHits:  mcs.totalHits,
		TotalMiss:  mcs.totalMiss,
		TotalItems: mongoCount,
	}, nil
}

func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}
	fingerprint := mcs.generateFingerprint(key)
	count, err := mcs.collection.CountDocuments(ctx, bson.M{"raw_fingerprint": fingerprint})
	if err != nil {
		return false, fmt.Errorf("checking geocode cache existence: %w", err)
	}
	return count > 0, nil
}

// GetTTL always returns 0: the durable tier has no expiry.
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

func (mcs *MongoCacheService) Close() error { return nil }

func (mcs *MongoCacheService) generateFingerprint(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("sha256:%x", hash)
}

func (mcs *MongoCacheService) updateAccessStats(ctx context.Context, fingerprint string) {
	filter := bson.M{"raw_fingerprint": fingerprint}
	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, filter, update); err != nil {
		mcs.logger.Warn("updating geocode cache access stats", zap.Error(err))
	}
}

// GetL1Stats reports the in-process LRU's own hit/miss split, separate
// from the combined totalHits/totalMiss reported by GetStats.
func (mcs *MongoCacheService) GetL1Stats() map[string]interface{} {
	return map[string]interface{}{
		"l1_size":    mcs.l1Cache.Len(),
		"l1_hits":    mcs.l1Hits,
		"l1_miss":    mcs.l1Miss,
		"mongo_hits": mcs.mongoHits,
		"mongo_miss": mcs.mongoMiss,
		"total_hits": mcs.totalHits,
		"total_miss": mcs.totalMiss,
	}
}

// WarmUp loads the most-accessed entries from MongoDB into the L1 LRU.
func (mcs *MongoCacheService) WarmUp(ctx context.Context, limit int) error {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return fmt.Errorf("warming up geocode cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var cacheEntry models.GeocodeCacheEntry
		if err := cursor.Decode(&cacheEntry); err != nil {
			mcs.logger.Warn("decoding geocode cache entry during warm up", zap.Error(err))
			continue
		}
		mcs.l1Cache.Add(cacheEntry.Key, &cacheEntry.Entry)
		count++
	}

	mcs.logger.Info("geocode cache warm up complete", zap.Int("loaded_items", count), zap.Int("l1_size", mcs.l1Cache.Len()))
	return nil
}
