package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsdesk/portal/internal/cache"
	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/utils"
)

// CatalogInput is the editable part of a catalog item. Nil fields are left
// unchanged on update; on create Name and Price are required.
type CatalogInput struct {
	Name        *string
	Language    *string
	Publisher   *string
	Price       *float64
	Description *string
	Active      *bool
}

// ICatalogService manages the global newspaper and booklet catalog.
type ICatalogService interface {
	List(ctx context.Context, kind models.CatalogKind, activeOnly bool) ([]models.CatalogItem, error)
	Get(ctx context.Context, kind models.CatalogKind, id utils.SixID) (*models.CatalogItem, error)
	Create(ctx context.Context, kind models.CatalogKind, in CatalogInput) (*models.CatalogItem, error)
	Update(ctx context.Context, kind models.CatalogKind, id utils.SixID, in CatalogInput) (*models.CatalogItem, error)
	Delete(ctx context.Context, kind models.CatalogKind, id utils.SixID) error
	SetImage(ctx context.Context, kind models.CatalogKind, id utils.SixID, key string) error
	Resolve(ctx context.Context, kind models.CatalogKind, ids []utils.SixID) (map[utils.SixID]models.CatalogItem, error)
}

type catalogService struct {
	db    *mongo.Database
	cache redis.Cmdable
	ttl   time.Duration
}

// NewCatalogService creates a new CatalogService. rdb may be nil to disable caching.
func NewCatalogService(db *mongo.Database, rdb redis.Cmdable, ttl time.Duration) ICatalogService {
	return &catalogService{db: db, cache: rdb, ttl: ttl}
}

func catalogCacheKey(kind models.CatalogKind, activeOnly bool) string {
	if activeOnly {
		return "catalog:" + string(kind) + ":active"
	}
	return "catalog:" + string(kind) + ":all"
}

func (s *catalogService) coll(kind models.CatalogKind) *mongo.Collection {
	if kind == models.KindBooklet {
		return s.db.Collection(db.BookletsCollection)
	}
	return s.db.Collection(db.NewspapersCollection)
}

func (s *catalogService) invalidate(ctx context.Context, kind models.CatalogKind) {
	if s.cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, s.cache, catalogCacheKey(kind, true), catalogCacheKey(kind, false)); err != nil {
		logger.L().Warnw("Failed to invalidate catalog cache", "kind", kind, "error", err)
	}
}

// List returns catalog items sorted by name, served from Redis when cached.
func (s *catalogService) List(ctx context.Context, kind models.CatalogKind, activeOnly bool) ([]models.CatalogItem, error) {
	key := catalogCacheKey(kind, activeOnly)
	if s.cache != nil {
		var cached []models.CatalogItem
		err := cache.GetJSON(ctx, s.cache, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logger.L().Warnw("Catalog cache read failed", "key", key, "error", err)
		}
	}

	filter := bson.M{}
	if activeOnly {
		filter["active"] = true
	}
	cursor, err := s.coll(kind).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", kind.Collection(), err)
	}
	items := []models.CatalogItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", kind.Collection(), err)
	}

	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, key, items, s.ttl); err != nil {
			logger.L().Warnw("Catalog cache write failed", "key", key, "error", err)
		}
	}
	return items, nil
}

// Get returns one item or mongo.ErrNoDocuments.
func (s *catalogService) Get(ctx context.Context, kind models.CatalogKind, id utils.SixID) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := findOne(ctx, s.coll(kind), bson.M{"_id": id}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create adds an item to the catalog. New items are active unless stated otherwise.
func (s *catalogService) Create(ctx context.Context, kind models.CatalogKind, in CatalogInput) (*models.CatalogItem, error) {
	if in.Name == nil || *in.Name == "" || in.Price == nil {
		return nil, fmt.Errorf("%w: name and price are required", ErrValidation)
	}
	if *in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}

	item := &models.CatalogItem{Kind: kind, Name: *in.Name, Price: *in.Price, Active: true}
	applyCatalogInput(item, in)
	item.Touch(time.Now().UTC())

	err := db.Try(func() error {
		item.GenID()
		_, err := s.coll(kind).InsertOne(ctx, item)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error inserting %s: %w", kind, err)
	}
	s.invalidate(ctx, kind)
	return item, nil
}

func applyCatalogInput(item *models.CatalogItem, in CatalogInput) {
	if in.Name != nil {
		item.Name = *in.Name
	}
	if in.Language != nil {
		item.Language = *in.Language
	}
	if in.Publisher != nil {
		item.Publisher = *in.Publisher
	}
	if in.Price != nil {
		item.Price = *in.Price
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Active != nil {
		item.Active = *in.Active
	}
}

// Update applies the non-nil fields of in.
func (s *catalogService) Update(ctx context.Context, kind models.CatalogKind, id utils.SixID, in CatalogInput) (*models.CatalogItem, error) {
	if in.Price != nil && *in.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	item, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	applyCatalogInput(item, in)
	item.Touch(time.Now().UTC())

	if _, err := s.coll(kind).ReplaceOne(ctx, bson.M{"_id": id}, item); err != nil {
		return nil, fmt.Errorf("error updating %s %s: %w", kind, id, err)
	}
	s.invalidate(ctx, kind)
	return item, nil
}

// Delete removes an item and pulls it from every subscription.
func (s *catalogService) Delete(ctx context.Context, kind models.CatalogKind, id utils.SixID) error {
	res, err := s.coll(kind).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting %s %s: %w", kind, id, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	_, err = s.db.Collection(db.SubscriptionsCollection).UpdateMany(ctx,
		bson.M{kind.Collection(): id},
		bson.M{"$pull": bson.M{kind.Collection(): id}},
	)
	if err != nil {
		return fmt.Errorf("error removing %s %s from subscriptions: %w", kind, id, err)
	}
	s.invalidate(ctx, kind)
	return nil
}

// SetImage records the processed image key of an item.
func (s *catalogService) SetImage(ctx context.Context, kind models.CatalogKind, id utils.SixID, key string) error {
	res, err := s.coll(kind).UpdateByID(ctx, id, bson.M{"$set": bson.M{"imageKey": key, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("error setting image for %s %s: %w", kind, id, err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	s.invalidate(ctx, kind)
	return nil
}

// Resolve loads the given items. Any unknown ID is an ErrValidation.
func (s *catalogService) Resolve(ctx context.Context, kind models.CatalogKind, ids []utils.SixID) (map[utils.SixID]models.CatalogItem, error) {
	out := make(map[utils.SixID]models.CatalogItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := s.coll(kind).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("error resolving %s: %w", kind.Collection(), err)
	}
	var items []models.CatalogItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", kind.Collection(), err)
	}
	for _, it := range items {
		out[it.ID] = it
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("%w: unknown %s %s", ErrValidation, kind, id)
		}
	}
	return out, nil
}
