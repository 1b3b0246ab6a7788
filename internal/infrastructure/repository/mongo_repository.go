package repository

import (
	"context"
	"fmt"
	"time"

	"configurator-shopify-layer/internal/domain"
	"configurator-shopify-layer/internal/infrastructure/repository/entity"
	"configurator-shopify-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements ShopConnectionRepository and DesignRepository using MongoDB
type MongoRepository struct {
	shopsCollection   *mongo.Collection
	designsCollection *mongo.Collection
}

var (
	_ ports.ShopConnectionRepository = (*MongoRepository)(nil)
	_ ports.DesignRepository         = (*MongoRepository)(nil)
)

// NewMongoRepository creates a new MongoDB repository
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		shopsCollection:   db.Collection("shop_connections"),
		designsCollection: db.Collection("saved_designs"),
	}
}

// EnsureIndexes creates the unique indexes the repository relies on
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.shopsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shopDomain", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create shop_connections index: %w", err)
	}

	_, err = r.designsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "shareToken", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create saved_designs index: %w", err)
	}

	return nil
}

// UpsertShopConnection saves or updates a shop's credentials
func (r *MongoRepository) UpsertShopConnection(ctx context.Context, conn *domain.ShopConnection) error {
	doc := entity.MongoShopConnectionDocFromDomain(conn)
	now := time.Now()
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = now
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"shopDomain": doc.ShopDomain}
	update := bson.M{
		"$set": bson.M{
			"shopDomain":  doc.ShopDomain,
			"accessToken": doc.AccessToken,
			"scopes":      doc.Scopes,
			"updatedAt":   doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	_, err := r.shopsCollection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save shop connection: %w", err)
	}

	return nil
}

// GetShopConnection retrieves a shop's credentials by domain
func (r *MongoRepository) GetShopConnection(ctx context.Context, shopDomain string) (*domain.ShopConnection, error) {
	var doc entity.MongoShopConnectionDoc
	filter := bson.M{"shopDomain": domain.NormalizeShopDomain(shopDomain)}

	err := r.shopsCollection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop connection: %w", err)
	}

	return doc.ToDomain(), nil
}

// DeleteShopConnection removes a shop's credentials. Deleting an unknown shop is not an error.
func (r *MongoRepository) DeleteShopConnection(ctx context.Context, shopDomain string) error {
	filter := bson.M{"shopDomain": domain.NormalizeShopDomain(shopDomain)}
	if _, err := r.shopsCollection.DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete shop connection: %w", err)
	}
	return nil
}

// CreateDesign inserts a new design
func (r *MongoRepository) CreateDesign(ctx context.Context, design *domain.SavedDesign) error {
	doc := entity.MongoDesignDocFromDomain(design)

	_, err := r.designsCollection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateShareToken
	}
	if err != nil {
		return fmt.Errorf("failed to create design: %w", err)
	}

	return nil
}

// GetPublicDesignByToken retrieves a public design by its share token
func (r *MongoRepository) GetPublicDesignByToken(ctx context.Context, token string) (*domain.SavedDesign, error) {
	var doc entity.MongoDesignDoc
	filter := bson.M{"shareToken": token, "isPublic": true}

	err := r.designsCollection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get design: %w", err)
	}

	return doc.ToDomain(), nil
}

// IncrementDesignView atomically bumps the view count and returns the new value
func (r *MongoRepository) IncrementDesignView(ctx context.Context, id string, viewedAt time.Time) (int, error) {
	update := bson.M{
		"$inc": bson.M{"viewCount": 1},
		"$set": bson.M{"lastViewedAt": viewedAt},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"viewCount": 1})

	var doc struct {
		ViewCount int `bson:"viewCount"`
	}
	err := r.designsCollection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return 0, domain.ErrDesignNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to record design view: %w", err)
	}

	return doc.ViewCount, nil
}
