package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/teakspice/cart-backend/internal/cart/domain"
)

const collection = "carts"

type itemDoc struct {
	ProductID primitive.ObjectID `bson:"productId"`
	Quantity  int                `bson:"quantity"`
}

type cartDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	Items     []itemDoc          `bson:"items"`
	Version   int64              `bson:"version"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d cartDoc) toDomain() domain.Cart {
	items := make([]domain.Item, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domain.Item{ProductID: it.ProductID.Hex(), Quantity: it.Quantity})
	}
	return domain.Cart{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		Items:     items,
		Version:   d.Version,
		UpdatedAt: d.UpdatedAt,
	}
}

func toItemDocs(items []domain.Item) ([]itemDoc, error) {
	out := make([]itemDoc, 0, len(items))
	for _, it := range items {
		pid, err := primitive.ObjectIDFromHex(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q", it.ProductID)
		}
		out = append(out, itemDoc{ProductID: pid, Quantity: it.Quantity})
	}
	return out, nil
}

type CartRepo struct {
	coll *mongo.Collection
}

func NewCartRepo(db *mongo.Database) *CartRepo {
	return &CartRepo{coll: db.Collection(collection)}
}

func (r *CartRepo) Get(ctx context.Context, userID string) (domain.Cart, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.Cart{}, domain.ErrCartNotFound
	}

	var doc cartDoc
	err = r.coll.FindOne(ctx, bson.M{"userId": uid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("find cart: %w", err)
	}
	return doc.toDomain(), nil
}

// Save inserts a new cart (Version 0) or replaces the items of the stored
// cart if its version is still cart.Version.
func (r *CartRepo) Save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	uid, err := primitive.ObjectIDFromHex(cart.UserID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("save cart: invalid user id %q", cart.UserID)
	}
	items, err := toItemDocs(cart.Items)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("save cart: %w", err)
	}

	if cart.Version == 0 {
		doc := cartDoc{
			ID:        primitive.NewObjectID(),
			UserID:    uid,
			Items:     items,
			Version:   1,
			UpdatedAt: cart.UpdatedAt,
		}
		if _, err := r.coll.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return domain.Cart{}, domain.ErrVersionConflict
			}
			return domain.Cart{}, fmt.Errorf("insert cart: %w", err)
		}
		return doc.toDomain(), nil
	}

	var doc cartDoc
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"userId": uid, "version": cart.Version},
		bson.M{"$set": bson.M{
			"items":     items,
			"updatedAt": cart.UpdatedAt,
			"version":   cart.Version + 1,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Cart{}, domain.ErrVersionConflict
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("update cart: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes makes userId unique so concurrent first adds cannot create
// two carts for one user.
func (r *CartRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("cart indexes: %w", err)
	}
	return nil
}
