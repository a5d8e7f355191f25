package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/repository"
)

type sharingRepository struct {
	coll *mongo.Collection
}

// NewSharingRepository creates a new MongoDB sharing repository.
// Uniqueness of (recipeId, ownerId) relies on the index created by Migrate.
func NewSharingRepository(db *DB) repository.SharingRepository {
	return &sharingRepository{coll: db.collection(sharingCollection)}
}

func (r *sharingRepository) Create(ctx context.Context, entry *domain.SharedRecipe) error {
	recipeID, err := reference(entry.RecipeID)
	if err != nil {
		return fmt.Errorf("failed to create sharing: %w", err)
	}
	ownerID, err := reference(entry.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to create sharing: %w", err)
	}
	grants, err := newGrantDocuments(entry.SharedWith)
	if err != nil {
		return fmt.Errorf("failed to create sharing: %w", err)
	}

	entry.CreatedAt = storedTime(entry.CreatedAt)
	doc := sharedRecipeDocument{
		ID:         primitive.NewObjectID(),
		RecipeID:   recipeID,
		OwnerID:    ownerID,
		SharedWith: grants,
		CreatedAt:  entry.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create sharing: %w", err)
	}
	entry.ID = doc.ID.Hex()
	return nil
}

func (r *sharingRepository) findOne(ctx context.Context, filter bson.M) (*domain.SharedRecipe, error) {
	var doc sharedRecipeDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrSharingNotFound
		}
		return nil, fmt.Errorf("failed to get sharing: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *sharingRepository) GetByID(ctx context.Context, id string) (*domain.SharedRecipe, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrSharingNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *sharingRepository) GetByRecipeAndOwner(ctx context.Context, recipeID, ownerID string) (*domain.SharedRecipe, error) {
	rid, ok := objectID(recipeID)
	if !ok {
		return nil, domain.ErrSharingNotFound
	}
	oid, ok := objectID(ownerID)
	if !ok {
		return nil, domain.ErrSharingNotFound
	}
	return r.findOne(ctx, bson.M{"recipeId": rid, "ownerId": oid})
}

func (r *sharingRepository) ListBySharedUser(ctx context.Context, userID string) ([]*domain.SharedRecipe, error) {
	oid, ok := objectID(userID)
	if !ok {
		return []*domain.SharedRecipe{}, nil
	}
	return r.find(ctx, bson.M{"sharedWith.userId": oid})
}

func (r *sharingRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.SharedRecipe, error) {
	oid, ok := objectID(ownerID)
	if !ok {
		return []*domain.SharedRecipe{}, nil
	}
	return r.find(ctx, bson.M{"ownerId": oid})
}

func (r *sharingRepository) find(ctx context.Context, filter bson.M) ([]*domain.SharedRecipe, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("failed to list sharings: %w", err)
	}
	var docs []sharedRecipeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sharings: %w", err)
	}
	entries := make([]*domain.SharedRecipe, 0, len(docs))
	for i := range docs {
		entries = append(entries, docs[i].toDomain())
	}
	return entries, nil
}

func (r *sharingRepository) Update(ctx context.Context, entry *domain.SharedRecipe) error {
	oid, ok := objectID(entry.ID)
	if !ok {
		return domain.ErrSharingNotFound
	}
	grants, err := newGrantDocuments(entry.SharedWith)
	if err != nil {
		return fmt.Errorf("failed to update sharing: %w", err)
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"sharedWith": grants}})
	if err != nil {
		return fmt.Errorf("failed to update sharing: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSharingNotFound
	}
	return nil
}

func (r *sharingRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrSharingNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete sharing: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSharingNotFound
	}
	return nil
}

func (r *sharingRepository) DeleteByRecipe(ctx context.Context, recipeID string) (int64, error) {
	oid, ok := objectID(recipeID)
	if !ok {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"recipeId": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete sharings: %w", err)
	}
	return res.DeletedCount, nil
}

var _ repository.SharingRepository = (*sharingRepository)(nil)
