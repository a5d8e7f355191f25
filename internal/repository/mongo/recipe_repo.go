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

type recipeRepository struct {
	coll *mongo.Collection
}

// NewRecipeRepository creates a new MongoDB recipe repository.
func NewRecipeRepository(db *DB) repository.RecipeRepository {
	return &recipeRepository{coll: db.collection(recipesCollection)}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	doc, err := newRecipeDocument(recipe)
	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	doc.ID = primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	recipe.ID = doc.ID.Hex()
	recipe.CreatedAt = doc.CreatedAt
	recipe.UpdatedAt = doc.UpdatedAt
	return nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrRecipeNotFound
	}
	var doc recipeDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *recipeRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Recipe, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

func (r *recipeRepository) List(ctx context.Context) ([]*domain.Recipe, error) {
	return r.find(ctx, bson.M{})
}

func (r *recipeRepository) Search(ctx context.Context, query string) ([]*domain.Recipe, error) {
	return r.find(ctx, containsFilter(query, "title", "description", "ingredients"))
}

func (r *recipeRepository) find(ctx context.Context, filter bson.M) ([]*domain.Recipe, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("failed to find recipes: %w", err)
	}
	var docs []recipeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode recipes: %w", err)
	}
	recipes := make([]*domain.Recipe, 0, len(docs))
	for i := range docs {
		recipes = append(recipes, docs[i].toDomain())
	}
	return recipes, nil
}

func (r *recipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	oid, ok := objectID(recipe.ID)
	if !ok {
		return domain.ErrRecipeNotFound
	}
	recipe.UpdatedAt = storedTime(recipe.UpdatedAt)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":        recipe.Title,
		"description":  recipe.Description,
		"ingredients":  recipe.Ingredients,
		"instructions": recipe.Instructions,
		"prepTime":     recipe.PrepTime,
		"difficulty":   string(recipe.Difficulty),
		"category":     string(recipe.Category),
		"image":        recipe.Image,
		"rating":       recipe.Rating,
		"updatedAt":    recipe.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

func (r *recipeRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrRecipeNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

var _ repository.RecipeRepository = (*recipeRepository)(nil)
