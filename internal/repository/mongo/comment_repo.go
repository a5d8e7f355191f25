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

type commentRepository struct {
	coll *mongo.Collection
}

// NewCommentRepository creates a new MongoDB comment repository.
func NewCommentRepository(db *DB) repository.CommentRepository {
	return &commentRepository{coll: db.collection(commentsCollection)}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	recipeID, err := reference(comment.RecipeID)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	userID, err := reference(comment.UserID)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	comment.CreatedAt = storedTime(comment.CreatedAt)
	doc := commentDocument{
		ID:        primitive.NewObjectID(),
		RecipeID:  recipeID,
		UserID:    userID,
		Text:      comment.Text,
		Rating:    comment.Rating,
		CreatedAt: comment.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	comment.ID = doc.ID.Hex()
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	var doc commentDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *commentRepository) ListByRecipe(ctx context.Context, recipeID string) ([]*domain.Comment, error) {
	oid, ok := objectID(recipeID)
	if !ok {
		return []*domain.Comment{}, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"recipeId": oid}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	var docs []commentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	comments := make([]*domain.Comment, 0, len(docs))
	for i := range docs {
		comments = append(comments, docs[i].toDomain())
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	oid, ok := objectID(comment.ID)
	if !ok {
		return domain.ErrCommentNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"text":   comment.Text,
		"rating": comment.Rating,
	}})
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrCommentNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}

func (r *commentRepository) DeleteByRecipe(ctx context.Context, recipeID string) (int64, error) {
	oid, ok := objectID(recipeID)
	if !ok {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"recipeId": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}
	return res.DeletedCount, nil
}

var _ repository.CommentRepository = (*commentRepository)(nil)
