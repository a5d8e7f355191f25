package mongo

import (
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prn-tf/recipebook/internal/domain"
)

// errInvalidReference is returned when a stored reference is not an ObjectID.
var errInvalidReference = errors.New("reference is not a valid object id")

// objectID parses a hex identifier. Anything else cannot name a document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

// objectIDs parses ids, dropping those that cannot name a document.
func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			oids = append(oids, oid)
		}
	}
	return oids
}

func reference(id string) (primitive.ObjectID, error) {
	oid, ok := objectID(id)
	if !ok {
		return primitive.NilObjectID, errInvalidReference
	}
	return oid, nil
}

// storedTime truncates to the millisecond precision of BSON dates.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// containsFilter matches documents where any of fields contains query,
// literally and case-insensitively. Array fields match on any element.
func containsFilter(query string, fields ...string) bson.M {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: re})
	}
	return bson.M{"$or": or}
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// newestFirst is the sort order of every listing.
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

type recipeDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Title        string             `bson:"title"`
	Description  string             `bson:"description"`
	Ingredients  []string           `bson:"ingredients"`
	Instructions string             `bson:"instructions"`
	PrepTime     int                `bson:"prepTime"`
	Difficulty   string             `bson:"difficulty"`
	Category     string             `bson:"category"`
	Image        string             `bson:"image"`
	Rating       float64            `bson:"rating"`
	UserID       primitive.ObjectID `bson:"userId"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func newRecipeDocument(r *domain.Recipe) (*recipeDocument, error) {
	owner, err := reference(r.OwnerID)
	if err != nil {
		return nil, err
	}
	return &recipeDocument{
		Title:        r.Title,
		Description:  r.Description,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		PrepTime:     r.PrepTime,
		Difficulty:   string(r.Difficulty),
		Category:     string(r.Category),
		Image:        r.Image,
		Rating:       r.Rating,
		UserID:       owner,
		CreatedAt:    storedTime(r.CreatedAt),
		UpdatedAt:    storedTime(r.UpdatedAt),
	}, nil
}

func (d *recipeDocument) toDomain() *domain.Recipe {
	ingredients := d.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	return &domain.Recipe{
		ID:           d.ID.Hex(),
		Title:        d.Title,
		Description:  d.Description,
		Ingredients:  ingredients,
		Instructions: d.Instructions,
		PrepTime:     d.PrepTime,
		Difficulty:   domain.Difficulty(d.Difficulty),
		Category:     domain.Category(d.Category),
		Image:        d.Image,
		Rating:       d.Rating,
		OwnerID:      d.UserID.Hex(),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type commentDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RecipeID  primitive.ObjectID `bson:"recipeId"`
	UserID    primitive.ObjectID `bson:"userId"`
	Text      string             `bson:"text"`
	Rating    int                `bson:"rating"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *commentDocument) toDomain() *domain.Comment {
	return &domain.Comment{
		ID:        d.ID.Hex(),
		RecipeID:  d.RecipeID.Hex(),
		UserID:    d.UserID.Hex(),
		Text:      d.Text,
		Rating:    d.Rating,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type grantDocument struct {
	UserID   primitive.ObjectID `bson:"userId"`
	SharedAt time.Time          `bson:"sharedAt"`
}

type sharedRecipeDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	RecipeID   primitive.ObjectID `bson:"recipeId"`
	OwnerID    primitive.ObjectID `bson:"ownerId"`
	SharedWith []grantDocument    `bson:"sharedWith"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func newGrantDocuments(grants []domain.ShareGrant) ([]grantDocument, error) {
	docs := make([]grantDocument, 0, len(grants))
	for _, g := range grants {
		uid, err := reference(g.UserID)
		if err != nil {
			return nil, err
		}
		docs = append(docs, grantDocument{UserID: uid, SharedAt: storedTime(g.SharedAt)})
	}
	return docs, nil
}

func (d *sharedRecipeDocument) toDomain() *domain.SharedRecipe {
	grants := make([]domain.ShareGrant, 0, len(d.SharedWith))
	for _, g := range d.SharedWith {
		grants = append(grants, domain.ShareGrant{UserID: g.UserID.Hex(), SharedAt: g.SharedAt.UTC()})
	}
	return &domain.SharedRecipe{
		ID:         d.ID.Hex(),
		RecipeID:   d.RecipeID.Hex(),
		OwnerID:    d.OwnerID.Hex(),
		SharedWith: grants,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}
