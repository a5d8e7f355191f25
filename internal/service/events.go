package service

// EventRecorder counts domain events. *metrics.Metrics implements it.
type EventRecorder interface {
	Event(name string)
}

// Domain event names.
const (
	EventUserRegistered = "user_registered"
	EventLogin          = "login"
	EventRecipeCreated  = "recipe_created"
	EventRecipeDeleted  = "recipe_deleted"
	EventCommentCreated = "comment_created"
	EventRecipeShared   = "recipe_shared"
	EventRecipeUnshared = "recipe_unshared"
	EventImageUploaded  = "image_uploaded"
)

type nopRecorder struct{}

func (nopRecorder) Event(string) {}

func recorderOrNop(r EventRecorder) EventRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
