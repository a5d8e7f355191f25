package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/recipebook/internal/domain"
	"github.com/prn-tf/recipebook/internal/storage"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y), B: uint8(x), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestImageService(t *testing.T, repos *testRepos) (*ImageService, storage.Backend) {
	t.Helper()
	backend, err := storage.NewFilesystemBackend(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	svc := NewImageService(repos.recipes, backend, storage.NewImageProcessor(1<<20, 64), nil, zerolog.Nop())
	return svc, backend
}

func TestImageKey(t *testing.T) {
	tests := []struct {
		image  string
		want   string
		wantOK bool
	}{
		{image: "/api/images/3f1c.jpg", want: "3f1c.jpg", wantOK: true},
		{image: "https://example.com/pic.jpg"},
		{image: "/api/images/../etc/passwd"},
		{image: "/api/images/pic.png"},
		{image: ""},
	}
	for _, tt := range tests {
		t.Run(tt.image, func(t *testing.T) {
			key, ok := ImageKey(tt.image)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, key)
		})
	}
	require.Equal(t, "3f1c_thumb.jpg", ThumbnailKey("3f1c.jpg"))
}

func TestImageService_Upload(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	svc, backend := newTestImageService(t, repos)
	recipe := addRecipe(t, repos, "owner-1")

	_, err := svc.Upload(ctx, recipe.ID, "someone-else", bytes.NewReader(testPNG(t, 10, 10)))
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Upload(ctx, "missing", "owner-1", bytes.NewReader(testPNG(t, 10, 10)))
	require.ErrorIs(t, err, domain.ErrRecipeNotFound)

	_, err = svc.Upload(ctx, recipe.ID, "owner-1", strings.NewReader("not an image"))
	require.ErrorIs(t, err, domain.ErrValidation)

	updated, err := svc.Upload(ctx, recipe.ID, "owner-1", bytes.NewReader(testPNG(t, 200, 100)))
	require.NoError(t, err)
	key, ok := ImageKey(updated.Image)
	require.True(t, ok, "image set to a managed URL, got %q", updated.Image)

	stored, err := repos.recipes.GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	require.Equal(t, updated.Image, stored.Image)

	obj, err := svc.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.NoError(t, obj.Body.Close())
	require.Equal(t, obj.Size, int64(len(data)))

	exists, err := backend.Exists(ctx, ThumbnailKey(key))
	require.NoError(t, err)
	require.True(t, exists)

	replaced, err := svc.Upload(ctx, recipe.ID, "owner-1", bytes.NewReader(testPNG(t, 20, 20)))
	require.NoError(t, err)
	require.NotEqual(t, updated.Image, replaced.Image)

	_, err = svc.Open(ctx, key)
	require.ErrorIs(t, err, domain.ErrImageNotFound, "previous image removed")
	exists, err = backend.Exists(ctx, ThumbnailKey(key))
	require.NoError(t, err)
	require.False(t, exists)

	newKey, _ := ImageKey(replaced.Image)
	require.NoError(t, svc.RemoveForRecipe(ctx, replaced))
	exists, err = backend.Exists(ctx, newKey)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, svc.RemoveForRecipe(ctx, &domain.Recipe{Image: "https://example.com/x.jpg"}))
}
