// Package integration provides end-to-end tests against a running RecipeBook server.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds the configuration for integration tests.
type TestConfig struct {
	Endpoint string
}

// getTestConfig reads test configuration from environment variables.
func getTestConfig() TestConfig {
	return TestConfig{
		Endpoint: getEnv("RECIPEBOOK_ENDPOINT", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func requireServer(t *testing.T) TestConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg := getTestConfig()
	if cfg.Endpoint == "" {
		t.Skip("RECIPEBOOK_ENDPOINT is not set")
	}
	return cfg
}

type client struct {
	t        *testing.T
	endpoint string
	http     *http.Client
}

func newClient(t *testing.T, cfg TestConfig) *client {
	return &client{t: t, endpoint: cfg.Endpoint, http: &http.Client{Timeout: 10 * time.Second}}
}

// call sends body as JSON and decodes the response into out when non-nil.
func (c *client) call(method, path, token string, body, out any) int {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.endpoint+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type authResult struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func (c *client) register(username string) authResult {
	c.t.Helper()
	var res authResult
	status := c.call(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username":        username,
		"email":           username + "@example.com",
		"password":        "secret1",
		"passwordConfirm": "secret1",
	}, &res)
	require.Equal(c.t, http.StatusCreated, status)
	require.NotEmpty(c.t, res.Token)
	return res
}

// TestHealth checks the server and its database are up.
func TestHealth(t *testing.T) {
	c := newClient(t, requireServer(t))

	var health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	require.Equal(t, http.StatusOK, c.call(http.MethodGet, "/api/health", "", nil, &health))
	require.Equal(t, "OK", health.Status)
	require.Equal(t, "connected", health.Database)
}

// TestRecipeLifecycle walks a recipe through creation, sharing and deletion.
func TestRecipeLifecycle(t *testing.T) {
	c := newClient(t, requireServer(t))

	suffix := fmt.Sprintf("%d", time.Now().UnixNano()%1_000_000_000)
	owner := c.register("chef" + suffix)
	guest := c.register("guest" + suffix)

	var recipe struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}

	t.Run("CreateRecipe", func(t *testing.T) {
		status := c.call(http.MethodPost, "/api/recipes", owner.Token, map[string]any{
			"title":        "Carbonara " + suffix,
			"description":  "Classic Roman pasta",
			"ingredients":  []string{"spaghetti", "guanciale", "eggs"},
			"instructions": "Cook and mix off the heat.",
			"prepTime":     25,
			"difficulty":   "moyen",
			"category":     "plat",
		}, &recipe)
		require.Equal(t, http.StatusCreated, status)
		require.NotEmpty(t, recipe.ID)
	})

	t.Run("Search", func(t *testing.T) {
		var found []struct {
			ID string `json:"id"`
		}
		status := c.call(http.MethodGet, "/api/recipes/search/"+suffix, "", nil, &found)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, found, 1)
		require.Equal(t, recipe.ID, found[0].ID)
	})

	t.Run("UpdateByOtherUser_Forbidden", func(t *testing.T) {
		status := c.call(http.MethodPut, "/api/recipes/"+recipe.ID, guest.Token, map[string]any{"title": "Mine now"}, nil)
		require.Equal(t, http.StatusForbidden, status)
	})

	t.Run("Share", func(t *testing.T) {
		status := c.call(http.MethodPost, "/api/sharing", owner.Token, map[string]string{
			"recipeId": recipe.ID,
			"username": guest.User.Username,
		}, nil)
		require.Equal(t, http.StatusCreated, status)

		var shared []struct {
			Recipe struct {
				ID string `json:"id"`
			} `json:"recipe"`
		}
		require.Equal(t, http.StatusOK, c.call(http.MethodGet, "/api/sharing/with-me", guest.Token, nil, &shared))
		require.Len(t, shared, 1)
		require.Equal(t, recipe.ID, shared[0].Recipe.ID)
	})

	t.Run("DeleteRecipe", func(t *testing.T) {
		require.Equal(t, http.StatusOK, c.call(http.MethodDelete, "/api/recipes/"+recipe.ID, owner.Token, nil, nil))
		require.Equal(t, http.StatusNotFound, c.call(http.MethodGet, "/api/recipes/"+recipe.ID, "", nil, nil))

		var shared []json.RawMessage
		require.Equal(t, http.StatusOK, c.call(http.MethodGet, "/api/sharing/with-me", guest.Token, nil, &shared))
		require.Empty(t, shared, fmt.Sprintf("shares of %s should be gone", recipe.ID))
	})
}
