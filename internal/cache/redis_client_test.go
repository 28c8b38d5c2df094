package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/graphrag/internal/logging"
)

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "query:find_callers:project:p1:abcd", QueryKey("find_callers", "p1", "abcd"))
}

func TestProjectInvalidationPattern(t *testing.T) {
	assert.Equal(t, "*:project:p1:*", ProjectInvalidationPattern("p1"))
}

// setupTestClient connects to a real Redis instance for round-trip coverage of Get/Set/Delete;
// it skips when no test instance is configured, matching how other store-backed packages here
// gate on a live backend.
func setupTestClient(t *testing.T) *Client {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: REDIS_TEST_ADDR not set")
	}

	logger, err := logging.New(logging.Config{Level: logging.ErrorLevel})
	require.NoError(t, err)

	client, err := NewClient(context.Background(), addr, "", 0, time.Minute, logger)
	require.NoError(t, err)
	return client
}

func TestClient_SetGetRoundTrip(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	type payload struct {
		Value string `json:"value"`
	}
	key := QueryKey("test_op", "test_project", "fp")
	defer client.Delete(ctx, key)

	require.NoError(t, client.Set(ctx, key, payload{Value: "hello"}))

	var got payload
	hit, err := client.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "hello", got.Value)
}

func TestClient_GetMissReturnsFalseNotError(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	var got map[string]string
	hit, err := client.Get(ctx, QueryKey("nonexistent_op", "p", "fp"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestClient_DeletePatternInvalidatesProject(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	keyA := QueryKey("op_a", "invalidate-me", "fp1")
	keyB := QueryKey("op_b", "invalidate-me", "fp2")
	require.NoError(t, client.Set(ctx, keyA, "x"))
	require.NoError(t, client.Set(ctx, keyB, "y"))

	deleted, err := client.DeletePattern(ctx, ProjectInvalidationPattern("invalidate-me"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var got string
	hit, err := client.Get(ctx, keyA, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
