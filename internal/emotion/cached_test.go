package emotion

import (
	"context"
	"errors"
	"testing"
	"time"

	"emosante/internal/cache"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedClassifier_DisabledCachePassesThrough(t *testing.T) {
	next := new(MockClassifier)
	next.On("Classify", mock.Anything, "rainy day").Return("sadness", nil).Twice()

	c := NewCachedClassifier(next, cache.NewJSONCache(nil, time.Minute))

	for i := 0; i < 2; i++ {
		label, err := c.Classify(context.Background(), "rainy day")
		require.NoError(t, err)
		assert.Equal(t, "sadness", label)
	}
	next.AssertExpectations(t)
}

func TestCachedClassifier_ServesRepeatsFromRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 1})
	defer client.Close()
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping test")
	}
	client.FlushDB(ctx)

	next := new(MockClassifier)
	next.On("Classify", mock.Anything, "walked in the park").Return("calm", nil).Once()

	c := NewCachedClassifier(next, cache.NewJSONCache(client, time.Minute))

	for i := 0; i < 3; i++ {
		label, err := c.Classify(ctx, "walked in the park")
		require.NoError(t, err)
		assert.Equal(t, "calm", label)
	}
	next.AssertNumberOfCalls(t, "Classify", 1)
}

func TestCachedClassifier_ErrorsAreNotCached(t *testing.T) {
	next := new(MockClassifier)
	next.On("Classify", mock.Anything, "x").Return("", errors.New("provider down"))

	c := NewCachedClassifier(next, nil)

	_, err := c.Classify(context.Background(), "x")
	assert.Error(t, err)
}
