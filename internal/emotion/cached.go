package emotion

import (
	"context"
	"encoding/json"

	"emosante/internal/cache"
	"emosante/internal/observability"

	"github.com/sirupsen/logrus"
)

// CachedClassifier serves repeated texts from Redis. Cache errors never
// fail a classification.
type CachedClassifier struct {
	next  Classifier
	cache *cache.JSONCache
}

func NewCachedClassifier(next Classifier, c *cache.JSONCache) *CachedClassifier {
	return &CachedClassifier{next: next, cache: c}
}

func (c *CachedClassifier) Classify(ctx context.Context, text string) (string, error) {
	if !c.cache.Enabled() {
		return c.next.Classify(ctx, text)
	}

	key := cache.EmotionKey(text)

	cached, err := c.cache.Get(ctx, key)
	if err != nil {
		logrus.WithError(err).Warn("Failed to read emotion cache")
	}
	if cached != nil {
		var label string
		if json.Unmarshal(cached, &label) == nil {
			observability.GlobalMetrics.CacheHitsTotal.WithLabelValues("emotion").Inc()
			return label, nil
		}
	}
	observability.GlobalMetrics.CacheMissesTotal.WithLabelValues("emotion").Inc()

	label, err := c.next.Classify(ctx, text)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, label); err != nil {
		logrus.WithError(err).Warn("Failed to set emotion cache")
	}
	return label, nil
}
