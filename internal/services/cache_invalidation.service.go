package services

import (
	"context"
	"fmt"

	"form95/internal/database"
	"form95/internal/events"
	"form95/internal/logger"
)

const claimCacheKeyPattern = "claim:%s"

func ClaimCacheKey(claimID string) string {
	return fmt.Sprintf(claimCacheKeyPattern, claimID)
}

// CacheInvalidationService drops cached claims after writes and tells
// connected admins what changed.
type CacheInvalidationService struct {
	eventBus *events.EventBus
	cache    database.CacheClient
	log      logger.Logger
}

func NewCacheInvalidationService(
	eventBus *events.EventBus,
	cache database.CacheClient,
) *CacheInvalidationService {
	return &CacheInvalidationService{
		eventBus: eventBus,
		cache:    cache,
		log:      logger.New("CacheInvalidationService"),
	}
}

// InvalidateClaim removes the cached claim and publishes eventType. Both
// steps are best effort; the first failure is returned for logging.
func (s *CacheInvalidationService) InvalidateClaim(
	ctx context.Context,
	claimID string,
	eventType string,
	data map[string]any,
) error {
	log := s.log.Function("InvalidateClaim")

	var firstErr error
	if s.cache != nil {
		if err := database.NewCacheBuilder(s.cache, ClaimCacheKey(claimID)).WithContext(ctx).Delete(); err != nil {
			log.Warn("failed to remove claim from cache", "claimID", claimID, "error", err)
			firstErr = err
		}
	}

	if s.eventBus == nil {
		return firstErr
	}

	payload := map[string]any{"claimId": claimID}
	for k, v := range data {
		payload[k] = v
	}

	if err := s.eventBus.Publish(ctx, events.ChannelClaims, events.NewEvent(eventType, payload)); err != nil {
		log.Warn("failed to publish claim event", "claimID", claimID, "type", eventType, "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
