package line

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// ProfileCache memoizes display-name lookups so a chatty group does not
// turn every inbound message into Messaging API round trips.
type ProfileCache struct {
	cache  *cache.Cache
	client *Client
}

// NewProfileCache creates a profile cache in front of client.
func NewProfileCache(defaultExpiration, cleanupInterval time.Duration, client *Client) *ProfileCache {
	return &ProfileCache{
		cache:  cache.New(defaultExpiration, cleanupInterval),
		client: client,
	}
}

// MemberDisplayName returns the display name of a group member, cached.
func (p *ProfileCache) MemberDisplayName(ctx context.Context, groupID, userID string) (string, error) {
	key := memberCacheKey(groupID, userID)
	if name, found := p.cache.Get(key); found {
		return name.(string), nil
	}

	profile, err := p.client.GetGroupMemberProfile(ctx, groupID, userID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch member profile: %w", err)
	}
	p.cache.Set(key, profile.DisplayName, 0)
	return profile.DisplayName, nil
}

// GroupDisplayName returns the group's display name, cached.
func (p *ProfileCache) GroupDisplayName(ctx context.Context, groupID string) (string, error) {
	key := groupCacheKey(groupID)
	if name, found := p.cache.Get(key); found {
		return name.(string), nil
	}

	summary, err := p.client.GetGroupSummary(ctx, groupID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch group summary: %w", err)
	}
	p.cache.Set(key, summary.GroupName, 0)
	return summary.GroupName, nil
}

func memberCacheKey(groupID, userID string) string {
	return "member:" + groupID + ":" + userID
}

func groupCacheKey(groupID string) string {
	return "group:" + groupID
}
