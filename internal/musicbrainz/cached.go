package musicbrainz

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/textnorm"
)

// Looker resolves a track to a MusicBrainz recording.
type Looker interface {
	Lookup(ctx context.Context, track domain.Track) (*Recording, error)
}

var _ Looker = (*Client)(nil)
var _ Looker = (*CachedClient)(nil)

type Cache interface {
	GetCache(key string) ([]byte, error)
	SetCache(key string, data []byte, ttl time.Duration) error
}

// CachedClient remembers lookups, misses included, so repeated runs over
// the same wanted list do not hit the rate limit.
type CachedClient struct {
	client Looker
	cache  Cache
	ttl    time.Duration
}

func NewCachedClient(client Looker, cache Cache, ttl time.Duration) *CachedClient {
	return &CachedClient{
		client: client,
		cache:  cache,
		ttl:    ttl,
	}
}

type cachedRecording struct {
	Recording *Recording `json:"recording"`
	NotFound  bool       `json:"not_found"`
}

func (c *CachedClient) Lookup(ctx context.Context, track domain.Track) (*Recording, error) {
	key := cacheKey(track)

	data, err := c.cache.GetCache(key)
	if err != nil {
		return nil, err
	}
	if data != nil {
		var cached cachedRecording
		if unmarshalErr := json.Unmarshal(data, &cached); unmarshalErr == nil {
			return cached.Recording, nil
		}
	}

	rec, err := c.client.Lookup(ctx, track)
	if err != nil {
		return nil, err
	}

	cached := cachedRecording{Recording: rec, NotFound: rec == nil}
	if data, marshalErr := json.Marshal(cached); marshalErr == nil {
		_ = c.cache.SetCache(key, data, c.ttl)
	}
	return rec, nil
}

func cacheKey(track domain.Track) string {
	if track.ISRC != "" {
		return "mb:isrc:" + track.ISRC
	}
	artist := textnorm.Normalize(textnorm.PrimaryArtist(track.Artist))
	title := textnorm.Normalize(textnorm.StripFeaturing(track.Name))
	return "mb:track:" + textnorm.Key(artist, title)
}
