package quote

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// cached is a Source reusing quotes for a while.
type cached struct {
	src   Source
	cache *cache.Cache
}

// Cached returns a Source asking src only for codes without a quote younger
// than ttl.
func Cached(src Source, ttl time.Duration) Source {
	return &cached{src: src, cache: cache.New(ttl, 2*ttl)}
}

func (c *cached) Quotes(ctx context.Context, codes ...string) (map[string]Quote, error) {
	quotes := make(map[string]Quote, len(codes))
	var missing []string
	for _, code := range codes {
		if q, found := c.cache.Get(code); found {
			quotes[code] = q.(Quote)
			continue
		}
		missing = append(missing, code)
	}
	if len(missing) == 0 {
		return quotes, nil
	}
	fresh, err := c.src.Quotes(ctx, missing...)
	for code, q := range fresh {
		c.cache.Set(code, q, cache.DefaultExpiration)
		quotes[code] = q
	}
	return quotes, err
}
