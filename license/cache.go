package license

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v7"
	"go.uber.org/zap"
)

// ProbeCacheOptions contains the configuration for the probe cache
type ProbeCacheOptions struct {
	Redis  redis.UniversalClient
	Logger *zap.Logger
	TTL    time.Duration
}

// ProbeCache keeps recent active-license probe results in Redis. The navbar
// and the login flow both probe on render, so a short TTL takes the repeat
// lookups off the License Service. Like the probe itself, the cache fails
// open: a Redis error is treated as a miss.
type ProbeCache struct {
	ProbeCacheOptions
}

// NewProbeCache validates the options and returns a ProbeCache
func NewProbeCache(option ProbeCacheOptions) (*ProbeCache, error) {
	if option.Redis == nil {
		return nil, fmt.Errorf("nil Redis is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	if option.TTL <= 0 {
		option.TTL = time.Minute
	}
	return &ProbeCache{
		ProbeCacheOptions: option,
	}, nil
}

func probeKey(email string) string {
	return "license:probe:" + email
}

// Get returns the cached Probe for an email, if present
func (p *ProbeCache) Get(email string) (Probe, bool) {
	val, err := p.Redis.Get(probeKey(email)).Result()
	if err == redis.Nil {
		return Probe{}, false
	}
	if err != nil {
		p.Logger.Warn("Cannot read probe cache",
			zap.Error(err),
		)
		return Probe{}, false
	}
	var probe Probe
	if err := json.Unmarshal([]byte(val), &probe); err != nil {
		return Probe{}, false
	}
	return probe, true
}

// Set stores a Probe for an email
func (p *ProbeCache) Set(email string, probe Probe) {
	jsonBytes, err := json.Marshal(probe)
	if err != nil {
		return
	}
	if err := p.Redis.Set(probeKey(email), jsonBytes, p.TTL).Err(); err != nil {
		p.Logger.Warn("Cannot write probe cache",
			zap.Error(err),
		)
	}
}

// Invalidate drops the cached Probe for an email. Called after a purchase
// completes so the navbar reflects the new license without waiting for expiry.
func (p *ProbeCache) Invalidate(email string) {
	if err := p.Redis.Del(probeKey(email)).Err(); err != nil {
		p.Logger.Warn("Cannot invalidate probe cache",
			zap.Error(err),
		)
	}
}
