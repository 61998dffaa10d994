package internal

import (
	"time"

	"context"
	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var rdb *redis.Client
var ctx = context.Background()
var memCache *cache.Cache

var redisDataExpiration time.Duration
var memoryDataExpiration time.Duration

var redisInitialized bool

// InitCache initializes the tiered cache with a redis failover client behind
// the in-memory tier. Expirations are short, the cache holds live circuit
// state that goes stale with every provisioning action.
func InitCache(redisURI string, redisURI2 string, redisURI3 string, redisPassword string, redisDB int, dryRun string) {

	if dryRun == "True" || dryRun == "true" {
		zap.S().Infof("Running cache in DRY_RUN mode. This means that cache will not be used")
		return
	}

	var failOverOptions = redis.FailoverOptions{
		MasterName:       "mymaster",
		SentinelAddrs:    []string{redisURI, redisURI2, redisURI3},
		SentinelPassword: redisPassword,
		Password:         redisPassword,
		DB:               redisDB,
	}
	zap.S().Debugf("Initializing redis cache with options: %#v", failOverOptions)

	rdb = redis.NewFailoverClient(&failOverOptions)

	redisDataExpiration = 1 * time.Minute
	memoryDataExpiration = 10 * time.Second

	memCache = cache.New(memoryDataExpiration, 20*time.Second)
	redisInitialized = true
}

// InitMemcache initializes the in-memory tier only.
func InitMemcache() {
	memoryDataExpiration = 10 * time.Second
	memCache = cache.New(memoryDataExpiration, 20*time.Second)
	redisInitialized = false
}

func IsRedisAvailable() bool {
	if !redisInitialized {
		return false
	}
	if rdb != nil {
		timeout, cancel := context.WithTimeout(ctx, TenSeconds)
		defer cancel()
		statusCmd := rdb.Ping(timeout)

		if statusCmd != nil && statusCmd.Val() == "PONG" {
			return true
		}
		zap.S().Debugf("Redis Error: %s", statusCmd)
	}
	return false
}

// GetTiered attempts to get key from the memory cache, falling back to redis.
// With the cache disabled (DRY_RUN) nothing is ever found.
func GetTiered(key string) (cached bool, value interface{}) {
	if memCache == nil {
		return false, nil
	}

	value, cached = memCache.Get(key)
	if cached {
		zap.S().Debugf("Found in memcache (%s)", key)
		return
	}

	if !redisInitialized {
		return false, nil
	}

	var err error
	d := time.Now().Add(memoryDataExpiration)
	ctx, cancel := context.WithDeadline(context.Background(), d)
	defer cancel()

	value, err = rdb.Get(ctx, key).Bytes()
	if err != nil {
		zap.S().Debugf("Not found in redis (%s)", key)
		return false, nil
	}
	cached = true
	zap.S().Debugf("Found in redis (%s)", key)

	// Write back to memCache
	memCache.SetDefault(key, value)
	return
}

// SetTiered sets memcache and redis with expiration
func SetTiered(key string, value interface{}, redisExpiration time.Duration) {
	if memCache == nil {
		return
	}
	memCache.SetDefault(key, value)
	if redisInitialized {
		rdb.Set(ctx, key, value, redisExpiration)
	}
}

// SetTieredShortTerm is a helper, that calls SetTiered with the default redis expiration
func SetTieredShortTerm(key string, value interface{}) {
	SetTiered(key, value, redisDataExpiration)
}
