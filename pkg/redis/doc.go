// Package redis connects the shared Redis instance backing the rate
// limiter's fixed-window counters. It wraps go-redis/v9 with env-driven
// configuration, startup retries, and a health probe.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	limiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(client))
package redis
