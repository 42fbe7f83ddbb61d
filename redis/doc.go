// Package redis holds the go-redis connection used by the shared
// transcription cache and a JSON document store on top of it.
//
//	client, err := redis.New(cfg, log)
//	store := redis.NewTypedStore[cache.Entry](client, client.KeyPrefix()+":transcripts")
//	_ = store.Save(ctx, fp, &entry, ttl)
//	entry, found, err := store.Load(ctx, fp)
package redis
