package db

import (
	"context"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// InitRedis connects to redis for login lockout tracking. Returns nil when no
// address is configured; callers treat a nil client as "lockout disabled".
func InitRedis(addr, password string) *redis.Client {
	if addr == "" {
		log.Println("Redis not configured, login lockout disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Could not verify Redis connection: %s", err)
	} else {
		log.Println("Successfully connected to Redis")
	}
	return client
}
