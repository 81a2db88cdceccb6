package lib

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"ticketr/src/types"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

const changeChannel = "ticketr:changes"

// PublishChange mirrors a mutation onto the redis pub/sub channel for the
// subscription layer. Best effort: a dead redis never fails the mutation.
func PublishChange(change types.ChangeEvent) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	payload, err := json.Marshal(&change)
	if err != nil {
		log.Printf("Error serializing change event: %s\n", err.Error())
		return
	}
	if err := rd.Publish(context.Background(), changeChannel, payload).Err(); err != nil {
		log.Printf("Error publishing change event [%s]: %s\n", change.Kind, err.Error())
	}
}

// CachePaymentRef remembers which ticket a payment reference belonged to so
// that callbacks can be matched without a table scan.
func CachePaymentRef(paymentRef string, ticketID string, ttl time.Duration) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	if _, err := rd.SetEx(context.Background(), paymentRef, ticketID, ttl).Result(); err != nil {
		log.Printf("Error caching value [%s]: %s\n", ticketID, err.Error())
	}
}
