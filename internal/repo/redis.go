package repo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ColdVault/config"
	"ColdVault/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// ErrLockBusy is returned when another holder owns the lock key.
var ErrLockBusy = errors.New("lock is busy")

type RedisLock struct {
	rdb   *redis.Client
	key   string
	token string
	ttl   time.Duration
}

// InitRedis initializes the Redis client and the shared cache manager.
func InitRedis() {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.AppConfig.RedisHost, config.AppConfig.RedisPort),
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})
	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		log.Fatal("init redis fail", err)
	}
	log.Println("init redis success")
	Redis = client
	utils.InitCacheManager(client)
}

// NewRedisLock creates a Redis lock helper.
func NewRedisLock(rdb *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		rdb: rdb,
		key: key,
		ttl: ttl,
	}
}

// Lock acquires a Redis-based lock.
func (l *RedisLock) Lock(ctx context.Context) error {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockBusy
	}
	l.token = token
	return nil
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Unlock releases a Redis-based lock.
func (l *RedisLock) Unlock(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	_, err := unlockScript.Run(
		ctx,
		l.rdb,
		[]string{l.key},
		l.token,
	).Result()
	return err
}

// LockManager blocks until a lock is held, polling while the context
// allows. It satisfies the service layer's Locker contract.
type LockManager struct {
	rdb *redis.Client
}

func NewLockManager(rdb *redis.Client) *LockManager {
	return &LockManager{rdb: rdb}
}

func (m *LockManager) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l := NewRedisLock(m.rdb, key, ttl)
	for {
		err := l.Lock(ctx)
		if err == nil {
			return func() {
				if uerr := l.Unlock(context.Background()); uerr != nil {
					log.Printf("unlock %s: %v", key, uerr)
				}
			}, nil
		}
		if !errors.Is(err, ErrLockBusy) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
