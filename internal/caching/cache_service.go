package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"clinicore/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Clinic caching
	GetClinic(ctx context.Context, clinicID uuid.UUID) (*models.Clinic, error)
	SetClinic(ctx context.Context, clinic *models.Clinic, ttl time.Duration) error
	DeleteClinic(ctx context.Context, clinicID uuid.UUID) error

	// User profile caching
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	SetUser(ctx context.Context, user *models.User, ttl time.Duration) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(client *redis.Client) CacheService {
	return &redisCacheService{client: client}
}

// NewRedisClient builds a go-redis client, tolerating redis:// style
// addresses in the configured endpoint.
func NewRedisClient(addr, password string, db int) *redis.Client {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsedAddr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	}

	return redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})
}

func (r *redisCacheService) GetClinic(ctx context.Context, clinicID uuid.UUID) (*models.Clinic, error) {
	key := fmt.Sprintf("clinicore:clinic:%s", clinicID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var clinic models.Clinic
	if err := json.Unmarshal(data, &clinic); err != nil {
		return nil, err
	}
	return &clinic, nil
}

func (r *redisCacheService) SetClinic(ctx context.Context, clinic *models.Clinic, ttl time.Duration) error {
	key := fmt.Sprintf("clinicore:clinic:%s", clinic.ID.String())
	data, err := json.Marshal(clinic)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteClinic(ctx context.Context, clinicID uuid.UUID) error {
	key := fmt.Sprintf("clinicore:clinic:%s", clinicID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	key := fmt.Sprintf("clinicore:user:%s", userID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *redisCacheService) SetUser(ctx context.Context, user *models.User, ttl time.Duration) error {
	key := fmt.Sprintf("clinicore:user:%s", user.ID.String())
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("clinicore:user:%s", userID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rateKey := fmt.Sprintf("clinicore:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, rateKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, rateKey, window).Err(); err != nil {
			return false, err
		}
	}
	return count > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
