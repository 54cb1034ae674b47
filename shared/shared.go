package shared

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"innkeep/shared/cache"
	"innkeep/shared/constant"
	"innkeep/shared/dto"
	"math"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

const cacheKeySeparator = ":"

func CalculateTotalPage(total, limit int) (res int) {
	if total == 0 || limit <= 0 {
		res = 1
	} else {
		res = int(math.Ceil(float64(total) / float64(limit)))
	}

	return res
}

func FilterByID(id, fieldID, table string) dto.FilterGroup {
	return dto.FilterGroup{
		Filters: []any{
			dto.Filter{
				Field:    fieldID,
				Value:    id,
				Operator: dto.FilterOperatorEq,
				Table:    table,
			},
		},
	}
}

// BuildCacheKey joins a prefix and its key parts with ":".
func BuildCacheKey(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), cacheKeySeparator)
}

// BuildCacheKeyWithQuery derives a stable key for a paginated, filtered read.
func BuildCacheKeyWithQuery(prefix string, params dto.QueryParams, filter dto.FilterGroup) string {
	return BuildCacheKeyFromValue(prefix, struct {
		Params dto.QueryParams `json:"params"`
		Filter dto.FilterGroup `json:"filter"`
	}{params, filter})
}

// BuildCacheKeyFromValue hashes the JSON form of value under prefix. Values that
// cannot be encoded fall back to the bare prefix plus "raw".
func BuildCacheKeyFromValue(prefix string, value any) string {
	raw, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("failed to encode cache key")

		return BuildCacheKey(prefix, "raw")
	}

	sum := sha256.Sum256(raw)

	return BuildCacheKey(prefix, hex.EncodeToString(sum[:16]))
}

// InvalidateCaches drops every key stored under prefix. Failures are logged, not
// returned, since callers run it after the write already committed.
func InvalidateCaches(ctx context.Context, c cache.RedisCache, prefix string) {
	if err := c.Clear(ctx, prefix+cacheKeySeparator+constant.Asterix); err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("failed to invalidate caches")
	}
}

type cacheGeneration struct {
	Token string `json:"token"`
}

// CacheGeneration returns the token stored under key, starting one when none
// exists. Entries keyed by a token are never read once a writer replaces it.
// ok is false when the cache cannot be used at all.
func CacheGeneration(ctx context.Context, c cache.RedisCache, key string) (token string, ok bool) {
	var generation cacheGeneration

	err := c.Get(ctx, key, &generation)
	if err == nil && generation.Token != "" {
		return generation.Token, true
	}

	if err != nil && !errors.Is(err, cache.Nil) {
		log.Error().Err(err).Str("key", key).Msg("failed to read cache generation")

		return "", false
	}

	return BumpCacheGeneration(ctx, c, key)
}

// BumpCacheGeneration stores a fresh token under key. Tokens are random, so a
// later bump never brings back a token a reader already holds.
func BumpCacheGeneration(ctx context.Context, c cache.RedisCache, key string) (token string, ok bool) {
	token = uuid.NewString()

	if err := c.Save(ctx, key, cacheGeneration{Token: token}, 0); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to bump cache generation")

		return "", false
	}

	return token, true
}
