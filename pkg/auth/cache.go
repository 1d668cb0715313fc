package auth

import (
	"context"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/pkg/logger"
)

// TokenCache remembers successful introspections. Get returns nil, nil on a miss.
type TokenCache interface {
	Get(ctx context.Context, token string) (*AuthUser, error)
	Put(ctx context.Context, token string, user *AuthUser, expiresAt time.Time) error
}

type introspectionRow struct {
	bun.BaseModel `bun:"table:auth_introspection_cache"`

	TokenHash string    `bun:"token_hash,pk"`
	User      *AuthUser `bun:"introspection_data,type:jsonb"`
	ExpiresAt time.Time `bun:"expires_at"`
}

// IntrospectionCache keeps introspection results in auth_introspection_cache, keyed by token hash
type IntrospectionCache struct {
	db bun.IDB
}

func NewIntrospectionCache(db bun.IDB) *IntrospectionCache {
	return &IntrospectionCache{db: db}
}

func (c *IntrospectionCache) Get(ctx context.Context, token string) (*AuthUser, error) {
	row := new(introspectionRow)
	err := c.selectQuery(row, hashToken(token)).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.User, nil
}

func (c *IntrospectionCache) Put(ctx context.Context, token string, user *AuthUser, expiresAt time.Time) error {
	_, err := c.upsertQuery(&introspectionRow{
		TokenHash: hashToken(token),
		User:      user,
		ExpiresAt: expiresAt,
	}).Exec(ctx)
	return err
}

// Purge deletes expired rows and returns how many were removed
func (c *IntrospectionCache) Purge(ctx context.Context) (int64, error) {
	res, err := c.purgeQuery().Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *IntrospectionCache) selectQuery(row *introspectionRow, hash string) *bun.SelectQuery {
	return c.db.NewSelect().
		Model(row).
		Where("token_hash = ?", hash).
		Where("expires_at > NOW()")
}

func (c *IntrospectionCache) upsertQuery(row *introspectionRow) *bun.InsertQuery {
	return c.db.NewInsert().
		Model(row).
		On("CONFLICT (token_hash) DO UPDATE").
		Set("introspection_data = EXCLUDED.introspection_data").
		Set("expires_at = EXCLUDED.expires_at")
}

func (c *IntrospectionCache) purgeQuery() *bun.DeleteQuery {
	return c.db.NewDelete().
		Model((*introspectionRow)(nil)).
		Where("expires_at < NOW()")
}

// cacheExpiry is now+ttl or the token expiry, whichever comes first.
// ok is false when that moment has already passed.
func cacheExpiry(now time.Time, ttl time.Duration, tokenExpiry time.Time) (expiresAt time.Time, ok bool) {
	expiresAt = now.Add(ttl)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}
	return expiresAt, now.Before(expiresAt)
}

func hashToken(token string) string {
	hash := sha512.Sum512([]byte(token))
	return hex.EncodeToString(hash[:])
}

// RegisterCachePurge removes expired introspection rows on a cron schedule
func RegisterCachePurge(lc fx.Lifecycle, cache *IntrospectionCache, cfg *config.Config, log *slog.Logger) error {
	log = log.With(logger.Scope("auth.cache_purge"))
	c := cron.New()

	_, err := c.AddFunc("@every "+cfg.Keycloak.IntrospectCachePurge.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Keycloak.Timeout)
		defer cancel()

		n, err := cache.Purge(ctx)
		if err != nil {
			log.Error("purging introspection cache failed", logger.Error(err))
			return
		}
		if n > 0 {
			log.Info("purged expired introspection cache entries", slog.Int64("count", n))
		}
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-c.Stop().Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
	return nil
}
