package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/common"
	"github.com/dmitrijs2005/gophstore/internal/server/models"
)

// cachedRecord remembers absent records too, so repeated misses stay cheap.
type cachedRecord struct {
	value string
	found bool
}

func recordCacheKey(kind, key string) string {
	return kind + "/" + key
}

func (s *Store) recordTTL(kind string) time.Duration {
	if kind == models.KindBackpack {
		return s.cfg.BackpackCacheTTL
	}
	return s.cfg.SettingsCacheTTL
}

// getRecord reads a record through the cache.
func (s *Store) getRecord(ctx context.Context, kind, key string) (cachedRecord, error) {
	ck := recordCacheKey(kind, key)
	if v, ok := s.records.Get(ck); ok {
		return v.(cachedRecord), nil
	}

	rec, err := RunJob(ctx, s, false, func(ctx context.Context, a *Attempt) (cachedRecord, error) {
		r, err := a.Repos.Records().Get(ctx, kind, key)
		if errors.Is(err, common.ErrorNotFound) {
			return cachedRecord{}, nil
		}
		if err != nil {
			return cachedRecord{}, err
		}
		return cachedRecord{value: r.Value, found: true}, nil
	})
	if err != nil {
		return cachedRecord{}, err
	}

	s.records.Set(ck, rec, s.recordTTL(kind))
	return rec, nil
}

// putRecord writes the store first, then the cache.
func (s *Store) putRecord(ctx context.Context, kind, key, value string) error {
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		return struct{}{}, a.Repos.Records().Put(ctx, &models.Record{Kind: kind, Key: key, Value: value, Updated: s.now()})
	})
	if err != nil {
		s.records.Delete(recordCacheKey(kind, key))
		return err
	}
	s.records.Set(recordCacheKey(kind, key), cachedRecord{value: value, found: true}, s.recordTTL(kind))
	return nil
}

func (s *Store) deleteRecord(ctx context.Context, kind, key string) error {
	_, err := RunJob(ctx, s, true, func(ctx context.Context, a *Attempt) (struct{}, error) {
		return struct{}{}, a.Repos.Records().Delete(ctx, kind, key)
	})
	s.records.Delete(recordCacheKey(kind, key))
	return err
}

// GetBackpack returns a shared backpack, or "" when there is none.
func (s *Store) GetBackpack(ctx context.Context, id string) (string, error) {
	rec, err := s.getRecord(ctx, models.KindBackpack, id)
	return rec.value, err
}

func (s *Store) StoreBackpack(ctx context.Context, id, content string) error {
	return s.putRecord(ctx, models.KindBackpack, id, content)
}

// GetSetting returns a singleton setting such as models.KindSplash, or ""
// when it was never stored.
func (s *Store) GetSetting(ctx context.Context, kind string) (string, error) {
	rec, err := s.getRecord(ctx, kind, "")
	return rec.value, err
}

func (s *Store) StoreSetting(ctx context.Context, kind, value string) error {
	return s.putRecord(ctx, kind, "", value)
}

// IsEmailAllowed reports whether email is on the allow-list, ignoring case.
func (s *Store) IsEmailAllowed(ctx context.Context, email string) (bool, error) {
	rec, err := s.getRecord(ctx, models.KindAllowedUser, strings.ToLower(email))
	return rec.found, err
}

func (s *Store) AllowEmail(ctx context.Context, email string) error {
	return s.putRecord(ctx, models.KindAllowedUser, strings.ToLower(email), email)
}

func (s *Store) DisallowEmail(ctx context.Context, email string) error {
	return s.deleteRecord(ctx, models.KindAllowedUser, strings.ToLower(email))
}
