package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/model"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
	pkgerrors "github.com/Thinhtran42/mtls-capstone-sub001/pkg/errors"
	"github.com/Thinhtran42/mtls-capstone-sub001/pkg/redis"
)

// ErrDraftNotFound 草稿会话不存在或已过期
var ErrDraftNotFound = errors.New("草稿会话不存在或已过期")

// DraftStore 草稿会话存储
//
// Update 以 Version 做比较并交换：传入会话的 Version 须与存储中一致，
// 成功后 Version 自增；不一致时返回 ErrOptimisticLock。
type DraftStore interface {
	Create(ctx context.Context, s *model.DraftSession) error
	Get(ctx context.Context, id string) (*model.DraftSession, error)
	Update(ctx context.Context, s *model.DraftSession) error
	Delete(ctx context.Context, id string) error
}

// ── Redis 实现 ──

const draftKeyPrefix = "draft:session:"

type redisDraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDraftStore 创建基于 Redis 的草稿存储，每次写入刷新 TTL
func NewRedisDraftStore(rdb *redis.Client, ttl time.Duration) DraftStore {
	return &redisDraftStore{rdb: rdb, ttl: ttl}
}

func (s *redisDraftStore) Create(ctx context.Context, d *model.DraftSession) error {
	now := time.Now()
	d.Version = 1
	d.CreatedAt = now
	d.UpdatedAt = now
	d.ExpiresAt = now.Add(s.ttl)

	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, draftKeyPrefix+d.ID, b, s.ttl)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (s *redisDraftStore) Get(ctx context.Context, id string) (*model.DraftSession, error) {
	b, err := s.rdb.Get(ctx, draftKeyPrefix+id)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	var d model.DraftSession
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *redisDraftStore) Update(ctx context.Context, d *model.DraftSession) error {
	expected := d.Version
	now := time.Now()

	err := s.rdb.Update(ctx, draftKeyPrefix+d.ID, s.ttl, func(cur []byte) ([]byte, error) {
		var stored model.DraftSession
		if err := json.Unmarshal(cur, &stored); err != nil {
			return nil, err
		}
		if stored.Version != expected {
			return nil, pkgerrors.ErrOptimisticLock
		}
		next := *d
		next.Version = expected + 1
		next.UpdatedAt = now
		next.ExpiresAt = now.Add(s.ttl)
		return json.Marshal(&next)
	})
	switch {
	case errors.Is(err, redis.ErrKeyNotFound):
		return ErrDraftNotFound
	case errors.Is(err, redis.ErrTxConflict):
		return pkgerrors.ErrOptimisticLock
	case err != nil:
		return err
	}

	d.Version = expected + 1
	d.UpdatedAt = now
	d.ExpiresAt = now.Add(s.ttl)
	return nil
}

func (s *redisDraftStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, draftKeyPrefix+id)
}

// ── 内存实现（Redis 不可用时降级，单实例有效） ──

type memoryDraftStore struct {
	mu    sync.Mutex
	items map[string]model.DraftSession
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryDraftStore 创建进程内草稿存储
func NewMemoryDraftStore(ttl time.Duration) DraftStore {
	return &memoryDraftStore{
		items: make(map[string]model.DraftSession),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *memoryDraftStore) Create(_ context.Context, d *model.DraftSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	if _, ok := s.items[d.ID]; ok {
		return pkgerrors.ErrOptimisticLock
	}
	d.Version = 1
	d.CreatedAt = now
	d.UpdatedAt = now
	d.ExpiresAt = now.Add(s.ttl)
	s.items[d.ID] = cloneSession(*d)
	return nil
}

func (s *memoryDraftStore) Get(_ context.Context, id string) (*model.DraftSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.items[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	if !s.now().Before(d.ExpiresAt) {
		delete(s.items, id)
		return nil, ErrDraftNotFound
	}
	out := cloneSession(d)
	return &out, nil
}

func (s *memoryDraftStore) Update(_ context.Context, d *model.DraftSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cur, ok := s.items[d.ID]
	if !ok || !now.Before(cur.ExpiresAt) {
		delete(s.items, d.ID)
		return ErrDraftNotFound
	}
	if cur.Version != d.Version {
		return pkgerrors.ErrOptimisticLock
	}
	d.Version++
	d.UpdatedAt = now
	d.ExpiresAt = now.Add(s.ttl)
	s.items[d.ID] = cloneSession(*d)
	return nil
}

// sweep 清理已过期会话（被放弃的草稿不会再被读取），调用方持有锁
func (s *memoryDraftStore) sweep(now time.Time) {
	for id, d := range s.items {
		if !now.Before(d.ExpiresAt) {
			delete(s.items, id)
		}
	}
}

func (s *memoryDraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// cloneSession 复制会话中的 map 与切片，避免调用方修改存储内的值
func cloneSession(d model.DraftSession) model.DraftSession {
	if d.State.Errors != nil {
		errs := make(map[wizard.Field]string, len(d.State.Errors))
		for k, v := range d.State.Errors {
			errs[k] = v
		}
		d.State.Errors = errs
	}
	if d.Reference.Sections != nil {
		d.Reference.Sections = append(d.Reference.Sections[:0:0], d.Reference.Sections...)
	}
	if d.State.Draft.PassScore != nil {
		v := *d.State.Draft.PassScore
		d.State.Draft.PassScore = &v
	}
	return d
}
