package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Thinhtran42/mtls-capstone-sub001/internal/model"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/wizard"
	pkgerrors "github.com/Thinhtran42/mtls-capstone-sub001/pkg/errors"
)

func newTestSession(id string) *model.DraftSession {
	return &model.DraftSession{
		ID:      id,
		OwnerID: "u-1",
		Kind:    wizard.KindAssignment,
		Mode:    wizard.ModeCreate,
		State:   wizard.State{Kind: wizard.KindAssignment},
	}
}

func TestMemoryDraftStore_CreateGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore(time.Hour)

	s := newTestSession("d-1")
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if s.Version != 1 {
		t.Errorf("新会话 Version 应为 1，实际 %d", s.Version)
	}

	got, err := store.Get(ctx, "d-1")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if got.OwnerID != "u-1" || got.Kind != wizard.KindAssignment {
		t.Errorf("读取内容不符: %+v", got)
	}

	if err := store.Create(ctx, newTestSession("d-1")); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("重复 ID 应返回 ErrOptimisticLock，实际 %v", err)
	}
}

func TestMemoryDraftStore_UpdateVersionCheck(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore(time.Hour)
	s := newTestSession("d-2")
	_ = store.Create(ctx, s)

	copy1, _ := store.Get(ctx, "d-2")
	copy2, _ := store.Get(ctx, "d-2")

	copy1.State.Draft.Title = "第一份"
	if err := store.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新失败: %v", err)
	}
	if copy1.Version != 2 {
		t.Errorf("更新后 Version 应为 2，实际 %d", copy1.Version)
	}

	copy2.State.Draft.Title = "第二份"
	if err := store.Update(ctx, copy2); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("过期版本应返回 ErrOptimisticLock，实际 %v", err)
	}

	got, _ := store.Get(ctx, "d-2")
	if got.State.Draft.Title != "第一份" {
		t.Errorf("冲突的更新不应生效，实际标题 %q", got.State.Draft.Title)
	}
}

func TestMemoryDraftStore_IsolatesCallerMutation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore(time.Hour)
	s := newTestSession("d-3")
	s.State.Errors = map[wizard.Field]string{wizard.FieldTitle: "此项为必填项"}
	_ = store.Create(ctx, s)

	s.State.Errors[wizard.FieldDescription] = "外部修改"

	got, _ := store.Get(ctx, "d-3")
	if _, ok := got.State.Errors[wizard.FieldDescription]; ok {
		t.Error("调用方修改不应影响存储内的会话")
	}
}

func TestMemoryDraftStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore(time.Minute).(*memoryDraftStore)
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Create(ctx, newTestSession("d-4"))

	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "d-4"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("过期会话应返回 ErrDraftNotFound，实际 %v", err)
	}
	if err := store.Update(ctx, newTestSession("d-4")); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("更新过期会话应返回 ErrDraftNotFound，实际 %v", err)
	}
}

func TestMemoryDraftStore_CreateSweepsAbandoned(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore(time.Minute).(*memoryDraftStore)
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Create(ctx, newTestSession("d-old-1"))
	_ = store.Create(ctx, newTestSession("d-old-2"))

	now = now.Add(2 * time.Minute)
	if err := store.Create(ctx, newTestSession("d-new")); err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if len(store.items) != 1 {
		t.Errorf("过期会话应在创建时被清理，剩余 %d 个", len(store.items))
	}
	if _, ok := store.items["d-new"]; !ok {
		t.Error("新会话应保留")
	}
}

func TestMemoryDraftStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDraftStore(time.Hour)
	_ = store.Create(ctx, newTestSession("d-5"))

	if err := store.Delete(ctx, "d-5"); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := store.Get(ctx, "d-5"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("删除后应返回 ErrDraftNotFound，实际 %v", err)
	}
}
