package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/domain/memory"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.User {
	tb.Helper()
	now := time.Now().UTC()
	u := &types.User{
		ID:          uuid.New(),
		Email:       fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		DisplayName: name,
		Theme:       "light",
		LastSeenAt:  now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedThread(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string, updatedAt time.Time) *types.ChatThread {
	tb.Helper()
	th := &types.ChatThread{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Mode:      "standard",
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed thread: %v", err)
	}
	return th
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, th *types.ChatThread, role, content string) *types.ChatMessage {
	tb.Helper()
	th.LastSeq++
	m := &types.ChatMessage{
		ThreadID:  th.ID,
		UserID:    th.UserID,
		Seq:       th.LastSeq,
		Role:      role,
		Content:   content,
		Sources:   datatypes.JSONSlice[types.Source]{},
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	if err := tx.WithContext(ctx).Model(&types.ChatThread{}).Where("id = ?", th.ID).
		UpdateColumns(map[string]interface{}{"last_seq": th.LastSeq, "message_count": gorm.Expr("message_count + 1")}).Error; err != nil {
		tb.Fatalf("seed message bump: %v", err)
	}
	return m
}

// SeedProfile writes an opted-in profile unless optIn is false.
func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, optIn bool, traditions []string, traits types.TraitSet) *types.CommunityProfile {
	tb.Helper()
	if traits == nil {
		traits = types.TraitSet{}
	}
	if traditions == nil {
		traditions = []string{}
	}
	p := &types.CommunityProfile{
		UserID:              userID,
		DisplayName:         "seeker-" + userID.String()[:6],
		PreferredTraditions: traditions,
		OptIn:               optIn,
		Traits:              datatypes.NewJSONType(traits),
		LastActiveAt:        time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedMemory(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, themes []string, traits types.TraitSet, exchanges int) *types.UserMemory {
	tb.Helper()
	m := memory.NewUserMemory(userID)
	m.Themes = themes
	if traits != nil {
		m.Traits = datatypes.NewJSONType(traits)
	}
	m.ExchangeCount = exchanges
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed memory: %v", err)
	}
	return m
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
