package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/archisdhar8/religiousAI/internal/data/repos/testutil"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	id := uuid.New()
	u, created, err := repo.EnsureUser(dbc, &types.User{ID: id, Email: "userrepo@example.com", DisplayName: "Ruth"})
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	if !created || u.ID != id {
		t.Fatalf("EnsureUser: want created id=%s got created=%v id=%s", id, created, u.ID)
	}

	again, created, err := repo.EnsureUser(dbc, &types.User{ID: id, Email: "userrepo@example.com", DisplayName: "Other"})
	if err != nil {
		t.Fatalf("EnsureUser again: %v", err)
	}
	if created || again.DisplayName != "Ruth" {
		t.Fatalf("EnsureUser again: want existing row got created=%v name=%q", created, again.DisplayName)
	}

	if _, _, err := repo.EnsureUser(dbc, &types.User{ID: uuid.New(), Email: "userrepo@example.com"}); err == nil {
		t.Fatalf("EnsureUser with taken email: expected error")
	}

	if err := repo.UpdateFields(dbc, id, map[string]interface{}{"default_tradition": "buddhism"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByID(dbc, id)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if got.DefaultTradition != "buddhism" {
		t.Fatalf("DefaultTradition: want=buddhism got=%q", got.DefaultTradition)
	}

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID missing: want nil got=%v err=%v", missing, err)
	}

	now := time.Now().UTC()
	touched, err := repo.TouchLastSeen(dbc, id, now.Add(2*time.Minute), time.Minute)
	if err != nil || !touched {
		t.Fatalf("TouchLastSeen: want touched got=%v err=%v", touched, err)
	}
	touched, err = repo.TouchLastSeen(dbc, id, now.Add(2*time.Minute+10*time.Second), time.Minute)
	if err != nil || touched {
		t.Fatalf("TouchLastSeen within interval: want untouched got=%v err=%v", touched, err)
	}

	rows, err := repo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
}
