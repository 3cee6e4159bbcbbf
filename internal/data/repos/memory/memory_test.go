package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/archisdhar8/religiousAI/internal/data/repos/testutil"
	types "github.com/archisdhar8/religiousAI/internal/domain"
	memorydomain "github.com/archisdhar8/religiousAI/internal/domain/memory"
	"github.com/archisdhar8/religiousAI/internal/platform/dbctx"
)

func TestUserMemoryRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewUserMemoryRepo(db, testutil.Logger(t))
	userID := uuid.New()

	none, err := repo.GetByUserID(dbc, userID)
	if err != nil || none != nil {
		t.Fatalf("GetByUserID before write: want nil got=%v err=%v", none, err)
	}

	m := memorydomain.NewUserMemory(userID)
	m.Themes = []string{"forgiveness", "grief"}
	ts := types.TraitSet{}
	ts.Add("seeking_support_for", "grief")
	m.Traits = datatypes.NewJSONType(ts)
	m.ExchangeCount = 3
	if err := repo.Upsert(dbc, m); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}

	m.Themes = []string{"forgiveness", "grief", "hope"}
	m.ExchangeCount = 4
	if err := repo.Upsert(dbc, m); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	got, err := repo.LockByUserID(dbc, userID)
	if err != nil || got == nil {
		t.Fatalf("LockByUserID: got=%v err=%v", got, err)
	}
	if len(got.Themes) != 3 || got.ExchangeCount != 4 {
		t.Fatalf("Upsert update: want 3 themes and 4 exchanges got=%v/%d", got.Themes, got.ExchangeCount)
	}
	if v := got.TraitSet().Values(types.TraitCategory("seeking_support_for")); len(v) != 1 || v[0] != "grief" {
		t.Fatalf("traits round trip: want=[grief] got=%v", v)
	}

	at := time.Now().UTC()
	if err := repo.RecordVisit(dbc, userID, at); err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}
	got, _ = repo.GetByUserID(dbc, userID)
	if got.VisitCount != 1 || got.LastVisitAt == nil {
		t.Fatalf("RecordVisit: want count=1 got=%d at=%v", got.VisitCount, got.LastVisitAt)
	}

	fresh := uuid.New()
	if err := repo.RecordVisit(dbc, fresh, at); err != nil {
		t.Fatalf("RecordVisit new user: %v", err)
	}
	rows, err := repo.GetByUserIDs(dbc, []uuid.UUID{userID, fresh})
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByUserIDs: want 2 got=%d err=%v", len(rows), err)
	}
}
