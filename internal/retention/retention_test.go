package retention

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"noticeboard/pkg/config"
	"noticeboard/pkg/models"
	"noticeboard/pkg/store"
	"noticeboard/pkg/uploads"
)

func newTestSweeper(t *testing.T, minAge time.Duration) (*Sweeper, *store.Store, *uploads.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	up, err := uploads.New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("open uploads: %v", err)
	}
	cfg := config.RetentionConfig{Enabled: true, MinAge: config.Duration(minAge)}
	return New(cfg, st, up), st, up
}

// age backdates a stored upload's mtime so the sweep sees it as old.
func age(t *testing.T, up *uploads.Store, ref string, by time.Duration) {
	t.Helper()
	past := time.Now().Add(-by)
	if err := os.Chtimes(filepath.Join(up.Dir(), ref), past, past); err != nil {
		t.Fatalf("backdate %s: %v", ref, err)
	}
}

func TestSweepRemovesOnlyOldOrphans(t *testing.T) {
	sw, st, up := newTestSweeper(t, time.Minute)

	orphanOld, err := up.Save(strings.NewReader("orphan"), "orphan.bin")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	orphanNew, err := up.Save(strings.NewReader("fresh"), "fresh.bin")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	referenced, err := up.Save(strings.NewReader("kept"), "kept.bin")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	age(t, up, orphanOld, time.Hour)
	age(t, up, referenced, time.Hour)

	m := models.Message{AuthorID: "adm-1", Kind: models.KindFile, AttachmentRef: referenced}
	if err := st.InsertMessage(&m); err != nil {
		t.Fatalf("insert message: %v", err)
	}

	if err := sw.RunOnce(); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	files, err := up.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, ok := files[orphanOld]; ok {
		t.Fatal("old orphan survived the sweep")
	}
	if _, ok := files[orphanNew]; !ok {
		t.Fatal("fresh upload was swept inside the min-age window")
	}
	if _, ok := files[referenced]; !ok {
		t.Fatal("referenced attachment was swept")
	}
}

func TestSweepOnEmptyDirIsNoop(t *testing.T) {
	sw, _, _ := newTestSweeper(t, time.Minute)
	if err := sw.RunOnce(); err != nil {
		t.Fatalf("sweep on empty dir: %v", err)
	}
}

func TestStartRejectsBadCron(t *testing.T) {
	sw, _, _ := newTestSweeper(t, time.Minute)
	sw.cfg.Cron = "not a cron"
	if _, err := sw.Start(t.Context()); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestStartDisabledIsNoop(t *testing.T) {
	sw, _, _ := newTestSweeper(t, time.Minute)
	sw.cfg.Enabled = false
	cancel, err := sw.Start(t.Context())
	if err != nil {
		t.Fatalf("start disabled: %v", err)
	}
	cancel()
}
