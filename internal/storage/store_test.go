package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/san-kum/neurodyn/internal/runner"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	st := New(t.TempDir())
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleResult() *runner.Result {
	return &runner.Result{
		Times:    []float64{0.01, 0.02, 0.03},
		Monitors: []string{"V", "spike"},
		Records: map[string][][]float64{
			"V":     {{-65, -64.5}, {-60.1234567891, -30}, {20.5, 1e-9}},
			"spike": {{0, 0}, {0, 1}, {1, 0}},
		},
		StepsTaken: 3,
		Dt:         0.01,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	meta := RunMetadata{
		Model:    "hh",
		Method:   "rk4",
		Seed:     42,
		Size:     2,
		Dt:       0.01,
		Duration: 0.03,
		Input:    10,
		Params:   map[string]float64{"gNa": 120},
		Metrics:  map[string]float64{"spikes": 2},
	}
	runID, err := st.Save(ctx, meta, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Model != "hh" || loaded.Seed != 42 || loaded.Steps != 3 {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if loaded.Params["gNa"] != 120 || loaded.Metrics["spikes"] != 2 {
		t.Errorf("maps not persisted: %+v", loaded)
	}
	if len(loaded.Monitors) != 2 || loaded.Monitors[0] != "V" {
		t.Errorf("monitors = %v", loaded.Monitors)
	}

	res, err := st.LoadRecords(runID)
	if err != nil {
		t.Fatalf("load records failed: %v", err)
	}
	want := sampleResult()
	if res.StepsTaken != 3 || len(res.Times) != 3 || res.Times[2] != 0.03 {
		t.Fatalf("times = %v", res.Times)
	}
	for _, name := range want.Monitors {
		for k := range want.Times {
			for i, v := range want.Records[name][k] {
				if got := res.Records[name][k][i]; got != v {
					t.Errorf("%s[%d] at step %d = %v, want %v", name, i, k, got, v)
				}
			}
		}
	}
}

func TestStoreList(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	runs, err := st.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected empty index, got %d runs", len(runs))
	}

	var ids []string
	for _, model := range []string{"hh", "ou", "mackey_glass"} {
		id, err := st.Save(ctx, RunMetadata{Model: model, Method: "euler", Seed: 1 << 63}, sampleResult())
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err = st.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Errorf("expected newest first, got %v", []string{runs[0].ID, runs[1].ID, runs[2].ID})
	}
	if runs[0].Seed != 1<<63 || runs[0].Steps != 3 {
		t.Errorf("index lost fields: %+v", runs[0])
	}
}

func TestStoreListOrdersBySubsecondTime(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var ids []string
	for _, at := range []time.Time{base, base.Add(100 * time.Millisecond), base.Add(time.Second)} {
		st.now = func() time.Time { return at }
		id, err := st.Save(ctx, RunMetadata{Model: "hh", Method: "rk4"}, sampleResult())
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	runs, err := st.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{runs[0].ID, runs[1].ID, runs[2].ID}
	if got[0] != ids[2] || got[1] != ids[1] || got[2] != ids[0] {
		t.Errorf("expected newest first %v, got %v", []string{ids[2], ids[1], ids[0]}, got)
	}
	if !runs[2].Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want %v", runs[2].Timestamp, base)
	}
}

func TestStoreSaveCleansUpOnIndexFailure(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	if _, err := st.db.ExecContext(ctx, `DROP TABLE runs`); err != nil {
		t.Fatal(err)
	}

	if _, err := st.Save(ctx, RunMetadata{Model: "hh", Method: "rk4"}, sampleResult()); err == nil {
		t.Fatal("expected index error")
	}
	entries, err := os.ReadDir(st.baseDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.IsDir() {
			t.Errorf("run directory %s left behind", e.Name())
		}
	}
}

func TestStoreDelete(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	id, err := st.Save(ctx, RunMetadata{Model: "hh", Method: "rk4"}, sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Load(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a second delete, got %v", err)
	}
}

func TestStoreNotFound(t *testing.T) {
	st := newStore(t)
	if _, err := st.Load("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.LoadRecords("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreRequiresInit(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Save(context.Background(), RunMetadata{}, sampleResult()); err == nil {
		t.Error("expected error before Init")
	}
	if err := st.Close(); err != nil {
		t.Errorf("closing an unopened store: %v", err)
	}
}
