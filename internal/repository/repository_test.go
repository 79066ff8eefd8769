package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nibzard/tasktracker-go/internal/store"
	"github.com/nibzard/tasktracker-go/internal/task"
)

// fakeClock returns increasing timestamps, one second apart.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestRepo(t *testing.T, opts ...Option) (*Repository, *store.FileStore) {
	t.Helper()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "tasks.json"))
	opts = append([]Option{WithClock(newFakeClock().Now)}, opts...)
	repo := New(st, opts...)
	t.Cleanup(func() { repo.Close() })
	return repo, st
}

func mustAdd(t *testing.T, repo *Repository, description string) int {
	t.Helper()
	id, err := repo.Add(context.Background(), description)
	if err != nil {
		t.Fatalf("Add(%q) failed: %v", description, err)
	}
	return id
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	repo, st := newTestRepo(t)

	for want := 1; want <= 5; want++ {
		if got := mustAdd(t, repo, "task"); got != want {
			t.Errorf("Add: got id %d, want %d", got, want)
		}
	}

	tasks, err := st.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 5 {
		t.Errorf("stored tasks: got %d, want 5", len(tasks))
	}
}

func TestAddCreatesTodoRecord(t *testing.T) {
	repo, st := newTestRepo(t)

	if ok, _ := st.Exists(); ok {
		t.Fatal("file should not exist before the first add")
	}
	id := mustAdd(t, repo, "buy milk")
	if ok, _ := st.Exists(); !ok {
		t.Fatal("Add should create the file")
	}

	tasks, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := tasks.Find(id)
	if !ok {
		t.Fatalf("task %d not found", id)
	}
	if rec.Status != task.StatusTodo {
		t.Errorf("Status: got %s, want todo", rec.Status)
	}
	if rec.Description != "buy milk" {
		t.Errorf("Description: got %q", rec.Description)
	}
	if rec.CreatedAt.IsZero() || !rec.CreatedAt.Equal(rec.UpdatedAt) {
		t.Errorf("timestamps: createdAt %v updatedAt %v", rec.CreatedAt, rec.UpdatedAt)
	}
}

func TestAddNeverReusesDeletedIDs(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	id1 := mustAdd(t, repo, "first")
	id2 := mustAdd(t, repo, "second")
	if ok, err := repo.Delete(ctx, id1); !ok || err != nil {
		t.Fatalf("Delete(%d): got (%v, %v)", id1, ok, err)
	}
	if id3 := mustAdd(t, repo, "third"); id3 != id2+1 {
		t.Errorf("Add after delete: got %d, want %d", id3, id2+1)
	}
}

func TestAddRejectsBlankDescription(t *testing.T) {
	repo, st := newTestRepo(t)

	id, err := repo.Add(context.Background(), "   ")
	if id != 0 || !errors.Is(err, ErrInvalidDescription) {
		t.Errorf("Add(blank): got (%d, %v), want (0, ErrInvalidDescription)", id, err)
	}
	if ok, _ := st.Exists(); ok {
		t.Error("rejected add must not create the file")
	}
}

func TestUpdate(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	id := mustAdd(t, repo, "buy milk")

	before, _ := repo.GetAll(ctx)
	old, _ := before.Find(id)

	found, err := repo.Update(ctx, id, "buy oat milk")
	if !found || err != nil {
		t.Fatalf("Update: got (%v, %v)", found, err)
	}

	after, _ := repo.GetAll(ctx)
	rec, _ := after.Find(id)
	if rec.Description != "buy oat milk" {
		t.Errorf("Description: got %q", rec.Description)
	}
	if !rec.CreatedAt.Equal(old.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", old.CreatedAt, rec.CreatedAt)
	}
	if !rec.UpdatedAt.After(old.UpdatedAt) {
		t.Errorf("UpdatedAt not refreshed: %v -> %v", old.UpdatedAt, rec.UpdatedAt)
	}

	if _, err := repo.Update(ctx, id, ""); !errors.Is(err, ErrInvalidDescription) {
		t.Errorf("Update(blank): expected ErrInvalidDescription, got %v", err)
	}
}

func TestMissingIDIsNoOp(t *testing.T) {
	repo, st := newTestRepo(t)
	ctx := context.Background()
	mustAdd(t, repo, "buy milk")
	mustAdd(t, repo, "pay bill")

	before, err := os.ReadFile(st.Path())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		call func() (bool, error)
	}{
		{"update", func() (bool, error) { return repo.Update(ctx, 42, "x") }},
		{"delete", func() (bool, error) { return repo.Delete(ctx, 42) }},
		{"set status", func() (bool, error) { return repo.SetStatus(ctx, "mark-done", 42) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := tt.call()
			if found || err != nil {
				t.Errorf("got (%v, %v), want (false, nil)", found, err)
			}
			after, _ := os.ReadFile(st.Path())
			if string(before) != string(after) {
				t.Error("file changed for a missing id")
			}
		})
	}
}

func TestOperationsOnMissingStore(t *testing.T) {
	repo, st := newTestRepo(t)
	ctx := context.Background()

	if found, err := repo.Delete(ctx, 1); found || err != nil {
		t.Errorf("Delete: got (%v, %v), want (false, nil)", found, err)
	}
	if found, err := repo.SetStatus(ctx, "mark-done", 1); found || err != nil {
		t.Errorf("SetStatus: got (%v, %v), want (false, nil)", found, err)
	}
	if found, err := repo.Update(ctx, 1, "x"); found || err != nil {
		t.Errorf("Update: got (%v, %v), want (false, nil)", found, err)
	}
	tasks, err := repo.GetAll(ctx)
	if err != nil || len(tasks) != 0 {
		t.Errorf("GetAll: got (%d tasks, %v), want empty", len(tasks), err)
	}
	tasks, err = repo.GetByStatus(ctx, "done")
	if err != nil || len(tasks) != 0 {
		t.Errorf("GetByStatus: got (%d tasks, %v), want empty", len(tasks), err)
	}
	if ok, _ := st.Exists(); ok {
		t.Error("read and failed mutations must not create the file")
	}
}

func TestSetStatusTransitions(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	id := mustAdd(t, repo, "buy milk")

	// Every transition is allowed, including todo -> done directly.
	steps := []struct {
		token string
		want  task.Status
	}{
		{"mark-done", task.StatusDone},
		{"mark-in-progress", task.StatusInProgress},
		{"mark-todo", task.StatusTodo},
		{"mark-in-progress", task.StatusInProgress},
		{"mark-done", task.StatusDone},
		{"mark-done", task.StatusDone},
		{"mark-todo", task.StatusTodo},
	}

	prev, _ := repo.GetAll(ctx)
	last, _ := prev.Find(id)
	for _, step := range steps {
		found, err := repo.SetStatus(ctx, step.token, id)
		if !found || err != nil {
			t.Fatalf("SetStatus(%s): got (%v, %v)", step.token, found, err)
		}
		tasks, _ := repo.GetAll(ctx)
		rec, _ := tasks.Find(id)
		if rec.Status != step.want {
			t.Errorf("after %s: status %s, want %s", step.token, rec.Status, step.want)
		}
		if rec.UpdatedAt.Before(last.UpdatedAt) || rec.UpdatedAt.Equal(last.UpdatedAt) {
			t.Errorf("after %s: UpdatedAt %v not after %v", step.token, rec.UpdatedAt, last.UpdatedAt)
		}
		if !rec.CreatedAt.Equal(last.CreatedAt) {
			t.Errorf("after %s: CreatedAt changed", step.token)
		}
		last = rec
	}
}

func TestUnknownStatusToken(t *testing.T) {
	t.Run("falls back to todo", func(t *testing.T) {
		repo, _ := newTestRepo(t)
		ctx := context.Background()
		id := mustAdd(t, repo, "buy milk")
		if _, err := repo.SetStatus(ctx, "mark-done", id); err != nil {
			t.Fatal(err)
		}

		found, err := repo.SetStatus(ctx, "mark-finished", id)
		if !found || err != nil {
			t.Fatalf("SetStatus(unknown): got (%v, %v)", found, err)
		}
		tasks, _ := repo.GetByStatus(ctx, "whatever")
		if len(tasks) != 1 || tasks[0].Status != task.StatusTodo {
			t.Errorf("expected the task back in todo, got %+v", tasks)
		}
	})

	t.Run("strict mode rejects", func(t *testing.T) {
		repo, st := newTestRepo(t, WithStrictStatus(true))
		ctx := context.Background()
		id := mustAdd(t, repo, "buy milk")
		before, _ := os.ReadFile(st.Path())

		found, err := repo.SetStatus(ctx, "mark-finished", id)
		if found || !errors.Is(err, ErrUnknownStatus) {
			t.Errorf("SetStatus: got (%v, %v), want (false, ErrUnknownStatus)", found, err)
		}
		if _, err := repo.GetByStatus(ctx, "finished"); !errors.Is(err, ErrUnknownStatus) {
			t.Errorf("GetByStatus: expected ErrUnknownStatus, got %v", err)
		}
		after, _ := os.ReadFile(st.Path())
		if string(before) != string(after) {
			t.Error("rejected status change modified the file")
		}
	})
}

func TestGetByStatusPartitionsGetAll(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		mustAdd(t, repo, "task")
	}
	repo.SetStatus(ctx, "mark-done", 2)
	repo.SetStatus(ctx, "mark-done", 5)
	repo.SetStatus(ctx, "mark-in-progress", 3)

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}

	seen := map[int]int{}
	for _, token := range []string{"todo", "in-progress", "done"} {
		subset, err := repo.GetByStatus(ctx, token)
		if err != nil {
			t.Fatal(err)
		}
		want, _ := task.ParseStatusToken(token)
		if len(subset) != len(all.Filter(want)) {
			t.Errorf("GetByStatus(%s): got %d tasks, want %d", token, len(subset), len(all.Filter(want)))
		}
		for _, rec := range subset {
			seen[rec.ID]++
		}
	}
	if len(seen) != len(all) {
		t.Errorf("union covers %d tasks, want %d", len(seen), len(all))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("task %d returned by %d filters", id, n)
		}
	}

	done, _ := repo.GetByStatus(ctx, "done")
	if len(done) != 2 || done[0].ID != 2 || done[1].ID != 5 {
		t.Errorf("done tasks: got %+v", done)
	}
}

func TestScenario(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if id := mustAdd(t, repo, "buy milk"); id != 1 {
		t.Fatalf("first add: got %d, want 1", id)
	}
	if id := mustAdd(t, repo, "pay bill"); id != 2 {
		t.Fatalf("second add: got %d, want 2", id)
	}
	if ok, err := repo.SetStatus(ctx, "mark-done", 1); !ok || err != nil {
		t.Fatalf("mark-done 1: got (%v, %v)", ok, err)
	}
	done, _ := repo.GetByStatus(ctx, "done")
	if len(done) != 1 || done[0].ID != 1 {
		t.Fatalf("done: got %+v", done)
	}
	if ok, err := repo.Delete(ctx, 2); !ok || err != nil {
		t.Fatalf("delete 2: got (%v, %v)", ok, err)
	}
	all, _ := repo.GetAll(ctx)
	if len(all) != 1 || all[0].ID != 1 {
		t.Fatalf("after delete: got %+v", all)
	}
	// Only id 1 remains, so max+1 is 2.
	if id := mustAdd(t, repo, "plan trip"); id != 2 {
		t.Errorf("add after delete: got %d, want 2", id)
	}
}

func TestCorruptStoreIsNotOverwritten(t *testing.T) {
	repo, st := newTestRepo(t)
	ctx := context.Background()

	garbage := []byte("this is not json")
	if err := os.WriteFile(st.Path(), garbage, 0644); err != nil {
		t.Fatal(err)
	}

	if id, err := repo.Add(ctx, "buy milk"); id != 0 || !errors.Is(err, store.ErrCorruptStore) {
		t.Errorf("Add: got (%d, %v), want (0, ErrCorruptStore)", id, err)
	}
	if _, err := repo.Delete(ctx, 1); !errors.Is(err, store.ErrCorruptStore) {
		t.Errorf("Delete: expected ErrCorruptStore, got %v", err)
	}
	if _, err := repo.GetAll(ctx); !errors.Is(err, store.ErrCorruptStore) {
		t.Errorf("GetAll: expected ErrCorruptStore, got %v", err)
	}

	data, _ := os.ReadFile(st.Path())
	if string(data) != string(garbage) {
		t.Error("corrupt file was overwritten")
	}
}

// failingStore wraps a store and fails saves on demand.
type failingStore struct {
	Store
	failSave bool
}

func (f *failingStore) Save(c task.Collection) error {
	if f.failSave {
		return errors.Join(store.ErrStorageUnavailable, errors.New("disk full"))
	}
	return f.Store.Save(c)
}

func TestStorageFailureLeavesNoSideEffects(t *testing.T) {
	inner := store.NewFileStore(filepath.Join(t.TempDir(), "tasks.json"))
	fs := &failingStore{Store: inner}
	repo := New(fs, WithClock(newFakeClock().Now))
	defer repo.Close()
	ctx := context.Background()

	mustAdd(t, repo, "buy milk")
	fs.failSave = true

	if id, err := repo.Add(ctx, "pay bill"); id != 0 || !errors.Is(err, store.ErrStorageUnavailable) {
		t.Errorf("Add: got (%d, %v), want (0, ErrStorageUnavailable)", id, err)
	}
	if ok, err := repo.SetStatus(ctx, "mark-done", 1); ok || !errors.Is(err, store.ErrStorageUnavailable) {
		t.Errorf("SetStatus: got (%v, %v), want (false, ErrStorageUnavailable)", ok, err)
	}

	tasks, err := inner.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Status != task.StatusTodo {
		t.Errorf("stored tasks changed: %+v", tasks)
	}
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	ids := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := repo.Add(ctx, "parallel task")
			if err != nil {
				t.Errorf("Add failed: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int]bool{}
	for id := range ids {
		if seen[id] {
			t.Errorf("id %d assigned twice", id)
		}
		seen[id] = true
	}
	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != n {
		t.Errorf("stored tasks: got %d, want %d (lost updates)", len(all), n)
	}
	for id := 1; id <= n; id++ {
		if !seen[id] {
			t.Errorf("id %d never assigned", id)
		}
	}
}

func TestCancelledContext(t *testing.T) {
	repo, st := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.Add(ctx, "buy milk"); !errors.Is(err, context.Canceled) {
		t.Errorf("Add: expected context.Canceled, got %v", err)
	}
	if ok, _ := st.Exists(); ok {
		t.Error("cancelled add must not create the file")
	}
}

func TestClose(t *testing.T) {
	repo, _ := newTestRepo(t)
	if err := repo.Close(); err != nil {
		t.Fatal(err)
	}
	// Close is idempotent
	if err := repo.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Add(context.Background(), "late"); !errors.Is(err, ErrClosed) {
		t.Errorf("Add after Close: expected ErrClosed, got %v", err)
	}
	if _, err := repo.GetAll(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("GetAll after Close: expected ErrClosed, got %v", err)
	}
}

func TestListHelp(t *testing.T) {
	repo, _ := newTestRepo(t)
	help := repo.ListHelp()
	if len(help) == 0 {
		t.Fatal("expected help entries")
	}
	for _, cmd := range []string{"add", "update", "delete", "mark-todo", "mark-in-progress", "mark-done", "list", "help"} {
		found := false
		for _, line := range help {
			if strings.HasPrefix(line, cmd+" ") {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("help is missing %q", cmd)
		}
	}

	help[0] = "changed"
	if repo.ListHelp()[0] == "changed" {
		t.Error("ListHelp returned shared state")
	}
}

func TestNotifyReportsSavedChanges(t *testing.T) {
	var events []Event
	repo, _ := newTestRepo(t, WithNotify(func(_ context.Context, ev Event) {
		events = append(events, ev)
	}))
	ctx := context.Background()

	id := mustAdd(t, repo, "buy milk")
	if _, err := repo.Update(ctx, id, "buy oat milk"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.SetStatus(ctx, "mark-done", id); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Delete(ctx, id); err != nil {
		t.Fatal(err)
	}
	// Misses and rejected input are not reported
	if _, err := repo.Delete(ctx, 99); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Add(ctx, "  "); !errors.Is(err, ErrInvalidDescription) {
		t.Fatalf("expected ErrInvalidDescription, got %v", err)
	}

	want := []Event{
		{Op: OpAdd, ID: id, Status: task.StatusTodo},
		{Op: OpUpdate, ID: id, Status: task.StatusTodo},
		{Op: OpStatus, ID: id, Status: task.StatusDone},
		{Op: OpDelete, ID: id, Status: task.StatusDone},
	}
	if len(events) != len(want) {
		t.Fatalf("events: got %+v, want %+v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, events[i], want[i])
		}
	}
}
