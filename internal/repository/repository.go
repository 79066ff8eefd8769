// Package repository implements task CRUD and status changes on top of a
// whole-collection store.
//
// Every operation loads the full collection, derives a new collection value,
// and writes it back only when something changed. All operations run on one
// worker goroutine owned by the Repository, so read-modify-write cycles from
// concurrent callers never interleave.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktracker-go/internal/store"
	"github.com/nibzard/tasktracker-go/internal/task"
)

var (
	// ErrClosed is returned by operations on a closed Repository.
	ErrClosed = errors.New("repository closed")

	// ErrInvalidDescription is returned for blank descriptions.
	ErrInvalidDescription = errors.New("description must not be blank")

	// ErrUnknownStatus is returned for unrecognized status tokens in strict mode.
	ErrUnknownStatus = errors.New("unknown status")
)

// Store is the whole-collection persistence the repository needs.
// *store.FileStore implements it.
type Store interface {
	Load() (task.Collection, error)
	Save(task.Collection) error
	Exists() (bool, error)
	EnsureExists() (bool, error)
}

// Change kinds reported to notifiers.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpDelete = "delete"
	OpStatus = "status"
)

// Event describes a change that has been saved.
type Event struct {
	Op     string
	ID     int
	Status task.Status
}

// Repository is the public task API.
type Repository struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
	strict bool
	notify []func(context.Context, Event)

	requests  chan *request
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type request struct {
	ctx  context.Context
	fn   func() error
	err  error
	done chan struct{}
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger for operation events.
func WithLogger(l *log.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithStrictStatus makes unrecognized status tokens an error instead of
// falling back to todo.
func WithStrictStatus(strict bool) Option {
	return func(r *Repository) {
		r.strict = strict
	}
}

// WithNotify registers fn to be called after every saved change. It runs on
// the calling goroutine, after the worker has finished the operation.
func WithNotify(fn func(context.Context, Event)) Option {
	return func(r *Repository) {
		if fn != nil {
			r.notify = append(r.notify, fn)
		}
	}
}

// New starts a repository over st. Call Close to stop its worker.
func New(st Store, opts ...Option) *Repository {
	r := &Repository{
		store:    st,
		logger:   log.New(io.Discard),
		now:      time.Now,
		requests: make(chan *request),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(1)
	go r.worker()
	return r
}

// Close stops the worker after the operation in flight, if any, finishes.
func (r *Repository) Close() error {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
	r.wg.Wait()
	return nil
}

func (r *Repository) worker() {
	defer r.wg.Done()
	for {
		select {
		case req := <-r.requests:
			if err := req.ctx.Err(); err != nil {
				req.err = err
			} else {
				req.err = req.fn()
			}
			close(req.done)
		case <-r.closed:
			return
		}
	}
}

// do runs fn on the worker. Once fn has been accepted it runs to completion,
// so a caller never sees an error for a write that happened.
func (r *Repository) do(ctx context.Context, fn func() error) error {
	req := &request{ctx: ctx, fn: fn, done: make(chan struct{})}
	select {
	case <-r.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case r.requests <- req:
	}
	<-req.done
	return req.err
}

// Add stores a new todo task and returns its id. On failure the id is 0 and
// the file is unchanged.
func (r *Repository) Add(ctx context.Context, description string) (int, error) {
	if strings.TrimSpace(description) == "" {
		return 0, r.fail("add", ErrInvalidDescription)
	}

	var id int
	err := r.do(ctx, func() error {
		ok, err := r.store.EnsureExists()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: task file is not usable", store.ErrStorageUnavailable)
		}

		tasks, err := r.store.Load()
		if err != nil {
			return err
		}
		rec := task.New(task.NextID(tasks), description, r.now())
		if err := r.store.Save(tasks.WithAdded(rec)); err != nil {
			return err
		}
		id = rec.ID
		return nil
	})
	if err != nil {
		return 0, r.fail("add", err)
	}

	r.logger.Info("task added", "id", id)
	r.emit(ctx, Event{Op: OpAdd, ID: id, Status: task.StatusTodo})
	return id, nil
}

// Update replaces the description of task id. It returns false, with a nil
// error, if no such task exists.
func (r *Repository) Update(ctx context.Context, id int, description string) (bool, error) {
	if strings.TrimSpace(description) == "" {
		return false, r.fail("update", ErrInvalidDescription, "id", id)
	}

	var status task.Status
	found, err := r.mutate(ctx, func(tasks task.Collection) (task.Collection, bool) {
		return tasks.WithUpdated(id, func(rec task.Record) task.Record {
			rec.Description = description
			status = rec.Status
			return rec.Touch(r.now())
		})
	})
	if err != nil {
		return false, r.fail("update", err, "id", id)
	}
	if found {
		r.logger.Info("task updated", "id", id)
		r.emit(ctx, Event{Op: OpUpdate, ID: id, Status: status})
	}
	return found, nil
}

// Delete removes task id. It returns false, with a nil error, if the file
// does not exist yet or no such task exists.
func (r *Repository) Delete(ctx context.Context, id int) (bool, error) {
	var removed task.Record
	found, err := r.mutate(ctx, func(tasks task.Collection) (task.Collection, bool) {
		removed, _ = tasks.Find(id)
		return tasks.Without(id)
	})
	if err != nil {
		return false, r.fail("delete", err, "id", id)
	}
	if found {
		r.logger.Info("task deleted", "id", id)
		r.emit(ctx, Event{Op: OpDelete, ID: id, Status: removed.Status})
	}
	return found, nil
}

// SetStatus sets the status named by token (a mark command such as
// "mark-done") on task id. Unrecognized tokens fall back to todo unless the
// repository is strict. It returns false, with a nil error, if the task does
// not exist.
func (r *Repository) SetStatus(ctx context.Context, token string, id int) (bool, error) {
	status, err := r.status(token)
	if err != nil {
		return false, r.fail("set status", err, "id", id)
	}

	found, err := r.mutate(ctx, func(tasks task.Collection) (task.Collection, bool) {
		return tasks.WithUpdated(id, func(rec task.Record) task.Record {
			rec.Status = status
			return rec.Touch(r.now())
		})
	})
	if err != nil {
		return false, r.fail("set status", err, "id", id)
	}
	if found {
		r.logger.Info("task status set", "id", id, "status", status)
		r.emit(ctx, Event{Op: OpStatus, ID: id, Status: status})
	}
	return found, nil
}

// GetAll returns every task, in file order.
func (r *Repository) GetAll(ctx context.Context) (task.Collection, error) {
	var tasks task.Collection
	err := r.do(ctx, func() error {
		var err error
		tasks, err = r.store.Load()
		return err
	})
	if err != nil {
		return task.Collection{}, r.fail("list", err)
	}
	return tasks.Clone(), nil
}

// GetByStatus returns the tasks whose status matches the filter token
// (todo, in-progress or done), using the same fallback as SetStatus.
func (r *Repository) GetByStatus(ctx context.Context, token string) (task.Collection, error) {
	status, err := r.status(token)
	if err != nil {
		return task.Collection{}, r.fail("list", err)
	}

	tasks, err := r.GetAll(ctx)
	if err != nil {
		return task.Collection{}, err
	}
	return tasks.Filter(status), nil
}

// ListHelp returns the command catalogue.
func (r *Repository) ListHelp() []string {
	return HelpCommands()
}

// mutate loads the collection, applies fn and saves the result when fn
// reports a match. A missing or empty file never matches.
func (r *Repository) mutate(ctx context.Context, fn func(task.Collection) (task.Collection, bool)) (bool, error) {
	var found bool
	err := r.do(ctx, func() error {
		exists, err := r.store.Exists()
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}

		tasks, err := r.store.Load()
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}

		next, ok := fn(tasks)
		if !ok {
			return nil
		}
		if err := r.store.Save(next); err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func (r *Repository) status(token string) (task.Status, error) {
	status, ok := task.ParseStatusToken(token)
	if ok {
		return status, nil
	}
	if r.strict {
		return "", fmt.Errorf("%w %q", ErrUnknownStatus, token)
	}
	r.logger.Warn("unrecognized status token, using todo", "token", token)
	return status, nil
}

func (r *Repository) emit(ctx context.Context, ev Event) {
	for _, fn := range r.notify {
		fn(ctx, ev)
	}
}

func (r *Repository) fail(op string, err error, keyvals ...interface{}) error {
	keyvals = append([]interface{}{"op", op, "err", err}, keyvals...)
	r.logger.Error("task operation failed", keyvals...)
	return err
}
