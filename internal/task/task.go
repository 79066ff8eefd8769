package task

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Status represents a task status.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Label returns the status as users type it (in-progress rather than in_progress).
func (s Status) Label() string {
	return strings.ReplaceAll(string(s), "_", "-")
}

// Record is a single persisted task.
type Record struct {
	ID          int       `json:"id" validate:"gt=0"`
	Description string    `json:"description" validate:"required"`
	Status      Status    `json:"status" validate:"required,oneof=todo in_progress done"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// New builds a todo record with both timestamps set to now.
func New(id int, description string, now time.Time) Record {
	now = now.UTC()
	return Record{
		ID:          id,
		Description: description,
		Status:      StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsZero returns true if the record is empty (has no ID).
func (r Record) IsZero() bool {
	return r.ID == 0
}

// Touch returns a copy of r with UpdatedAt refreshed to now.
// UpdatedAt never moves backwards, even if the clock does.
func (r Record) Touch(now time.Time) Record {
	now = now.UTC()
	if now.Before(r.UpdatedAt) {
		now = r.UpdatedAt
	}
	r.UpdatedAt = now
	return r
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the record's fields. path prefixes error locations,
// e.g. "[3]" for the fourth record of a collection.
func (r Record) Validate(path string) error {
	if err := validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return &ValidationError{Path: path, Err: err}
		}
		fe := fieldErrs[0]
		return &ValidationError{
			Path: joinPath(path, fe.Field()),
			Err:  fieldError(fe),
		}
	}
	if strings.TrimSpace(r.Description) == "" {
		return &ValidationError{Path: joinPath(path, "description"), Err: fmt.Errorf("must not be blank")}
	}
	if r.CreatedAt.IsZero() {
		return &ValidationError{Path: joinPath(path, "createdAt"), Err: fmt.Errorf("missing required field")}
	}
	if r.UpdatedAt.IsZero() {
		return &ValidationError{Path: joinPath(path, "updatedAt"), Err: fmt.Errorf("missing required field")}
	}
	if r.UpdatedAt.Before(r.CreatedAt) {
		return &ValidationError{Path: joinPath(path, "updatedAt"), Err: fmt.Errorf("earlier than createdAt")}
	}
	return nil
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("missing required field")
	case "gt":
		return fmt.Errorf("must be greater than %s, got %v", fe.Param(), fe.Value())
	case "oneof":
		return fmt.Errorf("invalid value %q, must be one of: %s", fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Errorf("failed %q check", fe.Tag())
	}
}

func joinPath(prefix, field string) string {
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}

// Collection is the ordered set of records persisted as one unit.
// Methods return new collections and leave the receiver untouched.
type Collection []Record

// Clone returns a copy that shares no backing array with c.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Find returns the record with id.
func (c Collection) Find(id int) (Record, bool) {
	for _, r := range c {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// WithAdded returns a new collection with r appended.
func (c Collection) WithAdded(r Record) Collection {
	out := make(Collection, len(c), len(c)+1)
	copy(out, c)
	return append(out, r)
}

// WithUpdated returns a new collection where the record with id is replaced
// by fn's result. The second result is false if no record has id.
func (c Collection) WithUpdated(id int, fn func(Record) Record) (Collection, bool) {
	for i := range c {
		if c[i].ID != id {
			continue
		}
		out := c.Clone()
		out[i] = fn(out[i])
		return out, true
	}
	return c, false
}

// Without returns a new collection with the record id removed.
// The second result is false if no record has id.
func (c Collection) Without(id int) (Collection, bool) {
	for i := range c {
		if c[i].ID != id {
			continue
		}
		out := make(Collection, 0, len(c)-1)
		out = append(out, c[:i]...)
		out = append(out, c[i+1:]...)
		return out, true
	}
	return c, false
}

// Filter returns the records with the given status, in collection order.
func (c Collection) Filter(status Status) Collection {
	out := make(Collection, 0, len(c))
	for _, r := range c {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// Sorted returns a copy ordered by ascending id.
func (c Collection) Sorted() Collection {
	out := c.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Counts returns the number of records per status.
func (c Collection) Counts() map[Status]int {
	counts := map[Status]int{
		StatusTodo:       0,
		StatusInProgress: 0,
		StatusDone:       0,
	}
	for _, r := range c {
		counts[r.Status]++
	}
	return counts
}

// Validate checks every record and that ids are unique.
func (c Collection) Validate() error {
	seen := make(map[int]int, len(c))
	for i, r := range c {
		path := fmt.Sprintf("[%d]", i)
		if err := r.Validate(path); err != nil {
			return err
		}
		if prev, dup := seen[r.ID]; dup {
			return &ValidationError{
				Path: path + ".id",
				Err:  fmt.Errorf("duplicate id %d (also at [%d])", r.ID, prev),
			}
		}
		seen[r.ID] = i
	}
	return nil
}
