// Package repository is the only way services touch stored records.
// Every method takes the acting tenant first and conjoins it with all other filters.
package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
)

// ErrDuplicate is returned by Insert and ConditionalUpdate when a unique index rejects the row
var ErrDuplicate = errors.New("duplicate record")

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
var orderPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*( (asc|desc|ASC|DESC))?$`)

// Repository is the tenant-scoped contract for one record type
type Repository[T any] interface {
	FindOne(ctx context.Context, tenantID, id uuid.UUID) (*T, error)
	Find(ctx context.Context, tenantID uuid.UUID, conds Conditions, page PageRequest) ([]T, error)
	Count(ctx context.Context, tenantID uuid.UUID, conds Conditions) (int64, error)
	ConditionalUpdate(ctx context.Context, tenantID, id uuid.UUID, match Conditions, patch Patch) (*T, error)
	Insert(ctx context.Context, tenantID uuid.UUID, entity *T) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Store groups the repositories of every tenant-scoped record
type Store interface {
	WorkOrders() Repository[models.WorkOrder]
	Machines() Repository[models.Machine]
	Users() Repository[models.User]
	Plans() Repository[models.PreventivePlan]
	Documents() Repository[models.Document]
	AuditLogs() Repository[models.AuditLog]
	// Transact runs fn against a Store bound to a single transaction
	Transact(ctx context.Context, fn func(Store) error) error
}

// Cond is a single column predicate. One value means equality, several mean IN.
type Cond struct {
	Column string
	Values []interface{}
	Null   bool
}

// Conditions are always conjoined
type Conditions []Cond

// Eq matches column = value
func Eq(column string, value interface{}) Cond {
	return Cond{Column: column, Values: []interface{}{value}}
}

// In matches column IN values
func In[V any](column string, values ...V) Cond {
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Cond{Column: column, Values: vs}
}

// IsNull matches column IS NULL
func IsNull(column string) Cond {
	return Cond{Column: column, Null: true}
}

// And returns a new Conditions with extra appended
func (c Conditions) And(extra ...Cond) Conditions {
	out := make(Conditions, 0, len(c)+len(extra))
	out = append(out, c...)
	return append(out, extra...)
}

func (c Conditions) validate() error {
	for _, cond := range c {
		if !identifierPattern.MatchString(cond.Column) {
			return fmt.Errorf("invalid column %q", cond.Column)
		}
		if !cond.Null && len(cond.Values) == 0 {
			return fmt.Errorf("condition on %q has no values", cond.Column)
		}
	}
	return nil
}

// Patch maps column names to new values
type Patch map[string]interface{}

func (p Patch) validate() error {
	if len(p) == 0 {
		return errs.Invalid("patch", "must not be empty")
	}
	for column := range p {
		if column == "id" || column == "tenant_id" {
			return errs.Invalid(column, "is immutable")
		}
		if !identifierPattern.MatchString(column) {
			return fmt.Errorf("invalid column %q", column)
		}
	}
	return nil
}

func (p Patch) normalized() map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = normalize(v)
	}
	return out
}

// PageRequest selects a window of results. Page is 1-based.
type PageRequest struct {
	Page    int
	Limit   int
	OrderBy string
}

// Normalize clamps Page and Limit into their allowed ranges
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.OrderBy == "" || !orderPattern.MatchString(p.OrderBy) {
		p.OrderBy = "created_at desc"
	}
	return p
}

// orderFor checks the column of orderBy against the columns entity allows sorting on
func orderFor(entity interface{}, orderBy string) (string, error) {
	column := strings.Fields(orderBy)[0]
	allowed := []string{"created_at"}
	if s, ok := entity.(models.Sortable); ok {
		allowed = s.SortColumns()
	}
	for _, c := range allowed {
		if c == column {
			return orderBy, nil
		}
	}
	return "", errs.Invalid("order_by", "unsupported column")
}

// Offset returns the number of rows to skip
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one window of a listing
type Page[T any] struct {
	Items []T   `json:"items"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// normalize turns named string kinds into plain strings so every driver binds them the same way
func normalize(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String && rv.Type() != reflect.TypeOf("") {
		return rv.String()
	}
	return v
}
