package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"gorm.io/gorm"
)

// GormRepository implements Repository over a gorm connection
type GormRepository[T any] struct {
	db *gorm.DB
}

// NewGormRepository creates a repository for T
func NewGormRepository[T any](db *gorm.DB) *GormRepository[T] {
	return &GormRepository[T]{db: db}
}

// scoped starts every query with the tenant predicate
func (r *GormRepository[T]) scoped(ctx context.Context, db *gorm.DB, tenantID uuid.UUID) *gorm.DB {
	return db.WithContext(ctx).Model(new(T)).Where("tenant_id = ?", tenantID)
}

// FindOne returns the record with id inside tenantID
func (r *GormRepository[T]) FindOne(ctx context.Context, tenantID, id uuid.UUID) (*T, error) {
	if tenantID == uuid.Nil || id == uuid.Nil {
		return nil, errs.ErrNotFound
	}

	var out T
	if err := r.scoped(ctx, r.db, tenantID).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// Find lists records of tenantID matching conds
func (r *GormRepository[T]) Find(ctx context.Context, tenantID uuid.UUID, conds Conditions, page PageRequest) ([]T, error) {
	out := []T{}
	if tenantID == uuid.Nil {
		return out, nil
	}

	q, err := apply(r.scoped(ctx, r.db, tenantID), conds)
	if err != nil {
		return nil, err
	}

	page = page.Normalize()
	order, err := orderFor(new(T), page.OrderBy)
	if err != nil {
		return nil, err
	}
	if err := q.Order(order).Offset(page.Offset()).Limit(page.Limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("find %T: %w", *new(T), err)
	}
	return out, nil
}

// Count returns how many records of tenantID match conds
func (r *GormRepository[T]) Count(ctx context.Context, tenantID uuid.UUID, conds Conditions) (int64, error) {
	if tenantID == uuid.Nil {
		return 0, nil
	}

	q, err := apply(r.scoped(ctx, r.db, tenantID), conds)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count %T: %w", *new(T), err)
	}
	return total, nil
}

// ConditionalUpdate applies patch only when the row of tenantID and id also satisfies match.
// Zero affected rows is reported as errs.ErrNotFound; the caller cannot tell which predicate failed.
func (r *GormRepository[T]) ConditionalUpdate(ctx context.Context, tenantID, id uuid.UUID, match Conditions, patch Patch) (*T, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	if tenantID == uuid.Nil || id == uuid.Nil {
		return nil, errs.ErrNotFound
	}

	var out T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q, err := apply(r.scoped(ctx, tx, tenantID).Where("id = ?", id), match)
		if err != nil {
			return err
		}

		res := q.Updates(patch.normalized())
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.ErrNotFound
		}

		return translate(r.scoped(ctx, tx, tenantID).Where("id = ?", id).First(&out).Error)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Insert stamps entity with tenantID and stores it
func (r *GormRepository[T]) Insert(ctx context.Context, tenantID uuid.UUID, entity *T) error {
	if tenantID == uuid.Nil {
		return errs.Invalid("tenant_id", "required")
	}

	scoped, ok := any(entity).(models.TenantScoped)
	if !ok {
		return fmt.Errorf("%T is not tenant scoped", entity)
	}
	scoped.SetTenantID(tenantID)

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Delete removes the record with id inside tenantID
func (r *GormRepository[T]) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if tenantID == uuid.Nil || id == uuid.Nil {
		return errs.ErrNotFound
	}

	res := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).Delete(new(T))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func apply(q *gorm.DB, conds Conditions) (*gorm.DB, error) {
	if err := conds.validate(); err != nil {
		return nil, err
	}
	for _, c := range conds {
		switch {
		case c.Null:
			q = q.Where(c.Column + " IS NULL")
		case len(c.Values) == 1:
			q = q.Where(c.Column+" = ?", normalize(c.Values[0]))
		default:
			values := make([]interface{}, len(c.Values))
			for i, v := range c.Values {
				values[i] = normalize(v)
			}
			q = q.Where(c.Column+" IN ?", values)
		}
	}
	return q, nil
}

// translate maps driver errors onto the package's error values
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errs.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"),
		strings.Contains(err.Error(), "duplicate key value"):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// GormStore is the gorm backed Store
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store on db
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) WorkOrders() Repository[models.WorkOrder] {
	return NewGormRepository[models.WorkOrder](s.db)
}

func (s *GormStore) Machines() Repository[models.Machine] {
	return NewGormRepository[models.Machine](s.db)
}

func (s *GormStore) Users() Repository[models.User] {
	return NewGormRepository[models.User](s.db)
}

func (s *GormStore) Plans() Repository[models.PreventivePlan] {
	return NewGormRepository[models.PreventivePlan](s.db)
}

func (s *GormStore) Documents() Repository[models.Document] {
	return NewGormRepository[models.Document](s.db)
}

func (s *GormStore) AuditLogs() Repository[models.AuditLog] {
	return NewGormRepository[models.AuditLog](s.db)
}

// Transact runs fn inside a database transaction
func (s *GormStore) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
