package documents

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
)

// Service manages machine documents of a tenant
type Service struct {
	store   repository.Store
	storage Storage
}

// NewService creates a document Service
func NewService(store repository.Store, storage Storage) *Service {
	return &Service{store: store, storage: storage}
}

// UploadInput describes a document about to be uploaded
type UploadInput struct {
	MachineID   uuid.UUID `json:"machine_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
}

// Upload records the document and returns a presigned URL the client uploads the content to
func (s *Service) Upload(ctx context.Context, actor *authz.Actor, in UploadInput) (*models.Document, string, error) {
	if err := authorize(actor, authz.PermDocumentsUpload); err != nil {
		return nil, "", err
	}

	name := cleanName(in.Name)
	if in.MachineID == uuid.Nil {
		return nil, "", errs.Invalid("machine_id", "required")
	}
	if name == "" {
		return nil, "", errs.Invalid("name", "required")
	}
	if _, err := s.store.Machines().FindOne(ctx, actor.TenantID, in.MachineID); err != nil {
		return nil, "", err
	}

	doc := &models.Document{
		MachineID:   in.MachineID,
		Name:        name,
		ObjectKey:   objectKey(actor.TenantID, in.MachineID, name),
		ContentType: in.ContentType,
		UploadedBy:  actor.ID,
	}

	url, err := s.storage.PresignUpload(ctx, doc.ObjectKey, doc.ContentType)
	if err != nil {
		return nil, "", err
	}
	if err := s.store.Documents().Insert(ctx, actor.TenantID, doc); err != nil {
		return nil, "", err
	}
	return doc, url, nil
}

// List returns the documents of one machine
func (s *Service) List(ctx context.Context, actor *authz.Actor, machineID uuid.UUID, page repository.PageRequest) (*repository.Page[models.Document], error) {
	if err := authorize(actor, authz.PermDocumentsRead); err != nil {
		return nil, err
	}

	conds := repository.Conditions{repository.Eq("machine_id", machineID)}
	page = page.Normalize()

	items, err := s.store.Documents().Find(ctx, actor.TenantID, conds, page)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Documents().Count(ctx, actor.TenantID, conds)
	if err != nil {
		return nil, err
	}
	return &repository.Page[models.Document]{Items: items, Page: page.Page, Limit: page.Limit, Total: total}, nil
}

// Download returns the document and a presigned URL to fetch its content
func (s *Service) Download(ctx context.Context, actor *authz.Actor, id uuid.UUID) (*models.Document, string, error) {
	if err := authorize(actor, authz.PermDocumentsRead); err != nil {
		return nil, "", err
	}

	doc, err := s.store.Documents().FindOne(ctx, actor.TenantID, id)
	if err != nil {
		return nil, "", err
	}
	url, err := s.storage.PresignDownload(ctx, doc.ObjectKey)
	if err != nil {
		return nil, "", err
	}
	return doc, url, nil
}

// Delete removes the metadata row, then the object. A failed object delete is only logged.
func (s *Service) Delete(ctx context.Context, actor *authz.Actor, id uuid.UUID) error {
	if err := authorize(actor, authz.PermDocumentsDelete); err != nil {
		return err
	}

	doc, err := s.store.Documents().FindOne(ctx, actor.TenantID, id)
	if err != nil {
		return err
	}
	if err := s.store.Documents().Delete(ctx, actor.TenantID, id); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, doc.ObjectKey); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("document_id", id).Warn("Orphaned document object")
	}
	return nil
}

func authorize(actor *authz.Actor, p authz.Permission) error {
	if !actor.Authenticated() {
		return errs.ErrUnauthorized
	}
	if !authz.HasPermission(actor.Role, p) {
		return errs.ErrForbidden
	}
	return nil
}

func cleanName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return strings.ReplaceAll(base, " ", "_")
}

// objectKey is <tenant>/<machine>/<uuid>-<name>
func objectKey(tenantID, machineID uuid.UUID, name string) string {
	return fmt.Sprintf("%s/%s/%s-%s", tenantID, machineID, uuid.New(), name)
}
