package documents

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/dbtest"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
)

type memoryStorage struct {
	mu      sync.Mutex
	deleted []string
	failDel bool
}

func (m *memoryStorage) PresignUpload(_ context.Context, key, _ string) (string, error) {
	return "https://storage.test/put/" + key, nil
}

func (m *memoryStorage) PresignDownload(_ context.Context, key string) (string, error) {
	return "https://storage.test/get/" + key, nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel {
		return errors.New("unavailable")
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func seedMachine(t *testing.T, store repository.Store, tenantID uuid.UUID) *models.Machine {
	t.Helper()
	m := &models.Machine{Code: "M-1", Name: "Press", Status: models.MachineOperational}
	if err := store.Machines().Insert(context.Background(), tenantID, m); err != nil {
		t.Fatalf("seed machine: %v", err)
	}
	return m
}

func TestDocumentFlow(t *testing.T) {
	store := repository.NewGormStore(dbtest.Open(t))
	storage := &memoryStorage{}
	svc := NewService(store, storage)
	ctx := context.Background()

	tenant := uuid.New()
	machine := seedMachine(t, store, tenant)
	maintainer := &authz.Actor{ID: uuid.New(), TenantID: tenant, Role: authz.RoleMaintainer}
	supervisor := &authz.Actor{ID: uuid.New(), TenantID: tenant, Role: authz.RoleMaintenanceSupervisor}

	doc, uploadURL, err := svc.Upload(ctx, maintainer, UploadInput{MachineID: machine.ID, Name: "../manuals/pump manual.pdf", ContentType: "application/pdf"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Name != "pump_manual.pdf" {
		t.Fatalf("name = %q", doc.Name)
	}
	prefix := tenant.String() + "/" + machine.ID.String() + "/"
	if !strings.HasPrefix(doc.ObjectKey, prefix) || !strings.HasSuffix(doc.ObjectKey, "-pump_manual.pdf") {
		t.Fatalf("object key = %q", doc.ObjectKey)
	}
	if !strings.Contains(uploadURL, doc.ObjectKey) {
		t.Fatalf("upload url %q does not target the object", uploadURL)
	}

	page, err := svc.List(ctx, maintainer, machine.ID, repository.PageRequest{})
	if err != nil || page.Total != 1 {
		t.Fatalf("list: %+v, %v", page, err)
	}

	foreign := &authz.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: authz.RoleSuperAdmin}
	if _, _, err := svc.Download(ctx, foreign, doc.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("foreign download: got %v", err)
	}

	if err := svc.Delete(ctx, maintainer, doc.ID); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("maintainer delete: got %v", err)
	}
	if err := svc.Delete(ctx, supervisor, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != doc.ObjectKey {
		t.Fatalf("deleted objects = %v", storage.deleted)
	}
}

func TestUploadRequiresTenantMachine(t *testing.T) {
	store := repository.NewGormStore(dbtest.Open(t))
	svc := NewService(store, &memoryStorage{})
	machine := seedMachine(t, store, uuid.New())

	other := &authz.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: authz.RoleGeneralSupervisor}
	if _, _, err := svc.Upload(context.Background(), other, UploadInput{MachineID: machine.ID, Name: "a.pdf"}); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	operator := &authz.Actor{ID: uuid.New(), TenantID: machine.TenantID, Role: authz.RoleOperator}
	if _, _, err := svc.Upload(context.Background(), operator, UploadInput{MachineID: machine.ID, Name: "a.pdf"}); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
}

func TestDeleteToleratesStorageFailure(t *testing.T) {
	store := repository.NewGormStore(dbtest.Open(t))
	storage := &memoryStorage{}
	svc := NewService(store, storage)
	ctx := context.Background()
	tenant := uuid.New()
	machine := seedMachine(t, store, tenant)
	admin := &authz.Actor{ID: uuid.New(), TenantID: tenant, Role: authz.RoleGeneralSupervisor}

	doc, _, err := svc.Upload(ctx, admin, UploadInput{MachineID: machine.ID, Name: "wiring.png"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	storage.failDel = true
	if err := svc.Delete(ctx, admin, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := svc.Download(ctx, admin, doc.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("download after delete: got %v", err)
	}
}

func TestS3StoragePresigns(t *testing.T) {
	s, err := NewS3Storage(S3Config{
		Region:          "eu-west-1",
		Bucket:          "cmms-documents",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	raw, err := s.PresignUpload(context.Background(), "t/m/file.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(u.Host+u.Path, "cmms-documents") || !strings.HasSuffix(u.Path, "/t/m/file.pdf") {
		t.Fatalf("unexpected url %s", raw)
	}
	if u.Query().Get("X-Amz-Signature") == "" || u.Query().Get("X-Amz-Expires") != "900" {
		t.Fatalf("url is not presigned for 15 minutes: %s", raw)
	}

	if _, err := NewS3Storage(S3Config{Region: "eu-west-1"}); err == nil {
		t.Fatal("expected error without bucket")
	}
}
