package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobpilot/internal/database"
	"jobpilot/internal/session"
	"jobpilot/internal/store"
)

type fakeStorage struct {
	uploaded map[string][]byte
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{}, nil
}

func (s *fakeStorage) PublicURL(objectKey string) string {
	return "https://files.example.invalid/resumes/" + objectKey
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://files.example.invalid/signed/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	profile := database.Profile{Model: gorm.Model{ID: 1}, Email: "user@example.com", PasswordHash: "x"}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return db
}

func newResumeTestHandler(t *testing.T) (*ResumeHandler, *fakeStorage, *fakeEnqueuer, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	storage := newFakeStorage()
	enqueuer := &fakeEnqueuer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewResumeHandler(store.New(db), storage, enqueuer, logger, "", 5*1024*1024)
	return h, storage, enqueuer, db
}

func newMultipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func newUploadContext(t *testing.T, id session.Identity, body *bytes.Buffer, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(http.MethodPost, "/v1/resumes", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if id.Resolved() {
		c.Set("sessionIdentity", id)
	}
	return c, w
}

func TestUploadResume_StoresBinaryAndRecord(t *testing.T) {
	h, storage, enqueuer, db := newResumeTestHandler(t)

	content := []byte("%PDF-1.4 resume body")
	body, contentType := newMultipartUpload(t, "resume.pdf", content)
	c, w := newUploadContext(t, session.Identity{UserID: 1}, body, contentType)

	h.Upload(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	stored, ok := storage.uploaded["1/resume.pdf"]
	if !ok {
		t.Fatalf("binary not stored under identity prefix: %v", storage.uploaded)
	}
	if !bytes.Equal(stored, content) {
		t.Fatal("stored binary differs from upload")
	}

	var resume database.Resume
	if err := db.First(&resume, "profile_id = ?", uint(1)).Error; err != nil {
		t.Fatalf("resume record not created: %v", err)
	}
	if !resume.IsMaster {
		t.Fatal("new upload must be master")
	}
	if resume.ObjectKey != "1/resume.pdf" || resume.FileName != "resume.pdf" {
		t.Fatalf("unexpected record: %+v", resume)
	}

	if len(enqueuer.tasks) != 1 {
		t.Fatalf("expected one parse task, got %d", len(enqueuer.tasks))
	}
	var payload struct {
		ResumeID uint `json:"resume_id"`
	}
	if err := json.Unmarshal(enqueuer.tasks[0].Payload(), &payload); err != nil {
		t.Fatalf("decode task payload: %v", err)
	}
	if payload.ResumeID != resume.ID {
		t.Fatalf("task references wrong resume: %d", payload.ResumeID)
	}
}

func TestUploadResume_RequiresIdentity(t *testing.T) {
	h, storage, _, _ := newResumeTestHandler(t)

	body, contentType := newMultipartUpload(t, "resume.pdf", []byte("data"))
	c, w := newUploadContext(t, session.Anonymous, body, contentType)

	h.Upload(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
	if len(storage.uploaded) != 0 {
		t.Fatal("unauthenticated upload reached storage")
	}
}

func TestUploadResume_RejectsOversizedFile(t *testing.T) {
	h, storage, _, _ := newResumeTestHandler(t)
	h.maxBytes = 8

	body, contentType := newMultipartUpload(t, "resume.pdf", []byte("this file is larger than eight bytes"))
	c, w := newUploadContext(t, session.Identity{UserID: 1}, body, contentType)

	h.Upload(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	if len(storage.uploaded) != 0 {
		t.Fatal("oversized upload reached storage")
	}
}

func TestDeleteResume_RemovesObject(t *testing.T) {
	h, storage, _, db := newResumeTestHandler(t)
	id := session.Identity{UserID: 1}

	resume, err := store.New(db).CreateResume(context.Background(), id, store.NewResume{
		ObjectKey: "1/old.pdf", FileName: "old.pdf",
	})
	if err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	storage.uploaded["1/old.pdf"] = []byte("data")

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/v1/resumes/1", nil)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(resume.ID)}}
	c.Set("sessionIdentity", id)

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != "1/old.pdf" {
		t.Fatalf("stored object not removed: %v", storage.deleted)
	}
}
