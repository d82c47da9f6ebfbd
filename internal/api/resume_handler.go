package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"jobpilot/internal/api/middleware"
	"jobpilot/internal/database"
	"jobpilot/internal/storage"
	"jobpilot/internal/store"
	"jobpilot/internal/tasks"
)

// resumeStorage is the slice of the object-storage client the handler needs;
// tests substitute a fake.
type resumeStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	PublicURL(objectKey string) string
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// taskEnqueuer matches *asynq.Client.
type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ResumeHandler handles resume upload, master designation and download links.
// Upload is the one step view with an external side effect: binary to object
// storage first, then the metadata record.
type ResumeHandler struct {
	store       *store.Store
	storage     resumeStorage
	asynqClient taskEnqueuer
	logger      *slog.Logger
	clamdAddr   string
	maxBytes    int64
}

// NewResumeHandler constructs the handler.
func NewResumeHandler(s *store.Store, storageClient resumeStorage, asynqClient taskEnqueuer, logger *slog.Logger, clamdAddr string, maxBytes int64) *ResumeHandler {
	return &ResumeHandler{
		store:       s,
		storage:     storageClient,
		asynqClient: asynqClient,
		logger:      logger,
		clamdAddr:   clamdAddr,
		maxBytes:    maxBytes,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type resumeResponse struct {
	ID        uint      `json:"id"`
	FileName  string    `json:"file_name"`
	FileURL   string    `json:"file_url"`
	IsMaster  bool      `json:"is_master"`
	Parsed    bool      `json:"parsed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newResumeResponse(r database.Resume) resumeResponse {
	return resumeResponse{
		ID:        r.ID,
		FileName:  r.FileName,
		FileURL:   r.FileURL,
		IsMaster:  r.IsMaster,
		Parsed:    r.ParsedContent != "",
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// Upload stores the binary under <identity>/<file name>, inserts the record
// as the new master, and queues text extraction.
func (h *ResumeHandler) Upload(c *gin.Context) {
	id := middleware.IdentityFromContext(c)
	if !id.Resolved() {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		BadRequest(c, "file too large")
		return
	}

	if h.clamdAddr != "" {
		if ok := h.scanUpload(c, file); !ok {
			return
		}
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	defer fileReader.Close()

	fileName := filepath.Base(file.Filename)
	objectKey := storage.ResumeObjectKey(id.UserID, fileName)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx := c.Request.Context()
	if _, err := h.storage.UploadFile(ctx, objectKey, fileReader, file.Size, contentType); err != nil {
		h.logger.Error("upload resume file", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	resume, err := h.store.CreateResume(ctx, id, store.NewResume{
		ObjectKey: objectKey,
		FileURL:   h.storage.PublicURL(objectKey),
		FileName:  fileName,
	})
	if err != nil {
		StoreError(c, err)
		return
	}

	h.enqueueParse(c, resume.ID)

	c.JSON(http.StatusCreated, newResumeResponse(*resume))
}

func (h *ResumeHandler) scanUpload(c *gin.Context, file *multipart.FileHeader) bool {
	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return false
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		h.logger.Error("scan file", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return false
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			BadRequest(c, "malicious file detected")
			return false
		}
	}
	return true
}

func (h *ResumeHandler) enqueueParse(c *gin.Context, resumeID uint) {
	if h.asynqClient == nil {
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewResumeParseTask(resumeID, correlationID)
	if err != nil {
		h.logger.Error("build parse task", slog.Any("error", err))
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5)); err != nil {
		// Parsing is best effort; the upload itself already succeeded.
		h.logger.Error("enqueue parse task", slog.Uint64("resume_id", uint64(resumeID)), slog.Any("error", err))
	}
}

// List returns the caller's resumes, newest first.
func (h *ResumeHandler) List(c *gin.Context) {
	id := middleware.IdentityFromContext(c)

	resumes, err := h.store.ListResumes(c.Request.Context(), id)
	if err != nil {
		StoreError(c, err)
		return
	}

	items := make([]resumeResponse, 0, len(resumes))
	for _, r := range resumes {
		items = append(items, newResumeResponse(r))
	}
	c.JSON(http.StatusOK, items)
}

// SetMaster designates the given resume as the caller's master.
func (h *ResumeHandler) SetMaster(c *gin.Context) {
	id := middleware.IdentityFromContext(c)

	resumeID, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	if err := h.store.SetMasterResume(c.Request.Context(), id, resumeID); err != nil {
		StoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadLink returns a time-limited link for the resume binary.
func (h *ResumeHandler) DownloadLink(c *gin.Context) {
	id := middleware.IdentityFromContext(c)

	resumeID, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	resume, err := h.store.GetResume(c.Request.Context(), id, resumeID)
	if err != nil {
		StoreError(c, err)
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), resume.ObjectKey, 5*time.Minute)
	if err != nil {
		h.logger.Error("generate download link", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

// Delete removes a resume record and its stored object.
func (h *ResumeHandler) Delete(c *gin.Context) {
	id := middleware.IdentityFromContext(c)

	resumeID, err := parseResumeID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	ctx := c.Request.Context()
	resume, err := h.store.GetResume(ctx, id, resumeID)
	if err != nil {
		StoreError(c, err)
		return
	}

	if err := h.store.DeleteResume(ctx, id, resumeID); err != nil {
		StoreError(c, err)
		return
	}
	if err := h.storage.DeleteObject(ctx, resume.ObjectKey); err != nil {
		h.logger.Error("delete resume object", slog.String("object_key", resume.ObjectKey), slog.Any("error", err))
	}

	c.Status(http.StatusNoContent)
}

func parseResumeID(idParam string) (uint, error) {
	resumeID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return 0, errInvalidResumeID
	}
	return uint(resumeID), nil
}
