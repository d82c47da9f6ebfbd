package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobpilot/internal/database"
	"jobpilot/internal/storage"
	"jobpilot/internal/store"
	"jobpilot/internal/tasks"
)

// maxParsedBytes bounds the text stored in parsed_content.
const maxParsedBytes = 256 * 1024

// ParseTaskHandler consumes resume parse tasks: it downloads the uploaded
// file, extracts plain text and stores it on the resume record so the agent
// can use it as context.
type ParseTaskHandler struct {
	db          *gorm.DB
	store       *store.Store
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewParseTaskHandler creates the task handler.
func NewParseTaskHandler(
	db *gorm.DB,
	dataStore *store.Store,
	storageClient *storage.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
) *ParseTaskHandler {
	return &ParseTaskHandler{
		db:          db,
		store:       dataStore,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask implements asynq.Handler.
func (h *ParseTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ResumeParsePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("resume_id", int(payload.ResumeID)),
	)
	log.Info("starting resume parse task")

	var resume database.Resume
	if err := h.db.WithContext(ctx).First(&resume, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(resume.ProfileID)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		notify := ResumeParseNotifyMessage{
			Status:        "error",
			ResumeID:      resume.ID,
			CorrelationID: payload.CorrelationID,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishParseNotify(ctx, resume.ProfileID, notify); err != nil {
			log.Error("publish parse error notification failed", slog.Any("error", err))
		}
	}()

	obj, err := h.storage.GetObject(ctx, resume.ObjectKey)
	if err != nil {
		log.Error("fetch resume object failed", slog.Any("error", err))
		return err
	}
	defer obj.Close()

	raw, err := io.ReadAll(io.LimitReader(obj, maxParsedBytes*4))
	if err != nil {
		log.Error("read resume object failed", slog.Any("error", err))
		return err
	}

	text, err := extractText(resume.FileName, raw)
	if err != nil {
		log.Error("extract resume text failed", slog.Any("error", err))
		return err
	}

	if err := h.store.SetParsedContent(ctx, resume.ID, text); err != nil {
		log.Error("store parsed content failed", slog.Any("error", err))
		return err
	}

	notify := ResumeParseNotifyMessage{
		Status:        "completed",
		ResumeID:      resume.ID,
		CorrelationID: payload.CorrelationID,
	}
	if err := h.publishParseNotify(ctx, resume.ProfileID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("resume parse task completed")
	return nil
}

func (h *ParseTaskHandler) publishParseNotify(ctx context.Context, userID uint, notify ResumeParseNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("user_notify:%d", userID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}

// extractText pulls plain text out of the uploaded file. PDFs go through the
// pdf reader; anything else is treated as UTF-8 text.
func extractText(fileName string, raw []byte) (string, error) {
	if strings.EqualFold(path.Ext(fileName), ".pdf") {
		return extractPDFText(raw)
	}

	text := strings.ToValidUTF8(string(raw), "")
	return clampText(text), nil
}

func extractPDFText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the whole document.
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("pdf contains no extractable text")
	}
	return clampText(text), nil
}

func clampText(text string) string {
	if len(text) <= maxParsedBytes {
		return text
	}
	cut := text[:maxParsedBytes]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
