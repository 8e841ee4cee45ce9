package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/edumint/edumint/internal/extract"
	"github.com/edumint/edumint/internal/moderation"
)

// ErrContentRejected is returned when moderation declines the extracted text.
// The wrapped message carries the moderation reason verbatim.
var ErrContentRejected = errors.New("content rejected")

// Notifier receives publication outcomes. Implementations must not block.
type Notifier interface {
	ContentPublished(item Item)
	ContentRejected(id, reason string)
}

// NopNotifier ignores all publication events.
type NopNotifier struct{}

func (NopNotifier) ContentPublished(Item)          {}
func (NopNotifier) ContentRejected(string, string) {}

// Pipeline drives a content item from uploaded file to published summary:
// extract text, moderate it, then either delete the item outright or mark
// it verified with the summary stored.
type Pipeline struct {
	extractor  *extract.Extractor
	gate       *moderation.Gate
	store      Store
	notifier   Notifier
	removeFile func(path string) error
}

// PipelineConfig holds dependencies for the pipeline.
type PipelineConfig struct {
	Extractor *extract.Extractor
	Gate      *moderation.Gate
	Store     Store
	Notifier  Notifier
	// RemoveFile deletes an uploaded file on rejection. Defaults to os.Remove.
	RemoveFile func(path string) error
}

// NewPipeline creates a content publication pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	removeFile := cfg.RemoveFile
	if removeFile == nil {
		removeFile = os.Remove
	}
	return &Pipeline{
		extractor:  cfg.Extractor,
		gate:       cfg.Gate,
		store:      cfg.Store,
		notifier:   notifier,
		removeFile: removeFile,
	}
}

// Publish extracts and moderates the uploaded file for the given content item.
//
// On a clean verdict the extracted text becomes the item's summary and the
// item is marked verified. On rejection the item and its file are deleted so
// the content is never partially visible. Extraction failure leaves the item
// unpublished and surfaces extract.ErrExtractionFailed.
//
// Re-running Publish on an already-verified item re-extracts and re-moderates;
// a clean re-run converges to the same state.
func (p *Pipeline) Publish(ctx context.Context, contentID, filePath string) (*Item, error) {
	item, err := p.store.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}

	text, err := p.extractor.Extract(filePath)
	if err != nil {
		slog.Error("text extraction failed", "content_id", contentID, "error", err)
		return nil, err
	}

	verdict := p.gate.Check(ctx, text)
	if !verdict.Clean {
		slog.Info("content rejected by moderation",
			"content_id", contentID,
			"reason", verdict.Reason,
		)
		if err := p.store.Delete(ctx, contentID); err != nil {
			return nil, fmt.Errorf("delete rejected content: %w", err)
		}
		if err := p.removeFile(filePath); err != nil {
			slog.Warn("failed to remove rejected upload", "path", filePath, "error", err)
		}
		p.notifier.ContentRejected(contentID, verdict.Reason)
		return nil, fmt.Errorf("%w: %s", ErrContentRejected, verdict.Reason)
	}

	signature, err := extract.Signature(filePath)
	if err != nil {
		slog.Warn("file signature failed", "path", filePath, "error", err)
	}

	item.File = filePath
	item.Summary = text
	item.FileSignature = signature
	item.Verified = true
	if err := p.store.Update(ctx, *item); err != nil {
		return nil, fmt.Errorf("persist published content: %w", err)
	}

	slog.Info("content published",
		"content_id", contentID,
		"standard", item.Standard,
		"summary_len", len(text),
	)
	p.notifier.ContentPublished(*item)
	return item, nil
}
