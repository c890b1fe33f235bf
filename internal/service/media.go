package service

import (
	"context"
	"errors"
	"log/slog"

	"inkwell/internal/media"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
)

// storeImage saves an upload and maps media failures to application errors.
func storeImage(ctx context.Context, store media.Store, kind media.Kind, up media.Upload) (string, error) {
	if store == nil {
		return "", models.NewInternalError(errors.New("media store not configured"))
	}

	relPath, err := store.Save(ctx, kind, up)
	if err != nil {
		if errors.Is(err, media.ErrUnsupported) {
			observability.MediaOperations.WithLabelValues("save", "unsupported").Inc()
			return "", models.NewValidationError("Unsupported image type")
		}
		observability.MediaOperations.WithLabelValues("save", "error").Inc()
		return "", models.NewInternalError(err)
	}

	observability.MediaOperations.WithLabelValues("save", "ok").Inc()
	return relPath, nil
}

// removeImage deletes a stored image. Failures are logged and otherwise ignored.
func removeImage(ctx context.Context, store media.Store, relPath string) {
	if store == nil || relPath == "" {
		return
	}
	if store.Remove(ctx, relPath) {
		observability.MediaOperations.WithLabelValues("remove", "ok").Inc()
		return
	}
	observability.MediaOperations.WithLabelValues("remove", "missing").Inc()
	middleware.Logger.WarnContext(ctx, "image not removed", slog.String("path", relPath))
}
