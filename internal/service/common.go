package service

import (
	"context"
	"errors"

	"quest-server/internal/models"

	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// SanitizeLimit проверяет и корректирует значение limit, устанавливая defaultVal, если оно вне [1, max].
func SanitizeLimit(limit *int, defaultVal, max int) {
	if *limit <= 0 || *limit > max {
		*limit = defaultVal
	}
}

// isExpected сообщает, относится ли ошибка к известным прикладным ошибкам.
// Такие ошибки не логируются как Error и передаются наверх без обертки.
func isExpected(err error) bool {
	for _, target := range []error{
		models.ErrNotFound,
		models.ErrForbidden,
		models.ErrInvalidCode,
		models.ErrInvalidState,
		models.ErrBadRequest,
		models.ErrDataIntegrity,
		models.ErrInvalidArgument,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// internalError логирует неожиданную ошибку и возвращает ErrInternalServer.
// Нарушения целостности контента логируются, но возвращаются как есть.
func internalError(log *zap.Logger, msg string, err error) error {
	if errors.Is(err, models.ErrDataIntegrity) {
		log.Error(msg+": story content is broken", zap.Error(err))
		return err
	}
	if isExpected(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Warn(msg+": context done", zap.Error(err))
		return err
	}
	log.Error(msg, zap.Error(err))
	return models.ErrInternalServer
}
