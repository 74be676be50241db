package engine

import (
	"fmt"
	"strings"

	"quest-server/internal/models"

	"golang.org/x/text/cases"
)

// CodeMatchMode - способ сравнения кода доступа к приватной истории.
type CodeMatchMode string

const (
	CodeMatchExact CodeMatchMode = "exact" // Побайтовое сравнение
	CodeMatchTrim  CodeMatchMode = "trim"  // Без пробелов по краям
	CodeMatchFold  CodeMatchMode = "fold"  // Без пробелов по краям и без учета регистра (Unicode case folding)
)

// ParseCodeMatchMode разбирает значение из конфигурации.
func ParseCodeMatchMode(s string) (CodeMatchMode, error) {
	switch m := CodeMatchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case CodeMatchExact, CodeMatchTrim, CodeMatchFold:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown access code match mode %q", models.ErrInvalidArgument, s)
}

// NormalizeCode приводит код к виду, в котором коды сравниваются.
func (m CodeMatchMode) NormalizeCode(code string) string {
	switch m {
	case CodeMatchExact:
		return code
	case CodeMatchTrim:
		return strings.TrimSpace(code)
	default:
		return cases.Fold().String(strings.TrimSpace(code))
	}
}

// CheckAccess проверяет, может ли игрок начать историю с кодом submitted.
// Публичные истории доступны всегда.
func (m CodeMatchMode) CheckAccess(story *models.Story, submitted string) error {
	if !story.IsPrivate() {
		return nil
	}
	if story.AccessCode == nil || *story.AccessCode == "" {
		// Приватная история без кода недоступна никому.
		return models.ErrInvalidCode
	}
	if m.NormalizeCode(submitted) != m.NormalizeCode(*story.AccessCode) {
		return models.ErrInvalidCode
	}
	return nil
}
