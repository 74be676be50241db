package engine

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"sort"

	"quest-server/internal/models"
)

// seedStream разводит два слова состояния PCG, чтобы один seed задавал весь генератор.
const seedStream = 0x9e3779b97f4a7c15

// VisibleOptionCount возвращает, сколько вариантов показать на уровне level при total вариантах.
// Неизвестный уровень считается уровнем 3.
func VisibleOptionCount(level, total int) int {
	var limit int
	switch level {
	case 1:
		limit = 2
	case 2:
		limit = 3
	default:
		limit = 4
	}
	return min(limit, total)
}

// NewSeed выдает свежий seed для очередного показа вопроса.
func NewSeed() uint64 {
	return rand.Uint64()
}

// SelectOptions отбирает и перемешивает варианты ответа для показа.
// Правильный вариант всегда включен; остальные выбираются случайно без повторов
// среди неправильных. Результат зависит только от набора вариантов, уровня и seed.
func SelectOptions(all []models.AnswerOption, level int, seed uint64) ([]models.AnswerOption, error) {
	if len(all) < 2 {
		return nil, fmt.Errorf("%w: question needs at least 2 options, got %d", models.ErrDataIntegrity, len(all))
	}

	// Порядок из хранилища не гарантирован, поэтому фиксируем его по ID.
	sorted := make([]models.AnswerOption, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].ID[:], sorted[j].ID[:]) < 0
	})

	var correct []models.AnswerOption
	incorrect := make([]models.AnswerOption, 0, len(sorted))
	for _, o := range sorted {
		if o.IsCorrect {
			correct = append(correct, o)
		} else {
			incorrect = append(incorrect, o)
		}
	}
	if len(correct) != 1 {
		return nil, fmt.Errorf("%w: question must have exactly one correct option, got %d", models.ErrDataIntegrity, len(correct))
	}

	rng := rand.New(rand.NewPCG(seed, seed^seedStream))
	count := VisibleOptionCount(level, len(sorted))

	selected := make([]models.AnswerOption, 0, count)
	selected = append(selected, correct[0])
	for _, i := range rng.Perm(len(incorrect))[:count-1] {
		selected = append(selected, incorrect[i])
	}

	rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected, nil
}
