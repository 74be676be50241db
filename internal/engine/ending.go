package engine

import (
	"fmt"

	"quest-server/internal/models"
)

// EndingBands - нижние границы (в процентах) хорошей и нейтральной концовок.
// Граница включается в более высокую полосу.
type EndingBands struct {
	GoodPercent    int
	NeutralPercent int
}

// DefaultEndingBands: >= 80% - хорошая, >= 40% - нейтральная, иначе плохая.
var DefaultEndingBands = EndingBands{GoodPercent: 80, NeutralPercent: 40}

// Validate проверяет, что полосы упорядочены и лежат в [0, 100].
func (b EndingBands) Validate() error {
	if b.NeutralPercent < 0 || b.GoodPercent > 100 || b.NeutralPercent > b.GoodPercent {
		return fmt.Errorf("%w: ending bands good=%d neutral=%d", models.ErrInvalidArgument, b.GoodPercent, b.NeutralPercent)
	}
	return nil
}

// Resolve выбирает концовку по доле набранных очков.
// Сравнение целочисленное, поэтому ровно 80% и 40% попадают в верхнюю полосу.
func (b EndingBands) Resolve(score, maxScore int) (models.EndingType, error) {
	if maxScore <= 0 {
		return "", fmt.Errorf("%w: maxScore must be positive, got %d", models.ErrInvalidArgument, maxScore)
	}
	switch {
	case score*100 >= b.GoodPercent*maxScore:
		return models.EndingGood, nil
	case score*100 >= b.NeutralPercent*maxScore:
		return models.EndingNeutral, nil
	default:
		return models.EndingBad, nil
	}
}

// ResolveEnding - Resolve с полосами по умолчанию.
func ResolveEnding(score, maxScore int) (models.EndingType, error) {
	return DefaultEndingBands.Resolve(score, maxScore)
}

// Percentage возвращает долю score от maxScore в целых процентах (вниз).
func Percentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return score * 100 / maxScore
}
