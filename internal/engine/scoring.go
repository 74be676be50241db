package engine

import "quest-server/internal/models"

// Outcome - результат применения ответа к уровню.
type Outcome struct {
	PointsEarned int
	NewLevel     int
	// Terminated - неверный ответ на уровне 1: прохождение заканчивается сразу.
	Terminated bool
}

// PointsForLevel возвращает очки за правильный ответ на уровне level.
func PointsForLevel(level int) int {
	switch clampLevel(level) {
	case 3:
		return models.PointsPerQuestion
	case 2:
		return 5
	default:
		return 1
	}
}

// ScoreAndLevel применяет правило начисления очков и смены уровня.
func ScoreAndLevel(level int, correct bool) Outcome {
	level = clampLevel(level)
	if correct {
		return Outcome{
			PointsEarned: PointsForLevel(level),
			NewLevel:     min(level+1, models.MaxLevel),
		}
	}
	if level == models.MinLevel {
		return Outcome{NewLevel: models.MinLevel, Terminated: true}
	}
	return Outcome{NewLevel: max(level-1, models.MinLevel)}
}

// MaxScore - максимально возможный счет для истории из questionCount вопросов.
func MaxScore(questionCount int) int {
	return questionCount * models.PointsPerQuestion
}

func clampLevel(level int) int {
	return max(models.MinLevel, min(level, models.MaxLevel))
}
