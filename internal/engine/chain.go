package engine

import (
	"fmt"

	"quest-server/internal/models"

	"github.com/google/uuid"
)

// QuestionLink - узел цепочки вопросов: ID сцены и ссылка на следующую.
type QuestionLink struct {
	ID     uuid.UUID  `db:"id"`
	NextID *uuid.UUID `db:"next_id"`
}

// QuestionChain - упорядоченная цепочка вопросов истории.
// Хранится как арена: срез ID по порядку и индекс ID -> позиция.
type QuestionChain struct {
	order []uuid.UUID
	index map[uuid.UUID]int
}

// BuildQuestionChain строит цепочку из ссылок next и проверяет инварианты:
// без дубликатов, без висячих ссылок и циклов, ровно одна голова, все узлы на одном пути.
// Пустой набор ссылок дает пустую цепочку.
func BuildQuestionChain(links []QuestionLink) (*QuestionChain, error) {
	chain := &QuestionChain{index: make(map[uuid.UUID]int, len(links))}
	if len(links) == 0 {
		return chain, nil
	}

	next := make(map[uuid.UUID]*uuid.UUID, len(links))
	for _, l := range links {
		if _, dup := next[l.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate scene %s", models.ErrMalformedChain, l.ID)
		}
		next[l.ID] = l.NextID
	}

	inDegree := make(map[uuid.UUID]int, len(links))
	for _, l := range links {
		if l.NextID == nil {
			continue
		}
		if *l.NextID == l.ID {
			return nil, fmt.Errorf("%w: scene %s points to itself", models.ErrMalformedChain, l.ID)
		}
		if _, ok := next[*l.NextID]; !ok {
			return nil, fmt.Errorf("%w: scene %s points to unknown scene %s", models.ErrMalformedChain, l.ID, *l.NextID)
		}
		inDegree[*l.NextID]++
		if inDegree[*l.NextID] > 1 {
			return nil, fmt.Errorf("%w: scene %s has several predecessors", models.ErrMalformedChain, *l.NextID)
		}
	}

	var head uuid.UUID
	heads := 0
	for _, l := range links {
		if inDegree[l.ID] == 0 {
			head = l.ID
			heads++
		}
	}
	if heads != 1 {
		return nil, fmt.Errorf("%w: expected exactly one first scene, found %d", models.ErrMalformedChain, heads)
	}

	for cur := &head; cur != nil; cur = next[*cur] {
		if _, seen := chain.index[*cur]; seen {
			return nil, fmt.Errorf("%w: cycle at scene %s", models.ErrMalformedChain, *cur)
		}
		chain.index[*cur] = len(chain.order)
		chain.order = append(chain.order, *cur)
	}

	if len(chain.order) != len(links) {
		return nil, fmt.Errorf("%w: %d scenes are not reachable from the first scene",
			models.ErrMalformedChain, len(links)-len(chain.order))
	}
	return chain, nil
}

// Len возвращает количество вопросов.
func (c *QuestionChain) Len() int {
	return len(c.order)
}

// First возвращает первую сцену цепочки.
func (c *QuestionChain) First() (uuid.UUID, bool) {
	if len(c.order) == 0 {
		return uuid.Nil, false
	}
	return c.order[0], true
}

// Next возвращает следующую сцену после id; nil - это был последний вопрос.
func (c *QuestionChain) Next(id uuid.UUID) (*uuid.UUID, error) {
	pos, ok := c.index[id]
	if !ok {
		return nil, fmt.Errorf("scene %s is not part of the chain: %w", id, models.ErrNotFound)
	}
	if pos+1 >= len(c.order) {
		return nil, nil
	}
	nextID := c.order[pos+1]
	return &nextID, nil
}

// Position возвращает номер вопроса в цепочке, начиная с 1.
func (c *QuestionChain) Position(id uuid.UUID) (int, bool) {
	pos, ok := c.index[id]
	if !ok {
		return 0, false
	}
	return pos + 1, true
}
