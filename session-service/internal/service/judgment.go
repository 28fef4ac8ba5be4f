package service

import (
	"solaris-server/shared/models"
)

// ChangeSign - классификация знака дельты изменения пула для отображения.
type ChangeSign string

const (
	SignPositive ChangeSign = "positive"
	SignNegative ChangeSign = "negative"
	SignNeutral  ChangeSign = "neutral"
)

// RenderedChange - одно изменение пула, подготовленное к отображению.
type RenderedChange struct {
	models.StatChange
	Delta int        `json:"delta"`
	Sign  ChangeSign `json:"sign"`
}

// RenderedJudgment - вердикт, подготовленный к отображению.
//
// Порядок обоих списков строго повторяет порядок вердикта: грейды не
// сортируются по оценкам, изменения пулов не переупорядочиваются и не
// схлопываются по (участник, пул) - записи одной пары легитимно образуют
// цепочку, где Before следующей равен After предыдущей. Грейд никогда
// не выводится из суб-оценок заново.
type RenderedJudgment struct {
	Turn      int                          `json:"turn"`
	Judgments []models.ParticipantJudgment `json:"judgments"`
	Changes   []RenderedChange             `json:"statChanges"`
}

// RenderJudgment принимает уже вычисленный вердикт как непрозрачное значение
// и готовит модель отображения. Невалидная форма отклоняется защитно;
// здесь нет других путей отказа.
func RenderJudgment(result models.JudgmentResult) (*RenderedJudgment, error) {
	if err := result.Validate(); err != nil {
		return nil, err
	}

	rendered := &RenderedJudgment{
		Turn:      result.Turn,
		Judgments: result.Judgments,
		Changes:   make([]RenderedChange, 0, len(result.StatChanges)),
	}
	for _, sc := range result.StatChanges {
		delta := sc.After - sc.Before
		sign := SignNeutral
		switch {
		case delta > 0:
			sign = SignPositive
		case delta < 0:
			sign = SignNegative
		}
		rendered.Changes = append(rendered.Changes, RenderedChange{
			StatChange: sc,
			Delta:      delta,
			Sign:       sign,
		})
	}
	return rendered, nil
}
