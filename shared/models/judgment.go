package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Grade - итоговая оценка участника за ход.
type Grade string

const (
	GradeSuccess Grade = "success"
	GradePartial Grade = "partial"
	GradeFail    Grade = "fail"
)

// PoolKind идентифицирует ресурсный пул в изменении статов.
type PoolKind string

const (
	PoolKindA PoolKind = "poolA"
	PoolKindB PoolKind = "poolB"
)

// ParticipantJudgment - оценка одного участника: грейд и четыре
// суб-оценки в диапазоне 0-10. Грейд НЕ выводится из суб-оценок.
type ParticipantJudgment struct {
	ParticipantID uuid.UUID `json:"participantId"`
	Grade         Grade     `json:"grade"`
	Scores        []int     `json:"scores"`
}

// StatChange - одно изменение пула участника внутри вердикта.
// Записи для одной пары (участник, пул) применяются строго в порядке списка:
// Before следующей записи может совпадать с After предыдущей (цепочка
// "стоимость, затем урон" в одном ходу). Потребителям запрещено
// переупорядочивать или схлопывать такие записи.
type StatChange struct {
	ParticipantID uuid.UUID `json:"participantId"`
	Pool          PoolKind  `json:"pool"`
	Before        int       `json:"before"`
	After         int       `json:"after"`
	Reason        string    `json:"reason"`
}

// JudgmentResult - непрозрачный вердикт оракула за один ход.
// Ядро сессии его не вычисляет, только проверяет форму и отображает.
type JudgmentResult struct {
	Turn        int                   `json:"turn"`
	Judgments   []ParticipantJudgment `json:"judgments"`
	StatChanges []StatChange          `json:"statChanges"`
}

// Validate защитно проверяет форму вердикта, пришедшего извне.
// Невалидный вердикт отбрасывается целиком и никогда не применяется.
func (r *JudgmentResult) Validate() error {
	if len(r.Judgments) == 0 {
		return fmt.Errorf("%w: judgment list is empty", ErrMalformedJudgment)
	}
	for i, j := range r.Judgments {
		if j.ParticipantID == uuid.Nil {
			return fmt.Errorf("%w: judgment %d has no participant", ErrMalformedJudgment, i)
		}
		switch j.Grade {
		case GradeSuccess, GradePartial, GradeFail:
		default:
			return fmt.Errorf("%w: judgment %d has unknown grade %q", ErrMalformedJudgment, i, j.Grade)
		}
		if len(j.Scores) != 4 {
			return fmt.Errorf("%w: judgment %d has %d sub-scores, want 4", ErrMalformedJudgment, i, len(j.Scores))
		}
		for _, s := range j.Scores {
			if s < 0 || s > 10 {
				return fmt.Errorf("%w: judgment %d has sub-score %d out of range", ErrMalformedJudgment, i, s)
			}
		}
	}
	for i, sc := range r.StatChanges {
		if sc.ParticipantID == uuid.Nil {
			return fmt.Errorf("%w: stat change %d has no participant", ErrMalformedJudgment, i)
		}
		if sc.Pool != PoolKindA && sc.Pool != PoolKindB {
			return fmt.Errorf("%w: stat change %d has unknown pool %q", ErrMalformedJudgment, i, sc.Pool)
		}
	}
	return nil
}
