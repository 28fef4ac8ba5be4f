package models

import "github.com/google/uuid"

// Team определяет сторону участника в боевом контексте.
type Team string

const (
	TeamAlly  Team = "ally"
	TeamEnemy Team = "enemy"
	// TeamUnscoped используется в чисто нарративных комнатах, где нет боя.
	TeamUnscoped Team = "unscoped"
)

// Pool - один ресурсный пул участника (текущее/максимальное значение).
type Pool struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Pools - два независимых ресурсных пула участника.
// PoolA - витальность ("HP"), PoolB - воля ("WILL").
type Pools struct {
	PoolA Pool `json:"poolA"`
	PoolB Pool `json:"poolB"`
}

// Participant - участник сессии. Данные поставляются внешним ростер-сервисом
// и для ядра сессии неизменяемы; любое разрешение отправителя сообщения
// обязано использовать АКТУАЛЬНЫЙ ростер, а не копию на момент подписки.
type Participant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Team      Team      `json:"team"`
	Pools     Pools     `json:"pools"`
	Abilities []Ability `json:"abilities"`
}

// FindAbility ищет способность участника по идентификатору.
// Возвращает nil, если способность не найдена в каталоге.
func (p *Participant) FindAbility(abilityID string) *Ability {
	for i := range p.Abilities {
		if p.Abilities[i].ID == abilityID {
			return &p.Abilities[i]
		}
	}
	return nil
}
