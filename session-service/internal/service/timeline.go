package service

import (
	"solaris-server/shared/models"
)

// Timeline - упорядоченный, дедуплицированный по ID лог событий одной сессии.
//
// В него пишут три независимых продюсера: загрузка снапшота, локальные
// оптимистичные записи и декодированные сообщения push-ленты. Для новых ID
// порядок отображения определяется ПОРЯДКОМ ПРИБЫТИЯ upsert'ов; пересортировки
// по таймстемпу нет намеренно - при сетевом джиттере причинно-раннее событие
// может оказаться позже причинно-позднего, и потребители не должны полагаться
// на причинный порядок.
//
// Timeline не потокобезопасен сам по себе; владелец (SessionState) держит мьютекс.
type Timeline struct {
	order  []string
	events map[string]models.SessionEvent
}

// NewTimeline создает пустой таймлайн.
func NewTimeline() *Timeline {
	return &Timeline{
		order:  make([]string, 0),
		events: make(map[string]models.SessionEvent),
	}
}

// Upsert идемпотентен по ID: новый ID добавляется в конец порядка,
// для известного ID заменяется только нагрузка, позиция не двигается.
// Возвращает true, если событие было добавлено (а не заменено).
func (t *Timeline) Upsert(event models.SessionEvent) bool {
	_, exists := t.events[event.ID]
	t.events[event.ID] = event
	if exists {
		return false
	}
	t.order = append(t.order, event.ID)
	return true
}

// Reset полностью заменяет порядок и нагрузки. Используется только при смене
// самой сессии, чтобы события одной сессии не протекли в представление другой.
func (t *Timeline) Reset(events []models.SessionEvent) {
	t.order = make([]string, 0, len(events))
	t.events = make(map[string]models.SessionEvent, len(events))
	for _, ev := range events {
		t.Upsert(ev)
	}
}

// All возвращает события в порядке отображения.
func (t *Timeline) All() []models.SessionEvent {
	out := make([]models.SessionEvent, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.events[id])
	}
	return out
}

// Get возвращает событие по ID.
func (t *Timeline) Get(id string) (models.SessionEvent, bool) {
	ev, ok := t.events[id]
	return ev, ok
}

// Len возвращает длину таймлайна.
func (t *Timeline) Len() int {
	return len(t.order)
}

// NarrationIDs возвращает ID narration-событий в порядке отображения.
// Эта подпоследовательность определяет границы диапазона рефлексии.
func (t *Timeline) NarrationIDs() []string {
	ids := make([]string, 0)
	for _, id := range t.order {
		if t.events[id].Kind == models.EventKindNarration {
			ids = append(ids, id)
		}
	}
	return ids
}
