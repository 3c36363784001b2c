package state

import (
	"maps"
	"sync"
	"time"
)

// Manager диалоги по telegram id. Диалог без активности дольше ttl
// считается завершённым.
type Manager struct {
	mu      sync.Mutex
	dialogs map[int64]*Dialog
	ttl     time.Duration
	now     func() time.Time
}

func NewManager() *Manager {
	return NewManagerWithTTL(DefaultDialogTTL)
}

func NewManagerWithTTL(ttl time.Duration) *Manager {
	return &Manager{
		dialogs: make(map[int64]*Dialog),
		ttl:     ttl,
		now:     time.Now,
	}
}

// active возвращает живой диалог, просроченный удаляется. Вызывать под mu.
func (sm *Manager) active(telegramID int64) *Dialog {
	d, ok := sm.dialogs[telegramID]
	if !ok {
		return nil
	}
	if sm.ttl > 0 && sm.now().Sub(d.UpdatedAt) > sm.ttl {
		delete(sm.dialogs, telegramID)
		return nil
	}
	return d
}

func (sm *Manager) GetState(telegramID int64) UserState {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if d := sm.active(telegramID); d != nil {
		return d.State
	}
	return StateNone
}

// SetState переводит диалог на шаг, StateNone завершает его
func (sm *Manager) SetState(telegramID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state == StateNone {
		delete(sm.dialogs, telegramID)
		return
	}

	d := sm.active(telegramID)
	if d == nil {
		d = &Dialog{Answers: make(map[string]string)}
		sm.dialogs[telegramID] = d
	}
	d.State = state
	d.UpdatedAt = sm.now()
}

// SetAnswer запоминает ответ текущего диалога, без диалога ничего не делает
func (sm *Manager) SetAnswer(telegramID int64, key, value string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if d := sm.active(telegramID); d != nil {
		d.Answers[key] = value
		d.UpdatedAt = sm.now()
	}
}

// Answers копия собранных ответов
func (sm *Manager) Answers(telegramID int64) map[string]string {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if d := sm.active(telegramID); d != nil {
		return maps.Clone(d.Answers)
	}
	return nil
}

func (sm *Manager) ClearState(telegramID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.dialogs, telegramID)
}
