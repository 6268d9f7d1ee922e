package explorer

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
)

// ErrPending - переключение этой записи уже выполняется.
var ErrPending = errors.New("explorer: toggle already pending")

// ErrUnknownKey - записи нет в текущем списке.
var ErrUnknownKey = errors.New("explorer: unknown row")

// ToggleRequest отправляет переключение на бэкенд. previous - состояние до клика.
type ToggleRequest func(ctx context.Context, previous bool) error

// Toggle - оптимистичное переключение активности.
// Локальное состояние меняется сразу, при ошибке запроса возвращается назад.
type Toggle[K comparable] struct {
	mu       sync.Mutex
	status   map[K]bool
	pending  map[K]struct{}
	watchers []func(key K, active bool)
}

// NewToggle создаёт пустую карту статусов.
func NewToggle[K comparable]() *Toggle[K] {
	return &Toggle[K]{
		status:  make(map[K]bool),
		pending: make(map[K]struct{}),
	}
}

// Reset заменяет карту статусов свежими данными списка.
func (t *Toggle[K]) Reset(status map[K]bool) {
	t.mu.Lock()
	t.status = make(map[K]bool, len(status))
	for k, v := range status {
		t.status[k] = v
	}
	t.mu.Unlock()
}

// OnChange подписывает наблюдателя на любые изменения статуса,
// и оптимистичные, и итоговые.
func (t *Toggle[K]) OnChange(fn func(key K, active bool)) {
	t.mu.Lock()
	t.watchers = append(t.watchers, fn)
	t.mu.Unlock()
}

// Status возвращает текущее локальное состояние записи.
func (t *Toggle[K]) Status(key K) (active, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	active, ok = t.status[key]
	return active, ok
}

// Pending сообщает, что по записи идёт запрос.
func (t *Toggle[K]) Pending(key K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[key]
	return ok
}

// Flip переключает запись. Повторный Flip до ответа бэкенда отклоняется
// с ErrPending. При ошибке request статус откатывается после её получения.
func (t *Toggle[K]) Flip(ctx context.Context, key K, request ToggleRequest) error {
	t.mu.Lock()
	if _, busy := t.pending[key]; busy {
		t.mu.Unlock()
		return ErrPending
	}
	previous, ok := t.status[key]
	if !ok {
		t.mu.Unlock()
		return ErrUnknownKey
	}
	t.status[key] = !previous
	t.pending[key] = struct{}{}
	t.mu.Unlock()
	t.notify(key, !previous)

	err := request(ctx, previous)

	t.mu.Lock()
	delete(t.pending, key)
	settled := !previous
	if err != nil {
		if _, still := t.status[key]; still {
			t.status[key] = previous
		}
		settled = previous
	}
	t.mu.Unlock()

	if err != nil {
		log.Printf("Ошибка переключения статуса %v: %v", key, err)
	}
	t.notify(key, settled)
	return err
}

// Snapshot - копия карты статусов и список ожидающих ключей.
func (t *Toggle[K]) Snapshot() (map[K]bool, []K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status := make(map[K]bool, len(t.status))
	for k, v := range t.status {
		status[k] = v
	}
	pending := make([]K, 0, len(t.pending))
	for k := range t.pending {
		pending = append(pending, k)
	}
	return status, pending
}

// ActiveCount - число активных записей по локальной карте.
func (t *Toggle[K]) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, v := range t.status {
		if v {
			n++
		}
	}
	return n
}

func (t *Toggle[K]) notify(key K, active bool) {
	t.mu.Lock()
	watchers := append([]func(K, bool){}, t.watchers...)
	t.mu.Unlock()
	for _, fn := range watchers {
		fn(key, active)
	}
}

// sortedKeys упорядочивает строковые ключи для стабильного JSON.
func sortedKeys(keys []string) []string {
	sort.Strings(keys)
	return keys
}
