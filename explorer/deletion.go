package explorer

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/models"
)

var (
	// ErrNoCandidate - подтверждение без выбранной записи.
	ErrNoCandidate = errors.New("explorer: nothing to delete")
	// ErrDeleting - удаление уже выполняется.
	ErrDeleting = errors.New("explorer: delete in progress")
)

// Типы баннеров
const (
	BannerSuccess = "success"
	BannerError   = "error"
)

const msgDeleteFailed = "Une erreur est survenue lors de la suppression."

// Banner - сообщение над списком после действия.
type Banner struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// DeleteFunc удаляет запись на бэкенде.
type DeleteFunc func(ctx context.Context, key string) (models.ActionResult, error)

// RefreshFunc перезагружает данные после успешного удаления.
type RefreshFunc func(ctx context.Context) error

// DeleteView - состояние окна подтверждения
type DeleteView struct {
	Candidate string `json:"candidate,omitempty"`
	Deleting  bool   `json:"deleting"`
}

// DeleteFlow - подтверждение и выполнение удаления.
// Запись исчезает из списка только после успешного ответа и перезагрузки.
type DeleteFlow struct {
	mu        sync.Mutex
	candidate string
	deleting  bool
	banner    *Banner
	success   string
	onChange  func()
}

// NewDeleteFlow создаёт поток удаления с сообщением успеха по умолчанию.
func NewDeleteFlow(successMessage string) *DeleteFlow {
	return &DeleteFlow{success: successMessage}
}

// Request открывает подтверждение для key.
func (d *DeleteFlow) Request(key string) error {
	d.mu.Lock()
	if d.deleting {
		d.mu.Unlock()
		return ErrDeleting
	}
	d.candidate = key
	d.mu.Unlock()
	d.changed()
	return nil
}

// Cancel закрывает подтверждение. Во время удаления окно не закрывается.
func (d *DeleteFlow) Cancel() error {
	d.mu.Lock()
	if d.deleting {
		d.mu.Unlock()
		return ErrDeleting
	}
	d.candidate = ""
	d.mu.Unlock()
	d.changed()
	return nil
}

// Confirm удаляет выбранную запись. Успех: окно закрывается, баннер успеха,
// вызывается refresh. Ошибка: окно закрывается, баннер с текстом ошибки.
func (d *DeleteFlow) Confirm(ctx context.Context, del DeleteFunc, refresh RefreshFunc) error {
	d.mu.Lock()
	if d.deleting {
		d.mu.Unlock()
		return ErrDeleting
	}
	if d.candidate == "" {
		d.mu.Unlock()
		return ErrNoCandidate
	}
	key := d.candidate
	d.deleting = true
	d.banner = nil
	d.mu.Unlock()
	d.changed()

	res, err := del(ctx, key)

	d.mu.Lock()
	d.deleting = false
	d.candidate = ""
	if err != nil {
		d.banner = &Banner{Type: BannerError, Message: backend.UserMessage(err, msgDeleteFailed)}
	} else {
		d.banner = &Banner{Type: BannerSuccess, Message: firstNonEmpty(res.Message, d.success)}
	}
	d.mu.Unlock()
	d.changed()

	if err != nil {
		log.Printf("Ошибка удаления %s: %v", key, err)
		return err
	}
	if refresh != nil {
		if rerr := refresh(ctx); rerr != nil {
			log.Printf("Ошибка обновления после удаления %s: %v", key, rerr)
		}
	}
	return nil
}

// SetBanner заменяет баннер (используется формами того же экрана).
func (d *DeleteFlow) SetBanner(b *Banner) {
	d.mu.Lock()
	d.banner = b
	d.mu.Unlock()
	d.changed()
}

// View - состояние окна подтверждения.
func (d *DeleteFlow) View() DeleteView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DeleteView{Candidate: d.candidate, Deleting: d.deleting}
}

// Banner - последний баннер или nil.
func (d *DeleteFlow) Banner() *Banner {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.banner == nil {
		return nil
	}
	b := *d.banner
	return &b
}

func (d *DeleteFlow) changed() {
	d.mu.Lock()
	fn := d.onChange
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
