package explorer

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/models"
)

// ErrNoModal - сохранение без открытого окна оплаты.
var ErrNoModal = errors.New("explorer: payment modal is closed")

// ErrSaving - сохранение уже выполняется.
var ErrSaving = errors.New("explorer: save in progress")

// SubscriptionAPI - операции бэкенда над оплатами. *backend.Client его реализует.
type SubscriptionAPI interface {
	Subscriptions(ctx context.Context, companyID models.ID) (*backend.SubscriptionList, error)
	CreateSubscription(ctx context.Context, fields map[string]string) (models.ActionResult, error)
	UpdateSubscription(ctx context.Context, id models.ID, fields map[string]string) (models.ActionResult, error)
	DeleteSubscription(ctx context.Context, id models.ID) (models.ActionResult, error)
}

// Режимы окна оплаты
const (
	ModeCreate = "create"
	ModeEdit   = "edit"
)

// Modal - окно создания или редактирования оплаты.
type Modal struct {
	Mode   string                  `json:"mode"`
	ID     models.ID               `json:"id_subscription,omitempty"`
	Form   models.SubscriptionForm `json:"form"`
	Error  string                  `json:"error,omitempty"`
	Saving bool                    `json:"saving"`
}

// SubscriptionsView - JSON-представление блока оплат компании.
type SubscriptionsView struct {
	CompanyID     models.ID             `json:"id_company"`
	Status        Status                `json:"status"`
	Error         string                `json:"error,omitempty"`
	Subscriptions []models.Subscription `json:"subscriptions"`
	Total         int                   `json:"total"`
	Valid         int                   `json:"valid"`
	Modal         *Modal                `json:"modal,omitempty"`
	Delete        DeleteView            `json:"delete"`
	Banner        *Banner               `json:"banner,omitempty"`
}

// Subscriptions - оплаты одной компании: список, окно формы и удаление.
type Subscriptions struct {
	api       SubscriptionAPI
	companyID models.ID
	Delete    *DeleteFlow

	mu       sync.Mutex
	status   Status
	err      string
	rows     []models.Subscription
	modal    *Modal
	gen      uint64
	watchers []func()
}

// NewSubscriptions привязывает блок к компании.
func NewSubscriptions(api SubscriptionAPI, companyID models.ID) *Subscriptions {
	s := &Subscriptions{
		api:       api,
		companyID: companyID,
		Delete:    NewDeleteFlow("Paiement supprimé avec succès."),
		status:    StatusIdle,
	}
	s.Delete.onChange = s.changed
	return s
}

// CompanyID - компания блока.
func (s *Subscriptions) CompanyID() models.ID { return s.companyID }

// OnChange подписывает наблюдателя на изменения.
func (s *Subscriptions) OnChange(fn func()) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

// Load перечитывает список оплат.
// Ответ, пришедший после более новой загрузки, отбрасывается.
func (s *Subscriptions) Load(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.status = StatusLoading
	s.err = ""
	s.mu.Unlock()
	s.changed()

	list, err := s.api.Subscriptions(ctx, s.companyID)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.status = StatusError
		s.err = backend.UserMessage(err, "Erreur lors du chargement des abonnements.")
		s.rows = nil
	} else {
		s.status = StatusLoaded
		s.rows = list.Subscriptions
	}
	s.mu.Unlock()
	s.changed()

	if err != nil {
		log.Printf("Ошибка загрузки оплат компании %s: %v", s.companyID, err)
	}
	return err
}

// OpenCreate открывает пустую форму.
func (s *Subscriptions) OpenCreate() {
	s.mu.Lock()
	s.modal = &Modal{Mode: ModeCreate, Form: models.EmptySubscriptionForm()}
	s.mu.Unlock()
	s.changed()
}

// OpenEdit открывает форму, заполненную из загруженной записи.
func (s *Subscriptions) OpenEdit(id models.ID) error {
	s.mu.Lock()
	var found *models.Subscription
	for i := range s.rows {
		if s.rows[i].ID == id {
			found = &s.rows[i]
			break
		}
	}
	if found == nil {
		s.mu.Unlock()
		return ErrUnknownKey
	}
	s.modal = &Modal{Mode: ModeEdit, ID: id, Form: models.FormFromSubscription(*found)}
	s.mu.Unlock()
	s.changed()
	return nil
}

// CloseModal закрывает форму.
func (s *Subscriptions) CloseModal() {
	s.mu.Lock()
	if s.modal != nil && s.modal.Saving {
		s.mu.Unlock()
		return
	}
	s.modal = nil
	s.mu.Unlock()
	s.changed()
}

// Save отправляет форму (POST или PUT) и перечитывает весь список.
// При ошибке окно остаётся открытым с текстом ошибки.
func (s *Subscriptions) Save(ctx context.Context, form models.SubscriptionForm) error {
	s.mu.Lock()
	if s.modal == nil {
		s.mu.Unlock()
		return ErrNoModal
	}
	if s.modal.Saving {
		s.mu.Unlock()
		return ErrSaving
	}
	s.modal.Form = form
	s.modal.Error = ""
	s.modal.Saving = true
	mode, id := s.modal.Mode, s.modal.ID
	s.mu.Unlock()
	s.Delete.SetBanner(nil)

	fields := form.Fields(s.companyID)
	var err error
	if mode == ModeEdit {
		_, err = s.api.UpdateSubscription(ctx, id, fields)
	} else {
		_, err = s.api.CreateSubscription(ctx, fields)
	}

	if err != nil {
		s.mu.Lock()
		if s.modal != nil {
			s.modal.Saving = false
			s.modal.Error = backend.UserMessage(err, "Une erreur est survenue lors de l'enregistrement.")
		}
		s.mu.Unlock()
		s.changed()
		log.Printf("Ошибка сохранения оплаты компании %s: %v", s.companyID, err)
		return err
	}

	s.mu.Lock()
	s.modal = nil
	s.mu.Unlock()

	message := "Paiement ajouté avec succès."
	if mode == ModeEdit {
		message = "Paiement mis à jour avec succès."
	}
	s.Delete.SetBanner(&Banner{Type: BannerSuccess, Message: message})

	if lerr := s.Load(ctx); lerr != nil {
		log.Printf("Ошибка перезагрузки оплат после сохранения: %v", lerr)
	}
	return nil
}

// ConfirmDelete удаляет выбранную оплату и перечитывает список.
func (s *Subscriptions) ConfirmDelete(ctx context.Context) error {
	return s.Delete.Confirm(ctx,
		func(ctx context.Context, key string) (models.ActionResult, error) {
			res, err := s.api.DeleteSubscription(ctx, models.ID(key))
			// у оплат своё сообщение успеха
			res.Message = ""
			return res, err
		},
		func(ctx context.Context) error { return s.Load(ctx) },
	)
}

// Snapshot собирает текущее состояние.
func (s *Subscriptions) Snapshot() SubscriptionsView {
	del := s.Delete.View()
	banner := s.Delete.Banner()

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := append([]models.Subscription{}, s.rows...)
	valid := 0
	for _, r := range rows {
		if r.Valid.On() {
			valid++
		}
	}
	var modal *Modal
	if s.modal != nil {
		m := *s.modal
		modal = &m
	}
	return SubscriptionsView{
		CompanyID:     s.companyID,
		Status:        s.status,
		Error:         s.err,
		Subscriptions: rows,
		Total:         len(rows),
		Valid:         valid,
		Modal:         modal,
		Delete:        del,
		Banner:        banner,
	}
}

func (s *Subscriptions) changed() {
	s.mu.Lock()
	watchers := append([]func(){}, s.watchers...)
	s.mu.Unlock()
	for _, fn := range watchers {
		fn()
	}
}
