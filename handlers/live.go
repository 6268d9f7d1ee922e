package handlers

import (
	"context"
	"errors"
	"log"
	"net/url"
	"sync"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/explorer"
	"github.com/egor/citydeals-admin/models"
	websocketpkg "github.com/egor/citydeals-admin/websocket"
)

// Коды ошибок живого канала
const (
	codeBadRequest  = "bad_request"
	codeUnknownType = "unknown_type"
	codeNoScreen    = "no_screen"
	codePending     = "pending"
	codeUnknownRow  = "unknown_row"
	codeUnsupported = "unsupported"
	codeBackend     = "backend"
)

// screen - открытый список, независимо от типа строк
type screen interface {
	resource() string
	open(params url.Values)
	load(ctx context.Context) error
	filter(text string)
	facet(name, value string)
	navigate(p navigatePayload) string
	toggle(ctx context.Context, id string) error
	requestDelete(id string) error
	cancelDelete() error
	confirmDelete(ctx context.Context) error
	candidate() string
	watch(fn func())
	snapshot() any
}

// listScreen связывает explorer.Explorer с клиентом бэкенда
type listScreen[T any] struct {
	ex        *explorer.Explorer[T]
	fetch     explorer.FetchFunc[T]
	toggleReq func(id string) explorer.ToggleRequest // nil - без переключения
	del       explorer.DeleteFunc                    // nil - без удаления
}

func (s *listScreen[T]) resource() string         { return s.ex.Resource() }
func (s *listScreen[T]) open(params url.Values)   { s.ex.Open(params) }
func (s *listScreen[T]) filter(text string)       { s.ex.SetFilter(text) }
func (s *listScreen[T]) facet(name, value string) { s.ex.SetFacet(name, value) }
func (s *listScreen[T]) candidate() string        { return s.ex.Delete.View().Candidate }
func (s *listScreen[T]) watch(fn func())          { s.ex.OnChange(fn) }
func (s *listScreen[T]) snapshot() any            { return s.ex.Snapshot() }

func (s *listScreen[T]) load(ctx context.Context) error {
	return s.ex.Load(ctx, s.fetch)
}

func (s *listScreen[T]) navigate(p navigatePayload) string {
	next := s.ex.Query()
	if p.Sort != "" {
		next = next.WithSort(p.Sort)
	}
	if p.ToggleDirection {
		next = next.ToggleDirection()
	}
	if p.Q != nil {
		next = next.WithSearch(*p.Q)
	}
	return s.ex.Navigate(next)
}

func (s *listScreen[T]) toggle(ctx context.Context, id string) error {
	if s.toggleReq == nil {
		return errUnsupported
	}
	return s.ex.Toggle.Flip(ctx, id, s.toggleReq(id))
}

func (s *listScreen[T]) requestDelete(id string) error {
	if s.del == nil {
		return errUnsupported
	}
	if _, ok := s.ex.Find(id); !ok {
		return explorer.ErrUnknownKey
	}
	return s.ex.Delete.Request(id)
}

func (s *listScreen[T]) cancelDelete() error { return s.ex.Delete.Cancel() }

func (s *listScreen[T]) confirmDelete(ctx context.Context) error {
	if s.del == nil {
		return errUnsupported
	}
	return s.ex.Delete.Confirm(ctx, s.del, s.ex.Refresh(s.fetch))
}

var errUnsupported = errors.New("action not supported on this screen")

// newScreen создаёт экран по имени ресурса
func newScreen(resource string, api *backend.Client) (screen, bool) {
	deleteWith := func(fn func(context.Context, models.ID) (models.ActionResult, error)) explorer.DeleteFunc {
		return func(ctx context.Context, key string) (models.ActionResult, error) {
			return fn(ctx, models.ID(key))
		}
	}

	switch resource {
	case explorer.ResourceCompanies:
		return &listScreen[models.Company]{
			ex:        explorer.NewCompanies(),
			fetch:     explorer.FetchCompanies(api),
			toggleReq: func(id string) explorer.ToggleRequest { return explorer.ToggleCompany(api, id) },
			del:       deleteWith(api.DeleteCompany),
		}, true
	case explorer.ResourceCompanyCategories:
		return &listScreen[models.CompanyCategory]{
			ex:    explorer.NewCompanyCategories(),
			fetch: explorer.FetchCompanyCategories(api),
			del:   deleteWith(api.DeleteCompanyCategory),
		}, true
	case explorer.ResourceDeals:
		return &listScreen[models.Deal]{
			ex:    explorer.NewDeals(),
			fetch: explorer.FetchDeals(api),
		}, true
	case explorer.ResourceDealCategories:
		return &listScreen[models.DealCategory]{
			ex:    explorer.NewDealCategories(),
			fetch: explorer.FetchDealCategories(api),
			del:   deleteWith(api.DeleteDealCategory),
		}, true
	case explorer.ResourceUsers:
		return &listScreen[models.User]{
			ex:        explorer.NewUsers(),
			fetch:     explorer.FetchUsers(api),
			toggleReq: func(id string) explorer.ToggleRequest { return explorer.ToggleUser(api, id) },
		}, true
	}
	return nil, false
}

// Payload'ы входящих сообщений
type (
	openPayload struct {
		Resource  string `json:"resource"`
		Sort      string `json:"sort"`
		Direction string `json:"direction"`
		Q         string `json:"q"`
	}
	filterPayload struct {
		Text string `json:"text"`
	}
	facetPayload struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	navigatePayload struct {
		Sort            string  `json:"sort"`
		ToggleDirection bool    `json:"toggleDirection"`
		Q               *string `json:"q"`
	}
	idPayload struct {
		ID string `json:"id"`
	}
	companyPayload struct {
		CompanyID string `json:"id_company"`
	}
)

// liveSession - состояние одного подключения дашборда
type liveSession struct {
	h      *Handlers
	client *websocketpkg.Client
	api    *backend.Client
	admin  string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	screen screen
	subs   *explorer.Subscriptions
}

func newLiveSession(h *Handlers, client *websocketpkg.Client, api *backend.Client) *liveSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &liveSession{h: h, client: client, api: api, admin: client.Admin, ctx: ctx, cancel: cancel}
}

// close отменяет незавершённые запросы и ждёт их
func (s *liveSession) close() {
	s.cancel()
	s.wg.Wait()
}

// async выполняет долгое действие, не блокируя чтение сокета
func (s *liveSession) async(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *liveSession) current() screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

func (s *liveSession) subscriptions() *explorer.Subscriptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs
}

func (s *liveSession) sendScreen(sc screen) {
	// старый экран мог смениться, пока шёл запрос
	if s.current() != sc {
		return
	}
	s.client.SendJSON(websocketpkg.TypeExplorerState, sc.snapshot())
}

func (s *liveSession) sendSubscriptions(subs *explorer.Subscriptions) {
	if s.subscriptions() != subs {
		return
	}
	s.client.SendJSON(websocketpkg.TypeSubscriptionsState, subs.Snapshot())
}

// sendError переводит ошибку в сообщение error
func (s *liveSession) sendError(err error) {
	switch {
	case errors.Is(err, explorer.ErrPending), errors.Is(err, explorer.ErrDeleting), errors.Is(err, explorer.ErrSaving):
		s.client.SendError(codePending, "Une action est déjà en cours.")
	case errors.Is(err, explorer.ErrUnknownKey), errors.Is(err, explorer.ErrNoCandidate), errors.Is(err, explorer.ErrNoModal):
		s.client.SendError(codeUnknownRow, "Élément introuvable.")
	case errors.Is(err, errUnsupported):
		s.client.SendError(codeUnsupported, "Action indisponible sur cet écran.")
	default:
		s.client.SendError(codeBackend, backend.UserMessage(err, "Une erreur est survenue."))
	}
}

// handle разбирает одно входящее сообщение
func (s *liveSession) handle(raw []byte) {
	msg, err := websocketpkg.Parse(raw)
	if err != nil || msg.Type == "" {
		s.client.SendError(codeBadRequest, "Message invalide.")
		return
	}

	switch msg.Type {
	case "explorer.open":
		var p openPayload
		if err := msg.Decode(&p); err != nil {
			s.client.SendError(codeBadRequest, "Message invalide.")
			return
		}
		s.openScreen(p)

	case "explorer.filter":
		var p filterPayload
		if err := msg.Decode(&p); err != nil {
			s.client.SendError(codeBadRequest, "Message invalide.")
			return
		}
		s.withScreen(func(sc screen) { sc.filter(p.Text) })

	case "explorer.facet":
		var p facetPayload
		if err := msg.Decode(&p); err != nil {
			s.client.SendError(codeBadRequest, "Message invalide.")
			return
		}
		s.withScreen(func(sc screen) { sc.facet(p.Name, p.Value) })

	case "explorer.navigate":
		var p navigatePayload
		if err := msg.Decode(&p); err != nil {
			s.client.SendError(codeBadRequest, "Message invalide.")
			return
		}
		s.withScreen(func(sc screen) {
			sc.navigate(p)
			s.async(func(ctx context.Context) { _ = sc.load(ctx) })
		})

	case "explorer.toggle":
		var p idPayload
		if err := msg.Decode(&p); err != nil || p.ID == "" {
			s.client.SendError(codeBadRequest, "Identifiant manquant.")
			return
		}
		s.withScreen(func(sc screen) {
			s.async(func(ctx context.Context) {
				err := sc.toggle(ctx, p.ID)
				if err != nil {
					// статус уже откатан, клиенту нужен текст ошибки
					s.sendError(err)
				}
				if errors.Is(err, explorer.ErrPending) || errors.Is(err, explorer.ErrUnknownKey) || errors.Is(err, errUnsupported) {
					return
				}
				s.done(sc.resource(), p.ID, "toggle", err)
			})
		})

	case "explorer.delete":
		var p idPayload
		if err := msg.Decode(&p); err != nil || p.ID == "" {
			s.client.SendError(codeBadRequest, "Identifiant manquant.")
			return
		}
		s.withScreen(func(sc screen) {
			if err := sc.requestDelete(p.ID); err != nil {
				s.sendError(err)
			}
		})

	case "explorer.delete.cancel":
		s.withScreen(func(sc screen) {
			if err := sc.cancelDelete(); err != nil {
				s.sendError(err)
			}
		})

	case "explorer.delete.confirm":
		s.withScreen(func(sc screen) {
			id := sc.candidate()
			s.async(func(ctx context.Context) {
				err := sc.confirmDelete(ctx)
				if errors.Is(err, explorer.ErrNoCandidate) || errors.Is(err, explorer.ErrDeleting) || errors.Is(err, errUnsupported) {
					s.sendError(err)
					return
				}
				// ошибка уже в баннере экрана
				s.done(sc.resource(), id, "delete", err)
			})
		})

	case "subscriptions.open":
		var p companyPayload
		if err := msg.Decode(&p); err != nil || p.CompanyID == "" {
			s.client.SendError(codeBadRequest, msgCompanyIDMissing)
			return
		}
		s.openSubscriptions(models.ID(p.CompanyID))

	case "subscriptions.create":
		s.withSubscriptions(func(subs *explorer.Subscriptions) { subs.OpenCreate() })

	case "subscriptions.edit":
		var p idPayload
		if err := msg.Decode(&p); err != nil || p.ID == "" {
			s.client.SendError(codeBadRequest, msgSubscriptionIDMissing)
			return
		}
		s.withSubscriptions(func(subs *explorer.Subscriptions) {
			if err := subs.OpenEdit(models.ID(p.ID)); err != nil {
				s.sendError(err)
			}
		})

	case "subscriptions.close":
		s.withSubscriptions(func(subs *explorer.Subscriptions) { subs.CloseModal() })

	case "subscriptions.save":
		var form models.SubscriptionForm
		if err := msg.Decode(&form); err != nil {
			s.client.SendError(codeBadRequest, "Message invalide.")
			return
		}
		s.withSubscriptions(func(subs *explorer.Subscriptions) {
			s.async(func(ctx context.Context) {
				err := subs.Save(ctx, form)
				if errors.Is(err, explorer.ErrNoModal) || errors.Is(err, explorer.ErrSaving) {
					s.sendError(err)
					return
				}
				// ошибка бэкенда показана в окне
				s.done(explorer.ResourceSubscriptions, subs.CompanyID().String(), "save", err)
			})
		})

	case "subscriptions.delete":
		var p idPayload
		if err := msg.Decode(&p); err != nil || p.ID == "" {
			s.client.SendError(codeBadRequest, msgSubscriptionIDMissing)
			return
		}
		s.withSubscriptions(func(subs *explorer.Subscriptions) {
			if err := subs.Delete.Request(p.ID); err != nil {
				s.sendError(err)
			}
		})

	case "subscriptions.delete.cancel":
		s.withSubscriptions(func(subs *explorer.Subscriptions) {
			if err := subs.Delete.Cancel(); err != nil {
				s.sendError(err)
			}
		})

	case "subscriptions.delete.confirm":
		s.withSubscriptions(func(subs *explorer.Subscriptions) {
			id := subs.Delete.View().Candidate
			s.async(func(ctx context.Context) {
				err := subs.ConfirmDelete(ctx)
				if errors.Is(err, explorer.ErrNoCandidate) || errors.Is(err, explorer.ErrDeleting) {
					s.sendError(err)
					return
				}
				s.done(explorer.ResourceSubscriptions, id, "delete", err)
			})
		})

	default:
		s.client.SendError(codeUnknownType, "Type de message inconnu : "+msg.Type)
	}
}

func (s *liveSession) withScreen(fn func(sc screen)) {
	sc := s.current()
	if sc == nil {
		s.client.SendError(codeNoScreen, "Aucune liste ouverte.")
		return
	}
	fn(sc)
}

func (s *liveSession) withSubscriptions(fn func(subs *explorer.Subscriptions)) {
	subs := s.subscriptions()
	if subs == nil {
		s.client.SendError(codeNoScreen, "Aucune entreprise ouverte.")
		return
	}
	fn(subs)
}

func (s *liveSession) openScreen(p openPayload) {
	sc, ok := newScreen(p.Resource, s.api)
	if !ok {
		s.client.SendError(codeBadRequest, "Ressource inconnue : "+p.Resource)
		return
	}
	params := url.Values{}
	for k, v := range map[string]string{"sort": p.Sort, "direction": p.Direction, "q": p.Q} {
		if v != "" {
			params.Set(k, v)
		}
	}
	sc.open(params)

	s.mu.Lock()
	s.screen = sc
	s.mu.Unlock()
	sc.watch(func() { s.sendScreen(sc) })

	s.async(func(ctx context.Context) { _ = sc.load(ctx) })
}

func (s *liveSession) openSubscriptions(companyID models.ID) {
	subs := explorer.NewSubscriptions(s.api, companyID)
	s.mu.Lock()
	s.subs = subs
	s.mu.Unlock()
	subs.OnChange(func() { s.sendSubscriptions(subs) })

	s.async(func(ctx context.Context) { _ = subs.Load(ctx) })
}

// done - итог изменения: журнал и, при успехе, сигнал остальным вкладкам
func (s *liveSession) done(resource, id, action string, err error) {
	if err != nil {
		log.Printf("WS %s: %s %s/%s: %v", s.admin, action, resource, id, err)
		s.h.record(s.ctx, s.admin, action, resource, id, false, backend.UserMessage(err, err.Error()))
		return
	}
	s.h.record(s.ctx, s.admin, action, resource, id, true, "")
	s.h.hub.BroadcastResourceChanged(resource, id, action)
}
