package push

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sender отправляет одну пачку сообщений. *Client его реализует.
type Sender interface {
	Send(ctx context.Context, messages []Message) ([]Ticket, error)
}

// Result - итог фоновой рассылки
type Result struct {
	TaskID      string        `json:"task_id"`
	Title       string        `json:"title"`
	Recipient   string        `json:"recipient"`
	City        string        `json:"city"`
	RequestedBy string        `json:"requested_by,omitempty"`
	Recipients  int           `json:"recipients"`
	Accepted    int           `json:"accepted"`
	Rejected    int           `json:"rejected"`
	Tickets     []Ticket      `json:"tickets,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Task - дескриптор фоновой рассылки.
type Task struct {
	ID string

	done   chan struct{}
	result Result
	err    error
}

// Done закрывается по завершении рассылки.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait ждёт завершения рассылки или отмены ctx.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Dispatcher выполняет рассылки в фоне с общим таймаутом и повтором пачек.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	retries int
	backoff time.Duration

	mu       sync.Mutex
	watchers []func(Result, error)
	wg       sync.WaitGroup
}

// NewDispatcher создаёт диспетчер. retries - число повторов на пачку.
func NewDispatcher(sender Sender, timeout time.Duration, retries int) *Dispatcher {
	if timeout <= 0 {
		timeout = time.Minute
	}
	if retries < 0 {
		retries = 0
	}
	return &Dispatcher{sender: sender, timeout: timeout, retries: retries, backoff: time.Second}
}

// OnDone подписывает наблюдателя на завершение каждой рассылки.
func (d *Dispatcher) OnDone(fn func(Result, error)) {
	d.mu.Lock()
	d.watchers = append(d.watchers, fn)
	d.mu.Unlock()
}

// Dispatch запускает рассылку и сразу возвращает дескриптор.
// Рассылка не зависит от контекста HTTP-запроса.
func (d *Dispatcher) Dispatch(n Notification, messages []Message) *Task {
	task := &Task{ID: uuid.New().String(), done: make(chan struct{})}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(task.done)

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		started := time.Now()
		res, err := d.run(ctx, messages)
		res.TaskID = task.ID
		res.Title = n.Title
		res.Recipient = n.Recipient
		res.City = n.City
		res.RequestedBy = n.RequestedBy
		res.Recipients = len(messages)
		res.Duration = time.Since(started)
		if err != nil {
			res.Error = err.Error()
			log.Printf("Рассылка %s завершилась с ошибкой: %v", task.ID, err)
		} else {
			log.Printf("Рассылка %s: принято %d, отклонено %d", task.ID, res.Accepted, res.Rejected)
		}
		task.result, task.err = res, err

		d.mu.Lock()
		watchers := append([]func(Result, error){}, d.watchers...)
		d.mu.Unlock()
		for _, fn := range watchers {
			fn(res, err)
		}
	}()
	return task
}

// Wait ждёт завершения всех рассылок (для остановки сервера).
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, messages []Message) (Result, error) {
	var res Result
	var failed []error
	for i, chunk := range Chunk(messages, ChunkSize) {
		tickets, err := d.sendWithRetry(ctx, chunk)
		if err != nil {
			failed = append(failed, fmt.Errorf("chunk %d: %w", i, err))
			res.Rejected += len(chunk)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		for _, t := range tickets {
			if t.OK() {
				res.Accepted++
			} else {
				res.Rejected++
			}
		}
		res.Tickets = append(res.Tickets, tickets...)
	}
	return res, errors.Join(failed...)
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, chunk []Message) ([]Ticket, error) {
	var lastErr error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(d.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		tickets, err := d.sender.Send(ctx, chunk)
		if err == nil {
			return tickets, nil
		}
		lastErr = err
		log.Printf("Ошибка отправки пачки (попытка %d/%d): %v", attempt+1, d.retries+1, err)
	}
	return nil, lastErr
}
