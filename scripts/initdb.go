package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/egor/citydeals-admin/config"
	"github.com/egor/citydeals-admin/database"
)

// Применяет миграции журнала действий и, по флагу -seed, добавляет тестовые записи.
// Запуск: go run ./scripts -seed, откат: go run ./scripts -down
func main() {
	seed := flag.Bool("seed", false, "добавить тестовые записи в журнал")
	down := flag.Bool("down", false, "откатить миграции")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}
	if !cfg.JournalEnabled() {
		log.Fatal("PG_HOST не задан, журнал не используется")
	}

	direction := "up"
	if *down {
		direction = "down"
	}
	if err := database.Migrate(cfg.MigrateURL(), direction); err != nil {
		log.Fatalf("Ошибка миграции (%s): %v", direction, err)
	}
	log.Printf("Миграции применены (%s)", direction)
	if *down || !*seed {
		return
	}

	db, err := database.Open(cfg.DSN())
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	journal := database.NewJournal(db)
	now := time.Now()
	entries := []database.Entry{
		{AdminEmail: "admin@citydeals.test", Action: "login", Resource: "session", Success: true},
		{AdminEmail: "admin@citydeals.test", Action: "toggle", Resource: "companies", ResourceID: "1", Success: true},
		{AdminEmail: "admin@citydeals.test", Action: "send", Resource: "notifications", ResourceID: uuid.NewString(),
			Success: false, Message: "acceptées 0, rejetées 2"},
	}
	for i, e := range entries {
		e.CreatedAt = now.Add(-time.Duration(len(entries)-i) * time.Minute)
		journal.Record(ctx, e)
		log.Printf("Добавлена запись журнала: %s %s/%s", e.Action, e.Resource, e.ResourceID)
	}

	recent, err := journal.Recent(ctx, 10)
	if err != nil {
		log.Fatalf("Ошибка чтения журнала: %v", err)
	}
	log.Printf("В журнале %d записей", len(recent))
}
