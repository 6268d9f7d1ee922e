package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/egor/citydeals-admin/backend"
	"github.com/egor/citydeals-admin/config"
	"github.com/egor/citydeals-admin/database"
	"github.com/egor/citydeals-admin/handlers"
	"github.com/egor/citydeals-admin/middleware"
	"github.com/egor/citydeals-admin/push"
	"github.com/egor/citydeals-admin/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Журнал действий: PostgreSQL, если задан PG_HOST
	var (
		db      *sql.DB
		journal database.Journal = database.Nop{}
	)
	if cfg.JournalEnabled() {
		db, err = database.Open(cfg.DSN())
		if err != nil {
			log.Fatalf("Ошибка подключения к базе данных: %v", err)
		}
		pg := database.NewJournal(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Ошибка создания таблицы журнала: %v", err)
		}
		journal = pg
		log.Println("Журнал действий пишется в PostgreSQL")
	} else {
		log.Println("PG_HOST не задан, журнал действий отключён")
	}

	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())

	// CORS для фронтенда и дополнительных origins
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.AllowAllOrigins {
		log.Println("ВНИМАНИЕ: ALLOW_ALL_ORIGINS=true, CORS открыт для всех origins")
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins()
	}
	r.Use(cors.New(corsCfg))

	hub := websocket.NewHub()
	go hub.Run()

	dispatcher := push.NewDispatcher(
		push.NewClient(cfg.ExpoPushURL, cfg.ExpoAccessToken, cfg.PushTimeout),
		cfg.PushTimeout, cfg.PushRetries,
	)

	handlers.New(handlers.Deps{
		Config:     cfg,
		Backend:    backend.New(cfg.APIBaseURL, cfg.APITimeout),
		Hub:        hub,
		Journal:    journal,
		Dispatcher: dispatcher,
	}).Register(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Сервер запущен на %s (API: %s)", cfg.HTTPAddr, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Остановка сервера...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}

	// Рассылки в фоне дописывают журнал, поэтому база закрывается после них
	dispatcher.Wait()
	hub.Stop()
	if db != nil {
		db.Close()
	}
	log.Println("Сервер остановлен")
}
