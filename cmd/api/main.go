package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/z-scheduler/backend/internal/config"
	"github.com/zhouzirui/z-scheduler/backend/internal/handler"
	calendarmodel "github.com/zhouzirui/z-scheduler/backend/internal/model/calendar"
	"github.com/zhouzirui/z-scheduler/backend/internal/service/booking"
	"github.com/zhouzirui/z-scheduler/backend/internal/service/calendar"
	"github.com/zhouzirui/z-scheduler/backend/internal/service/chat"
	"github.com/zhouzirui/z-scheduler/backend/internal/service/dateextract"
	"github.com/zhouzirui/z-scheduler/backend/internal/service/slots"
	"github.com/zhouzirui/z-scheduler/backend/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	store, cleanup, err := buildSessionStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to initialize session store: %v", err)
	}
	cleanups = append(cleanups, cleanup)

	booker, cleanup, err := buildBooker(ctx, cfg.Booking)
	if err != nil {
		log.Fatalf("failed to initialize booking backend: %v", err)
	}
	cleanups = append(cleanups, cleanup)

	source, err := buildCalendarSource(ctx, cfg.Calendar)
	if err != nil {
		log.Fatalf("failed to load busy calendar: %v", err)
	}

	slotSvc, err := slots.NewService(source, cfg.Slots.CacheSize)
	if err != nil {
		log.Fatalf("failed to initialize slot service: %v", err)
	}

	if lister, ok := booker.(slots.BookedLister); ok {
		if err := slotSvc.Preload(ctx, lister); err != nil {
			log.Fatalf("failed to load existing bookings: %v", err)
		}
		booker = slots.TrackBookings(booker, slotSvc)
	}

	dateSvc, err := dateextract.NewService(ctx, buildChatModel(ctx, cfg.AI), dateextract.Config{Enabled: cfg.AI.DateLLMEnabled})
	if err != nil {
		log.Printf("warning: failed to initialize date extractor: %v", err)
		dateSvc, _ = dateextract.NewService(ctx, nil, dateextract.Config{})
	}
	if dateSvc.Enabled() {
		log.Println("LLM date extraction enabled")
	} else if cfg.AI.DateLLMEnabled {
		log.Println("LLM date extraction requested but chat model unavailable, using rules only")
	}

	chatService, err := chat.NewService(store, dateSvc, slotSvc, booker)
	if err != nil {
		log.Fatalf("failed to initialize chat service: %v", err)
	}

	router := handler.NewRouter(chatService)

	startServer(ctx, cfg.Server, router)
}

func buildSessionStore(ctx context.Context, cfg config.StoreConfig) (chat.SessionStore, func(), error) {
	if cfg.Backend != config.StoreRedis {
		log.Println("using in-memory session store")
		return chat.NewMemoryStore(), func() {}, nil
	}

	client, err := storage.ConnectRedis(ctx, storage.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	return storage.NewRedisSessionStore(client, cfg.KeyPrefix, cfg.SessionTTL), func() { _ = client.Close() }, nil
}

func buildBooker(ctx context.Context, cfg config.BookingConfig) (booking.Booker, func(), error) {
	if cfg.Backend != config.BookingPostgres {
		log.Println("bookings are logged only")
		return booking.NewLogBooker(), func() {}, nil
	}

	db, err := storage.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	ledger := storage.NewBookingLedger(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return ledger, func() { _ = db.Close() }, nil
}

func buildCalendarSource(ctx context.Context, cfg config.CalendarConfig) (calendarmodel.Source, error) {
	if cfg.ICSSource == "" {
		log.Println("using built-in busy calendar")
		return calendarmodel.NewStatic(calendarmodel.Seed()...), nil
	}
	return calendar.LoadICS(ctx, cfg.ICSSource, calendar.HorizonWindow(time.Now(), cfg.HorizonDays))
}

func buildChatModel(ctx context.Context, cfg config.AIConfig) model.ChatModel {
	if !cfg.DateLLMEnabled {
		return nil
	}
	if !cfg.Enabled() {
		log.Println("Ark credentials missing, skipping chat model initialization")
		return nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		log.Printf("warning: failed to initialize chat model: %v", err)
		return nil
	}
	return chatModel
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("scheduler backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Printf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
