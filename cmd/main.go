package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/Leganyst/healthcare-booking/internal/config"
	"github.com/Leganyst/healthcare-booking/internal/db"
	"github.com/Leganyst/healthcare-booking/internal/model"
	"github.com/Leganyst/healthcare-booking/internal/notify"
	"github.com/Leganyst/healthcare-booking/internal/repository"
	"github.com/Leganyst/healthcare-booking/internal/scheduling"
	"github.com/Leganyst/healthcare-booking/internal/server"
	"github.com/Leganyst/healthcare-booking/internal/service"
	"github.com/Leganyst/healthcare-booking/internal/tasks"
)

func main() {
	// .env опционален; в контейнере всё приходит через окружение.
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// 1. Конфиг из env.
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load db config")
	}
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("load app config")
	}

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init db")
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatal().Err(err).Msg("auto migrate")
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("sql DB")
	}
	defer sqlDB.Close()

	// 4. Репозитории (реализации на GORM).
	userRepo := repository.NewGormUserRepository(gormDB)
	apptRepo := repository.NewGormAppointmentRepository(gormDB)
	reportRepo := repository.NewGormReportRepository(gormDB)

	// 5. Сервисы.
	rules := scheduling.BusinessRules{
		OpenHour:  appCfg.OpenHour,
		CloseHour: appCfg.CloseHour,
		ClosedDay: appCfg.ClosedDay,
	}
	identitySvc := service.NewIdentityService(userRepo, appCfg.JWTSecret, appCfg.TokenTTL, log)
	bookingSvc := service.NewBookingService(userRepo, apptRepo, rules, log)
	reportSvc := service.NewReportService(userRepo, apptRepo, reportRepo, log)

	// 6. Фоновые задачи: напоминания и чистка отменённых записей.
	sender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     appCfg.SMTPHost,
		Port:     appCfg.SMTPPort,
		From:     appCfg.SMTPFrom,
		Password: appCfg.SMTPPassword,
	}, log)
	scheduler := tasks.NewScheduler(apptRepo, sender, tasks.Config{
		ReminderHour: appCfg.ReminderHour,
		PurgeWeekday: appCfg.PurgeWeekday,
		PurgeHour:    appCfg.PurgeHour,
		Retention:    time.Duration(appCfg.RetentionDays) * 24 * time.Hour,
	}, log)
	scheduler.Start()

	// 7. HTTP-сервер.
	srv := server.New(appCfg, identitySvc, bookingSvc, reportSvc, log)
	go func() {
		if err := srv.Start(appCfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http serve")
		}
	}()

	log.Info().Str("addr", appCfg.HTTPAddr).Msg("healthcare booking service listening")

	// 8. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
}
