package main

import (
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cumbres/skisched/internal/config"
	"github.com/cumbres/skisched/internal/db"
	"github.com/cumbres/skisched/internal/logging"
	"github.com/cumbres/skisched/internal/schedule"
	"github.com/cumbres/skisched/internal/services"
	"github.com/cumbres/skisched/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, closeLog, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer closeLog()

	if err := db.Init(cfg.DBPath); err != nil {
		log.Fatalw("db init", zap.Error(err))
	}
	if err := services.EnsureBootstrapUser(cfg.BootstrapEmail, cfg.BootstrapPassword); err != nil {
		log.Fatalw("bootstrap user", zap.Error(err))
	}

	eng := schedule.New(db.Conn(), cfg.Location, log)
	eng.AllowStartEdit = cfg.AllowStartEdit

	r := web.Router(cfg, eng)

	log.Infow("skisched listening", "addr", cfg.Addr, "tz", cfg.Location.String())
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatalw("server", zap.Error(err))
	}
}
