package main

import (
	"flag"

	"go.uber.org/zap"

	"github.com/bulletdb/bulletdb/config"
	"github.com/bulletdb/bulletdb/internal/app"
)

func main() {
	cfgFromFlags := config.FromFlags(flag.CommandLine)
	flag.Parse()
	cfg := cfgFromFlags()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	srv, err := app.NewServer(app.Config{
		Addr:           cfg.Addr,
		ConnString:     cfg.ConnString,
		WALAddr:        cfg.WALAddr,
		ReplConnString: cfg.ReplConnString,
		ReplSlotName:   cfg.ReplSlotName,
	}, log)
	if err != nil {
		log.Fatal("failed to build server", zap.Error(err))
	}

	if err := srv.Run(); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
