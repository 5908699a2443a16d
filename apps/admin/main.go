package main

import (
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/projetodesenvolve/orcamento/core"
	logsvc "github.com/projetodesenvolve/orcamento/services/logger"
	"github.com/projetodesenvolve/orcamento/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf, os.Stderr), conf)

	// start CLI
	cli := commandLine{
		conf: conf,
		out:  os.Stdout,
		openDB: func() (*sqlx.DB, error) {
			if conf.Database.URL == "" {
				if err := database.CreateIfNotExist(conf); err != nil {
					return nil, err
				}
			}
			return database.Open(conf)
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err, map[string]interface{}{"args": os.Args[1:]})
		}
		os.Exit(1)
	}
}
