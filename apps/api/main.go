package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/projetodesenvolve/orcamento/apps/api/echo"
	"github.com/projetodesenvolve/orcamento/core"
	"github.com/projetodesenvolve/orcamento/core/proposal"
	"github.com/projetodesenvolve/orcamento/core/recipient"
	emailsvc "github.com/projetodesenvolve/orcamento/services/email"
	logsvc "github.com/projetodesenvolve/orcamento/services/logger"
	pdfsvc "github.com/projetodesenvolve/orcamento/services/pdf"
	"github.com/projetodesenvolve/orcamento/storage/database"
	inmemdb "github.com/projetodesenvolve/orcamento/storage/database/inmem"
	sqlxrepos "github.com/projetodesenvolve/orcamento/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(conf, os.Stdout), conf)
	defer logger.Info("Application stopped")

	if err := echoapi.PreparePasswordHash(&conf.Auth); err != nil {
		logger.Fatal("preparing operator credential", err)
	}
	if conf.Auth.User == "" || conf.Auth.PasswordHash == "" {
		logger.Warn("no operator credential configured: every login will fail")
	}

	// set up storage
	rcptRepo, closeDB, err := setUpRecipientRepository(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer closeDB()

	// set up services
	mailSvc, err := emailsvc.NewService(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up mail provider: %v", err), err)
	}
	rcptSvc := recipient.NewService(rcptRepo)
	propSvc := proposal.NewService(proposal.Options{
		UnitCost:         conf.Quote.UnitCost,
		HiddenRecipients: conf.Mail.HiddenRecipients,
		Renderer:         pdfsvc.NewRenderer(conf),
		Mailer:           mailSvc,
		Logger:           logger,
	})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), map[string]interface{}{
		"env":               conf.Env,
		"mail_provider":     conf.Mail.Provider,
		"hidden_recipients": len(conf.Mail.HiddenRecipients),
	})

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	core.ParseEmailTemplates(logger)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.Options{
		Config:       conf,
		Logger:       logger,
		RecipientSvc: rcptSvc,
		ProposalSvc:  propSvc,
		Validate:     validate,
		Translator:   translator,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpRecipientRepository opens and migrates Postgres; a DEV run without database settings stays in memory.
func setUpRecipientRepository(conf *core.Config, logger core.Logger) (recipient.Repository, func(), error) {
	if conf.Env == "DEV" && conf.Database.URL == "" && conf.Database.User == "" {
		logger.Warn("no database configured: recipients are kept in memory")
		return inmemdb.NewRecipientRepository(inmemdb.Open()), func() {}, nil
	}

	if conf.Database.URL == "" {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, nil, err
		}
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}

	if err = database.Migrate(db); err != nil {
		closeDB()
		return nil, nil, err
	}
	return sqlxrepos.NewRecipientRepository(db), closeDB, nil
}
