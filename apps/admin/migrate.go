package main

import (
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/trezcool/goose"

	appfs "github.com/projetodesenvolve/orcamento/fs"
)

const migrationsDir = "migrations"

var (
	gooseUpFunc      = goose.Up // mockable
	gooseUpToFunc    = goose.UpTo
	gooseDownFunc    = goose.Down
	gooseDownToFunc  = goose.DownTo
	gooseRedoFunc    = goose.Redo
	gooseVersionFunc = goose.GetDBVersion
)

func (cli *commandLine) migrate(db *sqlx.DB, args []string) error {
	command := args[0]
	switch command {
	case "up":
		return gooseUpFunc(db.DB, appfs.FS, migrationsDir)
	case "down":
		return gooseDownFunc(db.DB, appfs.FS, migrationsDir)
	case "redo":
		return gooseRedoFunc(db.DB, appfs.FS, migrationsDir)
	case "up-to", "down-to":
		if len(args) < 2 {
			return fmt.Errorf("%s must be of form: migrate %s VERSION", command, command)
		}
		version, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("version must be a number (got '%s')", args[1])
		}
		if command == "up-to" {
			return gooseUpToFunc(db.DB, appfs.FS, migrationsDir, version)
		}
		return gooseDownToFunc(db.DB, appfs.FS, migrationsDir, version)
	case "version":
		version, err := gooseVersionFunc(db.DB)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "version %d\n", version)
		return nil
	default:
		return fmt.Errorf("%q: no such command", command)
	}
}
