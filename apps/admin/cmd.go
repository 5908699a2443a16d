package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/projetodesenvolve/orcamento/core"
	"github.com/projetodesenvolve/orcamento/core/budget"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	out    io.Writer
	openDB func() (*sqlx.DB, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate up|down|redo|version|up-to VERSION|down-to VERSION - manage the database schema")
	fmt.Fprintln(cli.out, "  hashpassword - print the bcrypt hash of the operator password (AUTH_PASSWORD_HASH)")
	fmt.Fprintln(cli.out, "  quote -students N -date YYYY-MM-DD - print the payment schedule of a quote")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	quoteCmd := flag.NewFlagSet("quote", flag.ContinueOnError)
	quoteCmd.SetOutput(cli.out)
	quoteStudents := quoteCmd.String("students", "", "The number of students.")
	quoteDate := quoteCmd.String("date", "", "The signing date, YYYY-MM-DD.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		db, err := cli.openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return cli.migrate(db, args[2:])
	case "hashpassword":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(pwd)
	case "quote":
		if err := quoteCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *quoteDate == "" {
			quoteCmd.Usage()
			return errHelp
		}
		return cli.quote(*quoteStudents, *quoteDate)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) hashPassword(pwd []byte) error {
	hash, err := bcrypt.GenerateFromPassword(pwd, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, string(hash))
	return nil
}

func (cli *commandLine) quote(students, date string) error {
	req := budget.QuoteRequest{Students: students, SigningDate: date}
	in, err := req.ToInput(cli.conf.Quote.UnitCost)
	if err != nil {
		return err
	}
	sched, err := budget.Calculate(in)
	if err != nil {
		return err
	}
	if sched.IsEmpty() {
		fmt.Fprintln(cli.out, "Informe a quantidade de alunos para calcular o investimento.")
		return nil
	}

	fmt.Fprintf(cli.out, "%d alunos, assinatura em %s\n", in.Students, in.SigningDate.Format())
	for _, line := range sched.Lines() {
		fmt.Fprintln(cli.out, line)
	}
	return nil
}
