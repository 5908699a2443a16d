package main

import (
	"bytes"
	"database/sql"
	"io/fs"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/projetodesenvolve/orcamento/core"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	var out bytes.Buffer
	return &commandLine{
		conf: &core.Config{Quote: core.QuoteConfig{UnitCost: decimal.NewFromInt(31500)}},
		out:  &out,
		openDB: func() (*sqlx.DB, error) {
			// never dialed: the goose funcs are mocked
			return sqlx.Open("postgres", "postgres://localhost/orcamento_test?sslmode=disable")
		},
	}, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
	extra      interface{}
}

func checkRun(t *testing.T, cli *commandLine, out *bytes.Buffer, tt cliTest) {
	out.Reset()
	args := append([]string{"admin"}, tt.args...)

	err := cli.run(args)
	switch {
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
	if tt.wantOut != "" && !strings.Contains(out.String(), tt.wantOut) {
		t.Errorf("cli.run() output = %q, want it to contain %q", out.String(), tt.wantOut)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	var calls []string
	record := func(name string) func(*sql.DB, fs.FS, string) error {
		return func(_ *sql.DB, _ fs.FS, dir string) error {
			calls = append(calls, name+" "+dir)
			return nil
		}
	}
	recordTo := func(name string) func(*sql.DB, fs.FS, string, int64) error {
		return func(_ *sql.DB, _ fs.FS, dir string, version int64) error {
			calls = append(calls, name+" "+dir)
			return nil
		}
	}
	gooseUpFunc = record("up")
	gooseDownFunc = record("down")
	gooseRedoFunc = record("redo")
	gooseUpToFunc = recordTo("up-to")
	gooseDownToFunc = recordTo("down-to")
	gooseVersionFunc = func(*sql.DB) (int64, error) { return 20240501, nil }

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: migrate up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: migrate down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "version", args: []string{"migrate", "version"}, wantOut: "version 20240501"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkRun(t, cli, out, tt)
		})
	}

	want := []string{"up migrations", "up-to migrations", "down migrations", "down-to migrations", "redo migrations"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("goose calls = %v, want %v", calls, want)
	}
}

func Test_commandLine_hashPassword(t *testing.T) {
	cli, out := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "empty password", args: []string{"hashpassword"}, wantErr: errHelp},
		{name: "hash", args: []string{"hashpassword"}, extra: extra{pwd: "s3nha-forte"}, wantOut: "$2a$"},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			checkRun(t, cli, out, tt)

			if extra, ok := tt.extra.(extra); ok {
				lines := strings.Split(strings.TrimSpace(out.String()), "\n")
				hash := lines[len(lines)-1]
				if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(extra.pwd)); err != nil {
					t.Errorf("printed hash does not match the password: %v", err)
				}
			}
		})
	}
}

func Test_commandLine_quote(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"quote"}, wantErr: errHelp},
		{name: "unknown flag", args: []string{"quote", "-lol"}, wantErr: errHelp},
		{name: "invalid date", args: []string{"quote", "-students", "10", "-date", "2025-02-30"}, wantErrStr: `invalid date "2025-02-30": parsing time "2025-02-30": day out of range`},
		{name: "no students", args: []string{"quote", "-date", "2025-01-01"}, wantOut: "Informe a quantidade de alunos"},
		{name: "header", args: []string{"quote", "-students", "150", "-date", "2025-01-01"}, wantOut: "150 alunos, assinatura em 01/01/2025"},
		{name: "installments", args: []string{"quote", "-students", "150", "-date", "2025-01-01"}, wantOut: "24x R$ 157.500,00"},
		{name: "buckets", args: []string{"quote", "-students", "150", "-date", "2025-01-01"}, wantOut: "Total em 2027 (3 meses): R$ 472.500,00"},
		{name: "total", args: []string{"quote", "-students", "1.50", "-date", "2025-01-01"}, wantOut: "Investimento total: R$ 4.725.000,00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkRun(t, cli, out, tt)
		})
	}
}
