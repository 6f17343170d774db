package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
)

type config struct {
	DBPath    string
	Addr      string
	AdminUser string
	LogPath   string
}

const usage = `Usage: sparetrack [flags]

Flags:
  -d, -db <path>          SQLite database path (env SPARETRACK_DB, default: sparetrack.sqlite3)
  -a, -addr <host:port>   listen address (env SPARETRACK_ADDR, default: :8080)
  -u, -user <name>        admin username on first run (env SPARETRACK_ADMIN, default: admin)
  -l, -log <path>         log file path (env SPARETRACK_LOG, default: stdout/stderr only)
  -h, -help               show this help and exit

Environment variables may also be set in a .env file in the working directory.
`

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// parseConfig resolves flags over environment over built-in defaults.
func parseConfig(args []string, getenv func(string) string, out io.Writer) (config, error) {
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	var cfg config
	fset := flag.NewFlagSet("sparetrack", flag.ContinueOnError)
	fset.SetOutput(out)

	dbDefault := env("SPARETRACK_DB", "sparetrack.sqlite3")
	fset.StringVar(&cfg.DBPath, "db", dbDefault, "")
	fset.StringVar(&cfg.DBPath, "d", dbDefault, "")

	addrDefault := env("SPARETRACK_ADDR", ":8080")
	fset.StringVar(&cfg.Addr, "addr", addrDefault, "")
	fset.StringVar(&cfg.Addr, "a", addrDefault, "")

	userDefault := env("SPARETRACK_ADMIN", "admin")
	fset.StringVar(&cfg.AdminUser, "user", userDefault, "")
	fset.StringVar(&cfg.AdminUser, "u", userDefault, "")

	logDefault := env("SPARETRACK_LOG", "")
	fset.StringVar(&cfg.LogPath, "log", logDefault, "")
	fset.StringVar(&cfg.LogPath, "l", logDefault, "")

	fset.Usage = func() { fmt.Fprint(out, usage) }

	if err := fset.Parse(args); err != nil {
		return cfg, err
	}
	if fset.NArg() > 0 {
		fset.Usage()
		return cfg, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}
	return cfg, nil
}
