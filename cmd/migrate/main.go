// migrate applies the embedded schema migrations to DATABASE_URL.
package main

import (
	"flag"
	"fmt"
	"os"

	"agrovision-auth/internal/config"
	"agrovision-auth/internal/db/migrate"
	"agrovision-auth/internal/logging"
)

func main() {
	direction := flag.String("direction", migrate.Up, "migration direction: up or down")
	showVersion := flag.Bool("version", false, "print the current schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, os.Stderr)

	if *showVersion {
		v, dirty, err := migrate.Version(cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("read schema version")
		}
		fmt.Printf("version %d (dirty=%t)\n", v, dirty)
		return
	}
	if err := migrate.Run(cfg.DatabaseURL, *direction, log); err != nil {
		log.WithError(err).WithField("direction", *direction).Fatal("migrate")
	}
}
