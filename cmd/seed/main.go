// seed inserts development accounts into DATABASE_URL. Idempotent: an account whose phone
// or email is already taken is skipped.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"agrovision-auth/internal/account/domain"
	accountrepo "agrovision-auth/internal/account/repository"
	"agrovision-auth/internal/config"
	"agrovision-auth/internal/credential"
	"agrovision-auth/internal/db"
	"agrovision-auth/internal/logging"
)

const devPassword = "password123"

type devAccount struct {
	name     string
	email    string
	phone    string
	lang     domain.Language
	verified bool
}

var devAccounts = []devAccount{
	{name: "Dev Farmer", email: "dev@example.com", phone: "+919000000001", lang: domain.LanguageEnglish, verified: true},
	{name: "Asha", email: "asha@example.com", phone: "+919876543210", lang: domain.LanguageHindi, verified: false},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, os.Stdout)
	if cfg.IsProduction() {
		log.Fatal("refusing to seed a production database")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db")
	}
	defer conn.Close()

	accounts := accountrepo.NewPostgresRepository(conn)
	creds := credential.NewPostgresRepository(conn)
	hasher := credential.NewHasher(cfg.BcryptCost)

	for _, d := range devAccounts {
		entry := log.WithFields(logrus.Fields{"phone": d.phone, "verified": d.verified})
		created, err := seedAccount(ctx, accounts, creds, hasher, d)
		if err != nil {
			entry.WithError(err).Fatal("seed account")
		}
		if created {
			entry.Info("seeded account")
		} else {
			entry.Info("account exists, skipped")
		}
	}
	log.WithField("password", devPassword).Info("seed complete")
}

func seedAccount(ctx context.Context, accounts accountrepo.Repository, creds credential.Repository, hasher *credential.Hasher, d devAccount) (bool, error) {
	byPhone, err := accounts.GetByPhone(ctx, domain.NormalizePhone(d.phone))
	if err != nil {
		return false, err
	}
	byEmail, err := accounts.GetByEmail(ctx, domain.NormalizeEmail(d.email))
	if err != nil {
		return false, err
	}
	if byPhone != nil || byEmail != nil {
		return false, nil
	}
	a := domain.NewAccount(d.name, d.email, d.phone, d.lang)
	if err := accounts.Create(ctx, a); err != nil {
		return false, err
	}
	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		return false, err
	}
	if err := creds.Put(ctx, &credential.Credential{AccountID: a.ID, PasswordHash: hash, UpdatedAt: time.Now().UTC()}); err != nil {
		return false, err
	}
	if d.verified {
		if err := accounts.MarkVerified(ctx, a.Phone, time.Now().UTC()); err != nil {
			return false, err
		}
	}
	return true, nil
}
