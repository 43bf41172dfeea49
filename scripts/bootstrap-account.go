package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/yuvipaste/yuvipaste/internal/auth"
	"github.com/yuvipaste/yuvipaste/internal/metrics"
	"github.com/yuvipaste/yuvipaste/internal/repository"
	"github.com/yuvipaste/yuvipaste/internal/service"
)

type output struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	KeyID     string `json:"key_id"`
	Key       string `json:"key"`
	KeyPrefix string `json:"key_prefix"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "", "Account email (must match an allowed domain)")
		password    = flag.String("password", os.Getenv("BOOTSTRAP_PASSWORD"), "Account password")
		domains     = flag.String("domains", "gmail.com", "Comma-separated allowed email domains")
		maxKeys     = flag.Int("max-keys", service.DefaultMaxActiveKeys, "Active API key limit")
		migrate     = flag.Bool("migrate", true, "Apply pending migrations first")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "-email and -password are required")
		os.Exit(1)
	}

	if *migrate {
		if err := repository.Migrate(*databaseURL, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	out, err := bootstrap(ctx, repo, *email, *password, strings.Split(*domains, ","), *maxKeys)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Key)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

// bootstrap registers (or signs in to) a verified account and issues it an
// API key.
func bootstrap(ctx context.Context, repo *repository.Repository, email, password string, domains []string, maxKeys int) (*output, error) {
	hasher := auth.NewHasher(auth.DefaultParams)
	recorder := metrics.NewNoop()

	identity := service.NewIdentityService(repo, repo, service.IdentityConfig{
		AllowedDomains: domains,
		SessionTTL:     time.Minute,
		Hasher:         hasher,
	}, recorder)
	keys := service.NewAPIKeyService(repo, hasher, maxKeys, recorder)

	sess, err := identity.Register(ctx, email, password)
	if errors.Is(err, service.ErrEmailTaken) {
		sess, err = identity.Authenticate(ctx, email, password)
	}
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer func() { _ = identity.EndSession(ctx, sess.Token) }()

	acct := sess.Account
	if !acct.Verified {
		acct, err = repo.MarkAccountVerified(ctx, acct.ID, time.Now().UTC())
		if err != nil {
			return nil, fmt.Errorf("verify account: %w", err)
		}
	}

	issued, err := keys.IssueKey(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("issue api key: %w", err)
	}

	return &output{
		AccountID: acct.ID,
		Email:     acct.Email,
		KeyID:     issued.Key.ID,
		Key:       issued.Token,
		KeyPrefix: issued.Key.KeyPrefix,
	}, nil
}
