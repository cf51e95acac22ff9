package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
	"server/internal/identity"
	"server/internal/infra"
)

// accessgrant manages the unlimited override and the plan column from the
// command line, for support work that has no UI.
func main() {
	var (
		idFlag     string
		emailFlag  string
		grantFlag  bool
		revokeFlag bool
		planFlag   string
		byFlag     string
		descFlag   string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to update")
	flag.BoolVar(&grantFlag, "grant", false, "grant the unlimited override")
	flag.BoolVar(&revokeFlag, "revoke", false, "revoke the unlimited override")
	flag.StringVar(&planFlag, "plan", "", "plan to assign (free, starter, pro, business)")
	flag.StringVar(&byFlag, "by", "support", "who is granting the override")
	flag.StringVar(&descFlag, "desc", "Granted via accessgrant CLI", "grant description")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	plan := strings.TrimSpace(strings.ToLower(planFlag))

	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	actions := 0
	for _, active := range []bool{grantFlag, revokeFlag, plan != ""} {
		if active {
			actions++
		}
	}
	if actions != 1 {
		exitWithError(errors.New("exactly one of -grant, -revoke or -plan must be provided"))
	}
	if plan != "" {
		switch plan {
		case "free", "starter", "pro", "business":
		default:
			exitWithError(fmt.Errorf("unsupported plan %q", planFlag))
		}
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "accessgrant").Logger()
	store := identity.NewStore(infra.NewSQLRunner(pool, logger))

	opCtx, cancelOp := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelOp()

	if userID == "" {
		userID, err = store.IDByEmail(opCtx, email)
		if errors.Is(err, domain.ErrNotFound) {
			exitWithError(fmt.Errorf("no user with email %s", email))
		}
		if err != nil {
			exitWithError(err)
		}
	}

	switch {
	case grantFlag:
		err = store.GrantUnlimited(opCtx, userID, byFlag, descFlag)
		if errors.Is(err, domain.ErrAlreadyGranted) {
			exitWithError(fmt.Errorf("user %s already has unlimited access", userID))
		}
		if err == nil {
			fmt.Printf("unlimited access granted to %s\n", userID)
		}
	case revokeFlag:
		err = store.RevokeUnlimited(opCtx, userID)
		if err == nil {
			fmt.Printf("unlimited access revoked for %s\n", userID)
		}
	default:
		err = store.SetPlan(opCtx, userID, plan)
		if err == nil {
			fmt.Printf("user %s moved to plan %s\n", userID, plan)
		}
	}
	if errors.Is(err, domain.ErrNotFound) {
		exitWithError(fmt.Errorf("no user with id %s", userID))
	}
	if err != nil {
		exitWithError(err)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
