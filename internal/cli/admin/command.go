package admin

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Anvoria/tokenly/internal/audit"
	"github.com/Anvoria/tokenly/internal/cache"
	"github.com/Anvoria/tokenly/internal/config"
	"github.com/Anvoria/tokenly/internal/database"
	"github.com/Anvoria/tokenly/internal/domain/principal"
	"github.com/Anvoria/tokenly/internal/domain/token"
	"github.com/Anvoria/tokenly/internal/migrations"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Command implements the admin management command
type Command struct{}

func (c *Command) Name() string {
	return "admin"
}

func (c *Command) Description() string {
	return "Administration tasks (list-sessions, revoke-family, revoke-all, purge-expired)"
}

func (c *Command) Run(args []string) error {
	if len(args) < 1 {
		c.printUsage()
		return fmt.Errorf("subcommand required")
	}

	switch args[0] {
	case "list-sessions":
		return c.runListSessions(args[1:])
	case "revoke-family":
		return c.runRevokeFamily(args[1:])
	case "revoke-all":
		return c.runRevokeAll(args[1:])
	case "purge-expired":
		return c.runPurgeExpired(args[1:])
	default:
		c.printUsage()
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func (c *Command) printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: tokenly-cli admin <subcommand> [args]\n\n")
	fmt.Fprintf(os.Stderr, "Subcommands:\n")
	fmt.Fprintf(os.Stderr, "  list-sessions -principal <uuid>   List live sessions for a principal\n")
	fmt.Fprintf(os.Stderr, "  revoke-family -family <uuid>      Revoke one token family\n")
	fmt.Fprintf(os.Stderr, "  revoke-all -principal <uuid>      Revoke every family for a principal\n")
	fmt.Fprintf(os.Stderr, "  purge-expired [-before <RFC3339>] Delete expired records (housekeeping)\n")
}

func (c *Command) runListSessions(args []string) error {
	fs := flag.NewFlagSet("list-sessions", flag.ExitOnError)
	principalFlag := fs.String("principal", "", "Principal ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	principalID, err := uuid.Parse(*principalFlag)
	if err != nil {
		return fmt.Errorf("invalid principal ID: %w", err)
	}

	svc, _, done, err := buildService()
	if err != nil {
		return err
	}
	defer done()

	sessions, err := svc.ListSessions(principalID)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No live sessions")
		return nil
	}

	for _, sess := range sessions {
		fmt.Printf("%s  created=%s  last_used=%s  ip=%s  ua=%s\n",
			sess.FamilyID,
			sess.CreatedAt.Format(time.RFC3339),
			sess.LastUsedAt.Format(time.RFC3339),
			sess.Fingerprint.IPAddress,
			sess.Fingerprint.UserAgent,
		)
	}
	return nil
}

func (c *Command) runRevokeFamily(args []string) error {
	fs := flag.NewFlagSet("revoke-family", flag.ExitOnError)
	familyFlag := fs.String("family", "", "Family ID (required)")
	reason := fs.String("reason", "admin_revoked", "Revocation reason")
	if err := fs.Parse(args); err != nil {
		return err
	}

	familyID, err := uuid.Parse(*familyFlag)
	if err != nil {
		return fmt.Errorf("invalid family ID: %w", err)
	}

	svc, _, done, err := buildService()
	if err != nil {
		return err
	}
	defer done()

	if err := svc.RevokeFamily(familyID, *reason); err != nil {
		return err
	}
	fmt.Printf("Family %s revoked\n", familyID)
	return nil
}

func (c *Command) runRevokeAll(args []string) error {
	fs := flag.NewFlagSet("revoke-all", flag.ExitOnError)
	principalFlag := fs.String("principal", "", "Principal ID (required)")
	reason := fs.String("reason", "admin_revoked", "Revocation reason")
	if err := fs.Parse(args); err != nil {
		return err
	}

	principalID, err := uuid.Parse(*principalFlag)
	if err != nil {
		return fmt.Errorf("invalid principal ID: %w", err)
	}

	svc, _, done, err := buildService()
	if err != nil {
		return err
	}
	defer done()

	count, err := svc.RevokeAll(principalID, *reason)
	if err != nil {
		return err
	}
	fmt.Printf("Revoked %d records\n", count)
	return nil
}

func (c *Command) runPurgeExpired(args []string) error {
	fs := flag.NewFlagSet("purge-expired", flag.ExitOnError)
	before := fs.String("before", "", "Delete records expired before this RFC3339 time (default: now)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cutoff := time.Now().UTC()
	if *before != "" {
		t, err := time.Parse(time.RFC3339, *before)
		if err != nil {
			return fmt.Errorf("invalid -before time: %w", err)
		}
		cutoff = t
	}

	_, db, done, err := buildService()
	if err != nil {
		return err
	}
	defer done()

	store := token.NewStore(db)
	count, err := store.DeleteExpiredBefore(cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("Purged %d expired records\n", count)
	return nil
}

// buildService wires a token service for admin operations, including the
// audit dispatcher and redis revocation cache when the config enables them.
// No access token signing happens on these paths, so no key store is loaded.
// The returned closer drains the audit buffer and must run before exit.
func buildService() (*token.Service, *gorm.DB, func(), error) {
	envConfig := config.LoadEnv()
	cfg, err := config.Load(envConfig.ConfigPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Logging.SlogLevel(),
	})))

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	dispatcher := audit.NewDispatcher(cfg.Audit, audit.NewSlogSink(slog.Default()))

	var revocations *cache.RevocationCache
	if cfg.Redis.Enabled {
		client, err := cache.Connect(&cfg.Redis)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		revocations = cache.NewRevocationCache(client)
	}

	store := token.NewStore(db)
	principals := principal.NewRepository(db)
	svc := token.NewServiceWithObservers(store, principals, nil, &cfg.Token, dispatcher, revocations)
	return svc, db, dispatcher.Close, nil
}
