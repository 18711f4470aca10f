package commands

import (
	"context"
	"fmt"
	"os"

	"fduassist-backend/lib/configutil"
	configsqlite "fduassist-backend/lib/configutil/sqlite"
	"fduassist-backend/lib/gradestore"
	"fduassist-backend/lib/keychain"
	"fduassist-backend/lib/scrapers/uis"
	"fduassist-backend/lib/serviceutil"
	"fduassist-backend/lib/sessioncache"
	"fduassist-backend/services/studentdata"

	"github.com/spf13/cobra"
)

type Config struct {
	// student id the commands act for
	Student  string              `json:"student"`
	Keychain configsqlite.Struct `json:"keychain"`
	Grades   configsqlite.Struct `json:"grades"`
}

var rootCmd = &cobra.Command{
	Use:   "fduassist",
	Short: "fduassist automates the campus portals: schedule, grades, enrollment and the daily check-in.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Student == "" {
		serviceutil.Fatal("invalid config", fmt.Errorf("a student id was not specified"))
	}
	return cfg
}

func openKeychain(cfg Config) keychain.Store {
	db, err := cfg.Keychain.OpenDB(keychain.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open keychain database", err)
	}
	return keychain.NewStore(db)
}

func openGrades(cfg Config) gradestore.Store {
	db, err := cfg.Grades.OpenDB(gradestore.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open grades database", err)
	}
	return gradestore.NewStore(db)
}

// getSession logs in as the configured student with the credentials
// stored by the login command.
func getSession(ctx context.Context, cfg Config) *uis.Session {
	cache := sessioncache.New(openKeychain(cfg), uis.Options{})
	session, err := cache.Get(ctx, cfg.Student)
	if err != nil {
		serviceutil.Fatal("failed to login", err)
	}
	return session
}

func getService(ctx context.Context, cfg Config) studentdata.Service {
	return studentdata.NewService(
		getSession(ctx, cfg),
		openGrades(cfg),
		studentdata.Options{},
	)
}
