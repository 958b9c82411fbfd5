// Command budgetctl is the operator CLI for the Anggaran budget engine. It
// talks to the database directly and shares the API's service layer.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"anggaran/internal/config"
	"anggaran/internal/database"
	"anggaran/internal/logger"
	"anggaran/internal/server"
)

// cliActor is recorded in the audit log for mutations made from the CLI.
const cliActor = "budgetctl"

// app carries the lazily opened dependencies shared by every subcommand.
type app struct {
	loadConfig func() (*config.Config, error)
	connect    func(cfg *config.Config) (*gorm.DB, func() error, error)

	cfg     *config.Config
	svc     *server.Services
	closeDB func() error
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	a := &app{loadConfig: config.Load, connect: connectDatabase}
	if err := run(a, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes one command line and always releases the database, whether
// or not the command succeeded.
func run(a *app, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if closeErr := a.close(); closeErr != nil && err == nil {
		err = fmt.Errorf("failed to close database: %w", closeErr)
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Operate Anggaran budgets from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(categoriesCmd(a))
	root.AddCommand(periodsCmd(a))
	root.AddCommand(populateCmd(a))
	root.AddCommand(treeCmd(a))
	root.AddCommand(tokenCmd(a))

	return root
}

func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) services() (*server.Services, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	db, closeDB, err := a.connect(cfg)
	if err != nil {
		return nil, err
	}
	a.svc = server.NewServices(db, cfg)
	a.closeDB = closeDB
	return a.svc, nil
}

func (a *app) close() error {
	if a.closeDB == nil {
		return nil
	}
	err := a.closeDB()
	a.closeDB = nil
	a.svc = nil
	return err
}

func connectDatabase(cfg *config.Config) (*gorm.DB, func() error, error) {
	dbConfig, err := database.NewConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load database configuration: %w", err)
	}
	manager, err := database.NewManager(dbConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := manager.Migrate(); err != nil {
		_ = manager.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return manager.DB(), manager.Close, nil
}
