package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fahmaliyi/totpvault/auth"
	"github.com/fahmaliyi/totpvault/breach"
	"github.com/fahmaliyi/totpvault/cli"
	"github.com/fahmaliyi/totpvault/config"
	"github.com/fahmaliyi/totpvault/logger"
	"github.com/fahmaliyi/totpvault/totp"
	"github.com/fahmaliyi/totpvault/vault"
)

var version = "0.1.0" // set by ldflags

func main() {
	parseCli()

	if versionCmd.Used {
		fmt.Println(version)
		return
	}
	if genCmd.Used {
		password, err := cli.GeneratePassword(flagGenLength, genPolicy())
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Println(password)
		return
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	if flagDir != "" {
		cfg.Files.Dir = flagDir
	}
	l := logger.New(cfg.LogLevel)

	if err := run(cfg, l); err != nil {
		if errors.Is(err, auth.ErrAuthFailed) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		l.Fatal("vault stopped", "error", err.Error())
	}
}

func run(cfg *config.Config, l *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	session := vault.NewSession()
	defer session.Clear()

	prompter := cli.NewTerminal(os.Stdin, os.Stdout)

	// Terminal reads do not watch ctx, so an interrupt wipes the session and
	// exits from here.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		select {
		case <-done:
			return
		default:
		}
		l.Info("received interruption signal, shutting down")
		session.Clear()
		if err := prompter.Restore(); err != nil {
			l.Error("failed to restore terminal", "error", err.Error())
		}
		os.Exit(130)
	}()

	files := cfg.Files
	if err := os.MkdirAll(files.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	accessLog, closer, err := logger.NewAccessLog(files.Path(files.AccessLog))
	if err != nil {
		return err
	}
	defer closer.Close()

	master := auth.NewMasterStore(files.Path(files.Master), files.Path(files.LegacyMaster), cfg.Auth.BcryptCost, l)
	checker := breach.New(breach.Config{Endpoint: cfg.Breach.Endpoint, Timeout: cfg.Breach.Timeout}, l)
	ctrl := auth.NewController(auth.Deps{
		Master:   master,
		TOTP:     totp.NewEngine(),
		Session:  session,
		Breach:   checker,
		Prompter: prompter,
		Out:      os.Stdout,
		Paths: auth.Paths{
			TOTPSecret: files.Path(files.TOTPSecret),
			Salt:       files.Path(files.Salt),
			Vault:      files.Path(files.Credentials),
			QRCode:     files.Path(files.TOTPQRCode),
		},
		Logger:       l,
		AccessLog:    accessLog,
		MaxAttempts:  cfg.Auth.MaxAttempts,
		StrictBreach: cfg.Breach.Strict,
		Issuer:       cfg.TOTP.Issuer,
		Account:      cfg.TOTP.Account,
	})
	if err := ctrl.Run(ctx); err != nil {
		return err
	}

	c := vault.NewCipher(session)
	store := vault.NewStore(files.Path(files.Credentials), files.Path(files.Backup), c, l)
	v := vault.New(store, c)
	if err := v.Load(); err != nil {
		return err
	}

	app := cli.NewApp(cli.Deps{
		Vault:          v,
		Session:        session,
		Master:         master,
		Breach:         checker,
		Prompter:       prompter,
		Out:            os.Stdout,
		Logger:         l,
		Clipboard:      cli.SystemClipboard{},
		ClipClearAfter: cfg.Clipboard.ClearAfter,
		StrictBreach:   cfg.Breach.Strict,
	})
	defer app.Close()

	if flagTUI {
		return cli.RunTUI(ctx, app)
	}
	return cli.RunCommands(ctx, app)
}
