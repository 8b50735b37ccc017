package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gookit/color"

	"github.com/fahmaliyi/totpvault/breach"
	"github.com/fahmaliyi/totpvault/logger"
	"github.com/fahmaliyi/totpvault/sanitize"
	"github.com/fahmaliyi/totpvault/vault"
)

const (
	promptColor = color.FgLightBlue
	errColor    = color.FgLightRed
	infoColor   = color.FgLightMagenta
	warnColor   = color.FgYellow
)

var ErrAccessDenied = errors.New("incorrect master password, access denied")

// Verifier checks a master password candidate.
type Verifier interface {
	Verify(candidate string) (bool, error)
}

// BreachChecker returns how often a password appears in known breaches, or
// breach.Unknown.
type BreachChecker interface {
	Check(ctx context.Context, password string) int
}

type Deps struct {
	Vault    *vault.Vault
	Session  *vault.Session
	Master   Verifier
	Breach   BreachChecker
	Prompter Prompter
	Out      io.Writer
	Logger   *logger.Logger

	Clipboard      Clipboard
	ClipClearAfter time.Duration
	StrictBreach   bool
}

// App holds the vault operations shared by the line REPL and the TUI.
type App struct {
	Deps
	clip  *clipTimer
	dirty bool
}

func NewApp(d Deps) *App {
	if d.Out == nil {
		d.Out = io.Discard
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Clipboard == nil {
		d.Clipboard = SystemClipboard{}
	}
	return &App{Deps: d, clip: newClipTimer(d.Clipboard, d.ClipClearAfter)}
}

// Add validates and stores a credential, then saves the vault.
func (a *App) Add(service, username, password string) error {
	service, err := sanitize.Service(service)
	if err != nil {
		return err
	}
	username, err = sanitize.Username(username)
	if err != nil {
		return err
	}
	password, err = sanitize.Password(password)
	if err != nil {
		return err
	}

	if err := a.Vault.Add(service, username, password); err != nil {
		return err
	}
	a.dirty = true
	return a.save()
}

// Delete removes the credential at the 1-based index and saves the vault.
func (a *App) Delete(index int) (vault.Credential, error) {
	c, err := a.Vault.Delete(index)
	if err != nil {
		return vault.Credential{}, err
	}
	a.dirty = true
	return c, a.save()
}

func (a *App) save() error {
	if err := a.Vault.Save(); err != nil {
		a.Logger.Error("App: failed to save vault", "error", err.Error())
		return fmt.Errorf("failed to save vault: %w", err)
	}
	a.dirty = false
	return nil
}

// flush saves changes a failed save left behind.
func (a *App) flush() error {
	if !a.dirty {
		return nil
	}
	return a.save()
}

// Copy puts the password at index on the clipboard once master matches the
// enrolled master password.
func (a *App) Copy(index int, master string) (vault.Credential, error) {
	c, err := a.Vault.Get(index)
	if err != nil {
		return vault.Credential{}, err
	}

	ok, err := a.Master.Verify(master)
	if err != nil {
		return vault.Credential{}, err
	}
	if !ok {
		a.Logger.Warn("Access denied", "action", "copy", "service", logger.Escape(c.Service))
		return vault.Credential{}, ErrAccessDenied
	}

	pw, err := a.Vault.Reveal(index)
	if err != nil {
		a.Logger.Error("App: failed to decrypt password", "service", logger.Escape(c.Service), "error", err.Error())
		return vault.Credential{}, err
	}
	if err := a.clip.Copy(pw); err != nil {
		return vault.Credential{}, fmt.Errorf("clipboard operation not supported: %w", err)
	}
	return c, nil
}

// AuditResult is the breach status of one stored password. Count is
// breach.Unknown when the lookup or the decryption failed.
type AuditResult struct {
	Index      int
	Credential vault.Credential
	Count      int
}

// Audit checks every stored password, one after another.
func (a *App) Audit(ctx context.Context) []AuditResult {
	list := a.Vault.List()
	results := make([]AuditResult, 0, len(list))
	for i, c := range list {
		if ctx.Err() != nil {
			break
		}
		r := AuditResult{Index: i + 1, Credential: c, Count: breach.Unknown}

		pw, err := a.Vault.Reveal(i + 1)
		if err != nil {
			a.Logger.Error("App: failed to decrypt password", "service", logger.Escape(c.Service), "error", err.Error())
		} else if a.Breach != nil {
			r.Count = a.Breach.Check(ctx, pw)
		}
		results = append(results, r)
	}
	return results
}

// Logout saves pending changes and wipes the session key.
func (a *App) Logout() error {
	err := a.flush()
	if a.Session != nil {
		a.Session.Clear()
	}
	return err
}

// Close runs a pending clipboard clear.
func (a *App) Close() {
	a.clip.Flush()
}
