// Package auth enrolls the master password and gates the vault behind the
// master password plus a TOTP code.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fahmaliyi/totpvault/breach"
	"github.com/fahmaliyi/totpvault/logger"
	"github.com/fahmaliyi/totpvault/sanitize"
	"github.com/fahmaliyi/totpvault/totp"
	"github.com/fahmaliyi/totpvault/vault"
)

const (
	MinPasswordLen = 8
	MaxPasswordLen = sanitize.MaxPassword

	// bcrypt only looks at the first 72 bytes
	maxPasswordBytes = 72

	DefaultMaxAttempts = 3
)

// Access log events.
const (
	EventEnrolled     = "ENROLLED"
	EventSuccess      = "SUCCESS"
	EventFailPassword = "FAIL_PASSWORD"
	EventFailTOTP     = "FAIL_TOTP"
	EventFailInput    = "FAIL_INPUT"
	EventLockout      = "LOCKOUT"
)

var (
	ErrAuthFailed  = errors.New("authentication failed: too many attempts")
	ErrSaltMissing = errors.New("vault exists but its salt file is missing")
)

// Prompter reads one line of user input. Password must not echo.
type Prompter interface {
	Line(prompt string) (string, error)
	Password(prompt string) (string, error)
}

// BreachChecker returns how often a password appears in known breaches, or
// breach.Unknown when that cannot be determined.
type BreachChecker interface {
	Check(ctx context.Context, password string) int
}

type Paths struct {
	TOTPSecret string
	Salt       string
	Vault      string
	QRCode     string
}

type Deps struct {
	Master   *MasterStore
	TOTP     *totp.Engine
	Session  *vault.Session
	Breach   BreachChecker
	Prompter Prompter
	Out      io.Writer
	Paths    Paths

	Logger    *logger.Logger
	AccessLog *logger.Logger

	MaxAttempts  int
	StrictBreach bool
	Issuer       string
	Account      string
}

// Controller walks a process through enrollment (first run) and login.
type Controller struct {
	Deps
}

func NewController(d Deps) *Controller {
	if d.MaxAttempts < 1 {
		d.MaxAttempts = DefaultMaxAttempts
	}
	if d.TOTP == nil {
		d.TOTP = totp.NewEngine()
	}
	if d.Out == nil {
		d.Out = io.Discard
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.AccessLog == nil {
		d.AccessLog = logger.NewNop()
	}
	return &Controller{Deps: d}
}

// Run enrolls a master password when none exists and then logs in. On
// success the session is set. ErrAuthFailed is returned once the attempt cap
// is reached.
func (c *Controller) Run(ctx context.Context) error {
	exists, err := c.Master.Exists()
	if err != nil {
		return err
	}
	if !exists {
		if err := c.enroll(ctx); err != nil {
			return err
		}
	}
	return c.login(ctx)
}

func (c *Controller) enroll(ctx context.Context) error {
	fmt.Fprintln(c.Out, "No master password found. Starting first-time setup.")

	secret, _, err := totp.LoadOrCreateSecret(c.Paths.TOTPSecret)
	if err != nil {
		return err
	}
	if err := c.showSecret(secret); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		pw, err := c.Prompter.Password("New master password: ")
		if err != nil {
			return err
		}
		pw, reason := c.checkNewPassword(ctx, pw)
		if reason != "" {
			fmt.Fprintln(c.Out, reason)
			continue
		}

		confirm, err := c.Prompter.Password("Confirm master password: ")
		if err != nil {
			return err
		}
		if !vault.ConstantTimeEqual(pw, strings.TrimSpace(confirm)) {
			fmt.Fprintln(c.Out, "Passwords do not match.")
			continue
		}

		if err := c.Master.Enroll(pw); err != nil {
			return err
		}
		c.AccessLog.Info("auth", "event", EventEnrolled)
		fmt.Fprintln(c.Out, "Master password set.")
		return nil
	}
}

// checkNewPassword returns the trimmed password, or a non-empty reason it
// cannot be enrolled.
func (c *Controller) checkNewPassword(ctx context.Context, pw string) (string, string) {
	pw, err := sanitize.Password(pw)
	if err != nil {
		return "", err.Error()
	}
	if len([]rune(pw)) < MinPasswordLen {
		return "", fmt.Sprintf("Master password must be at least %d characters.", MinPasswordLen)
	}
	if len(pw) > maxPasswordBytes {
		return "", "Master password is too long."
	}
	if c.Breach == nil {
		return pw, ""
	}

	switch n := c.Breach.Check(ctx, pw); {
	case n > 0:
		return "", fmt.Sprintf("This password appeared in %d known breaches. Choose another.", n)
	case n == breach.Unknown && c.StrictBreach:
		return "", "Unable to verify the password against known breaches. Try again."
	case n == breach.Unknown:
		fmt.Fprintln(c.Out, "Warning: unable to verify the password against known breaches.")
	}
	return pw, ""
}

func (c *Controller) showSecret(secret string) error {
	b32, err := totp.Base32Secret(secret)
	if err != nil {
		return err
	}
	u, err := totp.OTPAuthURL(secret, c.Account, c.Issuer)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Out, "TOTP secret: %s\n", b32)
	fmt.Fprintf(c.Out, "Add it to your authenticator app or open: %s\n", u)

	if c.Paths.QRCode != "" {
		if err := totp.WriteQRCode(u, c.Paths.QRCode); err != nil {
			c.Logger.Error("Controller: failed to write qr code", "error", err.Error())
		} else {
			fmt.Fprintf(c.Out, "QR code written to %s\n", c.Paths.QRCode)
		}
	}
	return nil
}

func (c *Controller) login(ctx context.Context) error {
	secret, created, err := totp.LoadOrCreateSecret(c.Paths.TOTPSecret)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintln(c.Out, "TOTP secret was missing and has been regenerated.")
		if err := c.showSecret(secret); err != nil {
			return err
		}
	}

	for attempt := 1; attempt <= c.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		event, pw, err := c.attempt(secret)
		if err != nil {
			return err
		}
		if event != EventSuccess {
			c.AccessLog.Warn("auth", "event", event, "attempt", attempt)
			fmt.Fprintf(c.Out, "Authentication failed (%d/%d).\n", attempt, c.MaxAttempts)
			continue
		}

		if err := c.open(pw); err != nil {
			return err
		}
		c.AccessLog.Info("auth", "event", EventSuccess, "attempt", attempt)
		fmt.Fprintln(c.Out, "Authentication successful.")
		return nil
	}

	c.AccessLog.Error("auth", "event", EventLockout, "attempts", c.MaxAttempts)
	c.Logger.Error("Controller: too many failed login attempts")
	return ErrAuthFailed
}

// attempt runs one password + TOTP round and returns its access log event.
// Only prompt errors are returned as err.
func (c *Controller) attempt(secret string) (event, pw string, err error) {
	pw, err = c.Prompter.Password("Master password: ")
	if err != nil {
		return "", "", err
	}
	pw, vErr := sanitize.Password(pw)
	if vErr != nil {
		fmt.Fprintln(c.Out, vErr.Error())
		return EventFailInput, "", nil
	}

	ok, err := c.Master.Verify(pw)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return EventFailPassword, "", nil
	}

	code, err := c.Prompter.Line("TOTP code: ")
	if err != nil {
		return "", "", err
	}
	code, vErr = sanitize.TOTP(code)
	if vErr != nil {
		fmt.Fprintln(c.Out, vErr.Error())
		return EventFailInput, "", nil
	}
	if !c.TOTP.Validate(secret, code) {
		return EventFailTOTP, "", nil
	}
	return EventSuccess, pw, nil
}

// open loads the vault salt and starts the session. A salt is only created
// when there is no vault yet.
func (c *Controller) open(pw string) error {
	if _, err := os.Stat(c.Paths.Salt); errors.Is(err, os.ErrNotExist) && c.Paths.Vault != "" {
		if _, err := os.Stat(c.Paths.Vault); err == nil {
			return ErrSaltMissing
		}
	}

	salt, err := vault.LoadOrCreateSalt(c.Paths.Salt)
	if err != nil {
		return err
	}
	return c.Session.Set([]byte(pw), salt)
}
