package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fahmaliyi/totpvault/breach"
	"github.com/fahmaliyi/totpvault/sanitize"
	"github.com/fahmaliyi/totpvault/vault"
)

const menu = `
=== Credential Manager ===
1. List all credentials           list
2. Add new credential             add
3. Delete a credential            delete [n]
4. Copy password to clipboard     copy [n]
5. Check passwords for breaches   audit
6. Exit                           exit

Also: search <query>, gen [length], logout, help`

// RunCommands runs the line menu until exit, logout or end of input. Unsaved
// changes are saved on the way out.
func RunCommands(ctx context.Context, a *App) error {
	fmt.Fprintln(a.Out, menu)

	for {
		if err := ctx.Err(); err != nil {
			return a.flush()
		}

		line, err := a.Prompter.Line(promptColor.Sprint("> "))
		if errors.Is(err, io.EOF) {
			return a.flush()
		} else if err != nil {
			return err
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "1", "list", "ls", "l":
			a.handleList()
		case "2", "add", "a":
			err = a.handleAdd(ctx)
		case "3", "delete", "rm", "d":
			err = a.handleDelete(args)
		case "4", "copy", "cp", "c":
			err = a.handleCopy(args)
		case "5", "audit":
			a.handleAudit(ctx)
		case "search", "s":
			a.handleSearch(strings.Join(args, " "))
		case "gen":
			a.handleGen(args)
		case "help", "h", "?":
			fmt.Fprintln(a.Out, menu)
		case "logout":
			if err := a.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.Out, infoColor.Sprint("Logged out."))
			return nil
		case "6", "exit", "quit", "q":
			if err := a.flush(); err != nil {
				return err
			}
			fmt.Fprintln(a.Out, "Exiting.")
			return nil
		default:
			fmt.Fprintln(a.Out, errColor.Sprint("Invalid option. Try again."))
		}

		// only a failing prompt ends the loop
		if errors.Is(err, io.EOF) {
			return a.flush()
		} else if err != nil {
			return err
		}
	}
}

func (a *App) printList(indices []int) {
	list := a.Vault.List()
	for _, i := range indices {
		c := list[i-1]
		fmt.Fprintf(a.Out, "%d. Service: %s | Username: %s\n", i, c.Service, c.Username)
	}
}

func (a *App) handleList() {
	if a.Vault.Len() == 0 {
		fmt.Fprintln(a.Out, "No credentials stored.")
		return
	}
	fmt.Fprintln(a.Out, "Stored Credentials:")
	all := make([]int, a.Vault.Len())
	for i := range all {
		all[i] = i + 1
	}
	a.printList(all)
}

func (a *App) handleSearch(query string) {
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(a.Out, errColor.Sprint("syntax: search <query>"))
		return
	}
	found := a.Vault.Search(query)
	if len(found) == 0 {
		fmt.Fprintf(a.Out, "No matches for query (%q)\n", query)
		return
	}
	a.printList(found)
}

func (a *App) handleAdd(ctx context.Context) error {
	service, err := a.Prompter.Line("Enter service name: ")
	if err != nil {
		return err
	}
	if service, err = sanitize.Service(service); err != nil {
		return a.invalid(err)
	}

	username, err := a.Prompter.Line("Enter username: ")
	if err != nil {
		return err
	}
	if username, err = sanitize.Username(username); err != nil {
		return a.invalid(err)
	}

	generate, err := yes(a.Prompter, a.Out, "Generate strong password?")
	if err != nil {
		return err
	}

	var password string
	if generate {
		password, err = a.promptGenerated()
		if err != nil || password == "" {
			return err
		}
	} else {
		password, err = a.promptPassword(ctx)
		if err != nil || password == "" {
			return err
		}
	}

	if err := a.Add(service, username, password); err != nil {
		fmt.Fprintln(a.Out, errColor.Sprint(err.Error()))
		return nil
	}
	fmt.Fprintln(a.Out, infoColor.Sprint("Credential added successfully."))
	return nil
}

// promptPassword reads a typed password and checks it against known
// breaches. An empty result means the user backed out.
func (a *App) promptPassword(ctx context.Context) (string, error) {
	password, err := a.Prompter.Password("Enter password: ")
	if err != nil {
		return "", err
	}
	if password, err = sanitize.Password(password); err != nil {
		return "", a.invalid(err)
	}
	if a.Breach == nil {
		return password, nil
	}

	switch n := a.Breach.Check(ctx, password); {
	case n > 0:
		fmt.Fprintln(a.Out, warnColor.Sprintf("WARNING: This password has been found in %d data breaches!", n))
		ok, err := yes(a.Prompter, a.Out, "Do you still want to use this password?")
		if err != nil {
			return "", err
		}
		if !ok {
			fmt.Fprintln(a.Out, "Password not saved. Please try again with a different password.")
			return "", nil
		}
	case n == breach.Unknown && a.StrictBreach:
		fmt.Fprintln(a.Out, errColor.Sprint("Unable to verify the password against known breaches. Password not saved."))
		return "", nil
	case n == breach.Unknown:
		fmt.Fprintln(a.Out, warnColor.Sprint("Unable to verify the password against known breaches."))
	}
	return password, nil
}

func (a *App) promptGenerated() (string, error) {
	var length int
	for {
		s, err := a.Prompter.Line(fmt.Sprintf("Enter password length (%d-%d): ", MinGeneratedLen, MaxGeneratedLen))
		if err != nil {
			return "", err
		}
		length, err = strconv.Atoi(strings.TrimSpace(s))
		if err == nil && length >= MinGeneratedLen && length <= MaxGeneratedLen {
			break
		}
		fmt.Fprintln(a.Out, errColor.Sprintf("Password length must be a number from %d to %d.", MinGeneratedLen, MaxGeneratedLen))
	}

	var p Policy
	for _, opt := range []struct {
		prompt string
		dst    *bool
	}{
		{"Include uppercase letters?", &p.Upper},
		{"Include lowercase letters?", &p.Lower},
		{"Include numbers?", &p.Numbers},
		{"Include symbols?", &p.Symbols},
	} {
		ok, err := yes(a.Prompter, a.Out, opt.prompt)
		if err != nil {
			return "", err
		}
		*opt.dst = ok
	}

	password, err := GeneratePassword(length, p)
	if err != nil {
		fmt.Fprintln(a.Out, errColor.Sprint("Error: "+err.Error()+"."))
		return "", nil
	}
	return password, nil
}

func (a *App) handleGen(args []string) {
	length := DefaultGeneratedLen
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintln(a.Out, errColor.Sprint("syntax: gen [length]"))
			return
		}
		length = n
	}

	password, err := GeneratePassword(length, DefaultPolicy)
	if err != nil {
		fmt.Fprintln(a.Out, errColor.Sprint(err.Error()))
		return
	}
	fmt.Fprintln(a.Out, password)
}

// index takes the credential number from args or asks for it.
func (a *App) index(args []string, prompt string) (int, bool, error) {
	if a.Vault.Len() == 0 {
		fmt.Fprintln(a.Out, "No credentials stored.")
		return 0, false, nil
	}

	var s string
	if len(args) > 0 {
		s = args[0]
	} else {
		a.handleList()
		var err error
		if s, err = a.Prompter.Line(prompt); err != nil {
			return 0, false, err
		}
	}

	i, err := sanitize.Index(s)
	if err != nil {
		return 0, false, a.invalid(err)
	}
	if i > a.Vault.Len() {
		fmt.Fprintln(a.Out, errColor.Sprint("Invalid index."))
		return 0, false, nil
	}
	return i, true, nil
}

func (a *App) handleDelete(args []string) error {
	i, ok, err := a.index(args, "Enter number to remove: ")
	if err != nil || !ok {
		return err
	}

	c, err := a.Delete(i)
	if err != nil {
		if errors.Is(err, vault.ErrInvalidIndex) {
			fmt.Fprintln(a.Out, errColor.Sprint("Invalid index."))
			return nil
		}
		fmt.Fprintln(a.Out, errColor.Sprint(err.Error()))
		return nil
	}
	fmt.Fprintf(a.Out, "Removed: %s\n", c.Service)
	return nil
}

func (a *App) handleCopy(args []string) error {
	i, ok, err := a.index(args, "Enter number to copy password: ")
	if err != nil || !ok {
		return err
	}

	master, err := a.Prompter.Password("Re-enter master password to confirm: ")
	if err != nil {
		return err
	}

	c, err := a.Copy(i, master)
	switch {
	case errors.Is(err, ErrAccessDenied):
		fmt.Fprintln(a.Out, errColor.Sprint("Incorrect master password. Access denied."))
	case errors.Is(err, vault.ErrDecryptionFailed), errors.Is(err, vault.ErrMalformedCiphertext):
		fmt.Fprintln(a.Out, errColor.Sprint("Error decrypting password."))
	case err != nil:
		fmt.Fprintln(a.Out, errColor.Sprint(err.Error()))
	default:
		fmt.Fprintf(a.Out, "Password for %s copied to clipboard.\n", c.Service)
	}
	return nil
}

func (a *App) handleAudit(ctx context.Context) {
	if a.Vault.Len() == 0 {
		fmt.Fprintln(a.Out, "No credentials stored.")
		return
	}
	fmt.Fprintln(a.Out, "Checking all stored passwords for breaches...")

	compromised := false
	for _, r := range a.Audit(ctx) {
		c := r.Credential
		switch {
		case r.Count > 0:
			compromised = true
			fmt.Fprintln(a.Out, warnColor.Sprintf("WARNING: Password for service '%s' (username: %s) was found %d times in breaches!", c.Service, c.Username, r.Count))
		case r.Count == breach.Unknown:
			fmt.Fprintln(a.Out, errColor.Sprintf("Could not check password for service '%s'.", c.Service))
		}
	}
	if !compromised {
		fmt.Fprintln(a.Out, infoColor.Sprint("No compromised passwords found."))
	}
}

// invalid reports a validation error to the user. It never returns an error
// itself so the menu continues.
func (a *App) invalid(err error) error {
	var vErr *sanitize.ValidationError
	if errors.As(err, &vErr) {
		fmt.Fprintln(a.Out, errColor.Sprint("Invalid input. "+vErr.Error()))
		return nil
	}
	return err
}
