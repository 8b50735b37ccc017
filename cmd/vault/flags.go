package main

import (
	"github.com/integrii/flaggy"

	"github.com/fahmaliyi/totpvault/cli"
)

var (
	flagDir string
	flagTUI bool

	flagGenLength    = cli.DefaultGeneratedLen
	flagGenNoUpper   bool
	flagGenNoLower   bool
	flagGenNoNumbers bool
	flagGenNoSymbols bool
)

var (
	versionCmd = flaggy.NewSubcommand("version")
	genCmd     = flaggy.NewSubcommand("gen")
)

func parseCli() {
	parser := flaggy.NewParser("vault")
	parser.Description = "Local password vault protected by a master password and TOTP"
	parser.String(&flagDir, "d", "dir", "Directory holding the vault files (overrides $VAULT_DIR)")
	parser.Bool(&flagTUI, "", "tui", "Use the full screen interface instead of the line menu")

	versionCmd.Description = "print version and exit"
	genCmd.Description = "print a generated password and exit"
	genCmd.Int(&flagGenLength, "l", "length", "Password length")
	genCmd.Bool(&flagGenNoUpper, "", "no-upper", "Leave out uppercase letters")
	genCmd.Bool(&flagGenNoLower, "", "no-lower", "Leave out lowercase letters")
	genCmd.Bool(&flagGenNoNumbers, "", "no-digits", "Leave out digits")
	genCmd.Bool(&flagGenNoSymbols, "", "no-symbols", "Leave out symbols")

	parser.AdditionalHelpAppend = "Files and limits are configured with VAULT_*, AUTH_*, TOTP_*, BREACH_* and CLIPBOARD_* env vars"

	parser.DisableShowVersionWithVersion()
	parser.AttachSubcommand(versionCmd, 1)
	parser.AttachSubcommand(genCmd, 1)
	parser.Parse()
}

func genPolicy() cli.Policy {
	return cli.Policy{
		Upper:   !flagGenNoUpper,
		Lower:   !flagGenNoLower,
		Numbers: !flagGenNoNumbers,
		Symbols: !flagGenNoSymbols,
	}
}
