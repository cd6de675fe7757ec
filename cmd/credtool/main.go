// Command credtool seals venue and SMTP credentials with the local key
// file and writes the resulting .env block the engine reads at startup.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"ict-trading-bot/internal/secrets"
)

func main() {
	keyFile := flag.String("key", "secret.key", "path to the credential key file (created if missing)")
	login := flag.String("login", "", "terminal account login")
	password := flag.String("password", "", "terminal account password")
	server := flag.String("server", "", "broker server name")
	smtpPassword := flag.String("smtp-password", "", "SMTP password for alert email (optional)")
	out := flag.String("out", ".env", "output file, or - for stdout")
	flag.Parse()

	if *login == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "credtool: -login and -password are required")
		flag.Usage()
		os.Exit(2)
	}

	keeper, err := secrets.LoadKeeper(*keyFile)
	if err != nil {
		fatal("loading key file: %v", err)
	}

	loginEnc, err := keeper.Encrypt(*login)
	if err != nil {
		fatal("encrypting login: %v", err)
	}
	passwordEnc, err := keeper.Encrypt(*password)
	if err != nil {
		fatal("encrypting password: %v", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "VENUE_LOGIN_ENC=%s\n", loginEnc)
	fmt.Fprintf(&sb, "VENUE_PASSWORD_ENC=%s\n", passwordEnc)
	if *server != "" {
		fmt.Fprintf(&sb, "VENUE_SERVER=%s\n", *server)
	}
	fmt.Fprintf(&sb, "VENUE_KEY_FILE=%s\n", *keyFile)

	if *smtpPassword != "" {
		smtpEnc, err := keeper.Encrypt(*smtpPassword)
		if err != nil {
			fatal("encrypting smtp password: %v", err)
		}
		fmt.Fprintf(&sb, "ALERT_EMAIL_PASSWORD_ENC=%s\n", smtpEnc)
	}

	if *out == "-" {
		fmt.Print(sb.String())
		return
	}

	if err := os.WriteFile(*out, []byte(sb.String()), 0o600); err != nil {
		fatal("writing %s: %v", *out, err)
	}
	fmt.Printf("wrote %s\n", *out)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "credtool: "+format+"\n", args...)
	os.Exit(1)
}
