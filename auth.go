package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/prooflab/prooflab-go/internal/api"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and save the session token",
		Args:  cobra.ExactArgs(1),
		RunE:  runLogin,
	}
}

func newSignupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup <email>",
		Short: "Create a new photographer account",
		Args:  cobra.ExactArgs(1),
		RunE:  runSignup,
	}
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <email> <code>",
		Short: "Confirm a new account with the emailed verification code",
		Args:  cobra.ExactArgs(2),
		RunE:  runVerify,
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved session token",
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Display the signed-in account",
		RunE:  runWhoami,
	}
}

// promptPassword reads a password from stdin. Prompts go to stderr so they
// are always visible, even with stdout redirected. On a terminal the
// password is read with echo disabled; piped input falls back to a plain
// line read so scripted logins keep working.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)

		// ReadPassword swallows the user's newline.
		fmt.Fprintln(os.Stderr)

		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}

		return string(password), nil
	}

	return readPasswordLine(os.Stdin)
}

// readPasswordLine reads a single line of non-terminal input.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()
	email := args[0]

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if err := client.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("signing in: %w", err)
	}

	logger.Info("login successful", "email", email)
	statusf("Signed in as %s.\n", email)

	return nil
}

func runSignup(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()
	email := args[0]

	password, err := promptPassword("Choose a password: ")
	if err != nil {
		return err
	}

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if err := client.SignUp(ctx, email, password); err != nil {
		return fmt.Errorf("signing up: %w", err)
	}

	statusf("Account created. Check %s for a verification code, then run 'prooflab verify %s <code>'.\n", email, email)

	return nil
}

func runVerify(_ *cobra.Command, args []string) error {
	logger := buildLogger()
	ctx := context.Background()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if err := client.Verify(ctx, args[0], args[1]); err != nil {
		return fmt.Errorf("verifying account: %w", err)
	}

	statusf("Account verified. Run 'prooflab login %s' to sign in.\n", args[0])

	return nil
}

func runLogout(_ *cobra.Command, _ []string) error {
	logger := buildLogger()

	client, _, err := newGateway(logger)
	if err != nil {
		return err
	}

	if err := client.SignOut(); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}

	logger.Info("logout successful")
	statusf("Signed out.\n")

	return nil
}

func runWhoami(_ *cobra.Command, _ []string) error {
	logger := buildLogger()

	_, store, err := newGateway(logger)
	if err != nil {
		return err
	}

	if !store.Current().Authenticated() {
		return errors.New("not signed in — run 'prooflab login' first")
	}

	email := store.Meta("email")

	if flagJSON {
		return printJSON(map[string]string{"email": email})
	}

	fmt.Println(email)

	return nil
}

// notLoggedInHint rewrites the gateway's session-expired error into an
// actionable message.
func notLoggedInHint(err error) error {
	if errors.Is(err, api.ErrNotLoggedIn) {
		return errors.New("session expired — run 'prooflab login' again")
	}

	return err
}
