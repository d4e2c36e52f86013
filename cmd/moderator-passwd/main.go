// moderator-passwd hashes a moderator password with bcrypt and prints a
// MODERATORS_FILE entry. The password is read from stdin so it never shows up
// in shell history.
//
//	echo -n 'admin123' | moderator-passwd --email admin@admin.com >> moderators.yaml
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"jokemoderation/contexts/moderation/moderate-jokes-service/adapters/auth"
	"jokemoderation/contexts/moderation/moderate-jokes-service/domain/entities"
	"jokemoderation/internal/platform/config"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var email string
	var cost int

	flagSet := pflag.NewFlagSet("moderator-passwd", pflag.ContinueOnError)
	flagSet.StringVar(&email, "email", "", "moderator email (required)")
	flagSet.IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet, stdout)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet, stdout)
		return nil
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("--email is required")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("--cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	password, err := readPassword(stdin)
	if err != nil {
		return err
	}
	hash, err := auth.BcryptHasher{Cost: cost}.Hash(password)
	if err != nil {
		return err
	}

	out, err := config.MarshalModerators([]entities.ModeratorCredential{{Email: email, PasswordHash: hash}})
	if err != nil {
		return fmt.Errorf("render moderators entry: %w", err)
	}
	_, err = stdout.Write(out)
	return err
}

func readPassword(stdin io.Reader) (string, error) {
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password on stdin is empty")
	}
	return password, nil
}

func printHelp(flagSet *pflag.FlagSet, out io.Writer) {
	fmt.Fprintln(out, "Usage: moderator-passwd --email EMAIL [--cost N] < password")
	fmt.Fprintln(out)
	fmt.Fprint(out, flagSet.FlagUsages())
}
