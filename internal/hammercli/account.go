package hammercli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// Swapped in tests; the real terminal hides the typed password.
var (
	isTerminalFunc   = term.IsTerminal
	readPasswordFunc = term.ReadPassword
)

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	username := fs.String("username", "", "teacher username")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	user := *username
	if user == "" {
		line, err := c.readLine("Username: ")
		if err != nil {
			return err
		}
		user = line
	}
	password, err := c.readPassword("Password: ")
	if err != nil {
		return err
	}
	if user == "" || password == "" {
		return errors.New("username and password are required")
	}
	if err := c.api.Login(ctx, c.sess, user, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	c.printf("Signed in as %s\n", user)
	return nil
}

func (c *cli) readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminalFunc(fd) {
		return c.readLine(prompt)
	}
	c.printf("%s", prompt)
	raw, err := readPasswordFunc(fd)
	c.printf("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func (c *cli) logout() error {
	if err := c.api.Logout(c.sess); err != nil {
		return err
	}
	c.printf("Signed out\n")
	return nil
}
