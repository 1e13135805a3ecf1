// Command imapterm is the interactive mail-access client: it connects to
// an IMAP-family server, authenticates, and drops the operator into the
// "!command" loop repl.REPL implements.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/netmute/imapterm/repl"
	"github.com/netmute/imapterm/session"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "imapterm <hostname> <port>",
		Short: "Interactive IMAP terminal client",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], args[1], debug)
		},
		SilenceUsage: true,
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "log wire-level protocol traffic to stderr")
	return cmd
}

func run(host, port string, debug bool) error {
	logLevel := slog.LevelWarn
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	addr := host + ":" + port
	sess, err := session.Dial(addr, session.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer func() { _ = sess.Close() }()

	fmt.Printf("Connected to %s\n", addr)

	// A single buffered reader over stdin, shared between the credential
	// prompt and the REPL below it — splitting stdin across two
	// independent bufio readers would strand whatever the first one
	// already buffered past the first line.
	stdin := bufio.NewReader(os.Stdin)
	for {
		user, pass, err := promptCredentials(stdin)
		if err != nil {
			if errors.Is(err, errDeclined) {
				return nil
			}
			return err
		}

		err = sess.Login(user, pass)
		if err == nil {
			break
		}
		if errors.Is(err, session.ErrRetry) {
			fmt.Println("login failed, try again")
			continue
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Println("logged in")
	return repl.New(sess, os.Stdout).Run(stdin)
}

var errDeclined = errors.New("user declined to authenticate")

// promptCredentials reads a username line from stdin and a password from
// the terminal without echo, via golang.org/x/term. An empty username or
// an EOF on the username line is treated as declining to authenticate.
func promptCredentials(stdin *bufio.Reader) (user, pass string, err error) {
	fmt.Print("Username: ")
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", "", errDeclined
	}
	user = strings.TrimSpace(line)
	if user == "" {
		return "", "", errDeclined
	}

	fmt.Print("Password: ")
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	return user, string(passBytes), nil
}
