package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jasper-go/internal/app"
	"jasper-go/internal/config"
	"jasper-go/internal/encryption"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return err
		}

		cfg := config.NewConfig(paths.Home)
		if err := config.Init(paths.ConfigFile, cfg); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", paths.ConfigFile)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("# %s\n\n", paths.ConfigFile)
		return (&config.Manager{}).Write(os.Stdout, cfg)
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the export encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a key pair protected by a passphrase",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "keys-init", func(ctx context.Context, a *app.JasperApp) error {
			enc := a.Encryptor()
			if enc.IsConfigured() {
				return errors.New("encryption keys already exist")
			}

			passphrase, err := readPassword("Passphrase: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Confirm passphrase: ")
			if err != nil {
				return err
			}
			if passphrase != confirm {
				return errors.New("passphrases do not match")
			}
			if passphrase == "" {
				return errors.New("passphrase must not be empty")
			}

			if err := enc.Setup(passphrase); err != nil {
				return fmt.Errorf("generating keys: %w", err)
			}
			fmt.Println("Encryption keys created")
			return nil
		})
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the public key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "keys-show", func(ctx context.Context, a *app.JasperApp) error {
			age, ok := a.Encryptor().(*encryption.AgeEncryptor)
			if !ok {
				return errors.New("configured encryptor has no public key")
			}
			key, err := age.PublicKey()
			if err != nil {
				return err
			}
			fmt.Println(key)
			return nil
		})
	},
}

// readPassword prompts on stderr and reads without echo when stdin is a
// terminal. Piped input is read one line at a time.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(b), nil
	}

	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var stdinReader = bufio.NewReader(os.Stdin)

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)
	keysCmd.AddCommand(keysShowCmd)
}
