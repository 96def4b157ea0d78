package cipher

import (
	"context"
	"io"
	"strings"

	corecipher "github.com/SafeMPC/identity-core/internal/cipher"
	"github.com/SafeMPC/identity-core/internal/engine"
	"github.com/SafeMPC/identity-core/internal/util/command"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	passwordFlag string = "password"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("cipher",
		newEncrypt(),
		newDecrypt(),
	)
}

func newEncrypt() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt [plaintext]",
		Short: "Encrypts plaintext with a password and prints the envelope",
		Long:  "Encrypts the argument (or stdin when omitted) under a password-derived key.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString(passwordFlag)
			plaintext, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			return command.Run(cmd, func(_ context.Context, e *engine.Engine) error {
				env, err := e.EncryptWithPassword(plaintext, password)
				if err != nil {
					return err
				}
				return command.PrintJSON(cmd.OutOrStdout(), env)
			})
		},
	}

	cmd.Flags().String(passwordFlag, "", "Password to encrypt with (required)")
	_ = cmd.MarkFlagRequired(passwordFlag)

	return cmd
}

func newDecrypt() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt [envelope]",
		Short: "Decrypts a password envelope and prints the plaintext",
		Long:  "Decrypts the JSON envelope given as argument (or on stdin when omitted).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString(passwordFlag)
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			env, err := corecipher.ParseEnvelope(raw)
			if err != nil {
				return err
			}

			return command.Run(cmd, func(_ context.Context, e *engine.Engine) error {
				plaintext, err := e.DecryptWithPassword(env, password)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(append(plaintext, '\n'))
				return err
			})
		},
	}

	cmd.Flags().String(passwordFlag, "", "Password to decrypt with (required)")
	_ = cmd.MarkFlagRequired(passwordFlag)

	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read stdin")
	}
	return []byte(strings.TrimRight(string(data), "\r\n")), nil
}
