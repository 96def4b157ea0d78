package stealth

import (
	"context"
	"encoding/hex"

	"github.com/SafeMPC/identity-core/internal/engine"
	"github.com/SafeMPC/identity-core/internal/util/command"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	recipientFlag string = "recipient"
	ephemeralFlag string = "ephemeral"
	keyFlag       string = "key"
)

type payloadOutput struct {
	EphemeralPublicKey string `json:"ephemeralPublicKey"`
	OneTimePublicKey   string `json:"oneTimePublicKey"`
	OneTimeAddress     string `json:"oneTimeAddress"`
}

type oneTimeKeyOutput struct {
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	Address    string `json:"address"`
}

func New() *cobra.Command {
	return command.NewSubcommandGroup("stealth",
		newGenerate(),
		newOpen(),
	)
}

func newGenerate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generates a one-time address for a secp256k1 recipient key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			recipient, err := hexFlag(cmd, recipientFlag)
			if err != nil {
				return err
			}

			return command.Run(cmd, func(_ context.Context, e *engine.Engine) error {
				payload, err := e.GenerateStealthAddress(recipient)
				if err != nil {
					return err
				}
				return command.PrintJSON(cmd.OutOrStdout(), payloadOutput{
					EphemeralPublicKey: hex.EncodeToString(payload.EphemeralPublicKey),
					OneTimePublicKey:   hex.EncodeToString(payload.OneTimePublicKey),
					OneTimeAddress:     payload.OneTimeAddress,
				})
			})
		},
	}

	cmd.Flags().String(recipientFlag, "", "Recipient secp256k1 public key, hex (required)")
	_ = cmd.MarkFlagRequired(recipientFlag)

	return cmd
}

func newOpen() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Recovers the one-time spending key of a stealth payment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ephemeral, err := hexFlag(cmd, ephemeralFlag)
			if err != nil {
				return err
			}
			key, err := hexFlag(cmd, keyFlag)
			if err != nil {
				return err
			}

			return command.Run(cmd, func(_ context.Context, e *engine.Engine) error {
				oneTime, err := e.OpenStealthAddress(ephemeral, key)
				if err != nil {
					return err
				}
				return command.PrintJSON(cmd.OutOrStdout(), oneTimeKeyOutput{
					PrivateKey: hex.EncodeToString(oneTime.PrivateKey),
					PublicKey:  hex.EncodeToString(oneTime.PublicKey),
					Address:    oneTime.Address,
				})
			})
		},
	}

	cmd.Flags().String(ephemeralFlag, "", "Ephemeral public key from the payload, hex (required)")
	cmd.Flags().String(keyFlag, "", "Recipient secp256k1 private key, hex (required)")
	_ = cmd.MarkFlagRequired(ephemeralFlag)
	_ = cmd.MarkFlagRequired(keyFlag)

	return cmd
}

func hexFlag(cmd *cobra.Command, name string) ([]byte, error) {
	value, _ := cmd.Flags().GetString(name)
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, errors.Wrapf(err, "--%s must be hex", name)
	}
	return b, nil
}
