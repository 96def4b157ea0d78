package derive

import (
	"context"
	"encoding/hex"

	"github.com/SafeMPC/identity-core/internal/engine"
	"github.com/SafeMPC/identity-core/internal/identity"
	"github.com/SafeMPC/identity-core/internal/util/command"
	"github.com/spf13/cobra"
)

const (
	passwordFlag string = "password"
	extraFlag    string = "extra"
	bitcoinFlag  string = "bitcoin"
	ethereumFlag string = "ethereum"
	p256Flag     string = "p256"
	privateFlag  string = "show-private"
)

type chainKeyOutput struct {
	PrivateKey string `json:"privateKey,omitempty"`
	PublicKey  string `json:"publicKey"`
	Address    string `json:"address"`
}

type pairOutput struct {
	PrivateKey string `json:"privateKey,omitempty"`
	PublicKey  string `json:"publicKey"`
}

type bundleOutput struct {
	KDFVersion string          `json:"kdfVersion"`
	Sign       pairOutput      `json:"sign"`
	Encrypt    pairOutput      `json:"encrypt"`
	Bitcoin    *chainKeyOutput `json:"secp256k1Bitcoin,omitempty"`
	Ethereum   *chainKeyOutput `json:"secp256k1Ethereum,omitempty"`
	P256       *pairOutput     `json:"p256,omitempty"`
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derives an identity key bundle from a password",
		Long: `Derives an identity key bundle from a password.

The same password and extra entropy always produce the same bundle.
Private keys are only printed with --show-private.`,
		RunE: runDerive,
	}

	cmd.Flags().String(passwordFlag, "", "Password to derive from (required)")
	cmd.Flags().String(extraFlag, "", "Optional extra entropy mixed into the derivation")
	cmd.Flags().Bool(bitcoinFlag, false, "Include a secp256k1 key with a Bitcoin address")
	cmd.Flags().Bool(ethereumFlag, false, "Include a secp256k1 key with an Ethereum address")
	cmd.Flags().Bool(p256Flag, false, "Include a P-256 key pair")
	cmd.Flags().Bool(privateFlag, false, "Print private keys")
	_ = cmd.MarkFlagRequired(passwordFlag)

	return cmd
}

func runDerive(cmd *cobra.Command, _ []string) error {
	password, _ := cmd.Flags().GetString(passwordFlag)
	extra, _ := cmd.Flags().GetString(extraFlag)
	showPrivate, _ := cmd.Flags().GetBool(privateFlag)

	var opts identity.Options
	opts.IncludeSecp256k1Bitcoin, _ = cmd.Flags().GetBool(bitcoinFlag)
	opts.IncludeSecp256k1Ethereum, _ = cmd.Flags().GetBool(ethereumFlag)
	opts.IncludeP256, _ = cmd.Flags().GetBool(p256Flag)

	var extraBytes []byte
	if extra != "" {
		extraBytes = []byte(extra)
	}

	return command.Run(cmd, func(ctx context.Context, e *engine.Engine) error {
		bundle, err := e.Derive(ctx, password, extraBytes, opts)
		if err != nil {
			return err
		}
		defer bundle.Zero()

		return command.PrintJSON(cmd.OutOrStdout(), render(bundle, showPrivate))
	})
}

func render(b *identity.Bundle, showPrivate bool) bundleOutput {
	secret := func(key []byte) string {
		if !showPrivate {
			return ""
		}
		return hex.EncodeToString(key)
	}

	out := bundleOutput{
		KDFVersion: b.KDFVersion.String(),
		Sign:       pairOutput{PrivateKey: secret(b.Priv), PublicKey: hex.EncodeToString(b.Pub)},
		Encrypt:    pairOutput{PrivateKey: secret(b.EPriv), PublicKey: hex.EncodeToString(b.EPub)},
	}
	if b.Bitcoin != nil {
		out.Bitcoin = &chainKeyOutput{
			PrivateKey: secret(b.Bitcoin.PrivateKey),
			PublicKey:  hex.EncodeToString(b.Bitcoin.PublicKey),
			Address:    b.Bitcoin.Address,
		}
	}
	if b.Ethereum != nil {
		out.Ethereum = &chainKeyOutput{
			PrivateKey: secret(b.Ethereum.PrivateKey),
			PublicKey:  hex.EncodeToString(b.Ethereum.PublicKey),
			Address:    b.Ethereum.Address,
		}
	}
	if b.P256 != nil {
		out.P256 = &pairOutput{PrivateKey: secret(b.P256.PrivateKey), PublicKey: hex.EncodeToString(b.P256.PublicKey)}
	}
	return out
}
