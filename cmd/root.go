package cmd

import (
	"fmt"
	"os"

	"github.com/SafeMPC/identity-core/cmd/address"
	"github.com/SafeMPC/identity-core/cmd/cipher"
	"github.com/SafeMPC/identity-core/cmd/derive"
	"github.com/SafeMPC/identity-core/cmd/stealth"
	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/SafeMPC/identity-core/internal/util/command"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewRootCommand 组装全部子命令
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "identity-core",
		Short:         "Deterministic identity key derivation and encryption",
		Long:          "Derives identity key bundles from a password and provides envelope encryption, signing and stealth addresses built on them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(command.ConfigFlag, "", "Path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String(command.EnvFileFlag, "", "Path to a dotenv file with IDENTITY_* variables")

	rootCmd.AddCommand(
		derive.New(),
		cipher.New(),
		stealth.New(),
		address.New(),
	)

	return rootCmd
}

// Execute 执行根命令；失败时打印不泄露细节的错误信息并以 1 退出
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		log.Debug().Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

// userMessage 密码学错误只输出固定文案，其余错误（参数、配置）原样输出
func userMessage(err error) string {
	if cryptoerr.Kind(err) != nil {
		return cryptoerr.PublicMessage(err)
	}
	return err.Error()
}
