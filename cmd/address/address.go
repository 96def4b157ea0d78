package address

import (
	"context"

	"github.com/SafeMPC/identity-core/internal/engine"
	"github.com/SafeMPC/identity-core/internal/util/command"
	"github.com/spf13/cobra"
)

type validateOutput struct {
	Address string `json:"address"`
	Chain   string `json:"chain"`
	Valid   bool   `json:"valid"`
}

func New() *cobra.Command {
	return command.NewSubcommandGroup("address",
		newValidate(),
	)
}

func newValidate() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <address>",
		Short: "Validates a Bitcoin or Ethereum address checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.Run(cmd, func(_ context.Context, e *engine.Engine) error {
				chainType, err := e.ValidateAddress(args[0])
				if err != nil {
					return err
				}
				return command.PrintJSON(cmd.OutOrStdout(), validateOutput{
					Address: args[0],
					Chain:   string(chainType),
					Valid:   true,
				})
			})
		},
	}
}
