package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/SafeMPC/identity-core/internal/config"
	"github.com/SafeMPC/identity-core/internal/engine"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	// ConfigFlag 全局配置文件参数
	ConfigFlag = "config"
	// EnvFileFlag 启动前加载的 dotenv 文件，已存在的环境变量不会被覆盖
	EnvFileFlag = "env-file"
)

// SetupLogger 按配置设置全局 zerolog
func SetupLogger(cfg config.Logger) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(cfg.Level)
	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = "15:04:05"
		}))
	}
}

// LoadConfig 读取 --config 指定的文件（可选）并合并环境变量
func LoadConfig(cmd *cobra.Command) (config.Engine, error) {
	if envFile, err := cmd.Flags().GetString(EnvFileFlag); err == nil && envFile != "" {
		if err := gotenv.Load(envFile); err != nil {
			return config.Engine{}, errors.Wrapf(err, "failed to load env file %s", envFile)
		}
	}

	configFile, err := cmd.Flags().GetString(ConfigFlag)
	if err != nil {
		configFile = ""
	}
	return config.Load(viper.New(), configFile)
}

// WithEngine 初始化引擎后执行 f
func WithEngine(ctx context.Context, cfg config.Engine, f func(ctx context.Context, e *engine.Engine) error) error {
	SetupLogger(cfg.Logger)

	e, err := engine.InitNewEngine(cfg, prometheus.NewRegistry())
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize engine")
		return errors.Wrap(err, "failed to initialize engine")
	}

	return f(ctx, e)
}

// Run 组合 LoadConfig 与 WithEngine，供子命令的 RunE 使用
func Run(cmd *cobra.Command, f func(ctx context.Context, e *engine.Engine) error) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	return WithEngine(cmd.Context(), cfg, f)
}

// PrintJSON 以缩进 JSON 输出结果
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func NewSubcommandGroup(name string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("%s <subcommand>", name),
		Short: fmt.Sprintf("%s related subcommands", name),
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Println(err)
			}
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}
