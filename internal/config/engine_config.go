package config

import (
	"strings"
	"time"

	"github.com/SafeMPC/identity-core/internal/chain"
	"github.com/SafeMPC/identity-core/internal/cipher"
	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/SafeMPC/identity-core/internal/curve"
	"github.com/SafeMPC/identity-core/internal/kdf"
	"github.com/SafeMPC/identity-core/internal/signing"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 IDENTITY_KDF_VERSION
const EnvPrefix = "IDENTITY"

type Logger struct {
	Level              zerolog.Level `mapstructure:"level"`
	PrettyPrintConsole bool          `mapstructure:"pretty_print_console"`
}

type KDF struct {
	Version     string `mapstructure:"version"`
	MaxAttempts int    `mapstructure:"max_attempts"`
}

type Cipher struct {
	Algorithm string `mapstructure:"algorithm"`
}

type Cache struct {
	Enabled  bool          `mapstructure:"enabled"`
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type Bitcoin struct {
	Network string `mapstructure:"network"`
}

type Stealth struct {
	// AddressFormat 一次性地址的编码链：ethereum 或 bitcoin
	AddressFormat string `mapstructure:"address_format"`
}

// Engine 身份引擎的全部配置
type Engine struct {
	Logger  Logger  `mapstructure:"logger"`
	KDF     KDF     `mapstructure:"kdf"`
	Cipher  Cipher  `mapstructure:"cipher"`
	Cache   Cache   `mapstructure:"cache"`
	Bitcoin Bitcoin `mapstructure:"bitcoin"`
	Stealth Stealth `mapstructure:"stealth"`
}

// SetDefaults 在 v 上注册所有默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", zerolog.InfoLevel.String())
	v.SetDefault("logger.pretty_print_console", false)

	v.SetDefault("kdf.version", kdf.DefaultVersion.String())
	v.SetDefault("kdf.max_attempts", curve.DefaultMaxAttempts)

	v.SetDefault("cipher.algorithm", string(cipher.DefaultAlgorithm))

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.capacity", signing.DefaultCacheCapacity)
	v.SetDefault("cache.ttl", signing.DefaultCacheTTL)

	v.SetDefault("bitcoin.network", "mainnet")
	v.SetDefault("stealth.address_format", string(chain.Ethereum))
}

// DefaultEngineConfig 只包含默认值的配置，不读取环境变量
func DefaultEngineConfig() Engine {
	v := viper.New()
	SetDefaults(v)
	cfg, err := fromViper(v)
	if err != nil {
		// 默认值总是合法的
		panic(err)
	}
	return cfg
}

// Load 依次合并默认值、可选的配置文件和 IDENTITY_ 前缀的环境变量
func Load(v *viper.Viper, configFile string) (Engine, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Engine{}, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Engine, error) {
	level, err := zerolog.ParseLevel(v.GetString("logger.level"))
	if err != nil {
		return Engine{}, errors.Wrap(err, "invalid logger.level")
	}

	cfg := Engine{
		Logger: Logger{
			Level:              level,
			PrettyPrintConsole: v.GetBool("logger.pretty_print_console"),
		},
		KDF: KDF{
			Version:     v.GetString("kdf.version"),
			MaxAttempts: v.GetInt("kdf.max_attempts"),
		},
		Cipher: Cipher{
			Algorithm: v.GetString("cipher.algorithm"),
		},
		Cache: Cache{
			Enabled:  v.GetBool("cache.enabled"),
			Capacity: v.GetInt("cache.capacity"),
			TTL:      v.GetDuration("cache.ttl"),
		},
		Bitcoin: Bitcoin{
			Network: v.GetString("bitcoin.network"),
		},
		Stealth: Stealth{
			AddressFormat: v.GetString("stealth.address_format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Engine{}, err
	}
	return cfg, nil
}

// Validate 检查所有枚举值和数值范围
func (c Engine) Validate() error {
	if _, err := kdf.ParseVersion(c.KDF.Version); err != nil {
		return errors.Wrap(err, "invalid kdf.version")
	}
	if c.KDF.MaxAttempts < 1 {
		return errors.Wrapf(cryptoerr.ErrDerivation, "kdf.max_attempts must be positive, got %d", c.KDF.MaxAttempts)
	}
	if _, err := cipher.ParseAlgorithm(c.Cipher.Algorithm); err != nil {
		return errors.Wrap(err, "invalid cipher.algorithm")
	}
	if c.Cache.Enabled {
		if c.Cache.Capacity < 1 {
			return errors.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
		}
		if c.Cache.TTL < 0 {
			return errors.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
		}
	}
	if _, err := chain.NetworkParams(c.Bitcoin.Network); err != nil {
		return errors.Wrap(err, "invalid bitcoin.network")
	}
	if _, err := chain.ParseType(c.Stealth.AddressFormat); err != nil {
		return errors.Wrap(err, "invalid stealth.address_format")
	}
	return nil
}
