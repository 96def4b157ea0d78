package engine

import (
	"crypto/rand"
	"io"

	"github.com/SafeMPC/identity-core/internal/chain"
	"github.com/SafeMPC/identity-core/internal/cipher"
	"github.com/SafeMPC/identity-core/internal/config"
	"github.com/SafeMPC/identity-core/internal/curve"
	"github.com/SafeMPC/identity-core/internal/kdf"
	"github.com/SafeMPC/identity-core/internal/signing"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// PROVIDERS - 只放需要从 config.Engine 取子配置的包装 provider，其余直接使用各包的构造函数
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

// NewRandom 默认随机源
func NewRandom() io.Reader {
	return rand.Reader
}

func NewKernel(cfg config.Engine) (*kdf.Kernel, error) {
	version, err := kdf.ParseVersion(cfg.KDF.Version)
	if err != nil {
		return nil, err
	}
	return kdf.NewKernel(version)
}

func NewCurveFactory(cfg config.Engine) *curve.Factory {
	return curve.NewFactory(cfg.KDF.MaxAttempts)
}

func NewSymmetric(cfg config.Engine, random io.Reader, kernel *kdf.Kernel) (*cipher.Symmetric, error) {
	algorithm, err := cipher.ParseAlgorithm(cfg.Cipher.Algorithm)
	if err != nil {
		return nil, err
	}
	return cipher.NewSymmetric(random, algorithm, kernel)
}

// NewPlaintextCache 缓存被禁用时返回 nil
func NewPlaintextCache(cfg config.Engine) *signing.PlaintextCache {
	if !cfg.Cache.Enabled {
		log.Warn().Msg("Plaintext cache disabled")
		return nil
	}
	return signing.NewPlaintextCache(cfg.Cache.Capacity, cfg.Cache.TTL)
}

func NewBitcoinAdapter(cfg config.Engine) (*chain.BitcoinAdapter, error) {
	params, err := chain.NetworkParams(cfg.Bitcoin.Network)
	if err != nil {
		return nil, err
	}
	return chain.NewBitcoinAdapter(params), nil
}

// NewStealthEncoder 隐身地址使用的链地址编码
func NewStealthEncoder(cfg config.Engine, bitcoin *chain.BitcoinAdapter) (chain.Encoder, error) {
	format, err := chain.ParseType(cfg.Stealth.AddressFormat)
	if err != nil {
		return nil, errors.Wrap(err, "invalid stealth address format")
	}
	if format == chain.Bitcoin {
		return bitcoin, nil
	}
	return chain.NewEthereumAdapter(), nil
}
