// Package identity 由口令派生完整的身份密钥包
package identity

import (
	"context"
	"time"

	"github.com/SafeMPC/identity-core/internal/chain"
	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/SafeMPC/identity-core/internal/curve"
	"github.com/SafeMPC/identity-core/internal/kdf"
	"github.com/SafeMPC/identity-core/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// 各曲线族的域分离标签，改动会改变所有已派生的身份
const (
	TagSign              = "identity/sign/v1"
	TagEncrypt           = "identity/encrypt/v1"
	TagSecp256k1Bitcoin  = "identity/secp256k1/bitcoin/v1"
	TagSecp256k1Ethereum = "identity/secp256k1/ethereum/v1"
	TagP256              = "identity/p256/v1"
)

// Options 选择额外派生的曲线族，默认全部关闭
type Options struct {
	IncludeSecp256k1Bitcoin  bool `json:"includeSecp256k1Bitcoin"`
	IncludeSecp256k1Ethereum bool `json:"includeSecp256k1Ethereum"`
	IncludeP256              bool `json:"includeP256"`
}

// ChainKey 带链上地址的 secp256k1 密钥
type ChainKey struct {
	PrivateKey []byte `json:"privateKey"`
	PublicKey  []byte `json:"publicKey"`
	Address    string `json:"address"`
}

// Bundle 一次派生的全部密钥材料；未请求的曲线族为 nil 且不出现在 JSON 中
type Bundle struct {
	KDFVersion kdf.Version `json:"kdfVersion"`

	Pub   []byte `json:"pub"`
	Priv  []byte `json:"priv"`
	EPub  []byte `json:"epub"`
	EPriv []byte `json:"epriv"`

	Bitcoin  *ChainKey     `json:"secp256k1Bitcoin,omitempty"`
	Ethereum *ChainKey     `json:"secp256k1Ethereum,omitempty"`
	P256     *curve.KeyPair `json:"p256,omitempty"`
}

// SigningKey 内部签名密钥对
func (b *Bundle) SigningKey() *curve.KeyPair {
	return &curve.KeyPair{Curve: curve.Internal, PrivateKey: b.Priv, PublicKey: b.Pub}
}

// EncryptionKey 内部加密密钥对
func (b *Bundle) EncryptionKey() *curve.KeyPair {
	return &curve.KeyPair{Curve: curve.Internal, PrivateKey: b.EPriv, PublicKey: b.EPub}
}

// Zero 清零包内所有私钥
func (b *Bundle) Zero() {
	if b == nil {
		return
	}
	zero(b.Priv)
	zero(b.EPriv)
	if b.Bitcoin != nil {
		zero(b.Bitcoin.PrivateKey)
	}
	if b.Ethereum != nil {
		zero(b.Ethereum.PrivateKey)
	}
	b.P256.Zero()
}

// Service 身份派生服务
type Service struct {
	kernel   *kdf.Kernel
	factory  *curve.Factory
	bitcoin  chain.Encoder
	ethereum chain.Encoder
	metrics  *metrics.Metrics
}

// NewService 创建身份派生服务；bitcoin 为空时使用主网地址
func NewService(kernel *kdf.Kernel, factory *curve.Factory, bitcoin *chain.BitcoinAdapter, m *metrics.Metrics) *Service {
	if factory == nil {
		factory = curve.NewFactory(0)
	}
	if bitcoin == nil {
		bitcoin = chain.NewBitcoinAdapter(nil)
	}
	return &Service{
		kernel:   kernel,
		factory:  factory,
		bitcoin:  bitcoin,
		ethereum: chain.NewEthereumAdapter(),
		metrics:  m,
	}
}

// Derive 由口令和可选的额外熵派生身份密钥包
//
// 相同输入总是得到逐字节相同的密钥包。各曲线族互不依赖，并发派生；
// 任一失败时返回第一个错误且不返回部分结果。
func (s *Service) Derive(ctx context.Context, password string, extra []byte, opts Options) (*Bundle, error) {
	if s.kernel == nil {
		return nil, errors.Wrap(cryptoerr.ErrDerivation, "kdf kernel is not configured")
	}

	start := time.Now()
	version := s.kernel.Version()

	base, err := s.kernel.DeriveBaseContext(ctx, password, extra, kdf.IdentitySalt(version))
	if err != nil {
		return nil, err
	}
	defer base.Zero()

	bundle := &Bundle{KDFVersion: version}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pair, err := s.derivePair(gctx, base, curve.Internal, TagSign)
		if err != nil {
			return err
		}
		bundle.Pub, bundle.Priv = pair.PublicKey, pair.PrivateKey
		return nil
	})

	g.Go(func() error {
		pair, err := s.derivePair(gctx, base, curve.Internal, TagEncrypt)
		if err != nil {
			return err
		}
		bundle.EPub, bundle.EPriv = pair.PublicKey, pair.PrivateKey
		return nil
	})

	if opts.IncludeSecp256k1Bitcoin {
		g.Go(func() error {
			key, err := s.deriveChainKey(gctx, base, TagSecp256k1Bitcoin, s.bitcoin)
			if err != nil {
				return err
			}
			bundle.Bitcoin = key
			return nil
		})
	}

	if opts.IncludeSecp256k1Ethereum {
		g.Go(func() error {
			key, err := s.deriveChainKey(gctx, base, TagSecp256k1Ethereum, s.ethereum)
			if err != nil {
				return err
			}
			bundle.Ethereum = key
			return nil
		})
	}

	if opts.IncludeP256 {
		g.Go(func() error {
			pair, err := s.derivePair(gctx, base, curve.P256, TagP256)
			if err != nil {
				return err
			}
			bundle.P256 = pair
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		bundle.Zero()
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.ObserveDerive(elapsed)

	log.Debug().
		Str("kdf", version.String()).
		Bool("bitcoin", opts.IncludeSecp256k1Bitcoin).
		Bool("ethereum", opts.IncludeSecp256k1Ethereum).
		Bool("p256", opts.IncludeP256).
		Dur("duration", elapsed).
		Msg("Derived identity bundle")

	return bundle, nil
}

func (s *Service) derivePair(ctx context.Context, base kdf.Secret, c curve.Curve, tag string) (*curve.KeyPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pair, err := s.factory.Derive(base, c, tag)
	s.metrics.CurveDerived(c.String(), err)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to derive %s", tag)
	}
	return pair, nil
}

func (s *Service) deriveChainKey(ctx context.Context, base kdf.Secret, tag string, encoder chain.Encoder) (*ChainKey, error) {
	pair, err := s.derivePair(ctx, base, curve.Secp256k1, tag)
	if err != nil {
		return nil, err
	}
	address, err := encoder.GenerateAddress(pair.PublicKey)
	if err != nil {
		pair.Zero()
		return nil, errors.Wrapf(err, "failed to encode %s address", encoder.Chain())
	}
	return &ChainKey{
		PrivateKey: pair.PrivateKey,
		PublicKey:  pair.PublicKey,
		Address:    address,
	}, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
