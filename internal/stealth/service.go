// Package stealth 实现 secp256k1 一次性隐身地址的生成与打开
//
// 发送方：r 随机，R = r·G，S = ECDH(r, P)，h = H_n(S)，一次性公钥 P' = P + h·G。
// 接收方：S = ECDH(p, R)，一次性私钥 p' = p + h mod n。
package stealth

import (
	"bytes"
	"crypto/rand"
	"io"

	"github.com/SafeMPC/identity-core/internal/chain"
	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/SafeMPC/identity-core/internal/curve"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const tweakDomainTag = "stealth/v1"

// Payload 发送方生成的隐身地址，临时公钥必须随付款一起发布
type Payload struct {
	EphemeralPublicKey []byte `json:"ephemeralPublicKey"`
	OneTimePublicKey   []byte `json:"oneTimePublicKey"`
	OneTimeAddress     string `json:"oneTimeAddress"`
}

// OneTimeKey 接收方恢复出的一次性花费密钥
type OneTimeKey struct {
	PrivateKey []byte `json:"privateKey"`
	PublicKey  []byte `json:"publicKey"`
	Address    string `json:"address"`
}

// Service 隐身地址服务
type Service struct {
	rand    io.Reader
	factory *curve.Factory
	encoder chain.Encoder
}

// NewService 创建隐身地址服务；random 为空时使用 crypto/rand，encoder 为空时使用以太坊地址
func NewService(random io.Reader, factory *curve.Factory, encoder chain.Encoder) *Service {
	if random == nil {
		random = rand.Reader
	}
	if factory == nil {
		factory = curve.NewFactory(0)
	}
	if encoder == nil {
		encoder = chain.NewEthereumAdapter()
	}
	return &Service{rand: random, factory: factory, encoder: encoder}
}

// GenerateStealthAddress 为接收方公钥生成新的一次性地址；每次调用使用新的临时密钥
func (s *Service) GenerateStealthAddress(recipientPublicKey []byte) (*Payload, error) {
	recipient, err := secp256k1.ParsePubKey(recipientPublicKey)
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrKey, "invalid recipient public key")
	}

	ephemeral, err := s.factory.Generate(curve.Secp256k1, s.rand)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate ephemeral key")
	}
	defer ephemeral.Zero()

	ephemeralPriv := secp256k1.PrivKeyFromBytes(ephemeral.PrivateKey)
	defer ephemeralPriv.Zero()

	tweak, err := s.tweak(ephemeralPriv, recipient)
	if err != nil {
		return nil, err
	}
	defer tweak.Zero()

	tweakPub, err := secp256k1.ParsePubKey(tweak.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse tweak point")
	}
	oneTimePub, err := addPoints(recipient, tweakPub)
	if err != nil {
		return nil, err
	}

	pubBytes := oneTimePub.SerializeCompressed()
	address, err := s.encoder.GenerateAddress(pubBytes)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode one-time address")
	}

	log.Debug().Str("chain", string(s.encoder.Chain())).Msg("Generated stealth address")

	return &Payload{
		EphemeralPublicKey: ephemeral.PublicKey,
		OneTimePublicKey:   pubBytes,
		OneTimeAddress:     address,
	}, nil
}

// OpenStealthAddress 接收方由临时公钥和自己的私钥恢复一次性花费密钥
func (s *Service) OpenStealthAddress(ephemeralPublicKey, recipientPrivateKey []byte) (*OneTimeKey, error) {
	ephemeral, err := secp256k1.ParsePubKey(ephemeralPublicKey)
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrStealthRecovery, "invalid ephemeral public key")
	}

	var p secp256k1.ModNScalar
	if len(recipientPrivateKey) != curve.ScalarSize {
		return nil, errors.Wrapf(cryptoerr.ErrStealthRecovery, "invalid recipient private key length: %d", len(recipientPrivateKey))
	}
	if overflow := p.SetByteSlice(recipientPrivateKey); overflow || p.IsZero() {
		return nil, errors.Wrap(cryptoerr.ErrStealthRecovery, "recipient private key out of range")
	}
	recipientPriv := secp256k1.NewPrivateKey(&p)
	defer recipientPriv.Zero()

	tweak, err := s.tweak(recipientPriv, ephemeral)
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrStealthRecovery, err.Error())
	}
	defer tweak.Zero()

	var h secp256k1.ModNScalar
	h.SetByteSlice(tweak.PrivateKey)
	defer h.Zero()

	// p' = p + h mod n
	var oneTime secp256k1.ModNScalar
	oneTime.Set(&p).Add(&h)
	if oneTime.IsZero() {
		return nil, errors.Wrap(cryptoerr.ErrStealthRecovery, "one-time key is zero")
	}
	oneTimePriv := secp256k1.NewPrivateKey(&oneTime)

	pubBytes := oneTimePriv.PubKey().SerializeCompressed()
	address, err := s.encoder.GenerateAddress(pubBytes)
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrStealthRecovery, err.Error())
	}

	return &OneTimeKey{
		PrivateKey: oneTimePriv.Serialize(),
		PublicKey:  pubBytes,
		Address:    address,
	}, nil
}

// CheckStealthAddress 接收方扫描：判断 payload 是否属于该私钥
func (s *Service) CheckStealthAddress(payload *Payload, recipientPrivateKey []byte) (bool, error) {
	if payload == nil {
		return false, errors.Wrap(cryptoerr.ErrStealthRecovery, "payload is nil")
	}
	key, err := s.OpenStealthAddress(payload.EphemeralPublicKey, recipientPrivateKey)
	if err != nil {
		return false, err
	}
	defer zero(key.PrivateKey)

	return key.Address == payload.OneTimeAddress && bytes.Equal(key.PublicKey, payload.OneTimePublicKey), nil
}

// tweak h = H_n(ECDH(priv, pub))，借助曲线工厂的拒绝采样映射到标量
func (s *Service) tweak(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) (*curve.KeyPair, error) {
	shared := secp256k1.GenerateSharedSecret(priv, pub)
	defer zero(shared)

	pair, err := s.factory.Derive(shared, curve.Secp256k1, tweakDomainTag)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive stealth tweak")
	}
	return pair, nil
}

func addPoints(a, b *secp256k1.PublicKey) (*secp256k1.PublicKey, error) {
	var ja, jb, sum secp256k1.JacobianPoint
	a.AsJacobian(&ja)
	b.AsJacobian(&jb)
	secp256k1.AddNonConst(&ja, &jb, &sum)

	if (sum.X.IsZero() && sum.Y.IsZero()) || sum.Z.IsZero() {
		return nil, errors.Wrap(cryptoerr.ErrCurve, "one-time public key is the point at infinity")
	}
	sum.ToAffine()
	return secp256k1.NewPublicKey(&sum.X, &sum.Y), nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
