package curve

import (
	"crypto/ecdh"
	"crypto/ed25519"

	"filippo.io/edwards25519"
	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// ScalarSize 三条曲线的私钥（或种子）长度
const ScalarSize = 32

// Deriver 单个曲线变体的实现
type Deriver interface {
	Curve() Curve

	// PublicKey 由私钥计算公钥
	PublicKey(priv []byte) ([]byte, error)

	// ValidatePublicKey 检查公钥编码与曲线点是否有效
	ValidatePublicKey(pub []byte) error

	// acceptCandidate 将 32 字节候选值映射为私钥；返回 false 表示需要重采样
	acceptCandidate(candidate []byte) ([]byte, bool)
}

var derivers = map[Curve]Deriver{
	Internal:  internalDeriver{},
	Secp256k1: secp256k1Deriver{},
	P256:      p256Deriver{},
}

func deriverFor(c Curve) (Deriver, error) {
	d, ok := derivers[c]
	if !ok {
		return nil, errors.Wrapf(cryptoerr.ErrKey, "unsupported curve %d", uint8(c))
	}
	return d, nil
}

// internalDeriver Ed25519：候选值直接作为种子，由 Ed25519 展开时钳位
type internalDeriver struct{}

func (internalDeriver) Curve() Curve { return Internal }

func (internalDeriver) acceptCandidate(candidate []byte) ([]byte, bool) {
	seed := make([]byte, ed25519.SeedSize)
	copy(seed, candidate)
	return seed, true
}

func (internalDeriver) PublicKey(priv []byte) ([]byte, error) {
	if len(priv) != ed25519.SeedSize {
		return nil, errors.Wrapf(cryptoerr.ErrKey, "invalid ed25519 seed length: %d", len(priv))
	}
	key := ed25519.NewKeyFromSeed(priv)
	return []byte(key.Public().(ed25519.PublicKey)), nil
}

func (internalDeriver) ValidatePublicKey(pub []byte) error {
	if len(pub) != ed25519.PublicKeySize {
		return errors.Wrapf(cryptoerr.ErrKey, "invalid ed25519 public key length: %d", len(pub))
	}
	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return errors.Wrap(cryptoerr.ErrKey, "invalid ed25519 public key")
	}
	return nil
}

// secp256k1Deriver 拒绝 0 和 >= n 的候选值
type secp256k1Deriver struct{}

func (secp256k1Deriver) Curve() Curve { return Secp256k1 }

func (secp256k1Deriver) acceptCandidate(candidate []byte) ([]byte, bool) {
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(candidate); overflow || s.IsZero() {
		return nil, false
	}
	b := s.Bytes()
	return b[:], true
}

func (secp256k1Deriver) PublicKey(priv []byte) ([]byte, error) {
	if len(priv) != ScalarSize {
		return nil, errors.Wrapf(cryptoerr.ErrKey, "invalid secp256k1 private key length: %d", len(priv))
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(priv); overflow || s.IsZero() {
		return nil, errors.Wrap(cryptoerr.ErrKey, "secp256k1 private key out of range")
	}
	return secp256k1.NewPrivateKey(&s).PubKey().SerializeCompressed(), nil
}

func (secp256k1Deriver) ValidatePublicKey(pub []byte) error {
	if _, err := secp256k1.ParsePubKey(pub); err != nil {
		return errors.Wrap(cryptoerr.ErrKey, "invalid secp256k1 public key")
	}
	return nil
}

// p256Deriver 借助 crypto/ecdh 的范围检查（拒绝 0 和 >= n）
type p256Deriver struct{}

func (p256Deriver) Curve() Curve { return P256 }

func (p256Deriver) acceptCandidate(candidate []byte) ([]byte, bool) {
	if _, err := ecdh.P256().NewPrivateKey(candidate); err != nil {
		return nil, false
	}
	priv := make([]byte, ScalarSize)
	copy(priv, candidate)
	return priv, true
}

func (p256Deriver) PublicKey(priv []byte) ([]byte, error) {
	if len(priv) != ScalarSize {
		return nil, errors.Wrapf(cryptoerr.ErrKey, "invalid p256 private key length: %d", len(priv))
	}
	key, err := ecdh.P256().NewPrivateKey(priv)
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrKey, "p256 private key out of range")
	}
	return key.PublicKey().Bytes(), nil
}

func (p256Deriver) ValidatePublicKey(pub []byte) error {
	if _, err := ecdh.P256().NewPublicKey(pub); err != nil {
		return errors.Wrap(cryptoerr.ErrKey, "invalid p256 public key")
	}
	return nil
}
