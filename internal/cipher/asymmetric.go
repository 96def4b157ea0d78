package cipher

import (
	"crypto/sha256"
	"crypto/sha512"
	"io"

	"filippo.io/edwards25519"
	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/SafeMPC/identity-core/internal/curve"
	"github.com/pkg/errors"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const asymmetricInfo = "identity-core/asymmetric/v1"

// SealedEnvelope 公钥加密结果：临时 X25519 公钥 + 对称信封
type SealedEnvelope struct {
	Version            int       `json:"v"`
	EphemeralPublicKey []byte    `json:"epk"`
	Envelope           *Envelope `json:"env"`
}

// Asymmetric 公钥信封加密服务
//
// 内部密钥对是 Ed25519；加密时通过标准双有理映射转换为 X25519。
type Asymmetric struct {
	sym     *Symmetric
	factory *curve.Factory
}

// NewAsymmetric 创建公钥加密服务，随机源与对称服务共用
func NewAsymmetric(sym *Symmetric, factory *curve.Factory) *Asymmetric {
	if factory == nil {
		factory = curve.NewFactory(0)
	}
	return &Asymmetric{sym: sym, factory: factory}
}

// GenerateKeyPair 生成随机内部密钥对
func (a *Asymmetric) GenerateKeyPair() (*curve.KeyPair, error) {
	return a.factory.Generate(curve.Internal, a.sym.Random())
}

// Encrypt 为接收方公钥加密消息
func (a *Asymmetric) Encrypt(message, recipientPublicKey []byte) (*SealedEnvelope, error) {
	recipientX, err := montgomeryPublicKey(recipientPublicKey)
	if err != nil {
		return nil, err
	}

	ephemeral := make([]byte, curve25519.ScalarSize)
	defer zero(ephemeral)
	if _, err := io.ReadFull(a.sym.Random(), ephemeral); err != nil {
		return nil, errors.Wrap(err, "failed to read ephemeral key")
	}
	ephemeralPub, err := curve25519.X25519(ephemeral, curve25519.Basepoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute ephemeral public key")
	}

	key, err := sharedKey(ephemeral, recipientX, ephemeralPub, recipientX)
	if err != nil {
		return nil, err
	}
	defer zero(key)

	env, err := a.sym.Encrypt(message, key)
	if err != nil {
		return nil, err
	}

	return &SealedEnvelope{
		Version:            EnvelopeVersion,
		EphemeralPublicKey: ephemeralPub,
		Envelope:           env,
	}, nil
}

// Decrypt 用接收方私钥（内部密钥对的 32 字节种子）解密
func (a *Asymmetric) Decrypt(sealed *SealedEnvelope, privateKey []byte) ([]byte, error) {
	if sealed == nil || sealed.Envelope == nil {
		return nil, errors.Wrap(cryptoerr.ErrIntegrity, "sealed envelope is empty")
	}
	if sealed.Version != EnvelopeVersion {
		return nil, errors.Wrapf(cryptoerr.ErrEnvelopeVersion, "sealed envelope version %d", sealed.Version)
	}
	if len(sealed.EphemeralPublicKey) != curve25519.PointSize {
		return nil, errors.Wrapf(cryptoerr.ErrKey, "invalid ephemeral key length: %d", len(sealed.EphemeralPublicKey))
	}

	scalar, err := montgomeryPrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	defer zero(scalar)

	recipientX, err := curve25519.X25519(scalar, curve25519.Basepoint)
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrKey, "invalid private key")
	}

	key, err := sharedKey(scalar, sealed.EphemeralPublicKey, sealed.EphemeralPublicKey, recipientX)
	if err != nil {
		return nil, err
	}
	defer zero(key)

	return a.sym.Decrypt(sealed.Envelope, key)
}

// sharedKey = HKDF-SHA256(X25519(scalar, peer), info || epk || rpk)
func sharedKey(scalar, peer, ephemeralPub, recipientPub []byte) ([]byte, error) {
	shared, err := curve25519.X25519(scalar, peer)
	if err != nil {
		// 低阶点会得到全零共享秘密
		return nil, errors.Wrap(cryptoerr.ErrKey, "invalid peer public key")
	}
	defer zero(shared)

	info := make([]byte, 0, len(asymmetricInfo)+len(ephemeralPub)+len(recipientPub))
	info = append(info, asymmetricInfo...)
	info = append(info, ephemeralPub...)
	info = append(info, recipientPub...)

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, nil, info), key); err != nil {
		return nil, errors.Wrap(err, "failed to derive shared key")
	}
	return key, nil
}

// montgomeryPublicKey Ed25519 公钥 → X25519 公钥（u = (1+y)/(1-y)）
func montgomeryPublicKey(edPub []byte) ([]byte, error) {
	if err := curve.ValidatePublicKey(curve.Internal, edPub); err != nil {
		return nil, err
	}
	p, err := new(edwards25519.Point).SetBytes(edPub)
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrKey, "invalid ed25519 public key")
	}
	return p.BytesMontgomery(), nil
}

// montgomeryPrivateKey Ed25519 种子 → X25519 标量（SHA-512 前 32 字节并钳位）
func montgomeryPrivateKey(seed []byte) ([]byte, error) {
	if len(seed) != curve.ScalarSize {
		return nil, errors.Wrapf(cryptoerr.ErrKey, "invalid private key length: %d", len(seed))
	}
	h := sha512.Sum512(seed)
	defer zero(h[:])

	scalar := make([]byte, curve25519.ScalarSize)
	copy(scalar, h[:32])
	scalar[0] &= 248
	scalar[31] &= 127
	scalar[31] |= 64
	return scalar, nil
}
