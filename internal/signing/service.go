// Package signing 提供内部签名密钥对的签名/验签，以及带明文缓存的加解密包装
package signing

import (
	"crypto/ed25519"

	"github.com/SafeMPC/identity-core/internal/cipher"
	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/SafeMPC/identity-core/internal/curve"
	"github.com/SafeMPC/identity-core/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SignedMessage 消息与其 Ed25519 签名
type SignedMessage struct {
	Message   []byte `json:"m"`
	Signature []byte `json:"s"`
}

// Service 签名服务
type Service struct {
	sym     *cipher.Symmetric
	cache   *PlaintextCache // nil 表示禁用缓存
	metrics *metrics.Metrics
}

// NewService 创建签名服务；cache 为 nil 时不缓存明文
func NewService(sym *cipher.Symmetric, cache *PlaintextCache, m *metrics.Metrics) *Service {
	return &Service{
		sym:     sym,
		cache:   cache,
		metrics: m,
	}
}

// Sign 使用内部签名密钥对签名
func (s *Service) Sign(data []byte, pair *curve.KeyPair) (*SignedMessage, error) {
	if pair == nil || pair.Curve != curve.Internal {
		return nil, errors.Wrap(cryptoerr.ErrKey, "signing requires an internal key pair")
	}
	if err := pair.Validate(); err != nil {
		return nil, err
	}

	priv := ed25519.NewKeyFromSeed(pair.PrivateKey)
	defer zero(priv)

	message := make([]byte, len(data))
	copy(message, data)

	return &SignedMessage{
		Message:   message,
		Signature: ed25519.Sign(priv, data),
	}, nil
}

// Verify 验证签名
func (s *Service) Verify(signed *SignedMessage, publicKey []byte) (bool, error) {
	if err := curve.ValidatePublicKey(curve.Internal, publicKey); err != nil {
		return false, err
	}
	if signed == nil || len(signed.Signature) != ed25519.SignatureSize {
		return false, nil
	}
	return ed25519.Verify(publicKey, signed.Message, signed.Signature), nil
}

// Open 验证签名并返回被签名的数据
func (s *Service) Open(signed *SignedMessage, publicKey []byte) ([]byte, error) {
	valid, err := s.Verify(signed, publicKey)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, errors.Wrap(cryptoerr.ErrSignature, "signature does not match message")
	}
	out := make([]byte, len(signed.Message))
	copy(out, signed.Message)
	return out, nil
}

// Encrypt 对称加密，并记录密文对应的明文
func (s *Service) Encrypt(plaintext, key []byte) (*cipher.Envelope, error) {
	env, err := s.sym.Encrypt(plaintext, key)
	if err != nil {
		return nil, err
	}
	s.cache.Put(env, key, plaintext)
	return env, nil
}

// Decrypt 对称解密；缓存命中时跳过解密，但信封结构总是先校验
func (s *Service) Decrypt(env *cipher.Envelope, key []byte) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if plaintext, ok := s.cache.Get(env, key); ok {
			s.metrics.CacheHit()
			log.Debug().Int("cache_len", s.cache.Len()).Msg("Plaintext cache hit")
			return plaintext, nil
		}
		s.metrics.CacheMiss()
	}

	plaintext, err := s.sym.Decrypt(env, key)
	if err != nil {
		return nil, err
	}
	s.cache.Put(env, key, plaintext)
	return plaintext, nil
}

// CacheLen 返回缓存条目数（禁用时为 0）
func (s *Service) CacheLen() int {
	return s.cache.Len()
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
