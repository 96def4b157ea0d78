// Package cipher 提供对称 AEAD 加密与基于 X25519 的公钥信封加密
package cipher

import (
	"crypto/aes"
	gocipher "crypto/cipher"
	"crypto/rand"
	"io"
	"strings"

	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/SafeMPC/identity-core/internal/kdf"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize 对称密钥长度
	KeySize = 32
	// SaltSize 口令密钥的随机盐长度
	SaltSize = 16
	// TagSize 两种 AEAD 的认证标签长度
	TagSize = 16
)

// Algorithm AEAD 算法标识
type Algorithm string

const (
	AES256GCM         Algorithm = "aes-256-gcm"
	XChaCha20Poly1305 Algorithm = "xchacha20-poly1305"

	DefaultAlgorithm = AES256GCM
)

type algorithmSpec struct {
	ivSize  int
	newAEAD func(key []byte) (gocipher.AEAD, error)
}

var algorithms = map[Algorithm]algorithmSpec{
	AES256GCM: {
		ivSize: 12,
		newAEAD: func(key []byte) (gocipher.AEAD, error) {
			block, err := aes.NewCipher(key)
			if err != nil {
				return nil, err
			}
			return gocipher.NewGCM(block)
		},
	},
	XChaCha20Poly1305: {
		ivSize:  chacha20poly1305.NonceSizeX,
		newAEAD: chacha20poly1305.NewX,
	},
}

// ParseAlgorithm 解析算法名称
func ParseAlgorithm(s string) (Algorithm, error) {
	alg := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if alg == "" {
		return DefaultAlgorithm, nil
	}
	if _, ok := algorithms[alg]; !ok {
		return "", errors.Wrapf(cryptoerr.ErrEnvelopeVersion, "unsupported algorithm %q", s)
	}
	return alg, nil
}

// PasswordKey 口令派生的对称密钥
type PasswordKey struct {
	Key  []byte
	Salt []byte
}

// Symmetric 对称加密服务
type Symmetric struct {
	rand      io.Reader
	algorithm Algorithm
	kernel    *kdf.Kernel
}

// NewSymmetric 创建对称加密服务；random 为空时使用 crypto/rand
func NewSymmetric(random io.Reader, algorithm Algorithm, kernel *kdf.Kernel) (*Symmetric, error) {
	if random == nil {
		random = rand.Reader
	}
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	if _, ok := algorithms[algorithm]; !ok {
		return nil, errors.Wrapf(cryptoerr.ErrEnvelopeVersion, "unsupported algorithm %q", algorithm)
	}
	if kernel == nil {
		return nil, errors.New("kdf kernel is required")
	}
	return &Symmetric{rand: random, algorithm: algorithm, kernel: kernel}, nil
}

// Algorithm 返回加密时使用的算法
func (s *Symmetric) Algorithm() Algorithm {
	return s.algorithm
}

// Random 返回注入的随机源
func (s *Symmetric) Random() io.Reader {
	return s.rand
}

// GenerateKey 生成随机对称密钥
func (s *Symmetric) GenerateKey() ([]byte, error) {
	return s.randomBytes(KeySize)
}

// DeriveKeyFromPassword 由口令派生密钥；salt 为空时生成随机盐
func (s *Symmetric) DeriveKeyFromPassword(password string, salt []byte) (*PasswordKey, error) {
	if len(salt) == 0 {
		var err error
		if salt, err = s.randomBytes(SaltSize); err != nil {
			return nil, err
		}
	}
	key, err := s.kernel.DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	return &PasswordKey{Key: key, Salt: salt}, nil
}

// Encrypt 使用新的随机 IV 加密；IV 不接受调用方传入
func (s *Symmetric) Encrypt(plaintext, key []byte) (*Envelope, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	spec := algorithms[s.algorithm]
	aead, err := spec.newAEAD(key)
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrKey, err.Error())
	}

	iv, err := s.randomBytes(spec.ivSize)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Version:   EnvelopeVersion,
		Algorithm: s.algorithm,
		IV:        iv,
	}
	sealed := aead.Seal(nil, iv, plaintext, env.associatedData())
	env.Ciphertext = sealed[:len(sealed)-TagSize]
	env.Tag = sealed[len(sealed)-TagSize:]

	return env, nil
}

// Decrypt 解密信封；任何认证失败都返回 ErrIntegrity，且不返回部分明文
func (s *Symmetric) Decrypt(env *Envelope, key []byte) ([]byte, error) {
	if env == nil {
		return nil, errors.Wrap(cryptoerr.ErrIntegrity, "envelope is nil")
	}
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}

	spec := algorithms[env.Algorithm]
	aead, err := spec.newAEAD(key)
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrKey, err.Error())
	}

	plaintext, err := aead.Open(nil, env.IV, env.sealed(), env.associatedData())
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrIntegrity, "authentication failed")
	}
	return plaintext, nil
}

// EncryptWithPassword 用口令派生的密钥加密，盐随信封保存
func (s *Symmetric) EncryptWithPassword(plaintext []byte, password string) (*Envelope, error) {
	pk, err := s.DeriveKeyFromPassword(password, nil)
	if err != nil {
		return nil, err
	}
	defer zero(pk.Key)

	env, err := s.Encrypt(plaintext, pk.Key)
	if err != nil {
		return nil, err
	}
	env.Salt = pk.Salt
	return env, nil
}

// DecryptWithPassword 用信封中的盐重新派生密钥并解密
func (s *Symmetric) DecryptWithPassword(env *Envelope, password string) ([]byte, error) {
	if env == nil || len(env.Salt) == 0 {
		return nil, errors.Wrap(cryptoerr.ErrIntegrity, "envelope has no salt")
	}
	pk, err := s.DeriveKeyFromPassword(password, env.Salt)
	if err != nil {
		return nil, err
	}
	defer zero(pk.Key)

	return s.Decrypt(env, pk.Key)
}

func (s *Symmetric) randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(s.rand, b); err != nil {
		return nil, errors.Wrap(err, "failed to read random bytes")
	}
	return b, nil
}

func checkKey(key []byte) error {
	if len(key) != KeySize {
		return errors.Wrapf(cryptoerr.ErrKey, "invalid key length: %d, want %d", len(key), KeySize)
	}
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
