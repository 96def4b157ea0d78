// Package kdf 实现口令拉伸内核：口令 + 额外熵 + 盐 → 基础秘密
package kdf

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Version 固定的参数集版本；修改参数必须新增版本
type Version uint8

const (
	// V1 PBKDF2-HMAC-SHA256, 100000 iterations
	V1 Version = 1
	// V2 Argon2id, t=2, m=64MiB, p=1
	V2 Version = 2

	DefaultVersion = V1
)

const (
	// SecretSize 基础秘密长度
	SecretSize = 32

	MinSaltSize = 8
	MaxSaltSize = 64
)

type params struct {
	name          string
	iterations    int
	argonTime     uint32
	argonMemoryKB uint32
	argonThreads  uint8
}

var versions = map[Version]params{
	V1: {name: "pbkdf2-sha256", iterations: 100000},
	V2: {name: "argon2id", argonTime: 2, argonMemoryKB: 64 * 1024, argonThreads: 1},
}

var identitySalts = map[Version][]byte{
	V1: []byte("identity-core/identity-salt/v1"),
	V2: []byte("identity-core/identity-salt/v2"),
}

func (v Version) String() string {
	p, ok := versions[v]
	if !ok {
		return "unknown(" + strconv.Itoa(int(v)) + ")"
	}
	return "v" + strconv.Itoa(int(v)) + "/" + p.name
}

// ParseVersion 解析 "v1"、"1"、"v2/argon2id" 等写法
func ParseVersion(s string) (Version, error) {
	id, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "/")
	n, err := strconv.ParseUint(strings.TrimPrefix(id, "v"), 10, 8)
	if err != nil {
		return 0, errors.Wrapf(cryptoerr.ErrDerivation, "invalid kdf version %q", s)
	}
	v := Version(n)
	if _, ok := versions[v]; !ok {
		return 0, errors.Wrapf(cryptoerr.ErrDerivation, "unknown kdf version %d", n)
	}
	return v, nil
}

// IdentitySalt 返回 derive 使用的固定盐，与版本绑定
func IdentitySalt(v Version) []byte {
	salt := identitySalts[v]
	out := make([]byte, len(salt))
	copy(out, salt)
	return out
}

// Secret 基础秘密，调用方用完后应调用 Zero
type Secret []byte

// Zero 清零秘密
func (s Secret) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// Kernel 口令拉伸内核
type Kernel struct {
	version Version
	params  params
}

// NewKernel 创建指定版本的内核
func NewKernel(version Version) (*Kernel, error) {
	p, ok := versions[version]
	if !ok {
		return nil, errors.Wrapf(cryptoerr.ErrDerivation, "unknown kdf version %d", version)
	}
	return &Kernel{version: version, params: p}, nil
}

// Version 返回内核参数集版本
func (k *Kernel) Version() Version {
	return k.version
}

// DeriveBase 将口令和可选的额外熵拉伸为基础秘密
func (k *Kernel) DeriveBase(password string, extra []byte, salt []byte) (Secret, error) {
	if err := validateInput(password, salt); err != nil {
		return nil, err
	}

	start := time.Now()
	input := stretchInput(password, extra)
	defer Secret(input).Zero()

	var out []byte
	switch {
	case k.params.iterations > 0:
		out = pbkdf2.Key(input, salt, k.params.iterations, SecretSize, sha256.New)
	default:
		out = argon2.IDKey(input, salt, k.params.argonTime, k.params.argonMemoryKB, k.params.argonThreads, SecretSize)
	}

	log.Debug().
		Str("kdf", k.version.String()).
		Bool("extra", len(extra) > 0).
		Dur("took", time.Since(start)).
		Msg("Derived base secret")

	return Secret(out), nil
}

// DeriveBaseContext 与 DeriveBase 相同，但在后台 goroutine 中计算。
// ctx 结束时直接返回 ctx.Err()，被放弃的结果会被清零。
func (k *Kernel) DeriveBaseContext(ctx context.Context, password string, extra []byte, salt []byte) (Secret, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		secret Secret
		err    error
	}
	resultCh := make(chan result)

	go func() {
		secret, err := k.DeriveBase(password, extra, salt)
		select {
		case resultCh <- result{secret: secret, err: err}:
		case <-ctx.Done():
			secret.Zero()
		}
	}()

	select {
	case r := <-resultCh:
		return r.secret, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DeriveKey 由口令派生对称密钥（与基础秘密使用同一参数集）
func (k *Kernel) DeriveKey(password string, salt []byte) ([]byte, error) {
	secret, err := k.DeriveBase(password, nil, salt)
	if err != nil {
		return nil, err
	}
	return []byte(secret), nil
}

func validateInput(password string, salt []byte) error {
	if password == "" {
		return errors.Wrap(cryptoerr.ErrDerivation, "password is required")
	}
	if len(salt) < MinSaltSize || len(salt) > MaxSaltSize {
		return errors.Wrapf(cryptoerr.ErrDerivation, "invalid salt length: %d", len(salt))
	}
	return nil
}

// uint32be(len(password)) || password || extra
func stretchInput(password string, extra []byte) []byte {
	input := make([]byte, 4, 4+len(password)+len(extra))
	binary.BigEndian.PutUint32(input, uint32(len(password)))
	input = append(input, password...)
	input = append(input, extra...)
	return input
}
