// Package curve 由基础秘密派生各曲线密钥对
//
// 支持的曲线是封闭集合 {Internal, Secp256k1, P256}，每个变体由一个 Deriver 实现。
package curve

import (
	"bytes"
	"strings"

	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/pkg/errors"
)

// Curve 曲线标识
type Curve uint8

const (
	// Internal Ed25519，用于内部签名与加密密钥对
	Internal Curve = iota + 1
	// Secp256k1 区块链地址使用的曲线
	Secp256k1
	// P256 NIST P-256
	P256
)

var curveNames = map[Curve]string{
	Internal:  "internal",
	Secp256k1: "secp256k1",
	P256:      "p256",
}

func (c Curve) String() string {
	if name, ok := curveNames[c]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether c is one of the supported curves.
func (c Curve) Valid() bool {
	_, ok := curveNames[c]
	return ok
}

// ParseCurve 解析曲线名称
func ParseCurve(s string) (Curve, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "ed25519":
		return Internal, nil
	case "p-256", "secp256r1":
		return P256, nil
	}
	for c, n := range curveNames {
		if n == name {
			return c, nil
		}
	}
	return 0, errors.Wrapf(cryptoerr.ErrKey, "unknown curve %q", s)
}

func (c Curve) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.Wrapf(cryptoerr.ErrKey, "unknown curve %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Curve) UnmarshalText(text []byte) error {
	parsed, err := ParseCurve(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// KeyPair 曲线密钥对
type KeyPair struct {
	Curve      Curve  `json:"curve"`
	PrivateKey []byte `json:"privateKey"`
	PublicKey  []byte `json:"publicKey"`
}

// Validate 重新计算公钥并与记录的公钥比较
func (p *KeyPair) Validate() error {
	if p == nil {
		return errors.Wrap(cryptoerr.ErrKey, "key pair is nil")
	}
	pub, err := PublicKey(p.Curve, p.PrivateKey)
	if err != nil {
		return err
	}
	if !bytes.Equal(pub, p.PublicKey) {
		return errors.Wrapf(cryptoerr.ErrKey, "%s public key does not match private key", p.Curve)
	}
	return nil
}

// Zero 清零私钥
func (p *KeyPair) Zero() {
	if p == nil {
		return
	}
	for i := range p.PrivateKey {
		p.PrivateKey[i] = 0
	}
}

// PublicKey 由私钥计算指定曲线的公钥
func PublicKey(c Curve, priv []byte) ([]byte, error) {
	d, err := deriverFor(c)
	if err != nil {
		return nil, err
	}
	return d.PublicKey(priv)
}

// ValidatePublicKey 检查公钥是否为该曲线上的有效点
func ValidatePublicKey(c Curve, pub []byte) error {
	d, err := deriverFor(c)
	if err != nil {
		return err
	}
	return d.ValidatePublicKey(pub)
}
