package cipher

import (
	"encoding/base64"
	"strings"

	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/SafeMPC/identity-core/internal/curve"
	"github.com/pkg/errors"
)

const (
	kindPublic  = "pub"
	kindPrivate = "priv"
)

// SerializePublicKey 编码为 "<curve>.pub.<base64url>"
func SerializePublicKey(c curve.Curve, pub []byte) (string, error) {
	if err := curve.ValidatePublicKey(c, pub); err != nil {
		return "", err
	}
	return encodeKey(c, kindPublic, pub), nil
}

// DeserializePublicKey 解码并校验公钥
func DeserializePublicKey(s string) (curve.Curve, []byte, error) {
	c, raw, err := decodeKey(s, kindPublic)
	if err != nil {
		return 0, nil, err
	}
	if err := curve.ValidatePublicKey(c, raw); err != nil {
		return 0, nil, err
	}
	return c, raw, nil
}

// SerializePrivateKey 编码为 "<curve>.priv.<base64url>"，要求公私钥匹配
func SerializePrivateKey(pair *curve.KeyPair) (string, error) {
	if err := pair.Validate(); err != nil {
		return "", err
	}
	return encodeKey(pair.Curve, kindPrivate, pair.PrivateKey), nil
}

// DeserializePrivateKey 解码私钥并重新计算公钥
func DeserializePrivateKey(s string) (*curve.KeyPair, error) {
	c, raw, err := decodeKey(s, kindPrivate)
	if err != nil {
		return nil, err
	}
	pub, err := curve.PublicKey(c, raw)
	if err != nil {
		return nil, err
	}
	return &curve.KeyPair{Curve: c, PrivateKey: raw, PublicKey: pub}, nil
}

func encodeKey(c curve.Curve, kind string, raw []byte) string {
	return c.String() + "." + kind + "." + base64.RawURLEncoding.EncodeToString(raw)
}

func decodeKey(s, wantKind string) (curve.Curve, []byte, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, nil, errors.Wrap(cryptoerr.ErrKey, "malformed serialized key")
	}
	if parts[1] != wantKind {
		return 0, nil, errors.Wrapf(cryptoerr.ErrKey, "expected %s key, got %q", wantKind, parts[1])
	}
	c, err := curve.ParseCurve(parts[0])
	if err != nil {
		return 0, nil, err
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return 0, nil, errors.Wrap(cryptoerr.ErrKey, "invalid key encoding")
	}
	return c, raw, nil
}
