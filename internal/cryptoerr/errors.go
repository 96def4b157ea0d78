// Package cryptoerr 定义身份引擎的密码学错误分类
//
// 所有组件都用 github.com/pkg/errors 包装这里的哨兵错误，调用方使用 errors.Is 判断类别。
package cryptoerr

import (
	"github.com/pkg/errors"
)

var (
	// ErrDerivation 密码、盐或选项无效
	ErrDerivation = errors.New("key derivation failed")

	// ErrCurve 重采样次数耗尽后仍未得到有效标量
	ErrCurve = errors.New("curve scalar out of range")

	// ErrIntegrity 认证解密标签不匹配
	ErrIntegrity = errors.New("integrity check failed")

	// ErrKey 密钥材料格式错误或长度不匹配
	ErrKey = errors.New("malformed key material")

	// ErrAddressChecksum 地址解码时校验和不匹配
	ErrAddressChecksum = errors.New("address checksum mismatch")

	// ErrStealthRecovery 隐身地址打开失败
	ErrStealthRecovery = errors.New("stealth address recovery failed")

	// ErrEnvelopeVersion 信封版本或算法不受支持
	ErrEnvelopeVersion = errors.New("unsupported envelope version")

	// ErrSignature 签名验证失败
	ErrSignature = errors.New("signature verification failed")
)

var kinds = []error{
	ErrDerivation,
	ErrCurve,
	ErrIntegrity,
	ErrKey,
	ErrAddressChecksum,
	ErrStealthRecovery,
	ErrEnvelopeVersion,
	ErrSignature,
}

var publicMessages = map[error]string{
	ErrDerivation:      "invalid credentials or derivation options",
	ErrCurve:           "key derivation failed, please retry with different input",
	ErrIntegrity:       "unable to decrypt data",
	ErrKey:             "invalid key",
	ErrAddressChecksum: "invalid address",
	ErrStealthRecovery: "unable to open stealth payment",
	ErrEnvelopeVersion: "unsupported data format",
	ErrSignature:       "invalid signature",
}

// Kind returns the taxonomy sentinel err belongs to, or nil if it is not a
// cryptographic failure.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// PublicMessage maps err to a fixed message that is safe to show to end users.
// Wrapped details (lengths, curve names, library errors) never leak through it.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := publicMessages[Kind(err)]; ok {
		return msg
	}
	return "operation failed"
}
