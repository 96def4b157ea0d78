// Package engine 是身份引擎对外的唯一入口；明文缓存和基础秘密不对调用方暴露
package engine

import (
	"context"

	"github.com/SafeMPC/identity-core/internal/chain"
	"github.com/SafeMPC/identity-core/internal/cipher"
	"github.com/SafeMPC/identity-core/internal/config"
	"github.com/SafeMPC/identity-core/internal/curve"
	"github.com/SafeMPC/identity-core/internal/identity"
	"github.com/SafeMPC/identity-core/internal/signing"
	"github.com/SafeMPC/identity-core/internal/stealth"
	"github.com/pkg/errors"
)

type Engine struct {
	Config config.Engine

	identity   *identity.Service
	symmetric  *cipher.Symmetric
	asymmetric *cipher.Asymmetric
	signer     *signing.Service
	stealth    *stealth.Service
	bitcoin    *chain.BitcoinAdapter
	ethereum   *chain.EthereumAdapter
}

func newEngineWithComponents(
	cfg config.Engine,
	identityService *identity.Service,
	symmetric *cipher.Symmetric,
	asymmetric *cipher.Asymmetric,
	signer *signing.Service,
	stealthService *stealth.Service,
	bitcoin *chain.BitcoinAdapter,
) *Engine {
	return &Engine{
		Config:     cfg,
		identity:   identityService,
		symmetric:  symmetric,
		asymmetric: asymmetric,
		signer:     signer,
		stealth:    stealthService,
		bitcoin:    bitcoin,
		ethereum:   chain.NewEthereumAdapter(),
	}
}

// Derive 由口令派生身份密钥包
func (e *Engine) Derive(ctx context.Context, password string, extra []byte, opts identity.Options) (*identity.Bundle, error) {
	return e.identity.Derive(ctx, password, extra, opts)
}

// GenerateSymmetricKey 生成随机 32 字节对称密钥
func (e *Engine) GenerateSymmetricKey() ([]byte, error) {
	return e.symmetric.GenerateKey()
}

func (e *Engine) EncryptWithSymmetricKey(plaintext, key []byte) (*cipher.Envelope, error) {
	return e.signer.Encrypt(plaintext, key)
}

func (e *Engine) DecryptWithSymmetricKey(env *cipher.Envelope, key []byte) ([]byte, error) {
	return e.signer.Decrypt(env, key)
}

func (e *Engine) EncryptWithPassword(plaintext []byte, password string) (*cipher.Envelope, error) {
	return e.symmetric.EncryptWithPassword(plaintext, password)
}

func (e *Engine) DecryptWithPassword(env *cipher.Envelope, password string) ([]byte, error) {
	return e.symmetric.DecryptWithPassword(env, password)
}

// Encrypt 用接收方的内部加密公钥加密
func (e *Engine) Encrypt(message, recipientPublicKey []byte) (*cipher.SealedEnvelope, error) {
	return e.asymmetric.Encrypt(message, recipientPublicKey)
}

// Decrypt 用内部加密私钥解密
func (e *Engine) Decrypt(sealed *cipher.SealedEnvelope, privateKey []byte) ([]byte, error) {
	return e.asymmetric.Decrypt(sealed, privateKey)
}

func (e *Engine) Sign(data []byte, pair *curve.KeyPair) (*signing.SignedMessage, error) {
	return e.signer.Sign(data, pair)
}

func (e *Engine) Verify(signed *signing.SignedMessage, publicKey []byte) (bool, error) {
	return e.signer.Verify(signed, publicKey)
}

func (e *Engine) Open(signed *signing.SignedMessage, publicKey []byte) ([]byte, error) {
	return e.signer.Open(signed, publicKey)
}

func (e *Engine) GenerateStealthAddress(recipientPublicKey []byte) (*stealth.Payload, error) {
	return e.stealth.GenerateStealthAddress(recipientPublicKey)
}

func (e *Engine) OpenStealthAddress(ephemeralPublicKey, recipientPrivateKey []byte) (*stealth.OneTimeKey, error) {
	return e.stealth.OpenStealthAddress(ephemeralPublicKey, recipientPrivateKey)
}

// CheckStealthAddress 判断隐身地址是否属于该私钥
func (e *Engine) CheckStealthAddress(payload *stealth.Payload, recipientPrivateKey []byte) (bool, error) {
	return e.stealth.CheckStealthAddress(payload, recipientPrivateKey)
}

// ValidateAddress 按格式识别地址所属的链并校验；比特币地址按配置的网络校验
func (e *Engine) ValidateAddress(address string) (chain.Type, error) {
	var encoder chain.Encoder = e.bitcoin
	if chain.DetectType(address) == chain.Ethereum {
		encoder = e.ethereum
	}
	if err := encoder.ValidateAddress(address); err != nil {
		return "", errors.Wrapf(err, "invalid %s address", encoder.Chain())
	}
	return encoder.Chain(), nil
}
