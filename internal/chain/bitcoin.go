package chain

import (
	"bytes"
	"crypto/sha256"
	"strings"

	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160"
)

const (
	hash160Size     = ripemd160.Size
	checksumSize    = 4
	p2pkhAddressLen = 1 + hash160Size + checksumSize
)

// BitcoinAdapter 基于 btcsuite 的 P2PKH 地址编码器
type BitcoinAdapter struct {
	params *chaincfg.Params
}

// NewBitcoinAdapter 创建一个 Bitcoin 适配器，params 为空时使用主网
func NewBitcoinAdapter(params *chaincfg.Params) *BitcoinAdapter {
	if params == nil {
		params = &chaincfg.MainNetParams
	}
	return &BitcoinAdapter{params: params}
}

// NetworkParams 按名称返回网络参数
func NetworkParams(network string) (*chaincfg.Params, error) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "", "mainnet", "main":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	case "simnet":
		return &chaincfg.SimNetParams, nil
	default:
		return nil, errors.Errorf("unknown bitcoin network %q", network)
	}
}

// Chain implements Encoder.
func (a *BitcoinAdapter) Chain() Type {
	return Bitcoin
}

// GenerateAddress 根据公钥生成标准的 Bitcoin P2PKH 地址（Base58Check 编码）
func (a *BitcoinAdapter) GenerateAddress(pubKey []byte) (string, error) {
	if _, err := parseSecp256k1PubKey(pubKey); err != nil {
		return "", err
	}

	// 1. 计算公钥哈希：SHA256 -> RIPEMD160
	hash160, err := hash160(pubKey)
	if err != nil {
		return "", err
	}

	// 2. 添加版本字节
	versionedPayload := append([]byte{a.params.PubKeyHashAddrID}, hash160...)

	// 3. 拼接校验和：SHA256(SHA256(version + hash160)) 的前4字节
	fullPayload := append(versionedPayload, checksum(versionedPayload)...)

	// 4. Base58 编码生成最终地址
	return base58.Encode(fullPayload), nil
}

// DecodeAddress 解码地址并返回 hash160；校验和与版本字节都必须匹配
func (a *BitcoinAdapter) DecodeAddress(address string) ([]byte, error) {
	decoded := base58.Decode(address)
	if len(decoded) != p2pkhAddressLen {
		return nil, errors.Wrapf(cryptoerr.ErrAddressChecksum, "invalid address length: %d", len(decoded))
	}

	payload := decoded[:len(decoded)-checksumSize]
	if !bytes.Equal(checksum(payload), decoded[len(decoded)-checksumSize:]) {
		return nil, errors.Wrap(cryptoerr.ErrAddressChecksum, "bitcoin checksum mismatch")
	}
	if payload[0] != a.params.PubKeyHashAddrID {
		return nil, errors.Wrapf(cryptoerr.ErrAddressChecksum, "unexpected version byte 0x%02x for %s", payload[0], a.params.Name)
	}

	return payload[1:], nil
}

// ValidateAddress 校验 Base58Check 地址
func (a *BitcoinAdapter) ValidateAddress(address string) error {
	_, err := a.DecodeAddress(address)
	return err
}

func hash160(data []byte) ([]byte, error) {
	sha := sha256.Sum256(data)
	ripemd := ripemd160.New()
	if _, err := ripemd.Write(sha[:]); err != nil {
		return nil, errors.Wrap(err, "failed to hash public key")
	}
	return ripemd.Sum(nil), nil
}

func checksum(payload []byte) []byte {
	return chainhash.DoubleHashB(payload)[:checksumSize]
}
