// Package chain 将 secp256k1 公钥编码为各链地址并校验地址
package chain

import (
	"strings"

	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

// Type 链类型
type Type string

const (
	Bitcoin  Type = "bitcoin"
	Ethereum Type = "ethereum"
)

// ParseType 解析链类型，支持常见别名
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bitcoin", "btc":
		return Bitcoin, nil
	case "ethereum", "eth", "evm":
		return Ethereum, nil
	default:
		return "", errors.Errorf("unsupported chain type %q", s)
	}
}

// Encoder 地址编码器
type Encoder interface {
	Chain() Type
	GenerateAddress(pubKey []byte) (string, error)
	ValidateAddress(address string) error
}

var (
	_ Encoder = (*BitcoinAdapter)(nil)
	_ Encoder = (*EthereumAdapter)(nil)
)

// ToBitcoinAddress 主网 P2PKH 地址
func ToBitcoinAddress(pubKey []byte) (string, error) {
	return NewBitcoinAdapter(nil).GenerateAddress(pubKey)
}

// ToEthereumAddress 带 EIP-55 校验和的地址
func ToEthereumAddress(pubKey []byte) (string, error) {
	return NewEthereumAdapter().GenerateAddress(pubKey)
}

// DetectType 按格式猜测地址所属的链
func DetectType(address string) Type {
	if strings.HasPrefix(address, "0x") {
		return Ethereum
	}
	return Bitcoin
}

// parseSecp256k1PubKey 只接受 33 字节压缩或 65 字节未压缩的 SEC1 公钥
func parseSecp256k1PubKey(pubKey []byte) (*btcec.PublicKey, error) {
	if len(pubKey) == 0 {
		return nil, errors.Wrap(cryptoerr.ErrKey, "public key is required")
	}
	switch {
	case len(pubKey) == 65 && pubKey[0] == 0x04:
	case len(pubKey) == 33 && (pubKey[0] == 0x02 || pubKey[0] == 0x03):
	default:
		return nil, errors.Wrapf(cryptoerr.ErrKey, "unsupported public key format: len=%d", len(pubKey))
	}
	key, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return nil, errors.Wrap(cryptoerr.ErrKey, "failed to parse secp256k1 pubkey")
	}
	return key, nil
}
