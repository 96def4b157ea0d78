package chain

import (
	"strings"

	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

const ethereumAddressHexLen = 40

// EthereumAdapter EVM 地址编码器（EIP-55 校验和）
type EthereumAdapter struct{}

// NewEthereumAdapter 创建以太坊适配器
func NewEthereumAdapter() *EthereumAdapter {
	return &EthereumAdapter{}
}

// Chain implements Encoder.
func (a *EthereumAdapter) Chain() Type {
	return Ethereum
}

// GenerateAddress 通过 Keccak256(X || Y) 的后 20 字节生成带校验和的地址
func (a *EthereumAdapter) GenerateAddress(pubKey []byte) (string, error) {
	key, err := parseSecp256k1PubKey(pubKey)
	if err != nil {
		return "", err
	}
	uncompressed64 := key.SerializeUncompressed()[1:] // 去掉 0x04 前缀

	hash := crypto.Keccak256(uncompressed64)
	return common.BytesToAddress(hash[12:]).Hex(), nil
}

// ValidateAddress 要求 0x 前缀、40 位十六进制且大小写与校验和完全一致
func (a *EthereumAdapter) ValidateAddress(address string) error {
	if !strings.HasPrefix(address, "0x") {
		return errors.Wrap(cryptoerr.ErrAddressChecksum, "missing 0x prefix")
	}
	expected, err := ChecksumAddress(address[2:])
	if err != nil {
		return err
	}
	if expected != address {
		return errors.Wrap(cryptoerr.ErrAddressChecksum, "ethereum checksum mismatch")
	}
	return nil
}

// ChecksumAddress 对 40 位十六进制地址（可带 0x）应用 EIP-55 大小写校验和
func ChecksumAddress(hexAddr string) (string, error) {
	lower := strings.ToLower(strings.TrimPrefix(hexAddr, "0x"))
	if len(lower) != ethereumAddressHexLen {
		return "", errors.Wrapf(cryptoerr.ErrAddressChecksum, "invalid address length: %d", len(lower))
	}
	if !common.IsHexAddress(lower) {
		return "", errors.Wrap(cryptoerr.ErrAddressChecksum, "address is not hex")
	}
	return common.HexToAddress(lower).Hex(), nil
}
