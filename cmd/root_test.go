package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestDeriveCommand(t *testing.T) {
	out, err := execute(t, "", "derive", "--password", "correct horse battery staple", "--ethereum")
	require.NoError(t, err)

	var bundle map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &bundle))
	assert.Contains(t, bundle, "sign")
	assert.Contains(t, bundle, "secp256k1Ethereum")
	assert.NotContains(t, bundle, "secp256k1Bitcoin")

	// 默认不输出私钥
	assert.NotContains(t, out, "privateKey")

	again, err := execute(t, "", "derive", "--password", "correct horse battery staple", "--ethereum")
	require.NoError(t, err)
	assert.Equal(t, out, again)

	withPrivate, err := execute(t, "", "derive", "--password", "correct horse battery staple", "--show-private")
	require.NoError(t, err)
	assert.Contains(t, withPrivate, "privateKey")
}

func TestDeriveCommand_MissingPassword(t *testing.T) {
	_, err := execute(t, "", "derive")
	assert.Error(t, err)
}

func TestCipherCommands(t *testing.T) {
	envelope, err := execute(t, "", "cipher", "encrypt", "--password", "pw", "hello")
	require.NoError(t, err)

	plaintext, err := execute(t, envelope, "cipher", "decrypt", "--password", "pw")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", plaintext)

	_, err = execute(t, envelope, "cipher", "decrypt", "--password", "wrong")
	assert.True(t, errors.Is(err, cryptoerr.ErrIntegrity))
	assert.Equal(t, "unable to decrypt data", userMessage(err))
}

func TestStealthCommands(t *testing.T) {
	// 私钥 1 对应的公钥为生成元 G
	recipient := "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	key := strings.Repeat("0", 63) + "1"

	out, err := execute(t, "", "stealth", "generate", "--recipient", recipient)
	require.NoError(t, err)

	var payload struct {
		EphemeralPublicKey string `json:"ephemeralPublicKey"`
		OneTimeAddress     string `json:"oneTimeAddress"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))

	out, err = execute(t, "", "stealth", "open", "--ephemeral", payload.EphemeralPublicKey, "--key", key)
	require.NoError(t, err)

	var oneTime struct {
		Address string `json:"address"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &oneTime))
	assert.Equal(t, payload.OneTimeAddress, oneTime.Address)

	_, err = execute(t, "", "stealth", "generate", "--recipient", "zz")
	assert.Error(t, err)
}

func TestAddressValidateCommand(t *testing.T) {
	out, err := execute(t, "", "address", "validate", "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":"0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf","chain":"ethereum","valid":true}`, out)

	_, err = execute(t, "", "address", "validate", "0x7e5F4552091A69125d5DfCb7b8C2659029395Bdf")
	assert.True(t, errors.Is(err, cryptoerr.ErrAddressChecksum))
	assert.Equal(t, "invalid address", userMessage(err))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "unknown flag", userMessage(errors.New("unknown flag")))
	assert.Equal(t, "invalid key", userMessage(errors.Wrap(cryptoerr.ErrKey, "secret detail")))
}
