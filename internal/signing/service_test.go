package signing

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/SafeMPC/identity-core/internal/cipher"
	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/SafeMPC/identity-core/internal/curve"
	"github.com/SafeMPC/identity-core/internal/kdf"
	"github.com/SafeMPC/identity-core/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSymmetric(t *testing.T) *cipher.Symmetric {
	t.Helper()
	kernel, err := kdf.NewKernel(kdf.V1)
	require.NoError(t, err)
	sym, err := cipher.NewSymmetric(nil, cipher.AES256GCM, kernel)
	require.NoError(t, err)
	return sym
}

func internalPair(t *testing.T, tag string) *curve.KeyPair {
	t.Helper()
	pair, err := curve.NewFactory(0).Derive(bytes.Repeat([]byte{9}, 32), curve.Internal, tag)
	require.NoError(t, err)
	return pair
}

func TestService_SignVerify(t *testing.T) {
	service := NewService(newTestSymmetric(t), nil, nil)
	pair := internalPair(t, "sign")

	signed, err := service.Sign([]byte("graph update"), pair)
	require.NoError(t, err)
	assert.Len(t, signed.Signature, 64)

	valid, err := service.Verify(signed, pair.PublicKey)
	require.NoError(t, err)
	assert.True(t, valid)

	data, err := service.Open(signed, pair.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("graph update"), data)

	// Ed25519 签名是确定性的
	again, err := service.Sign([]byte("graph update"), pair)
	require.NoError(t, err)
	assert.Equal(t, signed.Signature, again.Signature)
}

func TestService_VerifyRejects(t *testing.T) {
	service := NewService(newTestSymmetric(t), nil, nil)
	pair := internalPair(t, "sign")
	other := internalPair(t, "other")

	signed, err := service.Sign([]byte("payload"), pair)
	require.NoError(t, err)

	valid, err := service.Verify(signed, other.PublicKey)
	require.NoError(t, err)
	assert.False(t, valid)

	tampered := &SignedMessage{Message: []byte("payloaD"), Signature: signed.Signature}
	valid, err = service.Verify(tampered, pair.PublicKey)
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = service.Open(tampered, pair.PublicKey)
	assert.True(t, errors.Is(err, cryptoerr.ErrSignature))

	short := &SignedMessage{Message: signed.Message, Signature: signed.Signature[:10]}
	valid, err = service.Verify(short, pair.PublicKey)
	require.NoError(t, err)
	assert.False(t, valid)

	_, err = service.Verify(signed, []byte{1, 2})
	assert.True(t, errors.Is(err, cryptoerr.ErrKey))
}

func TestService_SignRequiresInternalPair(t *testing.T) {
	service := NewService(newTestSymmetric(t), nil, nil)

	secp, err := curve.NewFactory(0).Derive(bytes.Repeat([]byte{9}, 32), curve.Secp256k1, "sign")
	require.NoError(t, err)

	_, err = service.Sign([]byte("x"), secp)
	assert.True(t, errors.Is(err, cryptoerr.ErrKey))

	_, err = service.Sign([]byte("x"), nil)
	assert.True(t, errors.Is(err, cryptoerr.ErrKey))

	broken := internalPair(t, "sign")
	broken.PublicKey = internalPair(t, "other").PublicKey
	_, err = service.Sign([]byte("x"), broken)
	assert.True(t, errors.Is(err, cryptoerr.ErrKey))
}

func TestService_EncryptDecrypt_Cache(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	service := NewService(newTestSymmetric(t), NewPlaintextCache(8, time.Minute), m)

	key := bytes.Repeat([]byte{1}, cipher.KeySize)
	env, err := service.Encrypt([]byte("cached"), key)
	require.NoError(t, err)
	assert.Equal(t, 1, service.CacheLen())

	out, err := service.Decrypt(env, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), out)

	// 返回的是副本
	out[0] = 'X'
	again, err := service.Decrypt(env, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), again)

	hits, err := testutilCount(reg, "hit")
	require.NoError(t, err)
	assert.Equal(t, 2.0, hits)
}

func TestService_Decrypt_CacheDoesNotBypassKey(t *testing.T) {
	service := NewService(newTestSymmetric(t), NewPlaintextCache(8, time.Minute), nil)

	key := bytes.Repeat([]byte{1}, cipher.KeySize)
	wrong := bytes.Repeat([]byte{2}, cipher.KeySize)

	env, err := service.Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	out, err := service.Decrypt(env, wrong)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, cryptoerr.ErrIntegrity))
}

func TestService_Decrypt_CacheRejectsMalformedEnvelope(t *testing.T) {
	sym := newTestSymmetric(t)
	service := NewService(sym, NewPlaintextCache(8, time.Minute), nil)

	key := bytes.Repeat([]byte{1}, cipher.KeySize)
	env, err := service.Encrypt([]byte("top secret"), key)
	require.NoError(t, err)

	// 密文最后一个字节挪进标签：拼接后的字节不变，但结构非法
	resplit := *env
	resplit.Ciphertext = append([]byte{}, env.Ciphertext[:len(env.Ciphertext)-1]...)
	resplit.Tag = append([]byte{env.Ciphertext[len(env.Ciphertext)-1]}, env.Tag...)

	_, symErr := sym.Decrypt(&resplit, key)
	assert.True(t, errors.Is(symErr, cryptoerr.ErrIntegrity))

	out, err := service.Decrypt(&resplit, key)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, cryptoerr.ErrIntegrity))

	// 257 的低字节与 1 相同
	bumped := *env
	bumped.Version = 257

	out, err = service.Decrypt(&bumped, key)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, cryptoerr.ErrEnvelopeVersion))

	// 原信封仍然命中
	out, err = service.Decrypt(env, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("top secret"), out)
}

func TestCiphertextKey_FramesFields(t *testing.T) {
	base := &cipher.Envelope{
		Version:    1,
		Algorithm:  cipher.AES256GCM,
		IV:         []byte{1, 2, 3},
		Ciphertext: []byte{4, 5, 6},
		Tag:        []byte{7, 8},
	}
	shifted := *base
	shifted.Ciphertext = []byte{4, 5}
	shifted.Tag = []byte{6, 7, 8}
	assert.NotEqual(t, ciphertextKey(base), ciphertextKey(&shifted))

	wideVersion := *base
	wideVersion.Version = 257
	assert.NotEqual(t, ciphertextKey(base), ciphertextKey(&wideVersion))
}

func TestService_Decrypt_MissPopulatesCache(t *testing.T) {
	sym := newTestSymmetric(t)
	service := NewService(sym, NewPlaintextCache(8, time.Minute), nil)

	key := bytes.Repeat([]byte{3}, cipher.KeySize)
	env, err := sym.Encrypt([]byte("from elsewhere"), key)
	require.NoError(t, err)
	assert.Equal(t, 0, service.CacheLen())

	out, err := service.Decrypt(env, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("from elsewhere"), out)
	assert.Equal(t, 1, service.CacheLen())

	env.Tag[0] ^= 0xff
	_, err = service.Decrypt(env, key)
	assert.True(t, errors.Is(err, cryptoerr.ErrIntegrity))
}

func TestService_CacheDisabled(t *testing.T) {
	service := NewService(newTestSymmetric(t), nil, nil)

	key := bytes.Repeat([]byte{1}, cipher.KeySize)
	env, err := service.Encrypt([]byte("no cache"), key)
	require.NoError(t, err)
	assert.Equal(t, 0, service.CacheLen())

	out, err := service.Decrypt(env, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("no cache"), out)
}

func TestPlaintextCache_Bounded(t *testing.T) {
	cache := NewPlaintextCache(2, time.Minute)
	key := bytes.Repeat([]byte{1}, cipher.KeySize)

	envs := make([]*cipher.Envelope, 3)
	for i := range envs {
		envs[i] = &cipher.Envelope{Version: 1, Algorithm: cipher.AES256GCM, IV: []byte{byte(i)}, Ciphertext: []byte{1}, Tag: []byte{2}}
		cache.Put(envs[i], key, []byte{byte(i)})
	}

	assert.Equal(t, 2, cache.Len())
	_, ok := cache.Get(envs[0], key)
	assert.False(t, ok, "oldest entry must be evicted")

	plaintext, ok := cache.Get(envs[2], key)
	require.True(t, ok)
	assert.Equal(t, []byte{2}, plaintext)

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

func TestPlaintextCache_TTL(t *testing.T) {
	cache := NewPlaintextCache(4, 20*time.Millisecond)
	key := bytes.Repeat([]byte{1}, cipher.KeySize)
	env := &cipher.Envelope{Version: 1, Algorithm: cipher.AES256GCM, IV: []byte{1}, Ciphertext: []byte{1}, Tag: []byte{1}}

	cache.Put(env, key, []byte("short lived"))
	_, ok := cache.Get(env, key)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := cache.Get(env, key)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestPlaintextCache_Concurrent(t *testing.T) {
	cache := NewPlaintextCache(64, time.Minute)
	key := bytes.Repeat([]byte{1}, cipher.KeySize)
	env := &cipher.Envelope{Version: 1, Algorithm: cipher.AES256GCM, IV: []byte{1}, Ciphertext: []byte{7}, Tag: []byte{1}}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Put(env, key, []byte("value"))
				if got, ok := cache.Get(env, key); ok {
					assert.Equal(t, []byte("value"), got)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, cache.Len())
}

func testutilCount(reg *prometheus.Registry, result string) (float64, error) {
	families, err := reg.Gather()
	if err != nil {
		return 0, err
	}
	for _, f := range families {
		if f.GetName() != "identity_plaintext_cache_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					return metric.GetCounter().GetValue(), nil
				}
			}
		}
	}
	return 0, nil
}
