package signing

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"time"

	"github.com/SafeMPC/identity-core/internal/cipher"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCacheCapacity = 1024
	DefaultCacheTTL      = 10 * time.Minute
)

type cacheEntry struct {
	keyFingerprint [sha256.Size]byte
	plaintext      []byte
}

// PlaintextCache 密文 → 明文的有界缓存（容量 + TTL）
//
// 条目只在以同一密钥查询时命中。明文以副本存入和取出，调用方修改返回值不影响缓存。
type PlaintextCache struct {
	lru *expirable.LRU[string, cacheEntry]
}

// NewPlaintextCache 创建缓存；capacity <= 0 使用默认容量，ttl <= 0 使用默认 TTL
func NewPlaintextCache(capacity int, ttl time.Duration) *PlaintextCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &PlaintextCache{lru: expirable.NewLRU[string, cacheEntry](capacity, nil, ttl)}
}

// Put 记录密文对应的明文（保存副本）
func (c *PlaintextCache) Put(env *cipher.Envelope, key, plaintext []byte) {
	if c == nil || env == nil {
		return
	}
	stored := make([]byte, len(plaintext))
	copy(stored, plaintext)
	c.lru.Add(ciphertextKey(env), cacheEntry{
		keyFingerprint: sha256.Sum256(key),
		plaintext:      stored,
	})
}

// Get 查找密文；密钥指纹不一致时视为未命中
func (c *PlaintextCache) Get(env *cipher.Envelope, key []byte) ([]byte, bool) {
	if c == nil || env == nil {
		return nil, false
	}
	entry, ok := c.lru.Get(ciphertextKey(env))
	if !ok {
		return nil, false
	}
	fingerprint := sha256.Sum256(key)
	if subtle.ConstantTimeCompare(fingerprint[:], entry.keyFingerprint[:]) != 1 {
		return nil, false
	}
	out := make([]byte, len(entry.plaintext))
	copy(out, entry.plaintext)
	return out, true
}

// Len 当前条目数
func (c *PlaintextCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge 清空缓存
func (c *PlaintextCache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// ciphertextKey 以版本、算法、IV、密文和标签标识一个密文；每个字段带长度前缀
func ciphertextKey(env *cipher.Envelope) string {
	h := sha256.New()
	var version [8]byte
	binary.BigEndian.PutUint64(version[:], uint64(int64(env.Version)))
	h.Write(version[:])
	for _, field := range [][]byte{[]byte(env.Algorithm), env.IV, env.Ciphertext, env.Tag} {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(field)))
		h.Write(n[:])
		h.Write(field)
	}
	return string(h.Sum(nil))
}
