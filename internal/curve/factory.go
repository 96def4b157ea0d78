package curve

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultMaxAttempts 重采样上限。secp256k1 与 P-256 单次拒绝概率都小于 2^-32
const DefaultMaxAttempts = 64

// Factory 曲线密钥工厂
type Factory struct {
	maxAttempts int
}

// NewFactory 创建工厂；maxAttempts <= 0 时使用默认值
func NewFactory(maxAttempts int) *Factory {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Factory{maxAttempts: maxAttempts}
}

// Derive 由基础秘密与域分离标签确定性地派生密钥对
//
// candidate_i = SHA-256(base || uint16be(len(tag)) || tag || curveID || uint32be(i))
func (f *Factory) Derive(base []byte, c Curve, domainTag string) (*KeyPair, error) {
	if len(base) == 0 {
		return nil, errors.Wrap(cryptoerr.ErrDerivation, "base secret is empty")
	}
	if domainTag == "" || len(domainTag) > 0xffff {
		return nil, errors.Wrap(cryptoerr.ErrDerivation, "invalid domain tag")
	}
	d, err := deriverFor(c)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		candidate := hashCandidate(base, domainTag, c, uint32(attempt))
		priv, ok := d.acceptCandidate(candidate[:])
		zero(candidate[:])
		if !ok {
			log.Debug().Str("curve", c.String()).Int("attempt", attempt).Msg("Candidate scalar rejected, resampling")
			continue
		}
		return newKeyPair(d, priv)
	}

	return nil, errors.Wrapf(cryptoerr.ErrCurve, "no valid %s scalar after %d attempts", c, f.maxAttempts)
}

// Generate 从随机源生成密钥对，使用与 Derive 相同的拒绝采样规则
func (f *Factory) Generate(c Curve, rand io.Reader) (*KeyPair, error) {
	if rand == nil {
		return nil, errors.New("random source is required")
	}
	d, err := deriverFor(c)
	if err != nil {
		return nil, err
	}

	candidate := make([]byte, ScalarSize)
	defer zero(candidate)
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if _, err := io.ReadFull(rand, candidate); err != nil {
			return nil, errors.Wrap(err, "failed to read random scalar")
		}
		priv, ok := d.acceptCandidate(candidate)
		if !ok {
			continue
		}
		return newKeyPair(d, priv)
	}

	return nil, errors.Wrapf(cryptoerr.ErrCurve, "no valid %s scalar after %d attempts", c, f.maxAttempts)
}

func newKeyPair(d Deriver, priv []byte) (*KeyPair, error) {
	pub, err := d.PublicKey(priv)
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		Curve:      d.Curve(),
		PrivateKey: priv,
		PublicKey:  pub,
	}, nil
}

func hashCandidate(base []byte, tag string, c Curve, counter uint32) [sha256.Size]byte {
	h := sha256.New()
	h.Write(base)

	var tagLen [2]byte
	binary.BigEndian.PutUint16(tagLen[:], uint16(len(tag)))
	h.Write(tagLen[:])
	h.Write([]byte(tag))

	h.Write([]byte{byte(c)})

	var ctr [4]byte
	binary.BigEndian.PutUint32(ctr[:], counter)
	h.Write(ctr[:])

	var out [sha256.Size]byte
	h.Sum(out[:0])
	return out
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
