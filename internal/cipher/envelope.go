package cipher

import (
	"encoding/json"
	"strconv"

	"github.com/SafeMPC/identity-core/internal/cryptoerr"
	"github.com/pkg/errors"
)

// EnvelopeVersion 当前信封格式版本
const EnvelopeVersion = 1

// Envelope 对称加密结果
//
// 版本与算法作为关联数据参与认证，篡改任一字段都会导致解密失败。
type Envelope struct {
	Version    int       `json:"v"`
	Algorithm  Algorithm `json:"alg"`
	IV         []byte    `json:"iv"`
	Salt       []byte    `json:"salt,omitempty"`
	Ciphertext []byte    `json:"ct"`
	Tag        []byte    `json:"tag"`
}

// Marshal 编码为 JSON
func (e *Envelope) Marshal() ([]byte, error) {
	if e == nil {
		return nil, errors.New("envelope is nil")
	}
	return json.Marshal(e)
}

// ParseEnvelope 解析 JSON 信封；无法解析视为完整性失败
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(cryptoerr.ErrIntegrity, "malformed envelope")
	}
	if err := env.checkVersion(); err != nil {
		return nil, err
	}
	return &env, nil
}

// Validate 检查版本、算法以及 IV 和标签长度，不做认证
func (e *Envelope) Validate() error {
	if e == nil {
		return errors.Wrap(cryptoerr.ErrIntegrity, "envelope is nil")
	}
	if err := e.checkVersion(); err != nil {
		return err
	}
	if len(e.IV) != algorithms[e.Algorithm].ivSize || len(e.Tag) != TagSize {
		return errors.Wrap(cryptoerr.ErrIntegrity, "malformed envelope")
	}
	return nil
}

func (e *Envelope) checkVersion() error {
	if e.Version != EnvelopeVersion {
		return errors.Wrapf(cryptoerr.ErrEnvelopeVersion, "envelope version %d", e.Version)
	}
	if _, ok := algorithms[e.Algorithm]; !ok {
		return errors.Wrapf(cryptoerr.ErrEnvelopeVersion, "envelope algorithm %q", e.Algorithm)
	}
	return nil
}

func (e *Envelope) associatedData() []byte {
	return []byte("identity-core/envelope/v" + strconv.Itoa(e.Version) + "/" + string(e.Algorithm))
}

func (e *Envelope) sealed() []byte {
	out := make([]byte, 0, len(e.Ciphertext)+len(e.Tag))
	out = append(out, e.Ciphertext...)
	return append(out, e.Tag...)
}
