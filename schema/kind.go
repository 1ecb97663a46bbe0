package schema

import "github.com/pkg/errors"

// Kind 字段的逻辑类型
type Kind string

const (
	KindInteger   Kind = "integer"
	KindReal      Kind = "real"
	KindText      Kind = "text"
	KindBlob      Kind = "blob"
	KindTimestamp Kind = "timestamp"
	KindNode      Kind = "node"
	KindEnum      Kind = "enum"
)

var kinds = []Kind{KindInteger, KindReal, KindText, KindBlob, KindTimestamp, KindNode, KindEnum}

// Kinds 返回所有逻辑类型，顺序固定
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

func (k Kind) Valid() bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}

func ParseKind(s string) (Kind, error) {
	if k := Kind(s); k.Valid() {
		return k, nil
	}
	return "", errors.Wrapf(ErrUnsupportedType, "kind %q", s)
}
