package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Digest is the hex SHA-256 of some content.
type Digest string

// Sum digests the JSON encoding of v.
func Sum(v any) (Digest, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return SumBytes(data), nil
}

// SumBytes digests raw bytes.
func SumBytes(data []byte) Digest {
	h := sha256.Sum256(data)
	return Digest(hex.EncodeToString(h[:]))
}

// Short returns the first 12 hex digits, enough for log lines.
func (d Digest) Short() string {
	if len(d) < 12 {
		return string(d)
	}
	return string(d[:12])
}

// Key builds "prefix:<digest of parts>". Parts must be JSON-encodable.
func Key(prefix string, parts ...any) string {
	dg, err := Sum(parts)
	if err != nil {
		panic("cache: unencodable key part: " + err.Error())
	}
	return prefix + ":" + string(dg)
}
