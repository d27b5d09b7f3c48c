package badgerdb

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/boatyard/boatyard-server/internal/domain"
)

// Key layout:
//
//	e:<KIND>:<id>                      record JSON
//	i:<KIND>:<field>:<value>:<id>      empty value, one per indexed field
//	s:<KIND>                           id sequence
//
// Ids are zero padded to 20 digits so byte order equals numeric order.
// Index values are base64url encoded so they never contain the separator.
const (
	dataPrefix  = "e:"
	indexPrefix = "i:"
	seqPrefix   = "s:"
	idWidth     = 20
)

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 128)
	},
}

func formatID(id int64) string {
	return fmt.Sprintf("%0*d", idWidth, id)
}

// dataKeyPrefix returns the prefix shared by every record of kind.
func dataKeyPrefix(kind domain.Kind) []byte {
	return []byte(dataPrefix + string(kind) + ":")
}

// dataKey builds a record key using a pooled buffer. Callers must releaseKey.
func dataKey(kind domain.Kind, id int64) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, dataPrefix...)
	buf = append(buf, kind...)
	buf = append(buf, ':')
	buf = append(buf, formatID(id)...)
	return buf
}

// indexValuePrefix returns the prefix of every index entry for field == value.
func indexValuePrefix(kind domain.Kind, field, value string) []byte {
	return []byte(indexPrefix + string(kind) + ":" + field + ":" +
		base64.RawURLEncoding.EncodeToString([]byte(value)) + ":")
}

func indexKey(kind domain.Kind, field, value string, id int64) []byte {
	return append(indexValuePrefix(kind, field, value), formatID(id)...)
}

func sequenceKey(kind domain.Kind) []byte {
	return []byte(seqPrefix + string(kind))
}

// idFromKey parses the trailing id of a data or index key.
func idFromKey(key []byte) (int64, error) {
	s := string(key)
	i := strings.LastIndexByte(s, ':')
	if i < 0 || len(s)-i-1 != idWidth {
		return 0, fmt.Errorf("malformed key %q", s)
	}
	return strconv.ParseInt(s[i+1:], 10, 64)
}

// releaseKey returns a key buffer to the pool for reuse.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0]) //nolint:staticcheck // slice header allocation is fine here
	}
}
