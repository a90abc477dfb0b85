package entry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var ErrCorruptFrame = errors.New("journal: corrupt frame")

type RecordType uint8

const (
	RecordInsert RecordType = iota + 1
	RecordAmend
	RecordPull
)

func (t RecordType) String() string {
	switch t {
	case RecordInsert:
		return "INSERT"
	case RecordAmend:
		return "AMEND"
	case RecordPull:
		return "PULL"
	default:
		return fmt.Sprintf("RecordType(%d)", uint8(t))
	}
}

type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}

// Frame layout:
// [type:1][seq:8][time:8][len:4][payload][crc:4]
const headerSize = 1 + 8 + 8 + 4

func encodeFrame(r *Record) []byte {
	payloadLen := uint32(len(r.Data))
	buf := make([]byte, headerSize+int(payloadLen)+4)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], r.Data)

	end := headerSize + int(payloadLen)
	binary.BigEndian.PutUint32(buf[end:], CRC32(buf[:end]))
	return buf
}
