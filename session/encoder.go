package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const (
	recordFormatV1 = 1

	flagRevoked byte = 1 << 0
)

// Encode serializes r into the versioned binary form kept in Redis.
// Timestamps are stored as unix nanoseconds.
func Encode(r *Record) ([]byte, error) {
	if r == nil {
		return nil, errors.New("nil session record")
	}

	var buf bytes.Buffer
	buf.WriteByte(recordFormatV1)

	var flags byte
	if r.Revoked {
		flags |= flagRevoked
	}
	buf.WriteByte(flags)

	if err := binary.Write(&buf, binary.BigEndian, r.OperatorID); err != nil {
		return nil, err
	}
	for _, field := range []string{r.ID, r.TokenJTI, r.IPAddress, r.UserAgent} {
		if err := writeString(&buf, field); err != nil {
			return nil, err
		}
	}

	var revokedAt int64
	if r.RevokedAt != nil {
		revokedAt = r.RevokedAt.UnixNano()
	}
	for _, ts := range []int64{r.CreatedAt.UnixNano(), r.ExpiresAt.UnixNano(), revokedAt} {
		if err := binary.Write(&buf, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatV1 {
		return nil, errors.New("invalid session version")
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	r := &Record{Revoked: flags&flagRevoked != 0}
	if err := binary.Read(reader, binary.BigEndian, &r.OperatorID); err != nil {
		return nil, err
	}
	for _, field := range []*string{&r.ID, &r.TokenJTI, &r.IPAddress, &r.UserAgent} {
		if *field, err = readString(reader); err != nil {
			return nil, err
		}
	}

	var created, expires, revokedAt int64
	for _, ts := range []*int64{&created, &expires, &revokedAt} {
		if err := binary.Read(reader, binary.BigEndian, ts); err != nil {
			return nil, err
		}
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.ExpiresAt = time.Unix(0, expires).UTC()
	if revokedAt != 0 {
		t := time.Unix(0, revokedAt).UTC()
		r.RevokedAt = &t
	}

	return r, nil
}

func writeString(buf *bytes.Buffer, value string) error {
	if len(value) > 65535 {
		return errors.New("session field too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(value))); err != nil {
		return err
	}
	buf.WriteString(value)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
