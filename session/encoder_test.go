package session

import (
	"testing"
	"time"
)

func TestEncodePreservesRevocation(t *testing.T) {
	now := time.Unix(1700000000, 123).UTC()
	in := &Record{
		ID:         "sid",
		OperatorID: 9,
		TokenJTI:   "jti",
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
		Revoked:    true,
		RevokedAt:  &now,
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Revoked || out.RevokedAt == nil || !out.RevokedAt.Equal(now) || !out.ExpiresAt.Equal(in.ExpiresAt) {
		t.Fatalf("unexpected decoded record %+v", out)
	}

	in.Revoked, in.RevokedAt = false, nil
	data, _ = Encode(in)
	out, err = Decode(data)
	if err != nil || out.Revoked || out.RevokedAt != nil {
		t.Fatalf("expected live record, got %+v err=%v", out, err)
	}
}

func FuzzDecode(f *testing.F) {
	now := time.Unix(1700000000, 0)
	seed, err := Encode(&Record{ID: "s", OperatorID: 1, TokenJTI: "j", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	if err == nil {
		f.Add(seed)
	}
	f.Add([]byte{})
	f.Add([]byte{recordFormatV1})
	f.Add([]byte{recordFormatV1, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = Decode(data)
	})
}
