package keyval

import "testing"

func TestKeyFromBytes(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		wantErr bool
	}{
		{name: "exact width", buf: make([]byte, KeySize), wantErr: false},
		{name: "too short", buf: make([]byte, KeySize-1), wantErr: true},
		{name: "too long", buf: make([]byte, KeySize+1), wantErr: true},
		{name: "empty", buf: []byte{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := KeyFromBytes(tt.buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("KeyFromBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValueFromBytes(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		wantErr bool
	}{
		{name: "exact width", buf: make([]byte, ValueSize), wantErr: false},
		{name: "too short", buf: make([]byte, ValueSize-1), wantErr: true},
		{name: "too long", buf: make([]byte, ValueSize+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValueFromBytes(tt.buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValueFromBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKeyBytesRoundTrip(t *testing.T) {
	raw := []byte{0, 0, 0, 0, 0, 0, 0, 42}
	k, err := KeyFromBytes(raw)
	if err != nil {
		t.Fatalf("KeyFromBytes() error = %v", err)
	}
	if got := k.Bytes(); string(got) != string(raw) {
		t.Errorf("Bytes() = %v, want %v", got, raw)
	}
}

func TestCompareOrdering(t *testing.T) {
	k1 := KeyFromUint64(10)
	k2 := KeyFromUint64(20)
	k3 := KeyFromUint64(20)

	if Compare(k1, k2) >= 0 {
		t.Errorf("Compare(k1, k2) = %d, want negative", Compare(k1, k2))
	}
	if Compare(k2, k1) <= 0 {
		t.Errorf("Compare(k2, k1) = %d, want positive", Compare(k2, k1))
	}
	if Compare(k2, k3) != 0 {
		t.Errorf("Compare(k2, k3) = %d, want 0", Compare(k2, k3))
	}
}

func TestKeyUint64RoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 255, 1 << 40, ^uint64(0)} {
		k := KeyFromUint64(n)
		if got := k.Uint64(); got != n {
			t.Errorf("Uint64() = %d, want %d", got, n)
		}
	}
}

func TestKeyOrderingMatchesLexicographicBytes(t *testing.T) {
	// For keys K1 < K2 lexicographically, encode(K1) < encode(K2).
	k1, _ := KeyFromBytes([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01})
	k2, _ := KeyFromBytes([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00})
	if Compare(k1, k2) >= 0 {
		t.Errorf("expected k1 < k2 by lexicographic big-endian order")
	}
}
