//go:build unit

package domain

import (
	"testing"
	"time"
)

func TestNormalizeThumbprint(t *testing.T) {
	canonical := "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678"

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"already canonical", canonical, canonical, false},
		{"uppercase", "A1B2C3D4E5F60718293A4B5C6D7E8F9012345678", canonical, false},
		{"spaced pairs", "a1 b2 c3 d4 e5 f6 07 18 29 3a 4b 5c 6d 7e 8f 90 12 34 56 78", canonical, false},
		{"colon separated", "a1:b2:c3:d4:e5:f6:07:18:29:3a:4b:5c:6d:7e:8f:90:12:34:56:78", canonical, false},
		{"surrounding whitespace", "  " + canonical + "\n", canonical, false},
		{"too short", "a1b2c3", "", true},
		{"non-hex", "z1b2c3d4e5f60718293a4b5c6d7e8f9012345678", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeThumbprint(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSameThumbprint(t *testing.T) {
	a := "A1B2C3D4E5F60718293A4B5C6D7E8F9012345678"
	b := "a1:b2:c3:d4:e5:f6:07:18:29:3a:4b:5c:6d:7e:8f:90:12:34:56:78"
	if !SameThumbprint(a, b) {
		t.Error("equivalent thumbprints compared unequal")
	}
	if SameThumbprint(a, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef") {
		t.Error("different thumbprints compared equal")
	}
	if SameThumbprint("garbage", "garbage") {
		t.Error("malformed thumbprints must never match")
	}
}

func TestCertificate_Expired(t *testing.T) {
	now := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	if (Certificate{NotAfter: now.Add(24 * time.Hour)}).Expired(now) {
		t.Error("future NotAfter reported expired")
	}
	if !(Certificate{NotAfter: now.Add(-time.Hour)}).Expired(now) {
		t.Error("past NotAfter not reported expired")
	}
	if (Certificate{}).Expired(now) {
		t.Error("zero NotAfter must not count as expired")
	}
}
