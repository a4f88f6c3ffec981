package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dealmate/couponengine/internal/types"
)

func sampleCoupon() *types.RawCoupon {
	c := types.NewRawCoupon("SAVE20", "Save 20%")
	v := 20.0
	c.DiscountType = types.DiscountPercentage
	c.DiscountValue = &v
	c.MerchantName = "Example"
	c.MerchantDomain = "example.com"
	return c
}

func TestJSONStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStorage(filepath.Join(dir, "out.json"), nil)
	if err != nil {
		t.Fatalf("NewJSONStorage: %v", err)
	}

	if err := s.Store([]*types.RawCoupon{sampleCoupon()}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "out.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var decoded []types.RawCoupon
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Code != "SAVE20" {
		t.Fatalf("unexpected decoded contents: %+v", decoded)
	}
}

func TestJSONLStorageOneObjectPerLine(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONLStorage(filepath.Join(dir, "out.jsonl"), nil)
	if err != nil {
		t.Fatalf("NewJSONLStorage: %v", err)
	}

	coupons := []*types.RawCoupon{sampleCoupon(), sampleCoupon()}
	if err := s.Store(coupons); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "out.jsonl"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	lines := 0
	for _, b := range raw {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestCSVStorageWritesHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	s, err := NewCSVStorage(filepath.Join(dir, "out.csv"), nil)
	if err != nil {
		t.Fatalf("NewCSVStorage: %v", err)
	}

	if err := s.Store([]*types.RawCoupon{sampleCoupon()}); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Store([]*types.RawCoupon{sampleCoupon()}); err != nil {
		t.Fatalf("Store (2nd batch): %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	headerCount := 0
	for _, line := range splitLines(string(raw)) {
		if line == joinCSV(csvHeaders) {
			headerCount++
		}
	}
	if headerCount != 1 {
		t.Errorf("expected exactly 1 header row, got %d", headerCount)
	}
}

func TestNewFileStorageRejectsUnknownType(t *testing.T) {
	if _, err := NewFileStorage("xml", t.TempDir(), nil); err == nil {
		t.Fatalf("expected error for unsupported storage type")
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return lines
}

func joinCSV(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out
}
