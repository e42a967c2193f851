package symtab

import (
	"testing"
)

func TestAddSuffixesCollisions(t *testing.T) {
	tests := []struct {
		name    string
		inserts []string
		want    []string
	}{
		{
			name:    "no collision",
			inserts: []string{"foo", "bar"},
			want:    []string{"foo", "bar"},
		},
		{
			name:    "double insert",
			inserts: []string{"foo", "foo"},
			want:    []string{"foo", "foo#0"},
		},
		{
			name:    "triple insert",
			inserts: []string{"foo", "foo", "foo"},
			want:    []string{"foo", "foo#0", "foo#1"},
		},
		{
			name:    "name ending in digits",
			inserts: []string{"crc32", "crc32", "crc32"},
			want:    []string{"crc32", "crc32#0", "crc32#1"},
		},
		{
			name:    "name containing hash",
			inserts: []string{"a#b", "a#b"},
			want:    []string{"a#b", "a#b#0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := NewTable()
			for i, name := range tt.inserts {
				got, _ := tbl.Add(name)
				if got != tt.want[i] {
					t.Errorf("Add(%q) #%d = %q, want %q", name, i, got, tt.want[i])
				}
			}
			if tbl.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", tbl.Len(), len(tt.want))
			}
		})
	}
}

func TestObserve(t *testing.T) {
	var r Record
	r.Observe(0x1000, 4)
	if r.StartAddress != 0x1000 {
		t.Fatalf("StartAddress = %#x, want 0x1000", r.StartAddress)
	}
	if r.Length != 4 {
		t.Fatalf("Length = %d, want 4", r.Length)
	}
	r.Observe(0x1010, 4)
	if r.StartAddress != 0x1000 {
		t.Errorf("StartAddress moved to %#x after second Observe", r.StartAddress)
	}
	if r.Length != 0x14 {
		t.Errorf("Length = %#x, want 0x14", r.Length)
	}
	// out-of-order addresses never shrink the record
	r.Observe(0x1004, 4)
	if r.Length != 0x14 {
		t.Errorf("Length = %#x after stale Observe, want 0x14", r.Length)
	}
}

func TestByAddressOrder(t *testing.T) {
	tbl := NewTable()
	for _, s := range []struct {
		name string
		addr uint64
	}{
		{"charlie", 0x3000},
		{"alpha", 0x1000},
		{"bravo", 0x2000},
	} {
		_, rec := tbl.Add(s.name)
		rec.Observe(s.addr, 4)
	}

	got := tbl.ByAddress()
	want := []string{"alpha", "bravo", "charlie"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("ByAddress()[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestIndexFind(t *testing.T) {
	tbl := NewTable()
	_, main := tbl.Add("main")
	main.StartAddress, main.Length = 0x1000, 0x100
	_, helper := tbl.Add("helper")
	helper.StartAddress, helper.Length = 0x1200, 0x80

	ix := NewIndex(tbl.ByAddress())

	tests := []struct {
		name    string
		addr    uint64
		want    string
		wantHit bool
	}{
		{"at main start", 0x1000, "main", true},
		{"inside main", 0x10FF, "main", true},
		{"past main end", 0x1100, "", false},
		{"gap between symbols", 0x11FF, "", false},
		{"at helper start", 0x1200, "helper", true},
		{"at helper end (half-open)", 0x1280, "", false},
		{"before everything", 0xFFF, "", false},
		{"way past everything", 0xFFFFFFFF, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := ix.Find(tt.addr)
			if hit != tt.wantHit || got != tt.want {
				t.Errorf("Find(%#x) = (%q, %v), want (%q, %v)", tt.addr, got, hit, tt.want, tt.wantHit)
			}
		})
	}
}
