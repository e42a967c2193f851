package disass

import (
	"strings"
	"testing"
)

const otoolSample = `/tmp/a.out:
(__TEXT,__text) section
_main:
0000000100003f50	pushq	%rbp
0000000100003f51	movq	%rsp, %rbp
0000000100003f55	callq	0x100003f70 ## symbol stub for: _helper
0000000100003f5a	leaq	0x35(%rip), %rdi ## literal pool for: "Hello"
0000000100003f61	callq	0x100003f90
0000000100003f66	popq	%rbp
0000000100003f67	retq
_helper:
0000000100003f70	retq
`

func TestOtoolParse(t *testing.T) {
	tbl, err := (&Otool{}).Parse(strings.NewReader(otoolSample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}

	main, ok := tbl.Get("_main")
	if !ok {
		t.Fatal("missing symbol _main")
	}
	if main.StartAddress != 0x100003f50 {
		t.Errorf("_main.StartAddress = %#x, want 0x100003f50", main.StartAddress)
	}
	if want := uint64(0x100003f67 - 0x100003f50 + 4); main.Length != want {
		t.Errorf("_main.Length = %#x, want %#x", main.Length, want)
	}

	wantText := "pushq\t%rbp\n" +
		"movq\t%rsp, %rbp\n" +
		"callq\t0x?\n" + // " for: " comment forces neutralize, comment dropped
		"leaq\t0x?(%rip), %rdi ## literal pool for: \"Hello\"\n" +
		"callq\t0x?\n" + // bare call with no comment
		"popq\t%rbp\n" +
		"retq\n"
	if main.Text != wantText {
		t.Errorf("_main.Text = %q, want %q", main.Text, wantText)
	}

	helper, ok := tbl.Get("_helper")
	if !ok {
		t.Fatal("missing symbol _helper")
	}
	if helper.StartAddress != 0x100003f70 || helper.Length != 4 {
		t.Errorf("_helper = [%#x +%#x], want [0x100003f70 +4]", helper.StartAddress, helper.Length)
	}
	if helper.Text != "retq\n" {
		t.Errorf("_helper.Text = %q, want %q", helper.Text, "retq\n")
	}
}

func TestOtoolParseThenNormalize(t *testing.T) {
	tbl, err := (&Otool{}).Parse(strings.NewReader(otoolSample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	ticks := 0
	Normalize(tbl, nil, (&Otool{}).Dialect(), func() { ticks++ })
	if ticks != tbl.Len() {
		t.Errorf("progress ticks = %d, want %d", ticks, tbl.Len())
	}

	// normalized text must be stable when normalized again
	main, _ := tbl.Get("_main")
	before := main.Text
	Normalize(tbl, nil, (&Otool{}).Dialect(), nil)
	if main.Text != before {
		t.Errorf("Normalize is not idempotent: %q -> %q", before, main.Text)
	}
}
