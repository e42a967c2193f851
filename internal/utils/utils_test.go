package utils

import (
	"reflect"
	"strings"
	"testing"
)

func TestDifference(t *testing.T) {
	type args struct {
		a []string
		b []string
	}
	tests := []struct {
		name string
		args args
		want []string
	}{
		{
			name: "Test Difference",
			args: args{
				a: []string{"a", "b", "c"},
				b: []string{"b", "c", "d"},
			},
			want: []string{"a"},
		},
		{
			name: "Test Difference",
			args: args{
				a: []string{"b", "c", "d"},
				b: []string{"a", "b", "c"},
			},
			want: []string{"d"},
		},
		{
			name: "Test Difference",
			args: args{
				a: []string{"a", "b", "c"},
				b: []string{"a", "b", "c"},
			},
			want: []string{},
		},
		{
			name: "Test Difference",
			args: args{
				a: []string{"a", "b", "c"},
				b: []string{"d", "e", "f"},
			},
			want: []string{"a", "b", "c"},
		},
		{
			name: "Test Difference",
			args: args{
				a: []string{"a", "b", "c"},
				b: []string{"c", "b", "a"},
			},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Difference(tt.args.a, tt.args.b); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Difference() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLineDiffUnified(t *testing.T) {
	out, err := LineDiff("push %rbp\nretq\n", "push %rbp\nnop\nretq\n", &LineDiffConfig{})
	if err != nil {
		t.Fatalf("LineDiff returned error: %v", err)
	}
	if !strings.Contains(out, "+nop") {
		t.Errorf("unified diff missing added line:\n%s", out)
	}
	if strings.Contains(out, "-push %rbp") {
		t.Errorf("unified diff removed an unchanged line:\n%s", out)
	}
}

func TestLineDiffGo(t *testing.T) {
	out, err := LineDiff("same\n", "same\n", &LineDiffConfig{Tool: "go"})
	if err != nil {
		t.Fatalf("LineDiff returned error: %v", err)
	}
	if out != "" {
		t.Errorf("equal inputs should produce an empty go diff, got %q", out)
	}
}

func TestLineDiffGoRendersChangedLines(t *testing.T) {
	out, err := LineDiff(
		"push %rbp\ncall foo\nretq\n",
		"push %rbp\ncall bar\nretq\n",
		&LineDiffConfig{Tool: "go"})
	if err != nil {
		t.Fatalf("LineDiff returned error: %v", err)
	}
	if !strings.Contains(out, "- call foo\n") || !strings.Contains(out, "+ call bar\n") {
		t.Errorf("go diff missing changed instructions:\n%s", out)
	}
	if strings.Contains(out, "push %rbp") {
		t.Errorf("go diff should omit unchanged instructions:\n%s", out)
	}
}
