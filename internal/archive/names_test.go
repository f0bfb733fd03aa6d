package archive

import (
	"path/filepath"
	"testing"
)

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "utf8 untouched", input: "Legendas Ação.srt", want: "Legendas Ação.srt"},
		{name: "cp850", input: "Legendas A\x87\xc6o.srt", want: "Legendas Ação.srt"},
		{name: "latin9", input: "Legendas A\xe7\xe3o.srt", want: "Legendas Ação.srt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodeName(tt.input); got != tt.want {
				t.Fatalf("decodeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMemberPath(t *testing.T) {
	dest := filepath.FromSlash("/tmp/out")
	got, err := memberPath(dest, `sub\dir\file.srt`)
	if err != nil {
		t.Fatalf("memberPath returned error: %v", err)
	}
	if want := filepath.Join(dest, "sub", "dir", "file.srt"); got != want {
		t.Fatalf("memberPath = %q, want %q", got, want)
	}
	if _, err := memberPath(dest, "../../etc/passwd"); err == nil {
		t.Fatal("expected escaping member to be rejected")
	}
	got, err = memberPath(dest, "/abs/file.srt")
	if err != nil || got != filepath.Join(dest, "abs", "file.srt") {
		t.Fatalf("expected absolute member to be rooted at dest, got %q (%v)", got, err)
	}
}
