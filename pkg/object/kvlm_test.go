package object

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleCommit = "tree 29ff16c9c14e2652b22f8b78bb08a5a07930c147\n" +
	"parent 206941306e8a8af65b66eaaaea388a7ae24d49a0\n" +
	"parent 0123456789abcdef0123456789abcdef01234567\n" +
	"author Thibault Polge <thibault@thb.lt> 1527025023 +0200\n" +
	"committer Thibault Polge <thibault@thb.lt> 1527025044 +0200\n" +
	"gpgsig -----BEGIN PGP SIGNATURE-----\n" +
	" \n" +
	" iQIzBAABCAAdFiEExwXquOM8bWb4Q2zVGxM2FxoLkGQFAlsEjZQACgkQGxM2FxoL\n" +
	" kGQdcBAAqPP+ln4nGDd2gETXjvOpOxLzIMEw4A9gU6CzWzm+oB8mEIKyaH0UFIPh\n" +
	" -----END PGP SIGNATURE-----\n" +
	"\n" +
	"Create first draft\n" +
	"\n" +
	"Longer body.\n"

func TestParseKVLMCommit(t *testing.T) {
	kv, err := ParseKVLM([]byte(sampleCommit))
	if err != nil {
		t.Fatalf("ParseKVLM: %v", err)
	}

	wantKeys := []string{"tree", "parent", "author", "committer", "gpgsig"}
	if diff := cmp.Diff(wantKeys, kv.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	var parents []string
	for _, v := range kv.Values("parent") {
		parents = append(parents, string(v))
	}
	wantParents := []string{
		"206941306e8a8af65b66eaaaea388a7ae24d49a0",
		"0123456789abcdef0123456789abcdef01234567",
	}
	if diff := cmp.Diff(wantParents, parents); diff != "" {
		t.Fatalf("parents mismatch (-want +got):\n%s", diff)
	}

	sig, ok := kv.Get("gpgsig")
	if !ok {
		t.Fatal("gpgsig missing")
	}
	if !strings.HasPrefix(string(sig), "-----BEGIN PGP SIGNATURE-----\n\niQIz") {
		t.Errorf("continuation lines not unescaped: %q", sig)
	}
	if !strings.HasSuffix(string(sig), "\n-----END PGP SIGNATURE-----") {
		t.Errorf("signature tail = %q", sig)
	}

	if string(kv.Message) != "Create first draft\n\nLonger body.\n" {
		t.Errorf("message = %q", kv.Message)
	}

	if got := string(kv.Bytes()); got != sampleCommit {
		t.Fatalf("round trip differs:\n got %q\nwant %q", got, sampleCommit)
	}
}

func TestCommitAccessors(t *testing.T) {
	obj, err := Decode(TypeCommit, []byte(sampleCommit))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	c := obj.(*Commit)
	if c.Tree() != "29ff16c9c14e2652b22f8b78bb08a5a07930c147" {
		t.Errorf("Tree = %s", c.Tree())
	}
	if got := c.Parents(); len(got) != 2 || got[1] != "0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("Parents = %v", got)
	}
}

func TestKVLMRepeatedKeyKeepsFirstPosition(t *testing.T) {
	raw := "a 1\nb 2\na 3\nc 4\na 5\n\nmsg"
	kv, err := ParseKVLM([]byte(raw))
	if err != nil {
		t.Fatalf("ParseKVLM: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, kv.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if n := len(kv.Values("a")); n != 3 {
		t.Fatalf("len(a) = %d, want 3", n)
	}
	// Values of a repeated key are grouped under its first position.
	want := "a 1\na 3\na 5\nb 2\nc 4\n\nmsg"
	if got := string(kv.Bytes()); got != want {
		t.Fatalf("Bytes = %q, want %q", got, want)
	}
}

func TestKVLMEscapingInverse(t *testing.T) {
	values := []string{
		"single",
		"",
		"two\nlines",
		"trailing newline\n",
		"\nleading newline",
		"already\n indented",
		"blank\n\nline",
	}
	kv := NewKVLM()
	for _, v := range values {
		kv.Add("k", []byte(v))
	}
	kv.Message = []byte("body\n\n with space\n")

	got, err := ParseKVLM(kv.Bytes())
	if err != nil {
		t.Fatalf("ParseKVLM: %v", err)
	}
	var parsed []string
	for _, v := range got.Values("k") {
		parsed = append(parsed, string(v))
	}
	if diff := cmp.Diff(values, parsed); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if string(got.Message) != string(kv.Message) {
		t.Errorf("message = %q, want %q", got.Message, kv.Message)
	}
}

func TestKVLMNoHeaders(t *testing.T) {
	kv, err := ParseKVLM([]byte("\njust a message"))
	if err != nil {
		t.Fatalf("ParseKVLM: %v", err)
	}
	if len(kv.Keys()) != 0 || string(kv.Message) != "just a message" {
		t.Fatalf("got keys %v message %q", kv.Keys(), kv.Message)
	}
}

func TestKVLMSetReplacesInPlace(t *testing.T) {
	kv := NewKVLM()
	kv.Add("object", []byte("x"))
	kv.Add("type", []byte("commit"))
	kv.Add("object", []byte("y"))
	kv.Set("object", []byte("z"))
	if got := string(kv.Bytes()); got != "object z\ntype commit\n\n" {
		t.Fatalf("Bytes = %q", got)
	}
}

func TestParseKVLMMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":                  "",
		"no separator":           "tree abc\n",
		"unterminated value":     "tree abc",
		"unterminated continued": "gpgsig a\n b",
		"line without value":     "tree\n\nmsg",
		"empty key":              " value\n\nmsg",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseKVLM([]byte(raw)); !errors.Is(err, ErrMalformedObject) {
				t.Fatalf("got %v, want ErrMalformedObject", err)
			}
		})
	}
}

func TestParseKVLMManyHeaders(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50000; i++ {
		b.WriteString("parent 0123456789abcdef0123456789abcdef01234567\n")
	}
	b.WriteString("\nmerge\n")
	kv, err := ParseKVLM([]byte(b.String()))
	if err != nil {
		t.Fatalf("ParseKVLM: %v", err)
	}
	if n := len(kv.Values("parent")); n != 50000 {
		t.Fatalf("parents = %d", n)
	}
}
