package secret

import "testing"

func TestSealOpenRoundTrip(t *testing.T) {
	sealed, err := Seal("hunter2", "the launch codes")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if sealed == "the launch codes" || sealed == "" {
		t.Fatalf("sealed content should not be plaintext: %q", sealed)
	}
	plain, err := Open("hunter2", sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if plain != "the launch codes" {
		t.Fatalf("round trip mismatch: %q", plain)
	}
}

func TestOpenWrongPassword(t *testing.T) {
	sealed, err := Seal("right", "content")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := Open("wrong", sealed); err != ErrWrongPassword {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestSealProducesDistinctCiphertexts(t *testing.T) {
	first, err := Seal("pw", "same content")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	second, err := Seal("pw", "same content")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if first == second {
		t.Fatal("expected random salt/nonce to vary ciphertext")
	}
}

func TestOpenMalformedInput(t *testing.T) {
	for _, sealed := range []string{"", "not-base64!!", "c2hvcnQ="} {
		if _, err := Open("pw", sealed); err == nil {
			t.Fatalf("Open(%q): expected error", sealed)
		}
	}
}

func TestSealRequiresPassword(t *testing.T) {
	if _, err := Seal("", "content"); err == nil {
		t.Fatal("expected error for empty password")
	}
}
