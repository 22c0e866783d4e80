package keyhash

import "testing"

func TestHashIsDeterministic(t *testing.T) {
	p1, s1 := Hash([]byte("same-key"))
	p2, s2 := Hash([]byte("same-key"))
	if p1 != p2 || s1 != s2 {
		t.Fatalf("Hash is not deterministic: (%d,%d) vs (%d,%d)", p1, s1, p2, s2)
	}
}

func TestHashDistinguishesKeys(t *testing.T) {
	p1, s1 := Hash([]byte("key-a"))
	p2, s2 := Hash([]byte("key-b"))
	if p1 == p2 && s1 == s2 {
		t.Fatalf("distinct keys hashed to the same (primary, secondary) pair")
	}
}

func TestHashOfEmptyKeyDoesNotPanic(t *testing.T) {
	Hash(nil)
	Hash([]byte{})
}
