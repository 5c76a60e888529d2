package kernel

import "testing"

func TestMemoryAdvice_ScriptRoundtrip(t *testing.T) {
	m := NewMemoryAdvice()
	root := k(1)
	if _, ok := m.Script(root); ok {
		t.Fatalf("expected no script recorded yet")
	}
	m.PutScript(root, []byte{0xDE, 0xAD})
	got, ok := m.Script(root)
	if !ok || string(got) != "\xde\xad" {
		t.Fatalf("got=%v,%v, want [0xDE 0xAD],true", got, ok)
	}
}

func TestMemoryAdvice_NoteInputsRoundtrip(t *testing.T) {
	m := NewMemoryAdvice()
	commitment := k(2)
	inputs := []Felt{NewFelt(1), NewFelt(2), NewFelt(3)}
	m.PutNoteInputs(commitment, inputs)
	got, ok := m.NoteInputs(commitment)
	if !ok || len(got) != 3 || got[1] != NewFelt(2) {
		t.Fatalf("got=%v,%v, want %v,true", got, ok, inputs)
	}
}

func TestMemoryAdvice_NoteAssetsRoundtrip(t *testing.T) {
	m := NewMemoryAdvice()
	commitment := k(3)
	assets := []Word{k(10), k(20)}
	m.PutNoteAssets(commitment, assets)
	got, ok := m.NoteAssets(commitment)
	if !ok || len(got) != 2 || got[0] != k(10) {
		t.Fatalf("got=%v,%v, want %v,true", got, ok, assets)
	}
}

func TestMemoryAdvice_DistinctKeysDoNotCollide(t *testing.T) {
	m := NewMemoryAdvice()
	m.PutScript(k(1), []byte{1})
	m.PutScript(k(2), []byte{2})
	a, _ := m.Script(k(1))
	b, _ := m.Script(k(2))
	if a[0] == b[0] {
		t.Fatalf("expected distinct roots to store distinct script bytes")
	}
}
