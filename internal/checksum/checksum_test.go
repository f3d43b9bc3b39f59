package checksum

import "testing"

func TestSumStable(t *testing.T) {
	if Sum([]byte("a")) != Sum([]byte("a")) {
		t.Fatal("digest not stable")
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Fatal("distinct inputs collide")
	}
	if got := Sum(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("empty digest = %s", got)
	}
}

func TestJSON(t *testing.T) {
	a, err := JSON(map[string]int{"x": 1})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := JSON(map[string]int{"x": 1})
	if a != b || a != Sum([]byte(`{"x":1}`)) {
		t.Errorf("JSON digest mismatch: %s %s", a, b)
	}
}
