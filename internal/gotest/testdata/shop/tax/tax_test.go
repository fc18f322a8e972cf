package tax

import "testing"

func TestRate(t *testing.T) {
	if Rate() != 20 {
		t.Fail()
	}
}

func FuzzRate(f *testing.F) {
	f.Add(1)
	f.Fuzz(func(t *testing.T, n int) {
		_ = Rate() + n
	})
}
