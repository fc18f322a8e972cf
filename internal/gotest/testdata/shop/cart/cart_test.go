package cart

import (
	"fmt"
	"os"
	"testing"
)

func TestTotal(t *testing.T) {
	if got := Total(1, 2, 3); got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
}

func TestTotal_broken(t *testing.T) {
	if os.Getenv("SHOP_FAIL") == "1" {
		t.Errorf("expected %d, got %d", 7, Total(1, 2, 3))
	}
}

func TestTotal_table(t *testing.T) {
	for _, n := range []int{1, 2} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			if Total(n) != n {
				t.Fail()
			}
		})
	}
}

func TestTotal_skipped(t *testing.T) {
	t.Skip("not today")
}

func Testhelper(t *testing.T) {}

func helper() int { return 42 }

func ExampleTotal() {
	fmt.Println(Total(2, 3))
	// Output: 5
}

func ExampleTotal_silent() {
	_ = Total(2, 3)
}
