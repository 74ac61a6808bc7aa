package filter

import (
	"crypto/md5"
	"fmt"
	"testing"

	"github.com/maxvaer/confscan/internal/scanner"
)

func TestDuplicateFilterAllowsUpToThreshold(t *testing.T) {
	f := NewDuplicateFilter(3)
	hash := md5.Sum([]byte("login page content"))

	for i := 1; i <= 3; i++ {
		if f.ShouldFilter(&scanner.Result{StatusCode: 200, BodyHash: hash}) {
			t.Errorf("call %d: should not filter (threshold 3)", i)
		}
	}
	if !f.ShouldFilter(&scanner.Result{StatusCode: 200, BodyHash: hash}) {
		t.Error("call 4: should filter")
	}
}

func TestDuplicateFilterSeparatesStatusCodes(t *testing.T) {
	f := NewDuplicateFilter(1)
	hash := md5.Sum([]byte("same body"))

	r200 := &scanner.Result{StatusCode: 200, BodyHash: hash}
	r500 := &scanner.Result{StatusCode: 500, BodyHash: hash}

	if f.ShouldFilter(r200) || f.ShouldFilter(r500) {
		t.Fatal("first of each status should pass")
	}
	if !f.ShouldFilter(r200) || !f.ShouldFilter(r500) {
		t.Error("second of each status should be filtered")
	}
}

func TestDuplicateFilterLooseShape(t *testing.T) {
	f := NewDuplicateFilter(2) // loose threshold max(6, 5) = 6

	for i := 0; i < 12; i++ {
		body := fmt.Sprintf("<html>login page /app/login/path%d</html>", i)
		r := &scanner.Result{
			StatusCode: 200,
			BodyHash:   md5.Sum([]byte(body)),
			WordCount:  320,
			LineCount:  150,
		}
		filtered := f.ShouldFilter(r)
		if i < 6 && filtered {
			t.Errorf("call %d: should pass", i)
		}
		if i >= 6 && !filtered {
			t.Errorf("call %d: should be filtered", i)
		}
	}
}

func TestDuplicateFilterUniqueResponses(t *testing.T) {
	f := NewDuplicateFilter(1)
	for i := 0; i < 50; i++ {
		r := &scanner.Result{
			StatusCode: 200,
			BodyHash:   md5.Sum([]byte{byte(i)}),
			WordCount:  i * 10,
			LineCount:  i * 5,
		}
		if f.ShouldFilter(r) {
			t.Errorf("unique response %d filtered", i)
		}
	}
}
