package capabilities

import (
	"strings"
	"testing"
)

func TestFindHoverOnCallExpr(t *testing.T) {
	a, store := buildHoverFixture()

	hover, ok := FindHover(a, []byte("func greet(){ hi() }"), store, p(1, 16))
	if !ok {
		t.Fatalf("expected a hover result")
	}
	if len(hover.Contents) != 1 {
		t.Fatalf("expected exactly one MarkedString, got %d", len(hover.Contents))
	}
	value := hover.Contents[0].Value
	if !strings.Contains(value, "func hi()") {
		t.Fatalf("hover value %q missing signature", value)
	}
	if !strings.Contains(value, "Unit") {
		t.Fatalf("hover value %q missing return type", value)
	}
}

func TestFindHoverOutsideAnyNode(t *testing.T) {
	a, store := buildHoverFixture()

	if _, ok := FindHover(a, nil, store, p(99, 99)); ok {
		t.Fatalf("expected no hover far outside the file's range")
	}
}

func TestFindHoverNilFile(t *testing.T) {
	a, store := buildHoverFixture()
	a.File = nil

	if _, ok := FindHover(a, nil, store, p(1, 16)); ok {
		t.Fatalf("expected no hover when the AST has no File node")
	}
}
