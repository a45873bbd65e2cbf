package capabilities

import "testing"

func TestFindSemanticTokensAlwaysNil(t *testing.T) {
	a, _ := buildHoverFixture()
	if toks := FindSemanticTokens(a); toks != nil {
		t.Fatalf("expected nil semantic tokens, got %+v", toks)
	}
}
