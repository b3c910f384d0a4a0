package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeywordsLookup(t *testing.T) {
	kind, ok := Keywords["print"]
	require.True(t, ok)
	require.Equal(t, Print, kind)

	_, ok = Keywords["notAKeyword"]
	require.False(t, ok)
}

func TestNewLiteralCarriesValue(t *testing.T) {
	tok := NewLiteral(Number, "3.5", 3.5, 1)
	require.Equal(t, Number, tok.Kind)
	require.Equal(t, 3.5, tok.Literal)
	require.Equal(t, "3.5", tok.Lexeme)
}

func TestTokenStringIncludesLine(t *testing.T) {
	tok := New(Plus, "+", 7)
	require.Contains(t, tok.String(), "line:7")
}
