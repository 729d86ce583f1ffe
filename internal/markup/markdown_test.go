package markup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeForMarkdown(t *testing.T) {
	require.Equal(
		t,
		`Prices up 18% \- details \(inside\)\!`,
		EscapeForMarkdown("Prices up 18% - details (inside)!"),
	)
	require.Equal(t, "plain text stays", EscapeForMarkdown("plain text stays"))
}
