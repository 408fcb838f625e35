package sanitize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTextStripsAllHTML(t *testing.T) {
	require.Equal(t, "Jazz night", Text("<b>Jazz</b> night"))
	require.Equal(t, "", Text("<script>alert(1)</script>"))
	require.Equal(t, "plain", Text("plain"))
}

func TestHTMLKeepsSafeFormatting(t *testing.T) {
	require.Equal(t, "<p>Doors at <strong>7pm</strong></p>", HTML("<p>Doors at <strong>7pm</strong></p>"))
	require.NotContains(t, HTML(`<p onclick="steal()">hi</p>`), "onclick")
	require.NotContains(t, HTML("<script>alert(1)</script>ok"), "script")
}
