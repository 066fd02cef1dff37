package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parseDoc(t *testing.T, markup string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func TestHasClassAndClassContains(t *testing.T) {
	doc := parseDoc(t, `<div class="result results_links web-result"><a class="result__a" href="/x">X</a></div>`)

	div := FindAll(doc, atom.Div)[0]
	assert.True(t, HasClass(div, "result"))
	assert.False(t, HasClass(div, "result__a"))
	assert.True(t, ClassContains(div, []string{"links"}))
	assert.False(t, ClassContains(div, []string{"content"}))
}

func TestNodeText(t *testing.T) {
	doc := parseDoc(t, `<p>Risk <b>management</b>   policy</p>`)

	p := FindAll(doc, atom.P)[0]
	assert.Equal(t, "Risk management policy", NodeText(p, " "))
	assert.Equal(t, "Riskmanagementpolicy", NodeText(p, ""))
}

func TestRemoveElements(t *testing.T) {
	doc := parseDoc(t, `<body><nav>menu</nav><p>body text</p><script>var x;</script></body>`)

	RemoveElements(doc, atom.Nav, atom.Script)

	assert.Empty(t, FindAll(doc, atom.Nav, atom.Script))
	assert.Equal(t, "body text", NodeText(doc, " "))
}

func TestFindFirst(t *testing.T) {
	doc := parseDoc(t, `<div><a href="/a">a</a><a class="hit" href="/b">b</a></div>`)

	found := FindFirst(doc, func(n *html.Node) bool { return HasClass(n, "hit") })

	require.NotNil(t, found)
	assert.Equal(t, "/b", Attr(found, "href"))
	assert.Nil(t, FindFirst(doc, func(n *html.Node) bool { return HasClass(n, "missing") }))
}
