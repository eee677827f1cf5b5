package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmbeddedStatePair(t *testing.T) {
	doc := `<html><head>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"post":{"html":"<div class=\"card\"></div>","css":".card{width:10px;}"}}}}</script>
</head><body></body></html>`

	pairs, err := ParseEmbeddedState(doc, DefaultStateSelector, 5)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{HTML: `<div class="card"></div>`, CSS: ".card{width:10px;}", Origin: OriginState}, pairs[0])
}

func TestParseStateBlobStringFallback(t *testing.T) {
	raw := `{"props":{"a":"<span>hello</span>","b":"<section><p>longer markup</p></section>","c":".x{color:blue;}","d":"tiny"}}`

	pairs, err := ParseStateBlob(raw, 5)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "<section><p>longer markup</p></section>", pairs[0].HTML)
	assert.Equal(t, ".x{color:blue;}", pairs[0].CSS)
	assert.Equal(t, OriginState, pairs[0].Origin)
}

func TestParseStateBlobNothingUseful(t *testing.T) {
	pairs, err := ParseStateBlob(`{"props":{"title":"Hello world"}}`, 5)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestParseEmbeddedStateMissing(t *testing.T) {
	_, err := ParseEmbeddedState(`<html><body><p>no state</p></body></html>`, DefaultStateSelector, 5)
	assert.ErrorIs(t, err, ErrNoStateBlob)
}

func TestParseEmbeddedStateMalformed(t *testing.T) {
	doc := `<script id="__NEXT_DATA__">{"props": </script>`
	_, err := ParseEmbeddedState(doc, DefaultStateSelector, 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoStateBlob)
}
