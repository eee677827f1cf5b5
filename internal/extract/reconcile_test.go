package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dom(text string) Candidate {
	return Candidate{Text: text, Origin: OriginDOM, RawLength: len(text)}
}

func styleTag(text string) Candidate {
	c := dom(text)
	c.Fallback = true
	return c
}

func TestReconcileStyleElementFallback(t *testing.T) {
	view := []Candidate{dom("<button>Hi</button>"), styleTag(".btn{color:red;}")}

	res := Reconcile(Inputs{HTMLView: view, CSSView: view}, DefaultThresholds())

	assert.Equal(t, "<button>Hi</button>", res.HTML)
	assert.Equal(t, ".btn{color:red;}", res.CSS)
	assert.Equal(t, Provenance{HTML: OriginDOM, CSS: OriginDOM}, res.Provenance)
	assert.True(t, res.Success())
}

func TestReconcileCodeBlockBeatsStyleElement(t *testing.T) {
	htmlView := []Candidate{dom(`<div class="card"></div>`), styleTag("body{margin:0;padding:0;font-family:sans-serif;}")}
	cssView := []Candidate{dom(".card{width:190px;}"), styleTag("body{margin:0;padding:0;font-family:sans-serif;}")}

	res := Reconcile(Inputs{HTMLView: htmlView, CSSView: cssView}, DefaultThresholds())

	assert.Equal(t, ".card{width:190px;}", res.CSS)
}

func TestReconcileSynthesizesFromCSSOnly(t *testing.T) {
	view := []Candidate{dom(".card:hover{cursor:pointer;}")}

	res := Reconcile(Inputs{HTMLView: view, CSSView: view}, DefaultThresholds())

	assert.Equal(t, `<button class="card">Button</button>`, res.HTML)
	assert.Equal(t, ".card:hover{cursor:pointer;}", res.CSS)
	assert.Equal(t, OriginSynthesized, res.Provenance.HTML)
	assert.Equal(t, OriginDOM, res.Provenance.CSS)
}

func TestReconcileSkipsLicenseText(t *testing.T) {
	license := "<p>Permission is hereby granted, free of charge, to any person obtaining a copy</p>"
	htmlView := []Candidate{dom(license), dom(`<a class="link">x</a>`)}

	res := Reconcile(Inputs{HTMLView: htmlView}, DefaultThresholds())

	assert.Equal(t, `<a class="link">x</a>`, res.HTML)
	assert.Empty(t, res.CSS)
}

func TestReconcileNothingFound(t *testing.T) {
	res := Reconcile(Inputs{HTMLView: []Candidate{dom("Copy"), dom("")}}, DefaultThresholds())

	assert.Equal(t, Result{}, res)
	assert.False(t, res.Success())
}

func TestRepairSwapsMisplacedFields(t *testing.T) {
	res := repair(Result{
		HTML:       ".a{color:red;}",
		CSS:        `<div class="a">x</div>`,
		Provenance: Provenance{HTML: OriginNetwork, CSS: OriginState},
	})

	assert.Equal(t, `<div class="a">x</div>`, res.HTML)
	assert.Equal(t, ".a{color:red;}", res.CSS)
	assert.Equal(t, Provenance{HTML: OriginState, CSS: OriginNetwork}, res.Provenance)
}

func TestRepairMovesStylesheetOutOfHTML(t *testing.T) {
	res := repair(Result{HTML: ".box{width:1px;}", Provenance: Provenance{HTML: OriginDOM}})

	assert.Equal(t, ".box{width:1px;}", res.CSS)
	assert.Equal(t, `<div class="box"></div>`, res.HTML)
	assert.Equal(t, Provenance{HTML: OriginSynthesized, CSS: OriginDOM}, res.Provenance)
}

func TestRepairDropsNonMarkup(t *testing.T) {
	res := repair(Result{HTML: "just words", Provenance: Provenance{HTML: OriginDOM}})

	assert.Equal(t, Result{}, res)
}

func TestReconcileNetworkPreference(t *testing.T) {
	domHTML := `<div class="card"><p>This is a reasonably long piece of markup</p></div>`
	domCSS := ".card{color:red;}"
	base := Inputs{
		HTMLView: []Candidate{dom(domHTML)},
		CSSView:  []Candidate{dom(domCSS)},
	}

	t.Run("materially longer pair wins", func(t *testing.T) {
		in := base
		in.Network = []Pair{{
			HTML:   domHTML + `<span class="card-badge">new</span>`,
			CSS:    ".card{color:red;padding:10px;margin:4px;border:1px solid #000;} .card-badge{top:0;}",
			Origin: OriginNetwork,
		}}

		res := Reconcile(in, DefaultThresholds())

		assert.Equal(t, in.Network[0].HTML, res.HTML)
		assert.Equal(t, in.Network[0].CSS, res.CSS)
		assert.Equal(t, Provenance{HTML: OriginNetwork, CSS: OriginNetwork}, res.Provenance)
	})

	t.Run("shorter pair loses to complete DOM", func(t *testing.T) {
		in := base
		in.Network = []Pair{{HTML: `<div class="card">x</div>`, CSS: ".card{color:blue;}", Origin: OriginNetwork}}

		res := Reconcile(in, DefaultThresholds())

		assert.Equal(t, domHTML, res.HTML)
		assert.Equal(t, domCSS, res.CSS)
		assert.Equal(t, Provenance{HTML: OriginDOM, CSS: OriginDOM}, res.Provenance)
	})

	t.Run("short DOM markup is replaced", func(t *testing.T) {
		in := Inputs{
			HTMLView: []Candidate{dom(`<b class="x">hi</b>`)},
			CSSView:  []Candidate{dom(".x{color:red;}")},
			Network:  []Pair{{HTML: `<i class="y">z</i>`, CSS: ".y{color:blue;}", Origin: OriginNetwork}},
		}

		res := Reconcile(in, DefaultThresholds())

		assert.Equal(t, `<i class="y">z</i>`, res.HTML)
		assert.Equal(t, ".y{color:blue;}", res.CSS)
	})

	t.Run("class cross-reference wins", func(t *testing.T) {
		in := Inputs{
			HTMLView: []Candidate{dom("<section><p>Some markup that does not use any declared class</p></section>")},
			CSSView:  []Candidate{dom(".zzz{color:red;}")},
			Network:  []Pair{{HTML: `<div class="k">k</div>`, CSS: ".k{color:red;}", Origin: OriginNetwork}},
		}

		res := Reconcile(in, DefaultThresholds())

		assert.Equal(t, `<div class="k">k</div>`, res.HTML)
		assert.Equal(t, ".k{color:red;}", res.CSS)
	})
}

func TestReconcileStateWhenDOMEmpty(t *testing.T) {
	in := Inputs{
		State: []Pair{{HTML: `<p class="s">s</p>`, CSS: ".s{color:red;}", Origin: OriginState}},
	}

	res := Reconcile(in, DefaultThresholds())

	assert.Equal(t, `<p class="s">s</p>`, res.HTML)
	assert.Equal(t, Provenance{HTML: OriginState, CSS: OriginState}, res.Provenance)
}

func TestReconcileSynthesizesAfterMerge(t *testing.T) {
	in := Inputs{Network: []Pair{{CSS: ".chip{cursor:pointer;}", Origin: OriginNetwork}}}

	res := Reconcile(in, DefaultThresholds())

	assert.Equal(t, `<button class="chip">Button</button>`, res.HTML)
	assert.Equal(t, Provenance{HTML: OriginSynthesized, CSS: OriginNetwork}, res.Provenance)
}

func TestReconcileResynthesizesWhenStylesheetReplaced(t *testing.T) {
	in := Inputs{
		CSSView: []Candidate{dom(".a:hover{color:red;}")},
		Network: []Pair{{CSS: ".b{color:red;}", Origin: OriginNetwork}},
	}

	res := Reconcile(in, DefaultThresholds())

	assert.Equal(t, ".b{color:red;}", res.CSS)
	assert.Equal(t, `<div class="b"></div>`, res.HTML)
	assert.Equal(t, OriginSynthesized, res.Provenance.HTML)
}

func TestReconcileDeterministic(t *testing.T) {
	in := Inputs{
		HTMLView: []Candidate{dom("<i>1</i>"), dom("<b>2</b>")},
		CSSView:  []Candidate{dom(".a{b:c;}"), dom(".d{e:f;}")},
		Network: []Pair{
			{HTML: `<u class="n">1</u>`, CSS: ".n{x:y;}", Origin: OriginNetwork},
			{HTML: `<u class="m">2</u>`, CSS: ".m{x:y;}", Origin: OriginNetwork},
		},
	}

	first := Reconcile(in, DefaultThresholds())
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Reconcile(in, DefaultThresholds()))
	}
	assert.Equal(t, `<u class="n">1</u>`, first.HTML)
}
