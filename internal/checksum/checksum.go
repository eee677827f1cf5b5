package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// SnippetHash fingerprints a component's stored content as
// SHA256(len:id|len:html|len:css). Lengths keep "|" inside a snippet from
// making two different triples collide.
func (g *Generator) SnippetHash(id, html, css string) string {
	content := fmt.Sprintf("%d:%s|%d:%s|%d:%s", len(id), id, len(html), html, len(css), css)
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func (g *Generator) VerifySnippetHash(expectedHash, id, html, css string) bool {
	return g.SnippetHash(id, html, css) == expectedHash
}
