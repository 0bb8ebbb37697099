package tocfile

import (
	"fmt"
	"io"

	"github.com/executablebooks/sphinx-external-toc/internal/schema"
	"github.com/executablebooks/sphinx-external-toc/toc"
)

// WriteToc serializes sm back to its declarative form and writes it to w.
func WriteToc(w io.Writer, src Source, sm *toc.SiteMap, opts ...toc.SerializeOption) error {
	data, err := toc.CreateTocDict(sm, opts...)
	if err != nil {
		return err
	}
	return Encode(w, src, data)
}

// WriteSnapshot writes the AsJSON view of sm after checking it against the
// embedded site-map schema.
func WriteSnapshot(w io.Writer, src Source, sm *toc.SiteMap) error {
	snap := sm.AsJSON()
	if err := schema.Validate("sitemap", snap); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}
	return Encode(w, src, snap)
}
