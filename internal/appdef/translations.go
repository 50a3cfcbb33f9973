package appdef

import "github.com/verte-zerg/appdef/internal/xmltree"

// extractTranslationMappings returns nil when the document has no <translation-mappings>.
func extractTranslationMappings(root *xmltree.Node, d *diagnostics) TranslationMappings {
	list := root.First("translation-mappings")
	if list == nil {
		return nil
	}
	mappings := TranslationMappings{}
	for i, tm := range list.Elements("tm") {
		id, ok := tm.Attr("id")
		if !ok || id == "" {
			d.skip(SectionTranslations, "mapping %d has no id attribute", i)
			continue
		}
		localizations := map[string]string{}
		for _, t := range tm.Elements("t") {
			lang, ok := t.Attr("lang")
			if !ok {
				d.skip(SectionTranslations, "mapping %q has a translation without lang attribute", id)
				continue
			}
			localizations[lang] = t.Text()
		}
		mappings[id] = localizations
	}
	return mappings
}

// extractKeys returns nil when the document has no <keys>.
func extractKeys(root *xmltree.Node) []string {
	list := root.First("keys")
	if list == nil {
		return nil
	}
	tags := list.Elements("key")
	keys := make([]string, 0, len(tags))
	for _, key := range tags {
		keys = append(keys, key.Text())
	}
	return keys
}
