package appdef

import (
	"fmt"

	"github.com/verte-zerg/appdef/internal/xmltree"
)

func extractFonts(root *xmltree.Node) ([]Font, error) {
	list, err := requiredElement(root, SectionFonts, "fonts")
	if err != nil {
		return nil, err
	}
	tags := list.Elements("font")
	fonts := make([]Font, 0, len(tags))
	for i, tag := range tags {
		font, err := extractFont(tag, fmt.Sprintf("%s[%d]", SectionFonts, i))
		if err != nil {
			return nil, err
		}
		fonts = append(fonts, font)
	}
	return fonts, nil
}

// Every field is required: a declared font that does not resolve breaks rendering.
func extractFont(tag *xmltree.Node, section string) (Font, error) {
	var (
		font Font
		err  error
	)
	if font.Family, err = requiredAttr(tag, section, "family"); err != nil {
		return Font{}, err
	}
	if font.Name, err = requiredText(tag, section, "font-name"); err != nil {
		return Font{}, err
	}
	if font.File, err = requiredText(tag, section, "f"); err != nil {
		return Font{}, err
	}
	if font.FontStyle, err = styleDecl(tag, section, "font-style"); err != nil {
		return Font{}, err
	}
	if font.FontWeight, err = styleDecl(tag, section, "font-weight"); err != nil {
		return Font{}, err
	}
	return font, nil
}

// styleDecl reads <sd property="prop" value="..."/>.
func styleDecl(tag *xmltree.Node, section, prop string) (string, error) {
	sd := tag.FirstWithAttr("sd", "property", prop)
	if sd == nil {
		return "", missing(section, `<sd property="`+prop+`">`)
	}
	return requiredAttr(sd, section+"."+prop, "value")
}
