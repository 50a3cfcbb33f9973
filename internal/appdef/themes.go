package appdef

import "github.com/verte-zerg/appdef/internal/xmltree"

type colorDefinition struct {
	name   string
	values map[string]string // theme name -> color
}

type colorGroup struct {
	typ    string
	colors []colorDefinition
}

// collectColorGroups reads every <colors> block of the document once.
func collectColorGroups(root *xmltree.Node) []colorGroup {
	tags := root.Elements("colors")
	groups := make([]colorGroup, 0, len(tags))
	for _, tag := range tags {
		group := colorGroup{typ: tag.AttrOr("type", "")}
		for _, color := range tag.Elements("color") {
			def := colorDefinition{name: color.AttrOr("name", ""), values: map[string]string{}}
			for _, cm := range color.Elements("cm") {
				theme, ok := cm.Attr("theme")
				if !ok {
					continue
				}
				if _, seen := def.values[theme]; seen {
					continue
				}
				def.values[theme] = cm.AttrOr("value", "")
			}
			group.colors = append(group.colors, def)
		}
		groups = append(groups, group)
	}
	return groups
}

// colorSetFor keeps only the colors that define a non-empty value for theme.
func (g colorGroup) colorSetFor(theme string) ColorSet {
	colors := map[string]string{}
	for _, def := range g.colors {
		value := def.values[theme]
		if def.name != "" && value != "" {
			colors[def.name] = value
		}
	}
	return ColorSet{Type: g.typ, Colors: colors}
}

type themeResult struct {
	themes       []ColorTheme
	defaultTheme string
}

func extractThemes(root *xmltree.Node) (themeResult, error) {
	list, err := requiredElement(root, SectionThemes, "color-themes")
	if err != nil {
		return themeResult{}, err
	}
	groups := collectColorGroups(root)

	tags := list.Elements("color-theme")
	res := themeResult{themes: make([]ColorTheme, 0, len(tags))}
	for _, tag := range tags {
		name, err := requiredAttr(tag, SectionThemes+".color-theme", "name")
		if err != nil {
			return themeResult{}, err
		}
		theme := ColorTheme{
			Name:      name,
			Enabled:   tag.AttrOr("enabled", "") == "true",
			ColorSets: make([]ColorSet, 0, len(groups)),
		}
		for _, g := range groups {
			theme.ColorSets = append(theme.ColorSets, g.colorSetFor(name))
		}
		res.themes = append(res.themes, theme)
		// Last theme marked default wins.
		if tag.AttrOr("default", "") == "true" {
			res.defaultTheme = name
		}
	}
	return res, nil
}
