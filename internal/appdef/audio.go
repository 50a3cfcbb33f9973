package appdef

import (
	"strings"

	"github.com/verte-zerg/appdef/internal/xmltree"
)

const accessMethodSeparator = "|"

// extractAudioSources returns nil when there is no <audio-sources> block or it is empty.
func extractAudioSources(root *xmltree.Node, d *diagnostics) (*AudioConfig, error) {
	list := root.First("audio-sources")
	if list == nil {
		return nil, nil
	}
	tags := list.Elements("audio-source")
	if len(tags) == 0 {
		return nil, nil
	}
	sources := make(map[string]AudioSource, len(tags))
	for i, tag := range tags {
		id, ok := tag.Attr("id")
		if !ok {
			d.skip(SectionAudioSources, "audio source %d has no id attribute", i)
			continue
		}
		src, err := extractAudioSource(tag, SectionAudioSources+"["+id+"]")
		if err != nil {
			return nil, err
		}
		sources[id] = src
	}
	return &AudioConfig{Sources: sources}, nil
}

func extractAudioSource(tag *xmltree.Node, section string) (AudioSource, error) {
	typ := tag.AttrOr("type", "")
	name := textOr(tag, "name", "")

	switch typ {
	case SourceAssets:
		return AssetsSource{Type: typ, Name: name}, nil
	case SourceDownload:
		methods, folder, err := remoteLocation(tag, section)
		if err != nil {
			return nil, err
		}
		address, err := requiredText(tag, section, "address")
		if err != nil {
			return nil, err
		}
		return DownloadSource{
			Type:          typ,
			Name:          name,
			AccessMethods: methods,
			Folder:        folder,
			Address:       address,
		}, nil
	case SourceFcbh:
		methods, folder, err := remoteLocation(tag, section)
		if err != nil {
			return nil, err
		}
		key, err := requiredText(tag, section, "key")
		if err != nil {
			return nil, err
		}
		damID, err := requiredText(tag, section, "dam-id")
		if err != nil {
			return nil, err
		}
		return FcbhSource{
			Type:          typ,
			Name:          name,
			AccessMethods: methods,
			Folder:        folder,
			Key:           key,
			DamID:         damID,
		}, nil
	default:
		return UnknownSource{Type: typ, Name: name}, nil
	}
}

// remoteLocation reads the fields shared by download and fcbh sources.
func remoteLocation(tag *xmltree.Node, section string) (methods []string, folder string, err error) {
	raw, err := requiredElementAttr(tag, section, "access-methods", "value")
	if err != nil {
		return nil, "", err
	}
	folder, err = requiredText(tag, section, "folder")
	if err != nil {
		return nil, "", err
	}
	return strings.Split(raw, accessMethodSeparator), folder, nil
}
