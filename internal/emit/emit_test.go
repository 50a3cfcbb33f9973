package emit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/appdef/internal/appdef"
)

func sampleConfig() *appdef.Configuration {
	present := "yes"
	name := "Genesis"
	file := "GEN.usfm"
	return &appdef.Configuration{
		Name:         "Sample <App>",
		MainFeatures: appdef.Features{"count": appdef.IntValue(3), "on": appdef.BoolValue(true)},
		Fonts:        []appdef.Font{{Name: "Charis", Family: "charis", File: "c.ttf", FontWeight: "normal", FontStyle: "normal"}},
		Themes: []appdef.ColorTheme{{
			Name:      "Normal",
			Enabled:   true,
			ColorSets: []appdef.ColorSet{{Type: "main", Colors: map[string]string{"Primary": "#000"}}},
		}},
		DefaultTheme: "Normal",
		Traits:       appdef.Traits{"present": &present, "absent": nil},
		BookCollections: []appdef.BookCollection{{
			ID:           "C01",
			Features:     appdef.Features{},
			LanguageCode: "en",
			LanguageName: "English",
			Books: []appdef.Book{{
				ID:       "GEN",
				Name:     &name,
				Chapters: 50,
				File:     &file,
				Audio:    []appdef.AudioTrack{{Num: 1, Src: "a", Len: 10, Size: 20}},
			}},
		}},
		Audio: &appdef.AudioConfig{Sources: map[string]appdef.AudioSource{
			"s1": appdef.AssetsSource{Type: "assets", Name: "Bundled"},
			"s2": appdef.DownloadSource{Type: "download", Name: "Remote", AccessMethods: []string{"stream"}, Folder: "f", Address: "https://x"},
		}},
	}
}

func TestRenderModule(t *testing.T) {
	data, err := Render(sampleConfig(), FormatJS, false)
	require.NoError(t, err)
	out := string(data)
	require.True(t, strings.HasPrefix(out, "export default {"))
	require.True(t, strings.HasSuffix(out, "};\n"))

	body := strings.TrimSuffix(strings.TrimPrefix(out, "export default "), ";\n")
	require.True(t, gjson.Valid(body))
	assert.Equal(t, "Sample <App>", gjson.Get(body, "name").String())
	assert.Equal(t, int64(3), gjson.Get(body, "mainFeatures.count").Int())
	assert.Equal(t, "yes", gjson.Get(body, "traits.present").String())
	assert.False(t, gjson.Get(body, "traits.absent").Exists())
	assert.Equal(t, "download", gjson.Get(body, "audio.sources.s2.type").String())
	assert.False(t, gjson.Get(body, "keys").Exists())
	assert.NotContains(t, body, "\n")
}

func TestRenderIsDeterministic(t *testing.T) {
	first, err := Render(sampleConfig(), FormatJSON, true)
	require.NoError(t, err)
	second, err := Render(sampleConfig(), FormatJSON, true)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.Contains(t, string(first), "\n  \"name\"")
}

func TestRenderYAMLMatchesJSONKeys(t *testing.T) {
	jsonData, err := Render(sampleConfig(), FormatJSON, false)
	require.NoError(t, err)
	yamlData, err := Render(sampleConfig(), FormatYAML, false)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(yamlData, &decoded))

	gjson.ParseBytes(jsonData).ForEach(func(key, _ gjson.Result) bool {
		assert.Contains(t, decoded, key.String())
		return true
	})
	assert.Len(t, decoded, len(gjson.ParseBytes(jsonData).Map()))
	assert.Equal(t, 3, decoded["mainFeatures"].(map[string]any)["count"])
	assert.Equal(t, map[string]any{"present": "yes"}, decoded["traits"])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" YAML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("toml")
	assert.Error(t, err)
	assert.Equal(t, filepath.Join("src", "config.js"), DefaultPath(FormatJS))
}

func TestRenderNil(t *testing.T) {
	_, err := Render(nil, FormatJS, false)
	assert.Error(t, err)
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src", "config.js")
	require.NoError(t, WriteFile(path, []byte("first")))
	require.NoError(t, WriteFile(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
