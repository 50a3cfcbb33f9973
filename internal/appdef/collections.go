package appdef

import (
	"fmt"
	"regexp"

	"github.com/verte-zerg/appdef/internal/xmltree"
)

// CanonicalBookExt replaces whatever extension a book source file declares.
const CanonicalBookExt = ".usfm"

var bookExtPattern = regexp.MustCompile(`\.\w*$`)

// CanonicalSourceFile rewrites the extension of a book source file to CanonicalBookExt.
func CanonicalSourceFile(name string) string {
	return bookExtPattern.ReplaceAllString(name, CanonicalBookExt)
}

func extractCollections(root *xmltree.Node, d *diagnostics) ([]BookCollection, error) {
	tags := root.Elements("books")
	collections := make([]BookCollection, 0, len(tags))
	for i, tag := range tags {
		c, err := extractCollection(tag, collectionSection(tag, i), d)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, nil
}

func collectionSection(tag *xmltree.Node, index int) string {
	if id, ok := tag.Attr("id"); ok && id != "" {
		return fmt.Sprintf("%s[%s]", SectionCollections, id)
	}
	return fmt.Sprintf("%s[%d]", SectionCollections, index)
}

func extractCollection(tag *xmltree.Node, section string, d *diagnostics) (BookCollection, error) {
	features, err := featureSet(tag, "bc", section, d)
	if err != nil {
		return BookCollection{}, err
	}
	bookTags := tag.Elements("book")
	books := make([]Book, 0, len(bookTags))
	for i, bookTag := range bookTags {
		book, err := extractBook(bookTag, bookSection(bookTag, section, i))
		if err != nil {
			return BookCollection{}, err
		}
		books = append(books, book)
	}
	style, err := extractStyle(tag, section)
	if err != nil {
		return BookCollection{}, err
	}
	langCode, langName, err := extractWritingSystem(tag, section)
	if err != nil {
		return BookCollection{}, err
	}
	return BookCollection{
		ID:                     tag.AttrOr("id", ""),
		CollectionName:         textOr(tag, "book-collection-name", ""),
		CollectionAbbreviation: textOr(tag, "book-collection-abbrev", ""),
		CollectionDescription:  textOr(tag, "book-collection-description", ""),
		Features:               features,
		LanguageCode:           langCode,
		LanguageName:           langName,
		Style:                  style,
		Books:                  books,
	}, nil
}

func bookSection(tag *xmltree.Node, collection string, index int) string {
	if id, ok := tag.Attr("id"); ok && id != "" {
		return fmt.Sprintf("%s.book[%s]", collection, id)
	}
	return fmt.Sprintf("%s.book[%d]", collection, index)
}

func extractBook(tag *xmltree.Node, section string) (Book, error) {
	id, err := requiredAttr(tag, section, "id")
	if err != nil {
		return Book{}, err
	}
	chapters, err := requiredIntElementAttr(tag, section, "ct", "c")
	if err != nil {
		return Book{}, err
	}
	chaptersN, err := requiredElementAttr(tag, section, "cn", "value")
	if err != nil {
		return Book{}, err
	}
	audio, err := extractAudioTracks(tag, section)
	if err != nil {
		return Book{}, err
	}
	book := Book{
		ID:           id,
		Name:         optionalText(tag, "n"),
		Abbreviation: optionalText(tag, "v"),
		Testament:    optionalText(tag, "g"),
		Section:      optionalText(tag, "sg"),
		Chapters:     chapters,
		ChaptersN:    chaptersN,
		Audio:        audio,
	}
	// Only the book's own <f>; page audio carries <f> elements too.
	if f := tag.Child("f"); f != nil {
		file := CanonicalSourceFile(f.Text())
		book.File = &file
	}
	return book, nil
}

// extractAudioTracks reads one track per page that carries an <audio> element.
func extractAudioTracks(book *xmltree.Node, section string) ([]AudioTrack, error) {
	tracks := []AudioTrack{}
	for _, page := range book.Elements("page") {
		audio := page.First("audio")
		if audio == nil {
			continue
		}
		track, err := extractAudioTrack(page, audio, section+".page")
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

func extractAudioTrack(page, audio *xmltree.Node, section string) (AudioTrack, error) {
	var (
		track AudioTrack
		err   error
	)
	if track.Num, err = requiredIntAttr(page, section, "num"); err != nil {
		return AudioTrack{}, err
	}
	section = fmt.Sprintf("%s[%d].audio", section, track.Num)
	f, err := requiredElement(audio, section, "f")
	if err != nil {
		return AudioTrack{}, err
	}
	if track.Src, err = requiredAttr(f, section+".f", "src"); err != nil {
		return AudioTrack{}, err
	}
	if track.Len, err = requiredIntAttr(f, section+".f", "len"); err != nil {
		return AudioTrack{}, err
	}
	if track.Size, err = requiredIntAttr(f, section+".f", "size"); err != nil {
		return AudioTrack{}, err
	}
	track.Filename = f.Text()
	if track.TimingFile, err = requiredText(audio, section, "y"); err != nil {
		return AudioTrack{}, err
	}
	return track, nil
}

// extractStyle reads <styles-info>; all six fields are required by the renderer.
func extractStyle(tag *xmltree.Node, section string) (Style, error) {
	section = section + ".styles-info"
	info := tag.First("styles-info")
	if info == nil {
		return Style{}, missing(section, "<styles-info>")
	}
	var (
		style Style
		err   error
	)
	if style.Font, err = requiredElementAttr(info, section, "text-font", "family"); err != nil {
		return Style{}, err
	}
	if style.LineHeight, err = requiredIntElementAttr(info, section, "line-height", "value"); err != nil {
		return Style{}, err
	}
	if style.NumeralSystem, err = requiredElementAttr(info, section, "numeral-system", "value"); err != nil {
		return Style{}, err
	}
	if style.TextDirection, err = requiredElementAttr(info, section, "text-direction", "value"); err != nil {
		return Style{}, err
	}
	if style.TextSize, err = requiredIntElementAttr(info, section, "text-size", "value"); err != nil {
		return Style{}, err
	}
	if style.VerseNumbers, err = requiredElementAttr(info, section, "verse-number-style", "value"); err != nil {
		return Style{}, err
	}
	return style, nil
}

func extractWritingSystem(tag *xmltree.Node, section string) (code, name string, err error) {
	section = section + ".writing-system"
	ws := tag.First("writing-system")
	if ws == nil {
		return "", "", missing(section, "<writing-system>")
	}
	if code, err = requiredAttr(ws, section, "code"); err != nil {
		return "", "", err
	}
	names, err := requiredElement(ws, section, "display-names")
	if err != nil {
		return "", "", err
	}
	if name, err = requiredText(names, section+".display-names", "form"); err != nil {
		return "", "", err
	}
	return code, name, nil
}
