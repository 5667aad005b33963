package aspace

import (
	"html"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^<>]*>`)

const englishSentence = "The primary language of the materials is English."

// Note is a typed note from a record. Content holds the note text; multipart notes with
// no content of their own carry their subnotes instead.
type Note struct {
	Type     string   `json:"type"`
	Content  []string `json:"content"`
	Subnotes []Record `json:"subnotes,omitempty"`
}

// Text returns the note content, or the text of its subnotes when there is none
func (n Note) Text() []string {
	if len(n.Content) > 0 {
		return n.Content
	}
	out := make([]string, 0)
	for _, sub := range n.Subnotes {
		out = append(out, sub.Strings("content")...)
		for _, item := range sub.Objects("items") {
			out = append(out, item.Strings("value")...)
		}
	}
	return out
}

// RecordNotes returns the typed notes of a single record. Untyped notes are skipped.
func RecordNotes(rec Record) []Note {
	out := make([]Note, 0)
	for _, obj := range rec.Objects("notes") {
		noteType := obj.String("type")
		if noteType == "" {
			continue
		}
		note := Note{Type: noteType, Content: obj.Strings("content")}
		if !obj.Has("content") {
			note.Subnotes = obj.Objects("subnotes")
		}
		out = append(out, note)
	}
	return out
}

// NotesTree collects notes along the chain: leaf notes first, then each parent, then the
// resource.
func NotesTree(chain []Record) []Note {
	out := make([]Note, 0)
	for _, rec := range chain {
		out = append(out, RecordNotes(rec)...)
	}
	return out
}

// NoteByType returns the first note of the requested type
func NoteByType(notes []Note, noteType string) (Note, bool) {
	for _, n := range notes {
		if n.Type == noteType {
			return n, true
		}
	}
	return Note{}, false
}

// StripMarkup removes embedded tags from note text. Escaped markup is unescaped first so
// escaped tags are stripped too; the result is escaped for direct inclusion in XML.
func StripMarkup(fragments []string) []string {
	out := make([]string, 0, len(fragments))
	for _, frag := range fragments {
		clean := html.UnescapeString(frag)
		clean = tagPattern.ReplaceAllString(clean, "")
		out = append(out, html.EscapeString(clean))
	}
	return out
}

// DisplayNote returns the sanitized text of the first note of noteType joined into one
// string, or an empty string when there is no such note
func DisplayNote(notes []Note, noteType string) string {
	note, ok := NoteByType(notes, noteType)
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.Join(StripMarkup(note.Text()), " "))
}

// Languages finds the languages of the leaf: its own lang_materials, else the resource
// lang_materials, else the text of the first langmaterial note in notes.
func Languages(chain *Chain, notes []Note) []string {
	if langs := materialLanguages(chain.Leaf); len(langs) > 0 {
		return Dedup(langs)
	}
	if chain.Resource != nil {
		if langs := materialLanguages(chain.Resource); len(langs) > 0 {
			return Dedup(langs)
		}
	}

	out := make([]string, 0)
	note, ok := NoteByType(notes, "langmaterial")
	if !ok {
		return out
	}
	for _, text := range note.Text() {
		out = append(out, splitLanguages(text)...)
	}
	return Dedup(out)
}

func splitLanguages(text string) []string {
	out := make([]string, 0)
	for _, lang := range strings.Split(text, ";") {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			continue
		}
		if lang == englishSentence {
			lang = "English"
		}
		out = append(out, lang)
	}
	return out
}

// materialLanguages reads lang_materials entries. Entries with language_and_script give
// the language; entries that only carry notes give the first note content.
func materialLanguages(rec Record) []string {
	out := make([]string, 0)
	for _, lm := range rec.Objects("lang_materials") {
		if ls, ok := lm.Object("language_and_script"); ok {
			if lang := ls.String("language"); lang != "" {
				out = append(out, lang)
			}
			continue
		}
		for _, n := range lm.Objects("notes") {
			if content := n.Strings("content"); len(content) > 0 {
				out = append(out, splitLanguages(content[0])...)
				break
			}
		}
	}
	return out
}
