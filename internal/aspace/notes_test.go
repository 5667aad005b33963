package aspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotesTree_Order(t *testing.T) {
	chain := []Record{
		mustRecord(t, `{"uri":"/ao/1","notes":[{"type":"scopecontent","content":["a"]}]}`),
		mustRecord(t, `{"uri":"/ao/2","notes":[{"type":"bioghist","subnotes":[{"jsonmodel_type":"note_text","content":"b"}]}]}`),
		mustRecord(t, `{"uri":"/res/1","notes":[{"type":"scopecontent","content":["c"]},{"content":["untyped"]}]}`),
	}
	notes := NotesTree(chain)
	require.Len(t, notes, 3)
	assert.Equal(t, "scopecontent", notes[0].Type)
	assert.Equal(t, []string{"a"}, notes[0].Text())
	assert.Equal(t, "bioghist", notes[1].Type)
	assert.Empty(t, notes[1].Content)
	assert.Equal(t, []string{"b"}, notes[1].Text())
	assert.Equal(t, []string{"c"}, notes[2].Text())
}

func TestNoteByType_FirstMatchWins(t *testing.T) {
	chain := []Record{
		mustRecord(t, `{"uri":"/ao/1","notes":[{"type":"userestrict","content":["a"]}]}`),
		mustRecord(t, `{"uri":"/res/1","notes":[{"type":"userestrict","content":["b"]}]}`),
	}
	note, ok := NoteByType(NotesTree(chain), "userestrict")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, note.Text())

	_, ok = NoteByType(NotesTree(chain), "abstract")
	assert.False(t, ok)
}

func TestNotesTree_MissingNotes(t *testing.T) {
	assert.Empty(t, NotesTree([]Record{{"uri": "/ao/1"}, {"uri": "/res/1"}}))
}

func TestStripMarkup(t *testing.T) {
	got := StripMarkup([]string{
		`Letters from <persname>Jane Addams</persname> & others`,
		`&lt;emph render="italic"&gt;Escaped&lt;/emph&gt; title`,
		`plain`,
	})
	assert.Equal(t, []string{
		"Letters from Jane Addams &amp; others",
		"Escaped title",
		"plain",
	}, got)
}

func TestDisplayNote(t *testing.T) {
	notes := []Note{
		{Type: "accessrestrict", Content: []string{"Open <extref>for research</extref>.", "No restrictions."}},
	}
	assert.Equal(t, "Open for research. No restrictions.", DisplayNote(notes, "accessrestrict"))
	assert.Equal(t, "", DisplayNote(notes, "userestrict"))
}

func TestLanguages_LeafFirst(t *testing.T) {
	chain := &Chain{
		Leaf:     mustRecord(t, `{"uri":"/ao/1","lang_materials":[{"language_and_script":{"language":"fre"}},{"language_and_script":{"language":"eng"}}]}`),
		Resource: mustRecord(t, `{"uri":"/res/1","lang_materials":[{"language_and_script":{"language":"ger"}}]}`),
	}
	assert.Equal(t, []string{"fre", "eng"}, Languages(chain, nil))
}

func TestLanguages_ResourceFallback(t *testing.T) {
	chain := &Chain{
		Leaf:     mustRecord(t, `{"uri":"/ao/1","lang_materials":[]}`),
		Resource: mustRecord(t, `{"uri":"/res/1","lang_materials":[{"language_and_script":{"language":"ger"}}]}`),
	}
	assert.Equal(t, []string{"ger"}, Languages(chain, nil))
}

func TestLanguages_NoteFallback(t *testing.T) {
	chain := &Chain{
		Leaf:     mustRecord(t, `{"uri":"/ao/1","lang_materials":[]}`),
		Resource: mustRecord(t, `{"uri":"/res/1","notes":[{"type":"langmaterial","content":["The primary language of the materials is English."]}]}`),
	}
	notes := NotesTree(chain.Records())
	assert.Equal(t, []string{"English"}, Languages(chain, notes))
}

func TestLanguages_NoteSplit(t *testing.T) {
	chain := &Chain{Leaf: Record{"uri": "/ao/1"}, Resource: Record{"uri": "/res/1"}}
	notes := []Note{{Type: "langmaterial", Content: []string{"French; German;"}}}
	assert.Equal(t, []string{"French", "German"}, Languages(chain, notes))
}

func TestLanguages_MaterialNoteOnly(t *testing.T) {
	chain := &Chain{
		Leaf:     mustRecord(t, `{"uri":"/ao/1","lang_materials":[{"notes":[{"content":["The primary language of the materials is English."]}]}]}`),
		Resource: Record{"uri": "/res/1"},
	}
	assert.Equal(t, []string{"English"}, Languages(chain, nil))
}

func TestLanguages_None(t *testing.T) {
	chain := &Chain{Leaf: Record{"uri": "/ao/1"}, Resource: Record{"uri": "/res/1"}}
	got := Languages(chain, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
