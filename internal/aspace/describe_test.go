package aspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMSNumber(t *testing.T) {
	assert.Equal(t, "MS MS1", MSNumber(mustRecord(t, `{"id_0":"MS12345"}`)))
	assert.Equal(t, "00324 box", MSNumber(mustRecord(t, `{"id_0":"MS","id_1":"00324","id_2":"box"}`)))
	assert.Equal(t, "MS SS", MSNumber(mustRecord(t, `{"id_0":"SS","id_1":"00324"}`)))
	assert.Equal(t, "MS ", MSNumber(Record{}))
	assert.Equal(t, "MS ÉÉÉ", MSNumber(mustRecord(t, `{"id_0":"ÉÉÉÉ"}`)))
}

func TestFolder(t *testing.T) {
	ao := mustRecord(t, `{"instances":[{"sub_container":{"type_2":"folder","indicator_2":"12","top_container":{"ref":"/repositories/2/top_containers/5"}}}]}`)
	assert.Equal(t, "Folder 12", Folder(ao))
	assert.Equal(t, "", Folder(mustRecord(t, `{"instances":[{"sub_container":{"top_container":{"ref":"/x"}}}]}`)))
	assert.Equal(t, "", Folder(Record{}))

	accented := mustRecord(t, `{"instances":[{"sub_container":{"type_2":"éTUI","indicator_2":"2"}}]}`)
	assert.Equal(t, "Étui 2", Folder(accented))
}

func TestShelfLocation(t *testing.T) {
	store := recordStore(t, `{"uri":"/repositories/2/top_containers/5","display_string":"Box 3"}`)
	ao := mustRecord(t, `{"instances":[{"sub_container":{"top_container":{"ref":"/repositories/2/top_containers/5"}}}]}`)
	assert.Equal(t, "Box 3", ShelfLocation(ao, store))

	missing := mustRecord(t, `{"instances":[{"sub_container":{"top_container":{"ref":"/repositories/2/top_containers/6"}}}]}`)
	assert.Equal(t, "", ShelfLocation(missing, store))
	assert.Equal(t, "", ShelfLocation(Record{}, store))
}

func TestDigitalObject(t *testing.T) {
	store := recordStore(t, `{"uri":"/repositories/2/digital_objects/9","title":"Scan","file_versions":[{"file_uri":"https://compass.fivecolleges.edu/object/smith:1234"}]}`)
	ao := mustRecord(t, `{"instances":[
		{"instance_type":"mixed_materials","sub_container":{}},
		{"instance_type":"digital_object","digital_object":{"ref":"/repositories/2/digital_objects/9"}}]}`)

	do := DigitalObject(ao, store)
	require.NotNil(t, do)
	assert.Equal(t, "Scan", do.String("title"))
	assert.Equal(t, "https://compass.fivecolleges.edu/object/smith:1234", FileURI(do))
	assert.Nil(t, DigitalObject(Record{}, store))
}

func TestModsFileName(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"https://compass.fivecolleges.edu/object/smith:1234", "smith_1234_MODS.xml"},
		{"http://localhost:8080/islandora/object/islandora:88", "islandora_88_MODS.xml"},
		{"islandora:5", "islandora_5_MODS.xml"},
	}
	for _, tc := range tests {
		do := Record{"uri": "/do/1", "file_versions": []interface{}{map[string]interface{}{"file_uri": tc.uri}}}
		name, err := ModsFileName(do)
		require.NoError(t, err, tc.uri)
		assert.Equal(t, tc.want, name)
	}

	_, err := ModsFileName(Record{"uri": "/do/1"})
	assert.Error(t, err)
	_, err = ModsFileName(Record{"uri": "/do/1", "file_versions": []interface{}{map[string]interface{}{"file_uri": "https://example.org/no/pid"}}})
	assert.Error(t, err)
}

func TestIsExcerpt(t *testing.T) {
	assert.True(t, IsExcerpt(Record{"title": "Diary, excerpts"}, nil))
	assert.True(t, IsExcerpt(Record{"title": "Diary"}, Record{"title": "Excerpt of diary"}))
	assert.False(t, IsExcerpt(Record{"title": "Diary"}, Record{}))
}
