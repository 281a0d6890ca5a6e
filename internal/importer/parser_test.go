package importer

import (
	"strings"
	"testing"

	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path  string
		class int
		ok    bool
	}{
		{"data/kanji_class_1.csv", 1, true},
		{"/x/KANJI_CLASS_6.CSV", 6, true},
		{"kanji_class_.csv", 0, false},
		{"kanji.csv", 0, false},
		{"kanji_class_2.yaml", 0, false},
	}
	for _, tc := range tests {
		class, ok := ClassFromFilename(tc.path)
		assert.Equal(t, tc.ok, ok, tc.path)
		assert.Equal(t, tc.class, class, tc.path)
	}
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	input := "character,meaning,onyomi,kunyomi,difficulty,example\n" +
		"日,sun; day,ニチ・ジツ,ひ・か,easy,日本::にほん::Japan||毎日::まいにち::every day\n" +
		",missing character,,,,\n" +
		"水,water,スイ,みず,,水曜日::すいようび\n"

	class := 1
	records, err := ParseCSV(strings.NewReader(input), &class)
	require.NoError(t, err)
	require.Len(t, records, 2)

	sun := records[0]
	assert.Equal(t, "日", sun.Character)
	assert.Equal(t, "sun; day", sun.Meaning)
	assert.Equal(t, []string{"ニチ", "ジツ"}, sun.Onyomi)
	assert.Equal(t, []string{"ひ", "か"}, sun.Kunyomi)
	assert.Equal(t, "easy", sun.Difficulty)
	require.NotNil(t, sun.GradeClass)
	assert.Equal(t, 1, *sun.GradeClass)
	assert.Equal(t, []domain.Example{
		{Japanese: "日本", Reading: "にほん", Meaning: "Japan"},
		{Japanese: "毎日", Reading: "まいにち", Meaning: "every day"},
	}, sun.Examples)

	// An example without a meaning is dropped.
	assert.Empty(t, records[1].Examples)
	assert.Equal(t, []string{"スイ"}, records[1].Onyomi)
}

func TestParseCSV_LegacyExampleColumns(t *testing.T) {
	t.Parallel()

	input := "character,meaning,onyomi,kunyomi,example_japanese,example_reading,example_meaning,grade_class\n" +
		"月,moon,\"ゲツ, ガツ\",つき、づき,月曜日,げつようび,Monday,2\n"

	records, err := ParseCSV(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, []string{"ゲツ", "ガツ"}, rec.Onyomi)
	assert.Equal(t, []string{"つき", "づき"}, rec.Kunyomi)
	assert.Equal(t, []domain.Example{{Japanese: "月曜日", Reading: "げつようび", Meaning: "Monday"}}, rec.Examples)
	require.NotNil(t, rec.GradeClass)
	assert.Equal(t, 2, *rec.GradeClass)
}

func TestParseCSV_ExampleInBothFormatsImportedOnce(t *testing.T) {
	t.Parallel()

	input := "character,meaning,example,example_japanese,example_reading,example_meaning\n" +
		"月,moon,月曜日::げつようび::Monday||満月::まんげつ::full moon,月曜日,げつようび,Monday\n"

	records, err := ParseCSV(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []domain.Example{
		{Japanese: "月曜日", Reading: "げつようび", Meaning: "Monday"},
		{Japanese: "満月", Reading: "まんげつ", Meaning: "full moon"},
	}, records[0].Examples)
}

func TestParseCSV_ErrorLineCountsPhysicalLines(t *testing.T) {
	t.Parallel()

	// The quoted meaning spans two lines, so the bad row starts on line 4.
	input := "character,meaning,grade_class\n" +
		"日,\"sun\nday\",1\n" +
		"月,moon,second\n"

	_, err := ParseCSV(strings.NewReader(input), nil)
	assert.ErrorContains(t, err, "csv line 4:")
}

func TestParseCSV_Errors(t *testing.T) {
	t.Parallel()

	_, err := ParseCSV(strings.NewReader("meaning,onyomi\nsun,ニチ\n"), nil)
	assert.Error(t, err)

	_, err = ParseCSV(strings.NewReader("character,grade_class\n日,first\n"), nil)
	assert.ErrorContains(t, err, "grade_class")

	records, err := ParseCSV(strings.NewReader(""), nil)
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseYAML(t *testing.T) {
	t.Parallel()

	input := `
- character: 火
  meaning: fire
  grade_class: 1
  onyomi: [カ]
  kunyomi: [ひ, ほ]
  examples:
    - japanese: 火曜日
      reading: かようび
      meaning: Tuesday
- meaning: no character
`
	records, err := ParseYAML(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "火", records[0].Character)
	assert.Equal(t, []string{"ひ", "ほ"}, records[0].Kunyomi)
	assert.Equal(t, "Tuesday", records[0].Examples[0].Meaning)
	require.NotNil(t, records[0].GradeClass)
	assert.Equal(t, 1, *records[0].GradeClass)

	_, err = ParseYAML(strings.NewReader("character: [unterminated"))
	assert.Error(t, err)
}

func TestParse_DispatchesOnExtension(t *testing.T) {
	t.Parallel()

	records, err := Parse("kanji_class_3.csv", strings.NewReader("character,meaning\n木,tree\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].GradeClass)
	assert.Equal(t, 3, *records[0].GradeClass)

	_, err = Parse("notes.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
