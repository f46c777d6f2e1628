package csvio

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterQuoting(t *testing.T) {
	w := NewWriter("studentIndex", "major")
	require.NoError(t, w.Write("201001", "Computer Science"))
	require.NoError(t, w.Write("201002", `Math, "Applied"`))

	out, err := w.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "studentIndex,major\n201001,Computer Science\n201002,\"Math, \"\"Applied\"\"\"\n", string(out))
}

func TestWriterHeaderOnly(t *testing.T) {
	out, err := NewWriter("studentIndex", "first name").Bytes()
	require.NoError(t, err)
	assert.Equal(t, "studentIndex,first name\n", string(out))

	out, err = NewWriter().Bytes()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReadFirstFieldsSkipsHeaderAndBlankLines(t *testing.T) {
	input := "\ufeffStudentIndex,firstName\n\n 201001 ,Ana\n\"201002\",Marko\n   \n,Empty\n"
	lines, err := ReadFirstFields(strings.NewReader(input), "studentindex")
	require.NoError(t, err)

	require.Len(t, lines, 3)
	assert.Equal(t, "201001", lines[0].First)
	assert.Equal(t, 3, lines[0].Number)
	assert.Equal(t, "201002", lines[1].First)
	assert.Equal(t, "", lines[2].First)
	assert.Equal(t, 6, lines[2].Number)
}

func TestReadFirstFieldsWithoutHeader(t *testing.T) {
	lines, err := ReadFirstFields(strings.NewReader("201001\r\n201002\r\n"), "studentindex")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "201001", lines[0].First)
	assert.Equal(t, "201002", lines[1].First)
}

func TestReadFirstFieldsOnlyFirstLineIsHeaderCandidate(t *testing.T) {
	lines, err := ReadFirstFields(strings.NewReader("201001\nstudentIndex\n"), "studentindex")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "studentIndex", lines[1].First)
}

func TestReadRecords(t *testing.T) {
	input := "firstName,LastName,email,academicRole\n" +
		"Ana,Petrova,ana@uni.edu,STUDENT\n" +
		",,,\n" +
		"Marko,\"Markov, Jr\",marko@uni.edu,STAFF\n"

	table, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	assert.True(t, table.HasColumn("lastname"))
	assert.False(t, table.HasColumn("major"))
	records := table.Records
	require.Len(t, records, 2)

	assert.Equal(t, 2, records[0].Line)
	assert.Equal(t, "Ana", records[0].Get("firstName"))
	assert.Equal(t, "Petrova", records[0].Get("lastname"))
	assert.Equal(t, "", records[0].Get("studentIndex"))

	assert.Equal(t, 4, records[1].Line)
	assert.Equal(t, "Markov, Jr", records[1].Get("lastName"))
	assert.Equal(t, "STAFF", records[1].Get("academicRole"))
}

func TestReadRecordsMissingHeader(t *testing.T) {
	_, err := ReadRecords(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingHeader))
}

func TestFirstField(t *testing.T) {
	assert.Equal(t, "a", FirstField(`"a",b`))
	assert.Equal(t, "a b", FirstField(` a b ,c`))
	assert.Equal(t, "", FirstField(`,x`))
	assert.Equal(t, "only", FirstField(`only`))
}
