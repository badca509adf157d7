package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidCatalog(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<header>
		<name>Test System</name>
		<description>Test System Description</description>
		<version>20240101</version>
		<author>Test Author</author>
	</header>
	<game name="Test Game (USA)">
		<description>Test Game (USA)</description>
		<rom name="test.rom" size="1024" crc="12345678" sha1="ABCDEF0123456789ABCDEF0123456789ABCDEF01"/>
	</game>
</datafile>`

	doc, err := Parse(strings.NewReader(datXML))
	require.NoError(t, err)

	assert.Equal(t, "Test System", doc.Name)
	assert.Equal(t, "Test System Description", doc.Description)
	assert.Equal(t, "20240101", doc.Version)
	assert.Equal(t, "Test Author", doc.Author)
	require.Len(t, doc.Sets, 1)
	assert.Equal(t, "Test Game (USA)", doc.Sets[0].Name)
	require.Len(t, doc.Sets[0].Roms, 1)
	assert.Equal(t, "test.rom", doc.Sets[0].Roms[0].Name)
	assert.Equal(t, uint64(1024), doc.Sets[0].Roms[0].Size)
	assert.Equal(t, "abcdef0123456789abcdef0123456789abcdef01", doc.Sets[0].Roms[0].Hash)
}

func TestParseMachineElement(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<header><name>MAME</name><description>MAME</description><version>1</version><author>A</author></header>
	<machine name="pacman">
		<rom name="pacman.zip" size="2048" sha1="0000000000000000000000000000000000000a"/>
	</machine>
</datafile>`

	doc, err := Parse(strings.NewReader(datXML))
	require.NoError(t, err)

	require.Len(t, doc.Sets, 1)
	assert.Equal(t, "pacman", doc.Sets[0].Name)
}

func TestParseMultipleGames(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<header><name>Multi</name><description>Multi</description><version>1</version><author>A</author></header>
	<game name="Game 1"><rom name="a.rom" size="100" sha1="0000000000000000000000000000000000000a"/></game>
	<game name="Game 2"><rom name="b.rom" size="200" sha1="0000000000000000000000000000000000000b"/></game>
	<game name="Game 3"><rom name="c.rom" size="300" sha1="0000000000000000000000000000000000000c"/></game>
</datafile>`

	doc, err := Parse(strings.NewReader(datXML))
	require.NoError(t, err)

	require.Len(t, doc.Sets, 3)
	assert.Equal(t, "Game 1", doc.Sets[0].Name)
	assert.Equal(t, "Game 2", doc.Sets[1].Name)
	assert.Equal(t, "Game 3", doc.Sets[2].Name)
}

func TestParseMultipleRoms(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<header><name>Multi ROM</name><description>Multi ROM</description><version>1</version><author>A</author></header>
	<game name="Multi ROM Game">
		<rom name="rom1.bin" size="100" sha1="0000000000000000000000000000000000000a"/>
		<rom name="rom2.bin" size="200" sha1="0000000000000000000000000000000000000b"/>
		<rom name="rom3.bin" size="300" sha1="0000000000000000000000000000000000000c"/>
	</game>
</datafile>`

	doc, err := Parse(strings.NewReader(datXML))
	require.NoError(t, err)

	require.Len(t, doc.Sets, 1)
	assert.Len(t, doc.Sets[0].Roms, 3)
}

func TestParseRomWithoutNameSkipped(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<header><name>Skip</name><description>Skip</description><version>1</version><author>A</author></header>
	<game name="Game">
		<rom size="100" sha1="0000000000000000000000000000000000000a"/>
		<rom name="kept.rom" size="200" sha1="0000000000000000000000000000000000000b"/>
	</game>
</datafile>`

	doc, err := Parse(strings.NewReader(datXML))
	require.NoError(t, err)

	require.Len(t, doc.Sets[0].Roms, 1)
	assert.Equal(t, "kept.rom", doc.Sets[0].Roms[0].Name)
}

func TestParseEmptyCatalogMissingHeader(t *testing.T) {
	_, err := Parse(strings.NewReader(`<?xml version="1.0"?><datafile></datafile>`))
	assert.ErrorContains(t, err, "missing header")
}

func TestParseNoHeaderElementIsAnError(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<game name="No Header Game"><rom name="test.rom" size="100" sha1="0000000000000000000000000000000000000a"/></game>
</datafile>`

	_, err := Parse(strings.NewReader(datXML))
	var bad *ErrBadCatalog
	assert.ErrorAs(t, err, &bad)
}

func TestParseHeaderMissingNameIsAnError(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<header><description>no name here</description><version>1</version><author>A</author></header>
</datafile>`

	_, err := Parse(strings.NewReader(datXML))
	assert.ErrorContains(t, err, "missing name")
}

func TestParseHeaderMissingDescriptionIsAnError(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<header><name>Has Name</name><version>1</version><author>A</author></header>
</datafile>`

	_, err := Parse(strings.NewReader(datXML))
	assert.ErrorContains(t, err, "missing description")
}

func TestParseHeaderMissingVersionIsAnError(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<header><name>Has Name</name><description>D</description><author>A</author></header>
</datafile>`

	_, err := Parse(strings.NewReader(datXML))
	assert.ErrorContains(t, err, "missing version")
}

func TestParseHeaderMissingAuthorIsAnError(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<header><name>Has Name</name><description>D</description><version>1</version></header>
</datafile>`

	_, err := Parse(strings.NewReader(datXML))
	assert.ErrorContains(t, err, "missing author")
}

func TestParseInvalidXML(t *testing.T) {
	_, err := Parse(strings.NewReader("<invalid>xml<>"))
	assert.Error(t, err)
}

func TestParseHashLowercased(t *testing.T) {
	datXML := `<?xml version="1.0"?>
<datafile>
	<header><name>Hashes</name><description>Hashes</description><version>1</version><author>A</author></header>
	<game name="Hash Test">
		<rom name="test.rom" size="1024" sha1="ABCDEF0123456789ABCDEF0123456789ABCDEF01"/>
	</game>
</datafile>`

	doc, err := Parse(strings.NewReader(datXML))
	require.NoError(t, err)

	assert.Equal(t, "abcdef0123456789abcdef0123456789abcdef01", doc.Sets[0].Roms[0].Hash)
}
