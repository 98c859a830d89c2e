package tinywasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeU32(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			break
		}
	}
	return out
}

func header() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
}

func section(id byte, body []byte) []byte {
	return append([]byte{id}, append(encodeU32(uint32(len(body))), body...)...)
}

func TestDecodeModule_rejectsBadMagic(t *testing.T) {
	_, err := DecodeModule([]byte{0, 1, 2, 3, 1, 0, 0, 0})
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeModule_rejectsBadVersion(t *testing.T) {
	data := append([]byte{0x00, 0x61, 0x73, 0x6D}, 2, 0, 0, 0)
	_, err := DecodeModule(data)
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestDecodeModule_emptyModule(t *testing.T) {
	m, err := DecodeModule(header())
	require.NoError(t, err)
	assert.Empty(t, m.Types)
	assert.Empty(t, m.Functions)
}

func TestDecodeModule_rejectsOutOfOrderSections(t *testing.T) {
	data := append(header(), section(sectionFunction, []byte{0x00})...)
	data = append(data, section(sectionType, []byte{0x00})...)
	_, err := DecodeModule(data)
	assert.ErrorIs(t, err, ErrInvalidSectionOrder)
}

func TestDecodeModule_customSectionsAnywhere(t *testing.T) {
	custom := section(sectionCustom, append(append([]byte{}, encodeU32(4)...), []byte("name")...))
	data := append(header(), custom...)
	data = append(data, section(sectionType, []byte{0x00})...)
	data = append(data, custom...)
	_, err := DecodeModule(data)
	require.NoError(t, err)
}

// buildSimpleModule builds a module exporting one function, "add", which
// takes two i32 params and returns their sum: (a + b).
func buildSimpleModule(t *testing.T) []byte {
	t.Helper()
	typeSec := section(sectionType, []byte{
		0x01,                   // one type
		0x60,                   // func tag
		0x02, 0x7f, 0x7f,       // 2 params: i32 i32
		0x01, 0x7f,             // 1 result: i32
	})
	funcSec := section(sectionFunction, []byte{0x01, 0x00})
	exportNameBytes := append(encodeU32(3), []byte("add")...)
	exportSec := section(sectionExport, append([]byte{0x01}, append(exportNameBytes, 0x00, 0x00)...))
	body := []byte{
		0x00,       // 0 local decls
		0x20, 0x00, // local.get 0
		0x20, 0x01, // local.get 1
		0x6A, // i32.add
		0x0B, // end
	}
	codeEntry := append(encodeU32(uint32(len(body))), body...)
	codeSec := section(sectionCode, append([]byte{0x01}, codeEntry...))

	data := header()
	data = append(data, typeSec...)
	data = append(data, funcSec...)
	data = append(data, exportSec...)
	data = append(data, codeSec...)
	return data
}

func TestDecodeModule_simpleAddFunction(t *testing.T) {
	m, err := DecodeModule(buildSimpleModule(t))
	require.NoError(t, err)
	require.Len(t, m.Types, 1)
	assert.Equal(t, []ValueType{ValueTypeI32, ValueTypeI32}, m.Types[0].Params)
	require.Len(t, m.Code, 1)
	assert.Len(t, m.Code[0].Body, 3)
	require.Len(t, m.Exports, 1)
	assert.Equal(t, "add", m.Exports[0].Name)
}
