package formatter

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"github.com/desertthunder/spx/internal/shared"
)

// BIFF8 record identifiers for the subset of the legacy workbook format the
// XLS writer emits.
const (
	recBOF        = 0x0809
	recEOF        = 0x000A
	recCodePage   = 0x0042
	recWindow1    = 0x003D
	recFont       = 0x0031
	recXF         = 0x00E0
	recBoundSheet = 0x0085
	recDimensions = 0x0200
	recLabel      = 0x0204
)

// Substream types carried in the BOF record.
const (
	bofWorkbookGlobals = 0x0005
	bofWorksheet       = 0x0010
)

const (
	biffVersion = 0x0600
	xlsMaxRows  = 65536
	xlsMaxChars = 255
	cellXF      = 15
)

// ExportToXLS serializes flattened tracks as a legacy BIFF8 workbook inside
// an OLE2 compound file. The logical layout matches ExportToXLSX: a single
// sheet, headers in row 0, one data row per track, every cell a string.
func ExportToXLS(tracks []TrackFlattened) ([]byte, error) {
	rows := make([][]string, 0, len(tracks)+1)
	rows = append(rows, headerRow())
	for _, track := range tracks {
		rows = append(rows, valueRow(track))
	}

	stream, err := workbookStream(rows)
	if err != nil {
		return nil, err
	}
	return compoundFile(stream)
}

// workbookStream builds the BIFF8 "Workbook" stream: a globals substream
// holding fonts, formats, and the sheet directory, then one worksheet
// substream of LABEL cells.
func workbookStream(rows [][]string) ([]byte, error) {
	if len(rows) > xlsMaxRows {
		return nil, fmt.Errorf("%w: %d rows exceeds the XLS row limit", shared.ErrExportFailed, len(rows))
	}

	w := &biffWriter{}

	w.bof(bofWorkbookGlobals)

	w.u16(0x04B0) // UTF-16 code page
	w.flush(recCodePage)

	// default window metrics so readers have a visible pane
	for _, v := range []uint16{0, 0, 0x4000, 0x2000, 0x0038, 0, 0, 1, 0x0258} {
		w.u16(v)
	}
	w.flush(recWindow1)

	// readers require at least four fonts before any XF
	for i := 0; i < 4; i++ {
		w.font()
	}
	for i := 0; i < 15; i++ {
		w.xf(true)
	}
	w.xf(false)

	// lbPlyPos is patched once the sheet substream offset is known
	boundsheetAt := w.out.Len() + 4
	w.u32(0)
	w.u16(0)
	w.shortString(sheetName)
	w.flush(recBoundSheet)

	w.flush(recEOF)

	sheetStart := w.out.Len()
	w.bof(bofWorksheet)

	w.u32(0)
	w.u32(uint32(len(rows)))
	w.u16(0)
	w.u16(uint16(len(trackColumns)))
	w.u16(0)
	w.flush(recDimensions)

	for r, row := range rows {
		for c, cell := range row {
			w.u16(uint16(r))
			w.u16(uint16(c))
			w.u16(cellXF)
			w.labelString(cell)
			w.flush(recLabel)
		}
	}

	w.flush(recEOF)

	stream := w.out.Bytes()
	binary.LittleEndian.PutUint32(stream[boundsheetAt:], uint32(sheetStart))
	return stream, nil
}

// biffWriter accumulates record payloads and frames them with the 4-byte
// record header on flush.
type biffWriter struct {
	out  bytes.Buffer
	data []byte
}

func (w *biffWriter) u16(v uint16) { w.data = binary.LittleEndian.AppendUint16(w.data, v) }
func (w *biffWriter) u32(v uint32) { w.data = binary.LittleEndian.AppendUint32(w.data, v) }

func (w *biffWriter) flush(id uint16) {
	var hdr [4]byte
	binary.LittleEndian.PutUint16(hdr[0:], id)
	binary.LittleEndian.PutUint16(hdr[2:], uint16(len(w.data)))
	w.out.Write(hdr[:])
	w.out.Write(w.data)
	w.data = w.data[:0]
}

// bof opens a substream of the given type.
func (w *biffWriter) bof(docType uint16) {
	w.u16(biffVersion)
	w.u16(docType)
	w.u16(0x0DBB) // build
	w.u16(0x07CC) // build year
	w.u32(0x000000C1)
	w.u32(0x00000006)
	w.flush(recBOF)
}

// font emits the default 10pt Arial font record.
func (w *biffWriter) font() {
	w.u16(0x00C8) // height in twips
	w.u16(0)
	w.u16(0x7FFF) // automatic color
	w.u16(0x0190) // normal weight
	w.u16(0)
	w.data = append(w.data, 0, 0, 0, 0)
	w.shortString("Arial")
	w.flush(recFont)
}

// xf emits a cell format record. The first fifteen entries are style
// formats; the sixteenth is the cell format every LABEL references.
func (w *biffWriter) xf(style bool) {
	w.u16(0) // font index
	w.u16(0) // number format index
	if style {
		w.u16(0xFFF5)
	} else {
		w.u16(0x0001)
	}
	w.u16(0x0020) // bottom-aligned
	w.u32(0)
	w.u32(0)
	w.u16(0)
	w.u16(0x20C0) // default fill colors
	w.flush(recXF)
}

// shortString appends a BIFF8 unicode string with an 8-bit length.
func (w *biffWriter) shortString(text string) {
	units := utf16Units(text, 255)
	w.data = append(w.data, byte(len(units)))
	w.appendUnits(units)
}

// labelString appends a BIFF8 unicode string with a 16-bit length.
func (w *biffWriter) labelString(text string) {
	units := utf16Units(text, xlsMaxChars)
	w.u16(uint16(len(units)))
	w.appendUnits(units)
}

// appendUnits writes the flags byte and characters, using the compressed
// single-byte form when every unit fits in Latin-1.
func (w *biffWriter) appendUnits(units []uint16) {
	compressed := true
	for _, u := range units {
		if u > 0xFF {
			compressed = false
			break
		}
	}

	if compressed {
		w.data = append(w.data, 0x00)
		for _, u := range units {
			w.data = append(w.data, byte(u))
		}
		return
	}

	w.data = append(w.data, 0x01)
	for _, u := range units {
		w.u16(u)
	}
}

// utf16Units converts text to UTF-16 code units capped at max, never
// splitting a surrogate pair at the cut.
func utf16Units(text string, max int) []uint16 {
	units := utf16.Encode([]rune(text))
	if len(units) > max {
		units = units[:max]
		if last := units[len(units)-1]; last >= 0xD800 && last <= 0xDBFF {
			units = units[:len(units)-1]
		}
	}
	return units
}

// Compound file sector sentinels.
const (
	secFAT        = 0xFFFFFFFD
	secEndOfChain = 0xFFFFFFFE
	secFree       = 0xFFFFFFFF
)

const (
	sectorSize     = 512
	miniSectorSize = 64
	miniCutoff     = 4096
	dirEntrySize   = 128
	fatPerSector   = sectorSize / 4
)

var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// compoundFile wraps the workbook stream in an OLE2 compound file holding a
// single "Workbook" entry. Streams under the mini cutoff live in the
// ministream; larger ones take regular sectors.
func compoundFile(stream []byte) ([]byte, error) {
	if len(stream) < miniCutoff {
		return miniCompoundFile(stream), nil
	}
	return regularCompoundFile(stream)
}

// miniCompoundFile lays out sector 0 as the FAT, 1 as the directory, 2 as
// the MiniFAT, and the ministream from sector 3.
func miniCompoundFile(stream []byte) []byte {
	miniCount := (len(stream) + miniSectorSize - 1) / miniSectorSize
	miniBytes := miniCount * miniSectorSize
	streamSectors := (miniBytes + sectorSize - 1) / sectorSize

	fat := freeTable(fatPerSector)
	fat[0] = secFAT
	fat[1] = secEndOfChain
	fat[2] = secEndOfChain
	chainInto(fat, 3, streamSectors)

	minifat := freeTable(fatPerSector)
	chainInto(minifat, 0, miniCount)

	var out bytes.Buffer
	writeCompoundHeader(&out, compoundHeader{
		fatSectors:     []uint32{0},
		firstDirSector: 1,
		firstMiniFAT:   2,
		miniFATCount:   1,
	})
	writeTable(&out, fat)
	out.Write(directorySector(3, uint32(miniBytes), 0, uint32(len(stream))))
	writeTable(&out, minifat)

	padded := make([]byte, streamSectors*sectorSize)
	copy(padded, stream)
	out.Write(padded)

	return out.Bytes()
}

// regularCompoundFile lays out the FAT sectors first, then the directory,
// then the stream. The FAT sector count is solved iteratively since the FAT
// must also cover itself.
func regularCompoundFile(stream []byte) ([]byte, error) {
	streamSectors := (len(stream) + sectorSize - 1) / sectorSize

	fatSectors := 1
	for fatSectors*fatPerSector < fatSectors+1+streamSectors {
		fatSectors++
	}
	if fatSectors > 109 {
		return nil, fmt.Errorf("%w: workbook exceeds the single-DIFAT size limit", shared.ErrExportFailed)
	}

	fat := freeTable(fatSectors * fatPerSector)
	for i := 0; i < fatSectors; i++ {
		fat[i] = secFAT
	}
	dirSector := fatSectors
	fat[dirSector] = secEndOfChain
	chainInto(fat, dirSector+1, streamSectors)

	fatIDs := make([]uint32, fatSectors)
	for i := range fatIDs {
		fatIDs[i] = uint32(i)
	}

	var out bytes.Buffer
	writeCompoundHeader(&out, compoundHeader{
		fatSectors:     fatIDs,
		firstDirSector: uint32(dirSector),
		firstMiniFAT:   secEndOfChain,
		miniFATCount:   0,
	})
	writeTable(&out, fat)
	out.Write(directorySector(secEndOfChain, 0, uint32(dirSector+1), uint32(len(stream))))

	padded := make([]byte, streamSectors*sectorSize)
	copy(padded, stream)
	out.Write(padded)

	return out.Bytes(), nil
}

func freeTable(n int) []uint32 {
	table := make([]uint32, n)
	for i := range table {
		table[i] = secFree
	}
	return table
}

// chainInto links count consecutive entries starting at first, terminating
// the chain with ENDOFCHAIN.
func chainInto(table []uint32, first, count int) {
	for i := 0; i < count; i++ {
		if i == count-1 {
			table[first+i] = secEndOfChain
		} else {
			table[first+i] = uint32(first + i + 1)
		}
	}
}

func writeTable(out *bytes.Buffer, entries []uint32) {
	for _, e := range entries {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], e)
		out.Write(b[:])
	}
}

type compoundHeader struct {
	fatSectors     []uint32
	firstDirSector uint32
	firstMiniFAT   uint32
	miniFATCount   uint32
}

func writeCompoundHeader(out *bytes.Buffer, h compoundHeader) {
	hdr := make([]byte, sectorSize)
	copy(hdr, oleSignature)

	le := binary.LittleEndian
	le.PutUint16(hdr[24:], 0x003E) // minor version
	le.PutUint16(hdr[26:], 0x0003) // major version 3, 512-byte sectors
	le.PutUint16(hdr[28:], 0xFFFE) // little-endian marker
	le.PutUint16(hdr[30:], 9)      // sector shift
	le.PutUint16(hdr[32:], 6)      // mini sector shift
	le.PutUint32(hdr[44:], uint32(len(h.fatSectors)))
	le.PutUint32(hdr[48:], h.firstDirSector)
	le.PutUint32(hdr[56:], miniCutoff)
	le.PutUint32(hdr[60:], h.firstMiniFAT)
	le.PutUint32(hdr[64:], h.miniFATCount)
	le.PutUint32(hdr[68:], secEndOfChain) // no DIFAT sectors
	le.PutUint32(hdr[72:], 0)

	for i := 0; i < 109; i++ {
		v := uint32(secFree)
		if i < len(h.fatSectors) {
			v = h.fatSectors[i]
		}
		le.PutUint32(hdr[76+4*i:], v)
	}

	out.Write(hdr)
}

// directorySector builds the four-entry directory: the root storage, the
// Workbook stream, and two free entries.
func directorySector(rootStart, rootSize, wbStart, wbSize uint32) []byte {
	sector := make([]byte, sectorSize)

	writeDirEntry(sector[0:], "Root Entry", 5, 1, rootStart, rootSize)
	writeDirEntry(sector[dirEntrySize:], "Workbook", 2, secFree, wbStart, wbSize)
	writeDirEntry(sector[2*dirEntrySize:], "", 0, secFree, 0, 0)
	writeDirEntry(sector[3*dirEntrySize:], "", 0, secFree, 0, 0)

	return sector
}

func writeDirEntry(b []byte, name string, objectType byte, child uint32, start, size uint32) {
	le := binary.LittleEndian

	if name != "" {
		units := utf16.Encode([]rune(name))
		for i, u := range units {
			le.PutUint16(b[2*i:], u)
		}
		le.PutUint16(b[64:], uint16(2*(len(units)+1))) // length includes the terminator
		b[67] = 1                                      // black node
	}

	b[66] = objectType
	le.PutUint32(b[68:], secFree) // left sibling
	le.PutUint32(b[72:], secFree) // right sibling
	le.PutUint32(b[76:], child)
	le.PutUint32(b[116:], start)
	le.PutUint32(b[120:], size)
}
