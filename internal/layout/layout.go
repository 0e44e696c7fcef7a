package layout

// WordsPerAttribute is the number of 32-bit words in one vec4 attribute.
// Records are padded so every one starts on a 16-byte boundary.
const WordsPerAttribute = 4

// WordSize is the size of one word in bytes
const WordSize = 4

// Layout describes the aligned shape of one record in a node or edge buffer
type Layout struct {
	// ObjectSize is the record size in words, always a multiple of 4
	ObjectSize int

	// Offsets are the word offsets of each vec4 attribute within a record
	Offsets []int

	// Widths are the component counts of each attribute (always 4)
	Widths []int
}

// ObjectSize returns the smallest multiple of 4 that holds
// fieldCount+extraFields words.
func ObjectSize(fieldCount, extraFields int) int {
	n := fields(fieldCount, extraFields)
	return n + (WordsPerAttribute-n%WordsPerAttribute)%WordsPerAttribute
}

// Padding returns the number of zero words appended to every record.
func Padding(fieldCount, extraFields int) int {
	return ObjectSize(fieldCount, extraFields) - fields(fieldCount, extraFields)
}

// Attributes returns the record layout for the given field counts: one
// vec4 attribute at every 4th word up to the object size.
func Attributes(fieldCount, extraFields int) Layout {
	size := ObjectSize(fieldCount, extraFields)
	n := size / WordsPerAttribute
	l := Layout{
		ObjectSize: size,
		Offsets:    make([]int, n),
		Widths:     make([]int, n),
	}
	for i := 0; i < n; i++ {
		l.Offsets[i] = i * WordsPerAttribute
		l.Widths[i] = WordsPerAttribute
	}
	return l
}

// Stride returns the record size in bytes
func (l Layout) Stride() int {
	return l.ObjectSize * WordSize
}

// Records returns how many whole records fit in size bytes
func (l Layout) Records(size int) int {
	if l.ObjectSize == 0 {
		return 0
	}
	return size / l.Stride()
}

func fields(fieldCount, extraFields int) int {
	if fieldCount < 0 {
		fieldCount = 0
	}
	if extraFields < 0 {
		extraFields = 0
	}
	return fieldCount + extraFields
}
