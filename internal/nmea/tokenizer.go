package nmea

import "strings"

// Tokenized is the positional view of one sentence line.
//
// Fields excludes the command word and the checksum suffix. Omitted fields are
// kept as empty strings since fields are addressed by position.
type Tokenized struct {
	Text        string
	CommandWord string
	Fields      []string

	// ExistingChecksum is the two characters following '*', or "" when the
	// line carried no checksum.
	ExistingChecksum string
	// CorrectChecksum is computed from the line itself.
	CorrectChecksum string

	Valid     bool
	Malformed bool
}

// Tokenize splits line into command word, fields and checksum.
//
// A line without '$' or ',' (or with ',' before '$') is malformed: Fields is
// empty and Valid is false. The checksum covers the bytes after '$' through the
// last field byte, which is the byte before '*' or the last byte of the line.
func Tokenize(line string) Tokenized {
	line = strings.TrimSpace(line)
	t := Tokenized{Text: line}

	dollar := strings.IndexByte(line, '$')
	comma := strings.IndexByte(line, ',')
	if dollar < 0 || comma < 0 || comma < dollar {
		t.Malformed = true
		return t
	}

	asterisk := strings.IndexByte(line, '*')
	dataEnd := len(line) - 1
	if asterisk >= 0 {
		dataEnd = asterisk - 1
	}
	if dataEnd-comma < 0 {
		t.Malformed = true
		return t
	}

	t.CommandWord = line[dollar:comma]
	t.Fields = strings.Split(line[comma+1:dataEnd+1], ",")
	t.CorrectChecksum = ChecksumString(line[dollar+1 : dataEnd+1])

	if asterisk >= 0 && len(line)-asterisk-1 >= 2 {
		t.ExistingChecksum = line[asterisk+1 : asterisk+3]
		t.Valid = ValidateChecksum(t.ExistingChecksum, t.CorrectChecksum)
	}
	return t
}

// AppendChecksum returns t with the computed checksum appended.
//
// It is a no-op when t already carries a checksum (even an incorrect one) or
// is malformed.
func (t Tokenized) AppendChecksum() Tokenized {
	if t.Malformed || t.ExistingChecksum != "" {
		return t
	}
	text := t.Text
	if i := strings.IndexByte(text, '*'); i >= 0 {
		// A lone '*' or '*' plus one character is replaced.
		text = text[:i]
	}
	return Tokenize(text + "*" + t.CorrectChecksum)
}

// Field returns the field at index i, or "" when i is out of range.
func (t Tokenized) Field(i int) string {
	if i < 0 || i >= len(t.Fields) {
		return ""
	}
	return t.Fields[i]
}

func (t Tokenized) String() string {
	return t.Text
}
