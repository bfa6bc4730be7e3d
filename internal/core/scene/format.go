package scene

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// FormatVersion is the newest scene format this package reads and the one it
// writes. Files without a format marker are read as version 1.
const FormatVersion = 1

// Unresolved is written for node references whose target was not saved.
const Unresolved = "unresolved"

const (
	flagResource = 'r'
	flagNode     = 'n'
)

var (
	headerPattern   = regexp.MustCompile(`^\[(\S+) local-id='([^']*)' parent='([^']*)'\]$`)
	propertyPattern = regexp.MustCompile(`^\s*([\w.\[\]-]+)\s+(?:([A-Za-z]+)\s+)?(\w+)=(.+)$`)
	commentPattern  = regexp.MustCompile(`^\s*#.*$`)
	formatPattern   = regexp.MustCompile(`^#\s*nodetree scene format=(\d+)$`)
	checksumPattern = regexp.MustCompile(`^#\s*checksum xxh64=([0-9a-f]{16})$`)
)

type record struct {
	Line     int
	Tag      string
	LocalID  uint32
	ParentID uint32
	Props    []property
}

type property struct {
	Line     int
	TypeName string
	Resource bool
	Node     bool
	Name     string
	Value    string
}

func formatHeader(tag string, localID, parentID uint32) string {
	return fmt.Sprintf("[%s local-id='%d' parent='%d']\n", tag, localID, parentID)
}

func formatProperty(p property) string {
	var b strings.Builder
	b.WriteByte('\t')
	b.WriteString(p.TypeName)
	b.WriteByte(' ')
	switch {
	case p.Node:
		b.WriteByte(flagNode)
		b.WriteByte(' ')
	case p.Resource:
		b.WriteByte(flagResource)
		b.WriteByte(' ')
	}
	b.WriteString(p.Name)
	b.WriteByte('=')
	b.WriteString(p.Value)
	b.WriteByte('\n')
	return b.String()
}

func formatMarker() string {
	return fmt.Sprintf("# nodetree scene format=%d\n", FormatVersion)
}

func formatChecksum(body []byte) string {
	return fmt.Sprintf("# checksum xxh64=%016x\n", xxhash.Sum64(body))
}

var crlf = []byte("\r\n")

// parse splits a scene file into records. It verifies the checksum trailer
// when one is present.
func parse(data []byte) ([]record, error) {
	var (
		records []record
		lineNo  int
		trailer bool
		offset  int
	)

	for offset < len(data) {
		start := offset
		raw := data[offset:]
		if i := bytes.IndexByte(raw, '\n'); i >= 0 {
			raw = raw[:i]
			offset += i + 1
		} else {
			offset = len(data)
		}
		lineNo++

		line := strings.TrimSpace(string(raw))
		if line == "" {
			continue
		}
		if trailer {
			return nil, &SyntaxError{Line: lineNo, Text: line, Reason: "content after checksum"}
		}

		switch {
		case headerPattern.MatchString(line):
			rec, err := parseHeader(lineNo, line)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)

		case commentPattern.MatchString(line):
			if err := checkComment(lineNo, line, data[:start]); err != nil {
				return nil, err
			}
			trailer = checksumPattern.MatchString(line)

		case propertyPattern.MatchString(line):
			if len(records) == 0 {
				return nil, &SyntaxError{Line: lineNo, Text: line, Reason: "property before first record"}
			}
			p, err := parseProperty(lineNo, line)
			if err != nil {
				return nil, err
			}
			last := &records[len(records)-1]
			last.Props = append(last.Props, p)

		default:
			return nil, &SyntaxError{Line: lineNo, Text: line, Reason: "not a record, property or comment"}
		}
	}
	return records, nil
}

func parseHeader(lineNo int, line string) (record, error) {
	m := headerPattern.FindStringSubmatch(line)
	localID, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return record{}, &SyntaxError{Line: lineNo, Text: line, Reason: "malformed local id"}
	}
	parentID, err := strconv.ParseUint(m[3], 10, 32)
	if err != nil {
		return record{}, &SyntaxError{Line: lineNo, Text: line, Reason: "malformed parent id"}
	}
	return record{
		Line:     lineNo,
		Tag:      m[1],
		LocalID:  uint32(localID),
		ParentID: uint32(parentID),
	}, nil
}

func parseProperty(lineNo int, line string) (property, error) {
	m := propertyPattern.FindStringSubmatch(line)
	p := property{
		Line:     lineNo,
		TypeName: m[1],
		Name:     m[3],
		Value:    m[4],
	}
	for _, flag := range m[2] {
		switch {
		case flag == flagResource && !p.Resource:
			p.Resource = true
		case flag == flagNode && !p.Node:
			p.Node = true
		default:
			return property{}, &SyntaxError{Line: lineNo, Text: line, Reason: fmt.Sprintf("bad flag %q", flag)}
		}
	}
	return p, nil
}

func checkComment(lineNo int, line string, before []byte) error {
	if m := formatPattern.FindStringSubmatch(line); m != nil {
		version, err := strconv.Atoi(m[1])
		if err != nil {
			return &SyntaxError{Line: lineNo, Text: line, Reason: "malformed format version"}
		}
		if version > FormatVersion {
			return fmt.Errorf("%w: %d (newest is %d)", ErrUnsupportedFormat, version, FormatVersion)
		}
		return nil
	}
	if m := checksumPattern.FindStringSubmatch(line); m != nil {
		want, err := strconv.ParseUint(m[1], 16, 64)
		if err != nil {
			return &SyntaxError{Line: lineNo, Text: line, Reason: "malformed checksum"}
		}
		// Hash as if saved with LF endings so CRLF checkouts still verify.
		if bytes.Contains(before, crlf) {
			before = bytes.ReplaceAll(before, crlf, []byte("\n"))
		}
		if got := xxhash.Sum64(before); got != want {
			return fmt.Errorf("%w: file has %016x, content hashes to %016x", ErrChecksumMismatch, want, got)
		}
	}
	return nil
}
