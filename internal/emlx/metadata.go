package emlx

import (
	"bytes"
	"encoding/xml"
	"math"
	"strconv"
	"strings"
	"time"
)

// appleEpoch is the reference date of property-list <date> and <real> values.
var appleEpoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// Flag bits of the "flags" trailer entry.
const (
	FlagRead     int64 = 1 << 0
	FlagDeleted  int64 = 1 << 1
	FlagAnswered int64 = 1 << 2
	FlagFlagged  int64 = 1 << 4
	FlagDraft    int64 = 1 << 6
)

// Metadata is what the client records about a message next to its bytes.
type Metadata struct {
	Flags           int64     `json:"flags"`
	DateSent        time.Time `json:"date_sent,omitzero"`
	DateReceived    time.Time `json:"date_received,omitzero"`
	OriginalMailbox string    `json:"original_mailbox,omitempty"`
	RemoteID        string    `json:"remote_id,omitempty"`
}

// Has reports whether every bit in flag is set.
func (m *Metadata) Has(flag int64) bool {
	return m != nil && m.Flags&flag == flag
}

// parseMetadata walks the top-level dict of the trailer. It returns nil when
// nothing could be read.
func parseMetadata(trailer []byte) *Metadata {
	dec := xml.NewDecoder(bytes.NewReader(trailer))
	dec.Strict = false

	m := &Metadata{}
	found := false
	depth := 0
	key := ""
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "dict" {
				depth++
				continue
			}
			if depth != 1 {
				continue
			}
			var text string
			if t.Name.Local != "key" && t.Name.Local != "integer" && t.Name.Local != "real" &&
				t.Name.Local != "string" && t.Name.Local != "date" {
				key = ""
				continue
			}
			if err := dec.DecodeElement(&text, &t); err != nil {
				return result(m, found)
			}
			text = strings.TrimSpace(text)
			if t.Name.Local == "key" {
				key = text
				continue
			}
			if assign(m, key, t.Name.Local, text) {
				found = true
			}
			key = ""
		case xml.EndElement:
			if t.Name.Local == "dict" {
				depth--
			}
		}
	}
	return result(m, found)
}

func result(m *Metadata, found bool) *Metadata {
	if !found {
		return nil
	}
	return m
}

func assign(m *Metadata, key, kind, text string) bool {
	switch key {
	case "flags":
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return false
		}
		m.Flags = n
	case "date-sent", "date-received":
		ts, ok := parseDate(kind, text)
		if !ok {
			return false
		}
		if key == "date-sent" {
			m.DateSent = ts
		} else {
			m.DateReceived = ts
		}
	case "original-mailbox":
		m.OriginalMailbox = text
	case "remote-id":
		m.RemoteID = text
	default:
		return false
	}
	return true
}

func parseDate(kind, text string) (time.Time, bool) {
	switch kind {
	case "real", "integer":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return time.Time{}, false
		}
		sec, frac := math.Modf(f)
		d := time.Duration(sec)*time.Second + time.Duration(math.Round(frac*float64(time.Second)))
		return appleEpoch.Add(d).UTC(), true
	case "date":
		ts, err := time.Parse(time.RFC3339, text)
		if err != nil {
			return time.Time{}, false
		}
		return ts.UTC(), true
	}
	return time.Time{}, false
}
