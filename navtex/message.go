package navtex

import (
	"regexp"
	"strings"
	"time"

	"github.com/jrwynneiii/rxcore/message"
)

var headerRE = regexp.MustCompile(`[Z*][C*][Z*][C*][ *]([A-Z])([A-Z])(\d\d)((?s:.*))[N*][N*][N*][N*]`)

var messageTypes = map[string]string{
	"A": "Navigational warning",
	"B": "Meteorological warning",
	"C": "Ice reports",
	"D": "Search and rescue",
	"E": "Meteorological forecasts",
	"F": "Pilot service messages",
	"G": "AIS",
	"H": "LORAN",
	"J": "SATNAV",
	"K": "Navaid messages",
	"L": "Navigational warning",
	"T": "Test transmissions",
	"X": "Special services",
	"Y": "Special services",
	"Z": "No message",
}

// Message is the parsed form of a NAVTEX broadcast: "ZCZC B1B2B3B4", the
// body, then "NNNN".
type Message struct {
	StationID string
	TypeID    string
	ID        string
	Body      string
	// Valid is false when no header was found; Body then holds the raw text.
	Valid bool
}

// ParseMessage extracts the header fields from decoded text. Characters lost
// to decode errors ('*') are tolerated in the header and trailer.
func ParseMessage(text string) Message {
	m := headerRE.FindStringSubmatch(text)
	if m == nil {
		return Message{Body: text}
	}
	return Message{
		StationID: m[1],
		TypeID:    m[2],
		ID:        m[3],
		Body:      strings.TrimSpace(m[4]),
		Valid:     true,
	}
}

// Type returns the name of the message type, or "" when unknown.
func (m Message) Type() string {
	if !m.Valid {
		return ""
	}
	return messageTypes[m.TypeID]
}

// DecodedMessage is published for every message the receiver completes.
type DecodedMessage struct {
	Text      string
	Message   Message
	Errors    int
	Chars     int
	RSSI      float64
	RSSIdB    float64
	Timestamp time.Time
	// Frequency is the absolute channel frequency in Hz, when known.
	Frequency int64
}

func (DecodedMessage) Kind() message.Kind { return message.KindNavtexReport }

// ErrorRate returns errors per received code, each character being sent twice.
func (d DecodedMessage) ErrorRate() float64 {
	if d.Chars == 0 {
		return 0
	}
	return float64(d.Errors) / float64(2*d.Chars)
}

// MessageSink receives decoded messages.
type MessageSink interface {
	PushNavtex(m DecodedMessage)
}
