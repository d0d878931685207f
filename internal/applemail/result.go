package applemail

import (
	"github.com/teemow/mailreader/internal/emlx"
	"github.com/teemow/mailreader/internal/message"
)

// MessageResult is either a parsed message (Success true) or the reason the
// archive at FilePath could not be read (Success false, Error set).
type MessageResult struct {
	Success bool `json:"success"`
	*message.Parsed
	FilePath string         `json:"file_path"`
	Metadata *emlx.Metadata `json:"metadata,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func failed(path, reason string) *MessageResult {
	return &MessageResult{FilePath: path, Error: reason}
}

// ThreadResult holds the messages of one conversation in send order.
type ThreadResult struct {
	MessageID string           `json:"message_id"`
	Messages  []*MessageResult `json:"emails"`
}

// Size is the number of messages in the thread.
func (t *ThreadResult) Size() int {
	return len(t.Messages)
}

// Failed counts the messages that could not be read.
func (t *ThreadResult) Failed() int {
	n := 0
	for _, m := range t.Messages {
		if !m.Success {
			n++
		}
	}
	return n
}
