package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	payloadMu   sync.Mutex
	payloadLog  *log.Logger
	payloadDump bool
)

// SetPayloadWriter sets the sink for model request/response dumps. nil disables it.
func SetPayloadWriter(w io.Writer) {
	payloadMu.Lock()
	defer payloadMu.Unlock()
	if w == nil {
		payloadLog = nil
		return
	}
	payloadLog = log.New(w, "", log.LstdFlags)
}

// EnablePayloadDump toggles whether model frames are written to the payload sink.
func EnablePayloadDump(enabled bool) {
	payloadMu.Lock()
	payloadDump = enabled
	payloadMu.Unlock()
}

type payloadSection struct {
	Title string
	Body  string
}

func logPayload(kind, tool string, sections []payloadSection) {
	payloadMu.Lock()
	l := payloadLog
	enabled := payloadDump
	payloadMu.Unlock()
	if l == nil || !enabled {
		return
	}
	var b strings.Builder
	b.WriteString("[MODEL]")
	for _, tag := range []string{kind, tool} {
		if tag == "" {
			continue
		}
		b.WriteString("[")
		b.WriteString(tag)
		b.WriteString("]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		t := strings.TrimSpace(sec.Title)
		if t == "" {
			t = "CONTENT"
		}
		b.WriteString("--- ")
		b.WriteString(t)
		b.WriteString(" ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

// LogModelRequest dumps the ordered input frame sent to a tool's model.
func LogModelRequest(tool, frame string) {
	logPayload("request", tool, []payloadSection{{Title: "FRAME", Body: frame}})
}

// LogModelResponse dumps the raw scores a tool's model returned.
func LogModelResponse(tool, scores string) {
	logPayload("response", tool, []payloadSection{{Title: "SCORES", Body: scores}})
}
