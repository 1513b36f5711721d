package translate

// Event types.
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// Stages reported by Batcher and the language manager.
const (
	StageCreatingFile        = "creating-file"
	StageAnalyzingKeys       = "analyzing-keys"
	StageTranslating         = "translating"
	StageTranslationComplete = "translation-complete"
	StageSaving              = "saving"
	StageComplete            = "complete"
)

// Event is one progress notification. Progress is a percentage in [0, 100]
// that never decreases within one operation.
type Event struct {
	Type       string `json:"type"`
	Stage      string `json:"stage"`
	Language   string `json:"language,omitempty"`
	Message    string `json:"message,omitempty"`
	Progress   int    `json:"progress"`
	Translated int    `json:"translated,omitempty"`
	Total      int    `json:"total,omitempty"`
}

// Sink receives progress events. Implementations must not block for long;
// the caller does not depend on them.
type Sink interface {
	OnProgress(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// OnProgress calls f.
func (f SinkFunc) OnProgress(e Event) { f(e) }

type nopSink struct{}

func (nopSink) OnProgress(Event) {}

// NopSink discards every event.
var NopSink Sink = nopSink{}

// Emit delivers e to s. A nil sink is allowed and a panicking sink is
// ignored.
func Emit(s Sink, e Event) {
	if s == nil {
		return
	}
	defer func() { _ = recover() }()
	s.OnProgress(e)
}
