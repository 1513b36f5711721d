package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/i18nsync/jsontree"
)

func mustParse(t *testing.T, s string) *jsontree.Node {
	t.Helper()
	d, err := jsontree.Parse([]byte(s))
	require.NoError(t, err)
	return d
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// upper is a deterministic backend: "Hello" -> "HELLO@fr".
func upper(calls *atomic.Int32) Func {
	return func(_ context.Context, text, target, _ string) (string, error) {
		calls.Add(1)
		return strings.ToUpper(text) + "@" + target, nil
	}
}

// ---------------------------------------------------------------------------
// New / FailSoft
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	tr, err := New(Provider{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &GoogleFree{}, tr)

	tr, err = New(Provider{ID: ServiceOpenAI, BaseURL: "http://localhost:11434/v1", Model: "llama3"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, tr)

	_, err = New(Provider{ID: ServiceOpenAI, Model: "x"}, nil)
	assert.ErrorContains(t, err, "base URL")

	_, err = New(Provider{ID: ServiceOpenAI, BaseURL: "http://x"}, nil)
	assert.ErrorContains(t, err, "model")

	_, err = New(Provider{ID: "deepl"}, nil)
	assert.ErrorContains(t, err, "unknown translation service")
}

func TestFailSoft(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	failing := Func(func(context.Context, string, string, string) (string, error) {
		return "", errors.New("backend down")
	})
	out, err := FailSoft(failing, logger).Translate(context.Background(), "Hello", "fr", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
	assert.Contains(t, buf.String(), "backend down")

	blank := Func(func(context.Context, string, string, string) (string, error) {
		return "  ", nil
	})
	out, err = FailSoft(blank, logger).Translate(context.Background(), "Hello", "fr", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)

	fs := FailSoft(Identity, logger)
	assert.Same(t, fs, FailSoft(fs, nil))
}

// ---------------------------------------------------------------------------
// Google
// ---------------------------------------------------------------------------

func TestGoogleCode(t *testing.T) {
	cases := map[string]string{
		"fr":      "fr",
		"pt_BR":   "pt-BR",
		"zh":      "zh-CN",
		"zh-Hans": "zh-CN",
		"zh_Hant": "zh-TW",
	}
	for in, want := range cases {
		assert.Equal(t, want, googleCode(in), in)
	}
}

func TestGoogleFreeTranslate(t *testing.T) {
	var gotFrom, gotTo string
	g := &GoogleFree{call: func(text, from, to string) (string, error) {
		gotFrom, gotTo = from, to
		return "Bonjour", nil
	}}

	out, err := g.Translate(context.Background(), "Hello", "fr", "en_US")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)
	assert.Equal(t, "en-US", gotFrom)
	assert.Equal(t, "fr", gotTo)
}

func TestGoogleFreeHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	g := &GoogleFree{call: func(string, string, string) (string, error) {
		<-release
		return "late", nil
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.Translate(ctx, "Hello", "fr", "en")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ---------------------------------------------------------------------------
// OpenAI
// ---------------------------------------------------------------------------

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	return string(b)
}

func TestOpenAITranslate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth, path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, chatResponse(`"Bonjour"`))
	}))
	defer srv.Close()

	o := NewOpenAI(Provider{ID: ServiceOpenAI, BaseURL: srv.URL + "/v1/", Model: "m1", APIKey: "secret"}, discardLogger())
	out, err := o.Translate(context.Background(), "Hello", "fr", "en")
	require.NoError(t, err)

	assert.Equal(t, "Bonjour", out)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "/v1/chat/completions", path)
	assert.Equal(t, "m1", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[1].Content, "French")
	assert.Contains(t, got.Messages[1].Content, "Hello")
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	orig := backoff
	backoff = func(int) time.Duration { return 0 }
	defer func() { backoff = orig }()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, chatResponse("Hallo"))
	}))
	defer srv.Close()

	o := NewOpenAI(Provider{BaseURL: srv.URL, Model: "m"}, discardLogger())
	out, err := o.Translate(context.Background(), "Hello", "de", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hallo", out)
	assert.EqualValues(t, 3, hits.Load())
}

func TestOpenAIRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, chatResponse("Hola"))
	}))
	defer srv.Close()

	o := NewOpenAI(Provider{BaseURL: srv.URL, Model: "m"}, discardLogger())
	out, err := o.Translate(context.Background(), "Hello", "es", "en")
	require.NoError(t, err)
	assert.Equal(t, "Hola", out)
	assert.EqualValues(t, 2, hits.Load())
}

func TestOpenAIClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	o := NewOpenAI(Provider{BaseURL: srv.URL, Model: "m"}, discardLogger())
	_, err := o.Translate(context.Background(), "Hello", "es", "en")
	assert.ErrorContains(t, err, "status 401")
}

func TestExtractResponseText(t *testing.T) {
	text, err := extractResponseText([]byte(chatResponse("ok")))
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	formats := []struct{ body, want string }{
		{`{"choices":[{"text":"legacy"}]}`, "legacy"},
		{`{"message":{"role":"assistant","content":"native"}}`, "native"},
		{`{"response":"generated","done":true}`, "generated"},
	}
	for _, f := range formats {
		text, err := extractResponseText([]byte(f.body))
		require.NoError(t, err, f.body)
		assert.Equal(t, f.want, text, f.body)
	}

	_, err = extractResponseText([]byte(`{"error":{"message":"quota"}}`))
	assert.ErrorContains(t, err, "quota")

	_, err = extractResponseText([]byte(`{"choices":[]}`))
	assert.Error(t, err)

	_, err = extractResponseText([]byte(`not json`))
	assert.Error(t, err)
}

func TestRetryDelay(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")
	assert.Equal(t, 7*time.Second, retryDelay(h, nil))

	body := `{"error":{"details":[{"@type":"type.googleapis.com/google.rpc.RetryInfo","retryDelay":"12s"}]}}`
	assert.Equal(t, 17*time.Second, retryDelay(http.Header{}, []byte(body)))

	assert.Equal(t, 65*time.Second, retryDelay(http.Header{}, []byte("garbage")))
}

func TestHold(t *testing.T) {
	h := &hold{}
	require.NoError(t, h.wait(context.Background()))

	h.extend(time.Hour)
	h.extend(time.Millisecond)
	assert.WithinDuration(t, time.Now().Add(time.Hour), h.until, time.Minute, "a shorter window never shortens the hold")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.wait(ctx), context.Canceled)
}

func TestNewHTTPClientProxy(t *testing.T) {
	c := newHTTPClient(Provider{Proxy: "http://proxy.local:3128", Timeout: 5 * time.Second}, discardLogger())
	assert.Equal(t, 5*time.Second, c.Timeout)

	req := httptest.NewRequest(http.MethodGet, "https://example.com", nil)
	u, err := c.Transport.(*http.Transport).Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, "proxy.local:3128", u.Host)

	c = newHTTPClient(Provider{Proxy: "::bad"}, discardLogger())
	assert.Equal(t, 60*time.Second, c.Timeout)
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, "Bonjour", cleanResponse("  Bonjour\n"))
	assert.Equal(t, "Bonjour", cleanResponse(`"Bonjour"`))
	assert.Equal(t, "Bonjour", cleanResponse("```\nBonjour\n```"))
	assert.Equal(t, `say "hi"`, cleanResponse(`say "hi"`))
}

// ---------------------------------------------------------------------------
// Batcher
// ---------------------------------------------------------------------------

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) OnProgress(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func TestTranslateKeys(t *testing.T) {
	var calls atomic.Int32
	src := mustParse(t, `{"a":{"b":"hello","n":3},"c":"world","d":"","e":null,"f":["x"],"sp":"   "}`)
	tgt := mustParse(t, `{"keep":"me","a":{"b":"old"}}`)

	b := &Batcher{Translator: upper(&calls), BatchSize: 2, Logger: discardLogger()}
	out, err := b.TranslateKeys(context.Background(),
		[]string{"a.b", "a.n", "c", "d", "e", "f", "sp", "missing"}, src, tgt, "en", "fr")
	require.NoError(t, err)

	want := `{
  "keep": "me",
  "a": {
    "b": "HELLO@fr",
    "n": 3
  },
  "c": "WORLD@fr",
  "d": "",
  "e": null,
  "f": [
    "x"
  ],
  "sp": "   "
}
`
	assert.Equal(t, want, string(jsontree.Marshal(out)))
	assert.EqualValues(t, 2, calls.Load())

	// input target untouched
	v, _ := jsontree.Get(tgt, "a.b")
	s, _ := v.StringValue()
	assert.Equal(t, "old", s)
	_, ok := jsontree.Get(tgt, "c")
	assert.False(t, ok)
}

func TestTranslateKeysAllFailuresKeepSource(t *testing.T) {
	src := mustParse(t, `{"greet":"Hello","bye":"Bye"}`)
	failing := Func(func(context.Context, string, string, string) (string, error) {
		return "", errors.New("boom")
	})

	b := &Batcher{Translator: failing, BatchSize: 1, Logger: discardLogger()}
	out, err := b.TranslateKeys(context.Background(), []string{"greet", "bye"}, src, jsontree.NewObject(), "en", "fr")
	require.NoError(t, err)
	assert.True(t, jsontree.Equal(src, out))
}

func TestTranslateKeysProgress(t *testing.T) {
	var calls atomic.Int32
	src := mustParse(t, `{"a":"1","b":"2","c":"3","d":"4","e":"5"}`)
	sink := &eventLog{}

	b := &Batcher{Translator: upper(&calls), BatchSize: 2, Sink: sink, Logger: discardLogger()}
	_, err := b.TranslateKeys(context.Background(), jsontree.AllKeys(src), src, nil, "en", "de")
	require.NoError(t, err)

	require.Len(t, sink.events, 4)
	var progress []int
	for _, e := range sink.events {
		progress = append(progress, e.Progress)
	}
	assert.Equal(t, []int{54, 78, 90, 90}, progress)
	assert.Equal(t, StageTranslating, sink.events[0].Stage)
	assert.Equal(t, 2, sink.events[0].Translated)
	assert.Equal(t, 5, sink.events[0].Total)
	assert.Equal(t, StageTranslationComplete, sink.events[3].Stage)
}

func TestTranslateKeysBatchBarrierAndDelay(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	slow := Func(func(_ context.Context, text, _, _ string) (string, error) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return text + "!", nil
	})

	src := mustParse(t, `{"a":"1","b":"2","c":"3","d":"4","e":"5","f":"6"}`)
	b := &Batcher{Translator: slow, BatchSize: 3, Delay: 30 * time.Millisecond, Logger: discardLogger()}

	start := time.Now()
	_, err := b.TranslateKeys(context.Background(), jsontree.AllKeys(src), src, nil, "en", "de")
	require.NoError(t, err)

	// two batches, one delay between them
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.LessOrEqual(t, maxInFlight.Load(), int32(3))
}

func TestTranslateKeysCancelledBeforeStart(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := mustParse(t, `{"a":"1"}`)
	b := &Batcher{Translator: upper(&calls), Logger: discardLogger()}
	_, err := b.TranslateKeys(ctx, []string{"a"}, src, nil, "en", "de")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls.Load())
}

func TestBatchProgress(t *testing.T) {
	assert.Equal(t, 30, batchProgress(0, 10))
	assert.Equal(t, 60, batchProgress(5, 10))
	assert.Equal(t, 90, batchProgress(10, 10))
	assert.Equal(t, 90, batchProgress(0, 0))
}

func TestEmitIgnoresPanickingSink(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(SinkFunc(func(Event) { panic("sink") }), Event{})
		Emit(nil, Event{})
		Emit(NopSink, Event{})
	})
}
