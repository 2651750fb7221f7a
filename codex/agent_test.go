package codex

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ohblue/craft-agents-oss/events"
	"github.com/ohblue/craft-agents-oss/thinking"
)

type fakeThread struct {
	mu        sync.Mutex
	id        string
	opts      ThreadOptions
	streaming bool
	events    []map[string]interface{}
	result    *TurnResult
	runErr    error
	block     chan struct{}
}

func (t *fakeThread) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

func (t *fakeThread) SupportsStreaming() bool { return t.streaming }

func (t *fakeThread) RunStreamed(ctx context.Context, message string) (<-chan map[string]interface{}, error) {
	if t.runErr != nil {
		return nil, t.runErr
	}
	out := make(chan map[string]interface{})
	go func() {
		defer close(out)
		for _, ev := range t.events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
		if t.block != nil {
			select {
			case <-t.block:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func (t *fakeThread) Run(ctx context.Context, message string) (*TurnResult, error) {
	return t.result, t.runErr
}

type fakeConnection struct {
	mu      sync.Mutex
	thread  *fakeThread
	starts  []ThreadOptions
	resumes []string
}

func (c *fakeConnection) StartThread(ctx context.Context, opts ThreadOptions) (Thread, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts = append(c.starts, opts)
	c.thread.opts = opts
	return c.thread, nil
}

func (c *fakeConnection) ResumeThread(ctx context.Context, threadID string, opts ThreadOptions) (Thread, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumes = append(c.resumes, threadID)
	c.thread.opts = opts
	c.thread.mu.Lock()
	c.thread.id = threadID
	c.thread.mu.Unlock()
	return c.thread, nil
}

func (c *fakeConnection) Close() error { return nil }

func newFakeAgent(thread *fakeThread, opts ...Option) (*Agent, *fakeConnection) {
	conn := &fakeConnection{thread: thread}
	opts = append(opts, withDialFunc(func(ctx context.Context) (Connection, error) {
		return conn, nil
	}))
	return NewAgent(opts...), conn
}

func collect(t *testing.T, ch <-chan events.Event) []events.Event {
	t.Helper()
	var out []events.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for events; got %d so far", len(out))
		}
	}
}

func TestEnsureConnection_Coalesced(t *testing.T) {
	var dials atomic.Int32
	release := make(chan struct{})
	a := NewAgent(withDialFunc(func(ctx context.Context) (Connection, error) {
		dials.Add(1)
		<-release
		return &fakeConnection{thread: &fakeThread{}}, nil
	}))

	const callers = 8
	conns := make([]Connection, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := a.ensureConnection(context.Background())
			if err != nil {
				t.Errorf("ensureConnection: %v", err)
			}
			conns[i] = conn
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := dials.Load(); got != 1 {
		t.Fatalf("dialed %d times, want 1", got)
	}
	for i := 1; i < callers; i++ {
		if conns[i] != conns[0] {
			t.Fatal("concurrent callers got distinct connections")
		}
	}
}

func TestEnsureConnection_FailurePropagatesThenRetries(t *testing.T) {
	dialErr := errors.New("spawn failed")
	var dials atomic.Int32
	a := NewAgent(withDialFunc(func(ctx context.Context) (Connection, error) {
		if dials.Add(1) == 1 {
			return nil, dialErr
		}
		return &fakeConnection{thread: &fakeThread{}}, nil
	}))

	if _, err := a.ensureConnection(context.Background()); !errors.Is(err, dialErr) {
		t.Fatalf("first attempt err = %v, want %v", err, dialErr)
	}
	conn, err := a.ensureConnection(context.Background())
	if err != nil || conn == nil {
		t.Fatalf("retry after failure: conn=%v err=%v", conn, err)
	}
	if dials.Load() != 2 {
		t.Fatalf("dialed %d times, want 2", dials.Load())
	}
}

func TestChat_StreamedTurn(t *testing.T) {
	thread := &fakeThread{
		streaming: true,
		events: []map[string]interface{}{
			{"type": "thread.started", "thread_id": "th-1"},
			{"type": "agent_message.delta", "delta": "hi "},
			{"type": "agent_message.delta", "delta": "there"},
		},
	}
	var startedIDs []string
	notifier := &recordingNotifier{onThread: func(id string) { startedIDs = append(startedIDs, id) }}
	a, _ := newFakeAgent(thread, WithNotifier(notifier))

	ch, err := a.Chat(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	got := collect(t, ch)

	if len(got) != 4 {
		t.Fatalf("got %d events (%#v), want 2 deltas + text complete + complete", len(got), got)
	}
	if tc, ok := got[2].(events.TextComplete); !ok || tc.Text != "hi there" {
		t.Fatalf("got[2] = %#v, want synthesized TextComplete", got[2])
	}
	if _, ok := got[3].(events.Complete); !ok {
		t.Fatalf("last event = %T, want Complete", got[3])
	}
	if len(startedIDs) != 1 || startedIDs[0] != "th-1" {
		t.Fatalf("thread notifications = %v, want one th-1", startedIDs)
	}
}

func TestChat_FallbackRun(t *testing.T) {
	thread := &fakeThread{
		streaming: false,
		result:    &TurnResult{Text: "plain answer"},
	}
	a, _ := newFakeAgent(thread)

	ch, err := a.Chat(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	got := collect(t, ch)

	if len(got) != 2 {
		t.Fatalf("got %d events, want TextComplete+Complete", len(got))
	}
	if tc, ok := got[0].(events.TextComplete); !ok || tc.Text != "plain answer" {
		t.Fatalf("got[0] = %#v", got[0])
	}
}

func TestChat_AttachmentsYieldInfo(t *testing.T) {
	a, _ := newFakeAgent(&fakeThread{streaming: true})

	ch, err := a.Chat(context.Background(), "q", []string{"photo.png"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	got := collect(t, ch)

	if len(got) == 0 {
		t.Fatal("no events")
	}
	if _, ok := got[0].(events.Info); !ok {
		t.Fatalf("got[0] = %T, want Info about attachments", got[0])
	}
	if _, ok := got[len(got)-1].(events.Complete); !ok {
		t.Fatalf("last event = %T, want Complete", got[len(got)-1])
	}
}

func TestChat_SecondTurnRejected(t *testing.T) {
	thread := &fakeThread{streaming: true, block: make(chan struct{})}
	a, _ := newFakeAgent(thread)

	ch, err := a.Chat(context.Background(), "first", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if _, err := a.Chat(context.Background(), "second", nil); !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("second Chat err = %v, want ErrTurnInFlight", err)
	}

	close(thread.block)
	collect(t, ch)

	// With the first turn over, a new one is accepted.
	ch2, err := a.Chat(context.Background(), "third", nil)
	if err != nil {
		t.Fatalf("Chat after turn end: %v", err)
	}
	collect(t, ch2)
}

func TestForceAbort_EndsTurn(t *testing.T) {
	thread := &fakeThread{streaming: true, block: make(chan struct{})}
	a, _ := newFakeAgent(thread)

	ch, err := a.Chat(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	a.ForceAbort()
	a.ForceAbort() // idempotent

	collect(t, ch) // channel must close
}

func TestSetModel_NoIDDropsHandle(t *testing.T) {
	thread := &fakeThread{streaming: true}
	a, conn := newFakeAgent(thread)

	if _, err := a.ensureThread(context.Background()); err != nil {
		t.Fatalf("ensureThread: %v", err)
	}
	if err := a.SetModel(context.Background(), "gpt-5.2"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	if a.thread != nil {
		t.Fatal("cached handle should be dropped when no id is assigned")
	}
	if len(conn.resumes) != 0 {
		t.Fatalf("unexpected resume calls: %v", conn.resumes)
	}
}

func TestSetModel_KnownIDResumesEagerly(t *testing.T) {
	thread := &fakeThread{streaming: true, id: "th-9"}
	a, conn := newFakeAgent(thread)

	if _, err := a.ensureThread(context.Background()); err != nil {
		t.Fatalf("ensureThread: %v", err)
	}
	if err := a.SetModel(context.Background(), "gpt-5.2"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	if len(conn.resumes) != 1 || conn.resumes[0] != "th-9" {
		t.Fatalf("resumes = %v, want one resume of th-9", conn.resumes)
	}
	if conn.thread.opts.Model != "gpt-5.2" {
		t.Fatalf("resumed with model %q", conn.thread.opts.Model)
	}
	if !conn.thread.opts.SkipTrustCheck {
		t.Fatal("trust check must always be skipped")
	}
}

func TestEnsureThread_PriorIDResumes(t *testing.T) {
	thread := &fakeThread{streaming: true}
	a, conn := newFakeAgent(thread, WithThreadID("prior-1"))

	if _, err := a.ensureThread(context.Background()); err != nil {
		t.Fatalf("ensureThread: %v", err)
	}
	if len(conn.resumes) != 1 || conn.resumes[0] != "prior-1" {
		t.Fatalf("resumes = %v, want prior-1", conn.resumes)
	}
	if len(conn.starts) != 0 {
		t.Fatal("prior thread id must resume, not start fresh")
	}
}

func TestThreadOptions_UltrathinkOverride(t *testing.T) {
	a := NewAgent(WithModel("gpt-5.3-codex"), WithThinkingLevel(thinking.LevelOff))
	a.cfg.ultrathink = true

	a.mu.Lock()
	opts := a.threadOptionsLocked()
	a.mu.Unlock()

	if opts.ReasoningEffort != thinking.LevelXHigh {
		t.Fatalf("effort = %v, want xhigh under ultrathink", opts.ReasoningEffort)
	}
}

type recordingNotifier struct {
	BaseNotifier
	onThread func(id string)
}

func (n *recordingNotifier) OnThreadStarted(id string) {
	if n.onThread != nil {
		n.onThread(id)
	}
}
