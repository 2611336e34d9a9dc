package usecase

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/hardng/arca/internal/adapter/storage"
	"github.com/hardng/arca/internal/domain"
)

type mockObjectStore struct {
	mock.Mock
}

func (m *mockObjectStore) Configure(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockObjectStore) Upload(ctx context.Context, localPath, remoteName string) error {
	args := m.Called(ctx, localPath, remoteName)
	return args.Error(0)
}

func (m *mockObjectStore) List(ctx context.Context) ([]domain.Object, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Object), args.Error(1)
}

func (m *mockObjectStore) Remove(ctx context.Context, remoteName string) error {
	args := m.Called(ctx, remoteName)
	return args.Error(0)
}

func (m *mockObjectStore) RemoveOlderThan(ctx context.Context, days int) error {
	args := m.Called(ctx, days)
	return args.Error(0)
}

func (m *mockObjectStore) Download(ctx context.Context, remoteName, localPath string) error {
	args := m.Called(ctx, remoteName, localPath)
	return args.Error(0)
}

func (m *mockObjectStore) Location(remoteName string) string {
	args := m.Called(remoteName)
	return args.String(0)
}

// fakeProducer writes payload to destPath, or fails.
type fakeProducer struct {
	prefix   string
	ext      string
	payload  []byte
	err      error
	pingErr  error
	produced []string
}

func (p *fakeProducer) Produce(_ context.Context, destPath string) error {
	p.produced = append(p.produced, destPath)
	if p.err != nil {
		return p.err
	}
	return os.WriteFile(destPath, p.payload, 0644)
}

func (p *fakeProducer) Prefix() string { return p.prefix }
func (p *fakeProducer) Ext() string    { return p.ext }

// pingingProducer layers Ping on top of fakeProducer so that only tests
// opting in exercise the reachability check.
type pingingProducer struct {
	*fakeProducer
}

func (p *pingingProducer) Ping(context.Context) error { return p.pingErr }

type fakeRestorer struct {
	target   string
	err      error
	restored []string
}

func (r *fakeRestorer) Restore(_ context.Context, artifactPath string) error {
	if r.err != nil {
		return r.err
	}
	r.restored = append(r.restored, artifactPath)
	return nil
}

func (r *fakeRestorer) Target() string { return r.target }

type fakeMirror struct {
	name     string
	err      error
	mu       sync.Mutex
	received []string
}

func (m *fakeMirror) Name() string { return m.name }

// Upload records localPath only if the file is actually readable at call
// time, so tests catch a mirror leg scheduled after local cleanup.
func (m *fakeMirror) Upload(_ context.Context, localPath, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	m.received = append(m.received, localPath)
	return nil
}

type fakeNotifier struct {
	err      error
	messages []string
	files    []string
}

func (n *fakeNotifier) Notify(_ context.Context, message string) error {
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, message)
	return nil
}

func (n *fakeNotifier) NotifyFile(_ context.Context, localPath, caption string) error {
	if n.err != nil {
		return n.err
	}
	n.files = append(n.files, localPath)
	n.messages = append(n.messages, caption)
	return nil
}

// recordingLocal wraps the real backup directory and logs removals, so
// ordering against uploads can be asserted.
type recordingLocal struct {
	*storage.Local
	calls *callLog
}

func (l *recordingLocal) Remove(name string) error {
	l.calls.add("local.Remove " + name)
	return l.Local.Remove(name)
}

type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (c *callLog) add(entry string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *callLog) index(entry string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.entries {
		if e == entry {
			return i
		}
	}
	return -1
}

type testLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
	errs  []string
}

func (l *testLogger) Infof(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(template, args...))
}

func (l *testLogger) Warnf(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(template, args...))
}

func (l *testLogger) Errorf(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, fmt.Sprintf(template, args...))
}

type countingMetrics struct {
	mu        sync.Mutex
	started   map[string]int
	completed map[string]int
	removed   map[string]int
	bytes     float64
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		started:   map[string]int{},
		completed: map[string]int{},
		removed:   map[string]int{},
	}
}

func (m *countingMetrics) IncRunStarted(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started[source]++
}

func (m *countingMetrics) IncRunCompleted(source, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed[source+"/"+status]++
}

func (m *countingMetrics) AddArtifactBytes(_ string, bytes float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytes += bytes
}

func (m *countingMetrics) IncArtifactsRemoved(store string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed[store]++
}

func (m *countingMetrics) ObserveRunDuration(string, float64) {}
