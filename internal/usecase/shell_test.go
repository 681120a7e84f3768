package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"micros-shell/internal/domain"
	"micros-shell/internal/domain/mocks"
)

type replyRecorder struct {
	lines []string
}

func (r *replyRecorder) Reply(msg string) { r.lines = append(r.lines, msg) }

func (r *replyRecorder) text() string { return strings.Join(r.lines, "\n") }

type stubCatalog []domain.ModuleDescriptor

func (c stubCatalog) Modules() []domain.ModuleDescriptor { return c }

type shellFixture struct {
	cfg      *mocks.MockConfigGateway
	executor *mocks.MockDispatchExecutor
	probe    *mocks.MockMemoryProbe
	shell    *ShellInterpreter
	session  *domain.SessionState
	out      *replyRecorder
}

func newShellFixture(t *testing.T) *shellFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &shellFixture{
		cfg:      mocks.NewMockConfigGateway(ctrl),
		executor: mocks.NewMockDispatchExecutor(ctrl),
		probe:    mocks.NewMockMemoryProbe(ctrl),
		session:  &domain.SessionState{},
		out:      &replyRecorder{},
	}
	guard := NewMemoryGuard(f.probe, f.cfg, domain.NewMemoryPolicy(domain.DefaultEventRatio))
	catalog := stubCatalog{
		{Name: "commands", Functions: []string{"mem_free", "__private", "addnumbs"}},
		{Name: "native", Precompiled: true},
	}
	f.shell = NewShellInterpreter(f.cfg, f.executor, catalog, guard)
	return f
}

func (f *shellFixture) handle(line string) bool {
	return f.shell.Handle(line, f.session, f.out)
}

func TestHandleEmptyLineIsHealthy(t *testing.T) {
	f := newShellFixture(t)
	assert.True(t, f.handle(""))
	assert.True(t, f.handle("   \t "))
	assert.Empty(t, f.out.lines)
}

func TestHandleDispatchesFullTokenList(t *testing.T) {
	f := newShellFixture(t)
	f.executor.EXPECT().
		Execute([]string{"LM_commands", "addnumbs", "1", "2"}, gomock.Any()).
		DoAndReturn(func(args []string, out domain.Replier) (bool, error) {
			out.Reply("3")
			return true, nil
		}).
		Times(1)

	assert.True(t, f.handle("LM_commands  addnumbs 1 2"))
	assert.Equal(t, []string{"3"}, f.out.lines)
}

func TestHandleSingleTokenOutsideConfigure(t *testing.T) {
	f := newShellFixture(t)
	assert.False(t, f.handle("blink"))
	assert.Contains(t, f.out.text(), "unknown command: blink")
}

func TestHandleExecutorErrorIsReported(t *testing.T) {
	f := newShellFixture(t)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(false, errors.New("module crashed"))

	assert.False(t, f.handle("LM_system info"))
	assert.Contains(t, f.out.text(), "[ERROR] dispatch internal error: module crashed")
}

func TestHandleExecutorPanicIsRecovered(t *testing.T) {
	f := newShellFixture(t)
	f.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func([]string, domain.Replier) (bool, error) { panic("boom") })

	var ok bool
	require.NotPanics(t, func() { ok = f.handle("LM_system info") })
	assert.False(t, ok)
	assert.Contains(t, f.out.text(), "boom")
}

func TestHandleConfigPanicIsRuntimeError(t *testing.T) {
	f := newShellFixture(t)
	f.session.EnterConfigure()
	f.cfg.EXPECT().Dump().DoAndReturn(func() []domain.ConfigEntry { panic("corrupt") })

	assert.False(t, f.handle("dump"))
	assert.Equal(t, []string{"[SHELL] Runtime error: corrupt"}, f.out.lines)
}

func TestHandleConfNoconfThenDispatch(t *testing.T) {
	f := newShellFixture(t)
	f.executor.EXPECT().Execute([]string{"LM_led", "toggle"}, gomock.Any()).Return(true, nil)

	assert.True(t, f.handle("configure"))
	assert.True(t, f.session.ConfigureMode)
	assert.Equal(t, domain.ConfigurePrompt, f.session.PromptPrefix)
	assert.True(t, f.handle("noconf"))
	assert.False(t, f.session.ConfigureMode)
	assert.Empty(t, f.session.PromptPrefix)
	assert.True(t, f.handle("LM_led toggle"))
}

func TestConfigureDumpOneLinePerKey(t *testing.T) {
	f := newShellFixture(t)
	f.session.EnterConfigure()
	f.cfg.EXPECT().Dump().Return([]domain.ConfigEntry{
		{Key: "devfid", Value: "node01"},
		{Key: "socport", Value: 9008},
		{Key: "timirq", Value: false},
	})

	assert.True(t, f.handle("dump"))
	require.Len(t, f.out.lines, 3)
	for i, key := range []string{"devfid", "socport", "timirq"} {
		assert.Equal(t, 1, strings.Count(f.out.text(), key))
		assert.True(t, strings.HasPrefix(strings.TrimSpace(f.out.lines[i]), key))
	}
	assert.Contains(t, f.out.lines[1], "9008")
}

func TestConfigureGetValue(t *testing.T) {
	f := newShellFixture(t)
	f.session.EnterConfigure()
	f.cfg.EXPECT().Get("devfid").Return("node01", true)
	f.cfg.EXPECT().Get("missing").Return(nil, false)

	assert.True(t, f.handle("devfid"))
	assert.True(t, f.handle("missing"))
	assert.Equal(t, []string{"node01", AbsentValue}, f.out.lines)
}

func TestConfigureSetWithoutIrqSkipsGuard(t *testing.T) {
	f := newShellFixture(t)
	f.session.EnterConfigure()
	f.probe.EXPECT().Collect().Times(0)
	f.probe.EXPECT().Free().Times(0)
	f.cfg.EXPECT().Put("devfid", "kitchen node", true).Return(true, nil)

	assert.True(t, f.handle("devfid kitchen node"))
	assert.Equal(t, []string{"Saved"}, f.out.lines)
}

func TestConfigureIrqRejectedByGuard(t *testing.T) {
	f := newShellFixture(t)
	f.session.EnterConfigure()
	f.probe.EXPECT().Collect()
	f.probe.EXPECT().Free().Return(int64(1000), nil)
	f.cfg.EXPECT().Get(domain.KeyIRQMemReq).Return(6000, true)
	f.cfg.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	assert.True(t, f.handle("timirq True"))
	require.Len(t, f.out.lines, 1)
	assert.Contains(t, f.out.lines[0], "short by 5000 byte")
	assert.NotContains(t, f.out.text(), "Saved")
}

func TestConfigureEventThresholdUsesRatio(t *testing.T) {
	f := newShellFixture(t)
	f.session.EnterConfigure()
	f.probe.EXPECT().Collect()
	f.probe.EXPECT().Free().Return(int64(4500), nil)
	f.cfg.EXPECT().Get(domain.KeyIRQMemReq).Return(6000, true)
	f.cfg.EXPECT().Put("extirq", "true", true).Return(true, nil)

	assert.True(t, f.handle("extirq true"))
	assert.Equal(t, []string{"Saved"}, f.out.lines)
}

func TestConfigureSavedOrFailedNeverBoth(t *testing.T) {
	cases := []struct {
		name   string
		put    bool
		putErr error
		exists bool
		null   bool
		want   []string
	}{
		{name: "saved", put: true, want: []string{"Saved"}},
		{name: "failed", put: false, exists: true, want: []string{"Failed to save"}},
		{name: "invalid key", put: false, exists: false, want: []string{"Invalid key"}},
		{name: "stored null", put: false, exists: true, null: true, want: []string{"Invalid key"}},
		{
			name:   "write error",
			putErr: domain.ErrConfigWrite,
			exists: true,
			want:   []string{"node_config write error: " + domain.ErrConfigWrite.Error(), "Failed to save"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newShellFixture(t)
			f.session.EnterConfigure()
			f.probe.EXPECT().Collect()
			f.probe.EXPECT().Free().Return(int64(1<<20), nil)
			f.cfg.EXPECT().Get(domain.KeyIRQMemReq).Return(6000, true)
			f.cfg.EXPECT().Put("timirq", "true", true).Return(tc.put, tc.putErr)
			if !tc.put {
				var stored any = false
				if tc.null {
					stored = nil
				}
				f.cfg.EXPECT().Get("timirq").Return(stored, tc.exists)
			}

			assert.True(t, f.handle("timirq true"))
			assert.Equal(t, tc.want, f.out.lines)
		})
	}
}

func TestHelpListsModules(t *testing.T) {
	f := newShellFixture(t)
	assert.True(t, f.handle("help"))

	out := f.out.text()
	assert.Contains(t, out, "[CONF] Configure mode")
	assert.Contains(t, out, "   commands\n")
	assert.Contains(t, out, "mem_free")
	assert.Contains(t, out, "addnumbs")
	assert.NotContains(t, out, "__private")
	assert.Contains(t, out, "   native\n         help")
}

func TestExampleSession(t *testing.T) {
	f := newShellFixture(t)
	gomock.InOrder(
		f.cfg.EXPECT().Put("timirqcbf", "LM_commands mem_free", true).Return(true, nil),
		f.executor.EXPECT().Execute([]string{"LM_commands", "mem_free"}, gomock.Any()).Return(true, nil),
	)

	assert.True(t, f.handle("conf"))
	assert.True(t, f.session.ConfigureMode)
	assert.True(t, f.handle("timirqcbf LM_commands mem_free"))
	assert.Equal(t, []string{"Saved"}, f.out.lines)
	assert.True(t, f.handle("noconf"))
	assert.False(t, f.session.ConfigureMode)
	assert.True(t, f.handle("LM_commands mem_free"))
}
