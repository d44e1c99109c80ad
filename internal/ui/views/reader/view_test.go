package reader_test

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	readerdto "pagetrack/internal/modules/reader/dto"
	sessiondto "pagetrack/internal/modules/session/dto"
	"pagetrack/internal/ui/views/reader"
)

type fakePages struct{}

func (fakePages) OpenPage(_ context.Context, documentID string, page int) (readerdto.PageOutput, error) {
	return readerdto.PageOutput{DocumentID: documentID, Title: "Doc", Kind: "text", Page: page, TotalPages: 3, Text: fmt.Sprintf("page %d", page)}, nil
}

type fakeSession struct {
	pages  []int
	paused bool
}

func (f *fakeSession) Open(_ context.Context, documentID string, _ int) (sessiondto.OpenOutput, error) {
	return sessiondto.OpenOutput{Live: sessiondto.LiveStatsOutput{DocumentID: documentID, State: "active", CurrentPage: 2, TotalPages: 3}}, nil
}

func (f *fakeSession) GoToPage(_ context.Context, page int) (sessiondto.LiveStatsOutput, error) {
	f.pages = append(f.pages, page)
	return sessiondto.LiveStatsOutput{DocumentID: "doc", State: "active", CurrentPage: page}, nil
}

func (f *fakeSession) Activity(context.Context) error { return nil }

func (f *fakeSession) TogglePause(context.Context) (sessiondto.LiveStatsOutput, *sessiondto.FlushOutput, error) {
	f.paused = !f.paused
	if f.paused {
		return sessiondto.LiveStatsOutput{State: "paused"}, &sessiondto.FlushOutput{Trigger: "pause", Outcome: "persisted"}, nil
	}
	return sessiondto.LiveStatsOutput{State: "active"}, nil, nil
}

func (f *fakeSession) Live(context.Context) (sessiondto.LiveStatsOutput, error) {
	return sessiondto.LiveStatsOutput{State: "active"}, nil
}

func collect(cmd tea.Cmd) []tea.Cmd {
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		return []tea.Cmd{cmd}
	}
	var cmds []tea.Cmd
	for _, c := range batch {
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	return cmds
}

func TestOpenResumesAtSessionPage(t *testing.T) {
	t.Parallel()
	session := &fakeSession{}
	m := reader.New(fakePages{}, session)

	cmd := m.Open("doc")
	require.NotNil(t, cmd)
	// Open batches the load with a spinner tick; run the load directly.
	opened := reader.OpenedMsg{}
	for _, c := range collect(cmd) {
		if msg, ok := c().(reader.OpenedMsg); ok {
			opened = msg
		}
	}
	require.NoError(t, opened.Err)
	require.Equal(t, 2, opened.Page.Page)
	require.Equal(t, "page 2", opened.Page.Text)

	m, _ = m.Update(opened)
	require.Equal(t, "doc", m.DocumentID())
	require.Contains(t, m.View(), "p.2/3")
}

func TestNavigationReportsPagesToSession(t *testing.T) {
	t.Parallel()
	session := &fakeSession{}
	m := reader.New(fakePages{}, session)
	m, _ = m.Update(reader.OpenedMsg{Page: readerdto.PageOutput{DocumentID: "doc", Title: "Doc", Page: 3, TotalPages: 3}})

	require.Nil(t, m.NextPage(), "no page after the last one")
	msg, ok := m.PrevPage()().(reader.PageMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	require.Equal(t, 2, msg.Page.Page)
	require.Equal(t, []int{2}, session.pages)

	require.Nil(t, m.GoTo(0))
	require.Nil(t, m.GoTo(4))
}

func TestTogglePauseReportsFlush(t *testing.T) {
	t.Parallel()
	m := reader.New(fakePages{}, &fakeSession{})
	live, ok := m.TogglePause()().(reader.LiveMsg)
	require.True(t, ok)
	require.Equal(t, "paused", live.Live.State)
	require.NotNil(t, live.Flushed)

	live = m.TogglePause()().(reader.LiveMsg)
	require.Equal(t, "active", live.Live.State)
	require.Nil(t, live.Flushed)
}
