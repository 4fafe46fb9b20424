package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencouncil/councilsearch/internal/client"
	"github.com/opencouncil/councilsearch/internal/domain"
)

// streamingModel is a model mid-stream on generation 2, as if an earlier
// stream had already been submitted and torn down.
func streamingModel() Model {
	m := New(client.New("http://localhost:8080"))
	m.ready = true
	m.gen = 2
	m.frames = make(chan domain.Frame)
	m.state = client.StartStream()
	return m
}

func TestUpdateDropsStaleStreamClosed(t *testing.T) {
	m := streamingModel()

	// The prior stream's channel closing must not touch the active stream.
	next, _ := m.Update(streamClosedMsg{gen: 1})
	got := next.(Model)

	assert.Equal(t, client.PhaseStreaming, got.state.Phase)
	assert.NotNil(t, got.frames, "the active stream stays wired")
	assert.Nil(t, got.cancel, "nothing was torn down here to begin with")
}

func TestUpdateDropsStaleFrame(t *testing.T) {
	m := streamingModel()

	next, _ := m.Update(frameMsg{gen: 1, frame: domain.Frame{
		Type:  domain.EventAnswerChunk,
		Chunk: "stale old answer",
	}})
	got := next.(Model)

	assert.Empty(t, got.state.Answer, "a frame from a prior stream never reaches the reducer")
	assert.Equal(t, client.PhaseStreaming, got.state.Phase)
}

func TestUpdateCurrentStreamClosedFails(t *testing.T) {
	m := streamingModel()

	next, _ := m.Update(streamClosedMsg{gen: 2})
	got := next.(Model)

	assert.Equal(t, client.PhaseErrored, got.state.Phase)
	assert.Equal(t, "Connection lost. Please try again.", got.state.ErrMsg)
	assert.Nil(t, got.frames)
}

func TestUpdateCurrentFrameReduces(t *testing.T) {
	m := streamingModel()

	next, _ := m.Update(frameMsg{gen: 2, frame: domain.Frame{
		Type:  domain.EventAnswerChunk,
		Chunk: "Council approved it.",
	}})
	got := next.(Model)

	assert.Equal(t, "Council approved it.", got.state.Answer)
	assert.Equal(t, client.PhaseStreaming, got.state.Phase)
}

func TestWaitForFrameTagsGeneration(t *testing.T) {
	ch := make(chan domain.Frame, 1)
	ch <- domain.Frame{Type: domain.EventDone}

	msg := waitForFrame(7, ch)()
	fm, ok := msg.(frameMsg)
	require.True(t, ok)
	assert.Equal(t, 7, fm.gen)
	assert.Equal(t, domain.EventDone, fm.frame.Type)

	close(ch)
	msg = waitForFrame(7, ch)()
	cm, ok := msg.(streamClosedMsg)
	require.True(t, ok)
	assert.Equal(t, 7, cm.gen)
}
