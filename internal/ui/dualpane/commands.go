package dualpane

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"duet/internal/diffload"
	"duet/internal/pubsub"
	"duet/internal/search"
)

// FilesListedMsg carries the comparison's file list.
type FilesListedMsg struct {
	Paths []string
	Err   error
}

// DiffLoadedMsg carries one file's computed diff back to the model. Seq is
// the load token; responses from a superseded load are dropped.
type DiffLoadedMsg struct {
	Path string
	Seq  int
	Diff *diffload.FileDiff
	Err  error
}

// SearchStateMsg wraps a coordinator snapshot.
type SearchStateMsg struct {
	State search.State
}

// FileChangedMsg reports a watched file changing on disk.
type FileChangedMsg struct {
	Change diffload.Change
}

func listFilesCmd(src diffload.Source) tea.Cmd {
	return func() tea.Msg {
		paths, err := src.ListFiles()
		return FilesListedMsg{Paths: paths, Err: err}
	}
}

func loadDiffCmd(ctx context.Context, loader diffload.DiffLoader, path string, seq int) tea.Cmd {
	return func() tea.Msg {
		d, err := loader.Load(ctx, path)
		return DiffLoadedMsg{Path: path, Seq: seq, Diff: d, Err: err}
	}
}

// listenSearchCmd waits for one coordinator snapshot and re-arms itself via
// the model's Update loop.
func listenSearchCmd(ctx context.Context, ch <-chan pubsub.Event[search.State]) tea.Cmd {
	inner := pubsub.ListenCmd(ctx, ch)
	return func() tea.Msg {
		ev, ok := inner().(pubsub.Event[search.State])
		if !ok {
			return nil
		}
		return SearchStateMsg{State: ev.Payload}
	}
}

func listenWatchCmd(ctx context.Context, ch <-chan pubsub.Event[diffload.Change]) tea.Cmd {
	inner := pubsub.ListenCmd(ctx, ch)
	return func() tea.Msg {
		ev, ok := inner().(pubsub.Event[diffload.Change])
		if !ok {
			return nil
		}
		return FileChangedMsg{Change: ev.Payload}
	}
}
