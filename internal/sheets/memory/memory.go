// Package memory is an in-process sheets mirror used by tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"kharcha/internal/sheets"
)

var _ sheets.RecordMirror = (*Mirror)(nil)

type Mirror struct {
	mu   sync.Mutex
	tabs map[string][][]any
	// Fail, when set, is returned by every AppendRow call.
	Fail error
}

func New() *Mirror {
	return &Mirror{tabs: map[string][][]any{}}
}

func (m *Mirror) EnsureTab(_ context.Context, tab string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tabs[tab]; ok {
		return nil
	}
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	m.tabs[tab] = [][]any{row}
	return nil
}

// AppendRow returns an A1 reference of the written row.
func (m *Mirror) AppendRow(_ context.Context, tab string, row []any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return "", m.Fail
	}
	m.tabs[tab] = append(m.tabs[tab], append([]any(nil), row...))
	return fmt.Sprintf("%s!A%d", tab, len(m.tabs[tab])), nil
}

// Rows returns a copy of tab including its header row.
func (m *Mirror) Rows(tab string) [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.tabs[tab]))
	copy(out, m.tabs[tab])
	return out
}
