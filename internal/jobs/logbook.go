package jobs

import (
	"fmt"
	"os"
	"sync"
)

// Logbook appends lines to a job's log file, one line per event,
// matching the flat-file targets the report tooling tails.
type Logbook struct {
	mu   sync.Mutex
	path string
}

func NewLogbook(path string) *Logbook { return &Logbook{path: path} }

func (l *Logbook) Append(line string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, line)
	return err
}

func (l *Logbook) Appendf(format string, args ...any) error {
	return l.Append(fmt.Sprintf(format, args...))
}
