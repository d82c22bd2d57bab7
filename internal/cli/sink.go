package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gookit/color"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/cperrin88/kman/internal/logger"
	"github.com/cperrin88/kman/pkg/alpm"
	"github.com/cperrin88/kman/pkg/coordinator"
)

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalSink prints session output for a human. Download progress gets a
// bar per file when attached to a terminal.
type terminalSink struct {
	mu   sync.Mutex
	out  io.Writer
	tty  bool
	bars map[string]*progressbar.ProgressBar
}

func newTerminalSink() *terminalSink {
	return newTerminalSinkTo(os.Stdout, isTerminal())
}

func newTerminalSinkTo(out io.Writer, tty bool) *terminalSink {
	return &terminalSink{out: out, tty: tty, bars: map[string]*progressbar.ProgressBar{}}
}

func (s *terminalSink) println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.out, line)
}

func (s *terminalSink) Status(msg string) {
	switch {
	case strings.HasPrefix(msg, "error: "), strings.HasPrefix(msg, "failed "):
		s.println(color.Error.Sprint(msg))
	case strings.HasPrefix(msg, "warning: "):
		s.println(color.Warn.Sprint(msg))
	case strings.HasPrefix(msg, ":: "):
		s.println(color.Yellow.Sprint("::") + msg[2:])
	default:
		s.println(color.Cyan.Sprint("::") + " " + msg)
	}
}

func (s *terminalSink) Warn(msg string) {
	s.println(color.Warn.Sprint("warning: ") + msg)
}

func (s *terminalSink) Success(msg string) {
	s.println(color.Success.Sprint(msg))
}

func (s *terminalSink) Progress(p alpm.Progress) {
	if p.Percent < 100 {
		return
	}
	logger.Debug("package done", logger.Fields{"package": p.Package, "current": p.Current, "total": p.HowMany})
}

func (s *terminalSink) Download(filename string, ev alpm.DownloadEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimSuffix(filename, ".db")
	bar := s.bars[filename]
	switch ev.Type {
	case alpm.DownloadInit:
		if s.tty {
			s.bars[filename] = progressbar.NewOptions64(-1,
				progressbar.OptionSetWriter(s.out),
				progressbar.OptionSetDescription(fmt.Sprintf("%-20s", name)),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(ProgressWidth),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		}
	case alpm.DownloadProgress:
		if bar == nil {
			return
		}
		if ev.Total > 0 && bar.GetMax64() != ev.Total {
			bar.ChangeMax64(ev.Total)
		}
		_ = bar.Set64(ev.Downloaded)
	case alpm.DownloadRetry:
		if bar != nil {
			bar.Reset()
		}
	case alpm.DownloadCompleted:
		if bar != nil {
			_ = bar.Finish()
			delete(s.bars, filename)
		}
		switch ev.Result {
		case 0:
			_, _ = fmt.Fprintf(s.out, " %s downloaded\n", name)
		case 1:
			_, _ = fmt.Fprintf(s.out, " %s is up to date\n", name)
		default:
			_, _ = fmt.Fprintln(s.out, color.Error.Sprintf(" failed to download %s", name))
		}
	}
}

func (s *terminalSink) Done(rep coordinator.Report, err error) {
	if err != nil {
		logger.Debug("cycle finished with errors", logger.Fields{"error": err})
		return
	}
	if len(rep.Install.Applied) == 0 && len(rep.Remove.Applied) == 0 && rep.Cycle.Pending.Empty() {
		s.println(" there is nothing to do")
		return
	}
	s.Success("transaction completed")
}
