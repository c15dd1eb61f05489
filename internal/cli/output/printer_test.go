package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestPrinter_StructuredSuppressesChatter(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut, FormatJSON, Options{})

	p.Successf("Logged in as %s", "ada")
	p.Infof("hello")
	if out.Len() != 0 {
		t.Errorf("structured output got chatter: %q", out.String())
	}

	p.Print(map[string]string{"status": "ok"})
	if !strings.Contains(out.String(), `"status": "ok"`) {
		t.Errorf("Print() = %q", out.String())
	}
}

func TestPrinter_TableMode(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut, FormatTable, Options{})

	p.Successf("Logged out")
	p.Warnf("backend slow")
	p.Errorf("Invalid credentials")

	if out.String() != "✓ Logged out\n" {
		t.Errorf("stdout = %q", out.String())
	}
	if errOut.String() != "Warning: backend slow\nError: Invalid credentials\n" {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestPrinter_SetFormat(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, &out, FormatTable, Options{})
	p.SetFormat(FormatYAML, Options{})
	if p.Format() != FormatYAML || !p.Structured() {
		t.Errorf("Format() = %s", p.Format())
	}
	p.Print(map[string]int{"count": 1})
	if out.String() != "count: 1\n" {
		t.Errorf("yaml output = %q", out.String())
	}
}

func TestPrinter_ColorDisabledForPipes(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, &out, FormatTable, Options{})
	p.Print([]struct {
		Status string `json:"status"`
	}{{"approved"}})
	if strings.Contains(out.String(), "\033[") {
		t.Errorf("escape codes written to a non-terminal: %q", out.String())
	}
}

func TestSpinner_Disabled(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner(&buf, "Loading", false).Start()
	s.Success("done")
	s.Stop()
	if buf.Len() != 0 {
		t.Errorf("disabled spinner wrote %q", buf.String())
	}
}

func TestSpinner_Enabled(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "Checking backend", true)
	s.interval = 5 * time.Millisecond
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Fail("unreachable")
	s.Fail("again")

	out := buf.String()
	if !strings.Contains(out, "Checking backend") {
		t.Errorf("frames missing: %q", out)
	}
	if !strings.HasSuffix(out, "✗ unreachable\n") {
		t.Errorf("final line = %q", out)
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	NewSpinner(&buf, "x", true).Stop()
	if buf.Len() != 0 {
		t.Errorf("unstarted spinner wrote %q", buf.String())
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
