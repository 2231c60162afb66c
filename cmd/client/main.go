package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/tuannm99/recordset/internal/display"
	"github.com/tuannm99/recordset/sqlclient"
)

const (
	prompt     = "recordset> "
	contPrompt = "...> "
)

// statementComplete reports whether buf holds a ';' outside single quotes.
func statementComplete(buf string) bool {
	inQuote := false
	escaped := false

	for _, r := range buf {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '\'' {
			inQuote = !inQuote
			continue
		}
		if r == ';' && !inQuote {
			return true
		}
	}
	return false
}

func isMetaCommand(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "\\") || line == "quit" || line == "exit"
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".recordset_history"
	}
	return filepath.Join(home, ".recordset_history")
}

type shell struct {
	cli     *sqlclient.Client
	timeout time.Duration
	timing  bool
}

func (s *shell) run(stmt string) error {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	d, err := s.cli.Query(ctx, stmt)
	if err != nil {
		return err
	}
	defer func() { _ = d.Close() }()

	if _, err := display.Render(os.Stdout, d); err != nil {
		return err
	}
	if s.timing {
		fmt.Printf("Time: %s\n", time.Since(start).Round(time.Microsecond))
	}
	return nil
}

const help = `meta commands:
  \q | quit | exit       quit
  \history               print history
  \timing                toggle query timing
  \help                  show help

sql:
  end statement with ';'
  multiline is supported (shell waits until ';')`

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:8866", "server address")
		timeout    = flag.Duration("timeout", 3*time.Second, "dial timeout")
		qTimeout   = flag.Duration("query-timeout", 0, "per-query timeout (0 = none)")
		histPath   = flag.String("history", defaultHistoryPath(), "history file path")
		histMax    = flag.Int("history-max", 2000, "max history lines loaded into memory")
		oneShotSQL = flag.String("c", "", "execute one statement and exit")
	)
	flag.Parse()

	sh := &shell{cli: sqlclient.New(*addr, *timeout), timeout: *qTimeout}

	if strings.TrimSpace(*oneShotSQL) != "" {
		if err := sh.run(*oneShotSQL); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	h := NewHistory(*histPath)
	_ = h.Load(*histMax)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	var buf strings.Builder
	fmt.Printf("server %s\n", *addr)
	fmt.Println("type \\help for help")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			// Ctrl+C clears the pending statement
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt(prompt)
				continue
			}
			fmt.Println("^C")
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && isMetaCommand(line) {
			switch line {
			case "\\q", "quit", "exit":
				return
			case "\\help":
				fmt.Println(help)
			case "\\history":
				h.Print(os.Stdout, 50)
			case "\\timing":
				sh.timing = !sh.timing
				fmt.Printf("timing %v\n", sh.timing)
			default:
				fmt.Printf("unknown command: %s\n", line)
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)
		if !statementComplete(buf.String()) {
			rl.SetPrompt(contPrompt)
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt(prompt)

		_ = h.Append(stmt)
		_ = rl.SaveHistory(compactOneLine(stmt))

		if err := sh.run(stmt); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}
