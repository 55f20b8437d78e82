package console

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"
	"golang.org/x/term"
)

// ConsoleProcess runs the interactive local-node administration console
// until ctx is cancelled or the user types quit. It talks directly to
// ctrl (normally an *engine.Engine) — there is no network round trip.
func ConsoleProcess(ctx context.Context, ctrl Controller) {
	// 現在の端末状態を保存
	orig, _ := term.GetState(int(os.Stdin.Fd()))
	defer term.Restore(int(os.Stdin.Fd()), orig)

	historyFilePath := getHistoryFilePath()
	initialHistory := loadHistory(historyFilePath)

	processor := NewCommandProcessor(ctx, ctrl)
	processor.Start()
	defer processor.Stop()

	executor := func(line string) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return
		}

		cmd, err := ParseCommand(line)
		if err != nil {
			fmt.Printf("エラー: %v\n", err)
			return
		}
		if cmd == nil {
			return
		}

		if cmd.Type != CmdQuit {
			initialHistory = append(initialHistory, line)
		}
		processor.SendCommand(cmd)
	}

	completer := NewCompleter(ctrl)

	pt := prompt.New(
		executor,
		completer,
		prompt.OptionPrefix("> "),
		prompt.OptionTitle("echonet-node console"),
		prompt.OptionHistory(initialHistory),
		prompt.OptionCompletionWordSeparator(" "),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakLine bool) bool {
			return strings.TrimSpace(in) == "quit" && breakLine
		}),
	)

	done := make(chan struct{})
	go func() {
		pt.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-processor.Quit():
	case <-ctx.Done():
	}

	saveHistory(historyFilePath, initialHistory)
}
