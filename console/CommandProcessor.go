package console

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	el "echonet-node/echonet_lite"
	"echonet-node/store"
)

// CommandProcessor は、コマンド処理を担当する構造体。コマンドは専用の
// goroutine上で順に処理される。Engineが受信ループと共有するロックを
// 内部で取るため、コンソールからの同時書き込みとディスパッチャによる
// 書き込みは安全に直列化される。
type CommandProcessor struct {
	ctrl    Controller
	cmdChan chan *Command
	done    chan struct{}
	cancel  context.CancelFunc

	quit chan struct{} // CmdQuit受信時にcloseされる
}

// NewCommandProcessor は、CommandProcessor の新しいインスタンスを作成する
func NewCommandProcessor(ctx context.Context, ctrl Controller) *CommandProcessor {
	_, cancel := context.WithCancel(ctx)
	return &CommandProcessor{
		ctrl:    ctrl,
		cmdChan: make(chan *Command),
		done:    make(chan struct{}),
		cancel:  cancel,
		quit:    make(chan struct{}),
	}
}

// Start は、コマンド処理を開始する
func (p *CommandProcessor) Start() {
	go p.run()
}

// Stop は、コマンド処理を停止する
func (p *CommandProcessor) Stop() {
	p.cancel()
	close(p.cmdChan)
	<-p.done
}

// Quit は、quitコマンドが処理されたときにcloseされるチャネルを返す
func (p *CommandProcessor) Quit() <-chan struct{} {
	return p.quit
}

// SendCommand はコマンドをプロセッサに送信する
func (p *CommandProcessor) SendCommand(cmd *Command) {
	if cmd == nil {
		return
	}
	p.cmdChan <- cmd
}

func (p *CommandProcessor) run() {
	defer close(p.done)
	for cmd := range p.cmdChan {
		p.process(cmd)
	}
}

func (p *CommandProcessor) process(cmd *Command) {
	switch cmd.Type {
	case CmdHelp:
		p.processHelp()
	case CmdShow:
		p.processShow(cmd)
	case CmdGet:
		p.processGet(cmd)
	case CmdSet:
		p.processSet(cmd)
	case CmdMaps:
		p.processMaps(cmd)
	case CmdAliases:
		p.processAliases(cmd)
	case CmdQuit:
		close(p.quit)
	default:
		fmt.Printf("不明なコマンドです\n")
	}
}

func (p *CommandProcessor) processHelp() {
	for _, def := range CommandTable {
		fmt.Printf("%-6s %s\n", def.Name, def.Summary)
		fmt.Printf("       %s\n", def.Syntax)
		for _, line := range def.Description {
			fmt.Printf("       %s\n", line)
		}
	}
}

func (p *CommandProcessor) processShow(cmd *Command) {
	objs := []el.EOJ{cmd.EOJ}
	if cmd.EOJ == 0 {
		objs = p.ctrl.Objects()
	}
	for _, eoj := range objs {
		epcs, ok := p.ctrl.Properties(eoj)
		if !ok {
			fmt.Printf("%v: 未構成のオブジェクトです\n", eoj)
			continue
		}
		fmt.Printf("%v:\n", eoj)
		for _, epc := range epcs {
			rec, _ := p.ctrl.GetProperty(eoj, epc)
			fmt.Printf("  %s\n", describeProperty(eoj, epc, rec))
		}
	}
}

func (p *CommandProcessor) processGet(cmd *Command) {
	rec, ok := p.ctrl.GetProperty(cmd.EOJ, cmd.EPC)
	if !ok {
		fmt.Printf("%v %v: プロパティがありません\n", cmd.EOJ, cmd.EPC)
		return
	}
	fmt.Printf("%v %s\n", cmd.EOJ, describeProperty(cmd.EOJ, cmd.EPC, rec))
}

// describeProperty formats one property's raw bytes alongside its decoded
// description (property name, and human-readable EDT when a decoder or
// alias is registered for the object's class), flagging EPCs that are
// mandatory default properties for that class.
func describeProperty(eoj el.EOJ, epc el.EPCType, rec store.Record) string {
	classCode := eoj.ClassCode()
	prop := el.Property{EPC: epc, EDT: rec.EDT}
	defaultMark := ""
	if el.IsPropertyDefaultEPC(classCode, epc) {
		defaultMark = " [default]"
	}
	return fmt.Sprintf("%s PDC=%d%s: %s", epc.StringForClass(classCode), rec.PDC(), defaultMark, prop.String(classCode))
}

func (p *CommandProcessor) processSet(cmd *Command) {
	if err := p.ctrl.SetLocalProperty(cmd.EOJ, cmd.EPC, cmd.EDT); err != nil {
		fmt.Printf("エラー: %v\n", err)
		return
	}
	fmt.Printf("%v %v: 書き込みました (EDT=%X)\n", cmd.EOJ, cmd.EPC, cmd.EDT)
}

func (p *CommandProcessor) processMaps(cmd *Command) {
	epcs, ok := p.ctrl.PropertyMap(cmd.EOJ, cmd.Kind)
	if !ok {
		fmt.Printf("%v: 未構成のオブジェクトです\n", cmd.EOJ)
		return
	}
	var parts []string
	for _, e := range epcs {
		parts = append(parts, e.String())
	}
	fmt.Printf("%v %s map: [%s]\n", cmd.EOJ, kindName(cmd.Kind), strings.Join(parts, " "))
}

func (p *CommandProcessor) processAliases(cmd *Command) {
	aliases := el.AvailableAliasesForClass(cmd.EOJ.ClassCode())
	if len(aliases) == 0 {
		fmt.Printf("%v: 利用可能な alias はありません\n", cmd.EOJ)
		return
	}
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	slices.Sort(names)
	fmt.Printf("%v aliases:\n", cmd.EOJ)
	for _, name := range names {
		fmt.Printf("  %-12s %s\n", name, aliases[name])
	}
}

func kindName(k store.Kind) string {
	switch k {
	case store.INF:
		return "INF"
	case store.SET:
		return "SET"
	case store.GET:
		return "GET"
	default:
		return "?"
	}
}
