package console

import (
	"fmt"
	"strings"

	el "echonet-node/echonet_lite"
	"echonet-node/store"
)

// CommandDefinition はコマンドの定義を保持する構造体
type CommandDefinition struct {
	Name        string
	Summary     string
	Syntax      string
	Description []string
	ParseFunc   func(args []string) (*Command, error)
}

// CommandTable はコマンドの定義を格納するテーブル
// コマンドの使用法に変化があったときは、ここと help の出力を合わせて更新すること
var CommandTable = []CommandDefinition{
	{
		Name:    "show",
		Summary: "オブジェクトとプロパティの一覧表示",
		Syntax:  "show [eoj]",
		Description: []string{
			"eoj: CCCC:I 形式のEOJ、または profile（省略時は全オブジェクト）",
		},
		ParseFunc: func(args []string) (*Command, error) {
			if len(args) == 0 {
				return &Command{Type: CmdShow}, nil
			}
			eoj, err := parseEOJArg(args[0])
			if err != nil {
				return nil, err
			}
			return &Command{Type: CmdShow, EOJ: eoj}, nil
		},
	},
	{
		Name:    "get",
		Summary: "プロパティ値の取得",
		Syntax:  "get <eoj> <epc>",
		Description: []string{
			"eoj: CCCC:I 形式のEOJ、または profile",
			"epc: 2桁の16進数（例: 80）",
		},
		ParseFunc: func(args []string) (*Command, error) {
			if len(args) != 2 {
				return nil, fmt.Errorf("使い方: get <eoj> <epc>")
			}
			eoj, err := parseEOJArg(args[0])
			if err != nil {
				return nil, err
			}
			epc, err := el.ParseEPCString(strings.ToUpper(args[1]))
			if err != nil {
				return nil, err
			}
			return &Command{Type: CmdGet, EOJ: eoj, EPC: epc}, nil
		},
	},
	{
		Name:    "set",
		Summary: "プロパティ値の書き込み",
		Syntax:  "set <eoj> <epc> <hexEDT|alias> | set <eoj> <alias>",
		Description: []string{
			"eoj: CCCC:I 形式のEOJ、または profile",
			"epc: 2桁の16進数（例: 80）",
			"hexEDT: 偶数桁の16進文字列（例: 30）、またはそのEPCに登録された alias（例: on）",
			"epc を省略した場合は alias だけで対象EPCを特定する（aliases コマンドで一覧を表示）",
		},
		ParseFunc: func(args []string) (*Command, error) {
			if len(args) < 2 || len(args) > 3 {
				return nil, fmt.Errorf("使い方: set <eoj> <epc> <hexEDT|alias> | set <eoj> <alias>")
			}
			eoj, err := parseEOJArg(args[0])
			if err != nil {
				return nil, err
			}
			classCode := eoj.ClassCode()

			if len(args) == 2 {
				prop, ok := el.FindAliasForClass(classCode, args[1])
				if !ok {
					return nil, fmt.Errorf("alias が見つかりません: %s (aliases %s で一覧を表示)", args[1], args[0])
				}
				return &Command{Type: CmdSet, EOJ: eoj, EPC: prop.EPC, EDT: prop.EDT}, nil
			}

			epc, err := el.ParseEPCString(strings.ToUpper(args[1]))
			if err != nil {
				return nil, err
			}
			edt, err := el.ParseHexString(args[2])
			if err != nil {
				if aliased, ok := el.GetEDTFromAlias(classCode, epc, args[2]); ok {
					edt = aliased
				} else {
					return nil, fmt.Errorf("%s は16進文字列でも %v の alias でもありません", args[2], epc)
				}
			}
			return &Command{Type: CmdSet, EOJ: eoj, EPC: epc, EDT: edt}, nil
		},
	},
	{
		Name:    "aliases",
		Summary: "プロパティ値aliasの一覧表示",
		Syntax:  "aliases <eoj>",
		Description: []string{
			"eoj: CCCC:I 形式のEOJ、または profile",
		},
		ParseFunc: func(args []string) (*Command, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("使い方: aliases <eoj>")
			}
			eoj, err := parseEOJArg(args[0])
			if err != nil {
				return nil, err
			}
			return &Command{Type: CmdAliases, EOJ: eoj}, nil
		},
	},
	{
		Name:    "maps",
		Summary: "プロパティマップ(INF/SET/GET)の表示",
		Syntax:  "maps <eoj> [inf|set|get]",
		Description: []string{
			"eoj: CCCC:I 形式のEOJ、または profile",
			"省略時は inf マップを表示する",
		},
		ParseFunc: func(args []string) (*Command, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("使い方: maps <eoj> [inf|set|get]")
			}
			eoj, err := parseEOJArg(args[0])
			if err != nil {
				return nil, err
			}
			kind := store.INF
			if len(args) >= 2 {
				switch strings.ToLower(args[1]) {
				case "inf":
					kind = store.INF
				case "set":
					kind = store.SET
				case "get":
					kind = store.GET
				default:
					return nil, fmt.Errorf("マップ種別は inf/set/get のいずれかです: %s", args[1])
				}
			}
			return &Command{Type: CmdMaps, EOJ: eoj, Kind: kind}, nil
		},
	},
	{
		Name:    "help",
		Summary: "コマンド一覧の表示",
		Syntax:  "help",
		ParseFunc: func(args []string) (*Command, error) {
			return &Command{Type: CmdHelp}, nil
		},
	},
	{
		Name:    "quit",
		Summary: "コンソールを終了する",
		Syntax:  "quit",
		ParseFunc: func(args []string) (*Command, error) {
			return &Command{Type: CmdQuit}, nil
		},
	},
}

func lookupCommand(name string) (CommandDefinition, bool) {
	for _, def := range CommandTable {
		if def.Name == name {
			return def, true
		}
	}
	return CommandDefinition{}, false
}

// CommandNames returns every registered command name, for completion.
func CommandNames() []string {
	names := make([]string, len(CommandTable))
	for i, def := range CommandTable {
		names[i] = def.Name
	}
	return names
}
