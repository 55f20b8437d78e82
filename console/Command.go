package console

import (
	"fmt"
	"strings"

	el "echonet-node/echonet_lite"
	"echonet-node/store"
)

// コマンドの種類を表す型
type CommandType int

const (
	CmdUnknown CommandType = iota
	CmdQuit
	CmdHelp
	CmdShow
	CmdGet
	CmdSet
	CmdMaps
	CmdAliases
)

// Controller is the local-node surface the console drives: property
// inspection and mutation against the in-process engine, no network
// round trip. engine.Engine satisfies this.
type Controller interface {
	Objects() []el.EOJ
	GetProperty(eoj el.EOJ, epc el.EPCType) (store.Record, bool)
	Properties(eoj el.EOJ) ([]el.EPCType, bool)
	PropertyMap(eoj el.EOJ, kind store.Kind) ([]el.EPCType, bool)
	SetLocalProperty(eoj el.EOJ, epc el.EPCType, edt []byte) error
}

// Command は解析済みの1コマンドを表す
type Command struct {
	Type CommandType
	EOJ  el.EOJ    // get/set/show/maps の対象オブジェクト
	EPC  el.EPCType // get/set の対象プロパティ
	EDT  []byte     // set の書き込み値
	Kind store.Kind // maps の対象マップ種別
}

// ParseCommand は1行の入力をCommandに変換する
func ParseCommand(line string) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	def, ok := lookupCommand(name)
	if !ok {
		return nil, fmt.Errorf("不明なコマンドです: %s (help で一覧を表示)", name)
	}
	return def.ParseFunc(args)
}

func parseEOJArg(s string) (el.EOJ, error) {
	if strings.EqualFold(s, "profile") {
		return el.NodeProfileObjectInstance, nil
	}
	return el.ParseEOJString(s)
}
