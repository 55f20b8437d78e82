package config

import (
	"flag"
	"os"

	"github.com/BurntSushi/toml"
)

// indexOf は文字列内の特定の文字の位置を返す
func indexOf(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

const (
	// DefaultConfigFile はデフォルトの設定ファイル名
	DefaultConfigFile = "config.toml"
)

// Config はノードプロセス全体の設定を表す。WebSocket/HTTP/デーモン関連の節は
// このコアが扱わない外部コラボレータ（Non-goals、spec.md §1）向けのため含まない。
type Config struct {
	Debug bool `toml:"debug"`
	Log   struct {
		Filename string `toml:"filename"`
	} `toml:"log"`
	Node struct {
		// Devices は "CCCC:I" 形式（クラスコード:インスタンスコード）で
		// 列挙される、ノードがホストするデバイスオブジェクトのEOJ一覧。
		Devices []string `toml:"devices"`
		// MakerCode は EPC 0x8A・0x83 に埋め込む3バイトのメーカコード
		// （6桁の16進文字列、例 "000077"）。空ならデフォルトを使う。
		MakerCode string `toml:"maker_code"`
		// Interface は送信側マルチキャストインターフェース名の上書き
		// （例 "eth0"）。空なら最初の非ループバック・マルチキャスト
		// 対応インターフェースを自動選択する。
		Interface string `toml:"interface"`
	} `toml:"node"`
}

// NewConfig はデフォルト設定を持つConfigを作成する
func NewConfig() *Config {
	cfg := &Config{
		Debug: false,
	}
	cfg.Log.Filename = "echonet-node.log"
	return cfg
}

// LoadConfig は設定を読み込む
// 以下の優先順位でロードする:
// 1. 指定されたパスの設定ファイル（指定がある場合）
// 2. カレントディレクトリのデフォルト設定ファイル（存在する場合）
// 3. デフォルト設定
func LoadConfig(configPath string) (*Config, error) {
	config := NewConfig()

	// 設定ファイルパスの解決
	filePath := configPath
	if filePath == "" {
		// 指定がなければデフォルトファイルを探す
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			filePath = DefaultConfigFile
		} else {
			// デフォルトファイルもなければ、デフォルト設定をそのまま返す
			return config, nil
		}
	}

	// 設定ファイルが指定または存在する場合は読み込む
	if _, err := toml.DecodeFile(filePath, config); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyCommandLineArgs はコマンドライン引数で指定された値を設定に適用する
func (c *Config) ApplyCommandLineArgs(args CommandLineArgs) {
	if args.DebugSpecified {
		c.Debug = args.Debug
	}
	if args.LogFilenameSpecified {
		c.Log.Filename = args.LogFilename
	}
	if args.InterfaceSpecified {
		c.Node.Interface = args.Interface
	}
}

// CommandLineArgs はコマンドライン引数からの値を保持する
type CommandLineArgs struct {
	// 設定ファイル (メタ設定)
	ConfigFile      string
	ConfigSpecified bool

	// 一般設定
	Debug          bool
	DebugSpecified bool

	// ログ設定
	LogFilename          string
	LogFilenameSpecified bool

	// 送信側マルチキャストインターフェースの上書き
	Interface          string
	InterfaceSpecified bool
}

// ParseCommandLineArgs はコマンドライン引数をパースする
func ParseCommandLineArgs() CommandLineArgs {
	var args CommandLineArgs

	configFileFlag := flag.String("config", "", "TOML設定ファイルのパスを指定する")
	debugFlag := flag.Bool("debug", false, "デバッグモードを有効にする")
	logFilenameFlag := flag.String("log", "echonet-node.log", "ログファイル名を指定する")
	ifaceFlag := flag.String("interface", "", "送信側マルチキャストインターフェース名を指定する")

	flag.Parse()

	// コマンドライン引数を直接解析して、フラグが指定されたかどうかを確認
	argsMap := make(map[string]bool)
	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		if len(arg) > 0 && arg[0] == '-' {
			flagName := arg
			if len(flagName) > 1 && flagName[1] == '-' {
				flagName = flagName[2:]
			} else {
				flagName = flagName[1:]
			}
			if idx := indexOf(flagName, '='); idx >= 0 {
				flagName = flagName[:idx]
			}
			argsMap[flagName] = true
			if i+1 < len(os.Args) && len(os.Args[i+1]) > 0 && os.Args[i+1][0] != '-' {
				i++
			}
		}
	}

	args.ConfigFile = *configFileFlag
	args.ConfigSpecified = argsMap["config"]
	args.Debug = *debugFlag
	args.DebugSpecified = argsMap["debug"]
	args.LogFilename = *logFilenameFlag
	args.LogFilenameSpecified = argsMap["log"]
	args.Interface = *ifaceFlag
	args.InterfaceSpecified = argsMap["interface"]

	return args
}
