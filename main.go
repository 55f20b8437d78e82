package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	el "echonet-node/echonet_lite"
	lg "echonet-node/echonet_lite/log"
	"echonet-node/config"
	"echonet-node/console"
	"echonet-node/engine"
	"echonet-node/node"
)

func main() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "使用方法: %s [オプション]\n\nオプション:\n", os.Args[0])
		flag.PrintDefaults()
	}

	cmdArgs := config.ParseCommandLineArgs()
	cfg, err := config.LoadConfig(cmdArgs.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定ファイルの読み込みに失敗しました: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyCommandLineArgs(cmdArgs)

	logger, err := lg.NewLogger(cfg.Log.Filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ログ設定エラー: %v\n", err)
		os.Exit(1)
	}
	lg.SetLogger(logger)
	defer logger.Close()

	if cfg.Node.MakerCode != "" {
		code, err := el.ParseHexString(cfg.Node.MakerCode)
		if err != nil || len(code) != 3 {
			fmt.Fprintf(os.Stderr, "maker_code は6桁の16進文字列で指定してください: %v\n", cfg.Node.MakerCode)
			os.Exit(1)
		}
		node.MakerCode = [3]byte{code[0], code[1], code[2]}
	}

	deviceEOJs := make([]el.EOJ, 0, len(cfg.Node.Devices))
	for _, s := range cfg.Node.Devices {
		eoj, err := el.ParseEOJString(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "デバイスEOJの指定が不正です (%s): %v\n", s, err)
			os.Exit(1)
		}
		deviceEOJs = append(deviceEOJs, eoj)
	}
	if len(deviceEOJs) == 0 {
		// デフォルトでは家庭用エアコン (0x0130) のインスタンス1を1台ホストする。
		deviceEOJs = append(deviceEOJs, el.MakeEOJ(0x0130, 1))
	}

	iface, mac, err := selectInterface(cfg.Node.Interface)
	if err != nil {
		fmt.Fprintf(os.Stderr, "マルチキャスト送信インターフェースの選択に失敗しました: %v\n", err)
		os.Exit(1)
	}

	n := node.New(deviceEOJs, node.AddressInfo{MAC: mac})
	eng := engine.New(n)
	eng.OnSet = func(ip net.IP, tid el.TIDType, seoj, deoj el.EOJ, esv el.ESVType, opc int, epc el.EPCType, edt []byte) bool {
		return true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchLogRotateSignal(ctx, logger)

	if err := eng.Begin(ctx, iface); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer eng.Close()

	fmt.Println("help for usage, quit to exit")
	console.ConsoleProcess(ctx, eng)
}

// watchLogRotateSignal reopens the log file on SIGHUP, the same log-rotation
// trigger the teacher's server process wires up, so an external `logrotate`
// job can truncate/move the file without restarting the node.
func watchLogRotateSignal(ctx context.Context, logger *lg.Logger) {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sighup:
			if err := logger.Rotate(); err != nil {
				fmt.Fprintf(os.Stderr, "ログローテーションに失敗しました: %v\n", err)
			}
		}
	}
}

// selectInterface resolves the egress interface for multicast sends and
// the MAC address embedded in EPC 0x83. If name is non-empty it must name
// a multicast-capable interface; otherwise the first such non-loopback
// interface is used.
func selectInterface(name string) (*net.Interface, [6]byte, error) {
	var mac [6]byte

	if name != "" {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			return nil, mac, err
		}
		copy(mac[:], iface.HardwareAddr)
		return iface, mac, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, mac, err
	}
	for i := range ifaces {
		iface := ifaces[i]
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		copy(mac[:], iface.HardwareAddr)
		return &iface, mac, nil
	}
	return nil, mac, fmt.Errorf("no multicast-capable interface found")
}
