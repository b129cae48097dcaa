package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moffa90/go-t5flash/bootloader"
	"github.com/moffa90/go-t5flash/config"
	"github.com/moffa90/go-t5flash/simulator"
	"github.com/moffa90/go-t5flash/transport"
)

// loadConfig reads --config (or defaults) and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(strings.NewReader(""))
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = portName
	}
	if flags.Changed("baud") {
		cfg.BaudRate = baudRate
	}
	if flags.Changed("initial-baud") {
		cfg.InitialBaudRate = initialBaud
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	config.Normalize(cfg)
	return cfg, nil
}

// device bundles a connected programmer with everything to release after use.
type device struct {
	prog    *bootloader.Programmer
	session *bootloader.Session
	log     *zap.Logger
	ctx     context.Context
	close   func()
}

// connect opens the transport, connects the programmer and installs the
// interrupt handler that cancels the running operation.
func connect(cmd *cobra.Command) (*device, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	t, closeTransport, err := openTransport(cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	opts, err := cfg.Options()
	if err != nil {
		closeTransport()
		return nil, err
	}
	opts = append(opts,
		bootloader.WithLogger(zapLogger{s: logger.Sugar()}),
		bootloader.WithProgressCallback(newProgressPrinter(os.Stderr).Print),
	)
	prog := bootloader.New(t, opts...)

	ctx, stop := context.WithCancel(cmd.Context())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
			prog.Cancel()
		case <-ctx.Done():
		}
	}()

	d := &device{
		prog: prog,
		log:  logger,
		ctx:  ctx,
		close: func() {
			signal.Stop(sigs)
			stop()
			closeTransport()
			_ = logger.Sync()
		},
	}

	session, err := prog.Connect(ctx)
	if err != nil {
		d.close()
		return nil, err
	}
	d.session = session
	fmt.Fprintf(os.Stderr, "Connected: %s\n", session)
	return d, nil
}

func openTransport(cfg *config.Config) (transport.Transport, func(), error) {
	if simulate {
		return simulator.New(simulator.WithBaudRate(cfg.InitialBaudRate)), func() {}, nil
	}
	if cfg.Port == "" {
		return nil, nil, fmt.Errorf("no serial port given (use --port or set port in the config file)")
	}
	port, err := transport.OpenSerial(cfg.Port, cfg.InitialBaudRate)
	if err != nil {
		return nil, nil, err
	}
	return port, func() { _ = port.Close() }, nil
}

// parseUint32 accepts decimal, 0x hex and a K/M suffix (e.g. 4K, 0x1000, 2M).
func parseUint32(s string) (uint32, error) {
	mult := uint64(1)
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		mult, s = 1024, s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		mult, s = 1024*1024, s[:len(s)-1]
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	v *= mult
	if v > 0xFFFFFFFF {
		return 0, fmt.Errorf("%s is out of range", s)
	}
	return uint32(v), nil
}
