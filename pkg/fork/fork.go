// Package fork starts and drives a local hardhat or anvil fork, so relayer
// transactions can be executed as any account without its key.
package fork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
)

type Tool string

const (
	Hardhat Tool = "hardhat"
	Anvil   Tool = "anvil"
)

var ErrNodeExited = errors.New("fork node exited")

// Config describes the fork node to run.
type Config struct {
	Tool      Tool
	SourceRPC string
	// Block pins the fork; 0 forks the source's latest block.
	Block uint64
	Host  string
	Port  int
	// ChainID, when set, must match the started node's eth_chainId.
	// anvil is told to use it; hardhat takes it from its own config.
	ChainID      uint64
	ReadyTimeout time.Duration
}

// URL is the HTTP endpoint the node listens on.
func (c Config) URL() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConfigFromEnv reads FORK_* variables. sourceDefault is used when
// FORK_SOURCE_RPC is unset.
func ConfigFromEnv(sourceDefault string) (Config, error) {
	cfg := Config{
		Tool:         Tool(getenv("FORK_TOOL", string(Hardhat))),
		SourceRPC:    getenv("FORK_SOURCE_RPC", sourceDefault),
		Host:         getenv("FORK_LISTEN_HOST", "127.0.0.1"),
		Port:         8545,
		ReadyTimeout: 20 * time.Second,
	}
	var err error
	if v := os.Getenv("FORK_LISTEN_PORT"); v != "" {
		if cfg.Port, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("FORK_LISTEN_PORT: %w", err)
		}
	}
	if v := os.Getenv("FORK_BLOCK"); v != "" {
		if cfg.Block, err = strconv.ParseUint(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("FORK_BLOCK: %w", err)
		}
	}
	if v := os.Getenv("FORK_CHAIN_ID"); v != "" {
		if cfg.ChainID, err = strconv.ParseUint(v, 10, 64); err != nil {
			return Config{}, fmt.Errorf("FORK_CHAIN_ID: %w", err)
		}
	}
	if v := os.Getenv("FORK_READY_TIMEOUT"); v != "" {
		if cfg.ReadyTimeout, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("FORK_READY_TIMEOUT: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.SourceRPC == "" {
		return fmt.Errorf("fork source RPC is empty (set FORK_SOURCE_RPC or RPC_URL)")
	}
	if c.Tool != Hardhat && c.Tool != Anvil {
		return fmt.Errorf("unsupported FORK_TOOL=%s", c.Tool)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid fork port %d", c.Port)
	}
	return nil
}

// argv is the node command line, program first.
func (c Config) argv() []string {
	port := strconv.Itoa(c.Port)
	var args []string
	if c.Tool == Anvil {
		args = []string{"anvil", "--host", c.Host, "--port", port, "--fork-url", c.SourceRPC}
		if c.ChainID > 0 {
			args = append(args, "--chain-id", strconv.FormatUint(c.ChainID, 10))
		}
	} else {
		args = []string{"npx", "hardhat", "node", "--hostname", c.Host, "--port", port, "--fork", c.SourceRPC}
	}
	if c.Block > 0 {
		args = append(args, "--fork-block-number", strconv.FormatUint(c.Block, 10))
	}
	return args
}

// Command returns the process that serves cfg.
func Command(ctx context.Context, cfg Config) (*exec.Cmd, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	argv := cfg.argv()
	return exec.CommandContext(ctx, argv[0], argv[1:]...), nil
}

// Node is a running fork process.
type Node struct {
	URL     string
	ChainID *big.Int

	cmd     *exec.Cmd
	out     io.Closer
	done    chan struct{}
	waitErr error
}

// Start launches the node and returns once its RPC answers eth_chainId.
// Node output is logged at debug level.
func Start(ctx context.Context, cfg Config, log logrus.FieldLogger) (*Node, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	cmd, err := Command(ctx, cfg)
	if err != nil {
		return nil, err
	}
	entry := log.WithFields(logrus.Fields{"component": "fork", "tool": string(cfg.Tool)})
	out := entry.WriterLevel(logrus.DebugLevel)
	cmd.Stdout, cmd.Stderr = out, out

	if err := cmd.Start(); err != nil {
		out.Close()
		return nil, fmt.Errorf("start %s: %w", cfg.Tool, err)
	}
	n := &Node{URL: cfg.URL(), cmd: cmd, out: out, done: make(chan struct{})}
	go func() {
		n.waitErr = cmd.Wait()
		close(n.done)
	}()

	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	readyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	id, err := waitReady(readyCtx, n.URL, n.done)
	if err != nil {
		n.Stop()
		if errors.Is(err, ErrNodeExited) && n.waitErr != nil {
			err = fmt.Errorf("%w: %v", err, n.waitErr)
		}
		return nil, fmt.Errorf("fork rpc not ready: %w", err)
	}
	if cfg.ChainID != 0 && id.Uint64() != cfg.ChainID {
		n.Stop()
		return nil, fmt.Errorf("fork reports chain %s, want %d", id, cfg.ChainID)
	}
	n.ChainID = id
	entry.WithFields(logrus.Fields{"url": n.URL, "chainId": id, "block": cfg.Block}).Info("fork node up")
	return n, nil
}

// Stop kills the node and waits for it to exit. It is safe to call twice.
func (n *Node) Stop() {
	select {
	case <-n.done:
	default:
		if n.cmd.Process != nil {
			_ = n.cmd.Process.Kill()
		}
		<-n.done
	}
	n.out.Close()
}

// StartFromEnv starts a fork node if FORK_AUTO_START=1 and returns its URL
// and a cleanup func. Otherwise it returns FORK_RPC_URL (may be empty).
func StartFromEnv(ctx context.Context, sourceDefault string, log logrus.FieldLogger) (string, func(), error) {
	if os.Getenv("FORK_AUTO_START") != "1" {
		return os.Getenv("FORK_RPC_URL"), func() {}, nil
	}
	cfg, err := ConfigFromEnv(sourceDefault)
	if err != nil {
		return "", func() {}, err
	}
	n, err := Start(ctx, cfg, log)
	if err != nil {
		return "", func() {}, err
	}
	return n.URL, n.Stop, nil
}

// WaitRPC polls url until eth_chainId answers or timeout passes, and
// returns the chain id.
func WaitRPC(ctx context.Context, url string, timeout time.Duration) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return waitReady(ctx, url, nil)
}

// waitReady stops early when done is closed. A nil done never fires.
func waitReady(ctx context.Context, url string, done <-chan struct{}) (*big.Int, error) {
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		id, err := chainID(ctx, url)
		if err == nil {
			return id, nil
		}
		select {
		case <-done:
			return nil, ErrNodeExited
		case <-ctx.Done():
			return nil, fmt.Errorf("%w waiting for %s: %v", ctx.Err(), url, err)
		case <-tick.C:
		}
	}
}

func chainID(ctx context.Context, url string) (*big.Int, error) {
	cl, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	defer cl.Close()
	var id hexutil.Big
	if err := cl.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return nil, err
	}
	return (*big.Int)(&id), nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
