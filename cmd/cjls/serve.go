package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/crossplane/crossplane-runtime/pkg/logging"
	"github.com/go-logr/logr/funcr"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cjls/internal/cache"
	"cjls/internal/config"
	"cjls/internal/lspserver"
	"cjls/internal/project"
)

func newServeCmd(verbose *bool) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the language server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				root = wd
			}
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), abs, *verbose)
		},
	}
	cmd.Flags().StringVarP(&root, "workspace", "w", "", "workspace root directory to index (default: current directory)")
	return cmd
}

func newLogger(verbose bool) logging.Logger {
	v := 0
	if verbose {
		v = 1
	}
	return logging.NewLogrLogger(funcr.New(func(prefix, args string) {
		if prefix != "" {
			os.Stderr.WriteString(prefix + ": " + args + "\n")
		} else {
			os.Stderr.WriteString(args + "\n")
		}
	}, funcr.Options{Verbosity: v}))
}

// stdrwc joins stdin and stdout into the single io.ReadWriteCloser
// jsonrpc2.NewBufferedStream wants, the same role the teacher's
// xpls/serve.go bufio.Reader/Writer pair plays, just behind one
// interface instead of two.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

func runServe(ctx context.Context, root string, verbose bool) error {
	log := newLogger(verbose)

	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, root)
	if err != nil {
		return err
	}

	store := cache.NewStore(fs, cfg.AstDir(root), cfg.IndexDir(root), cache.WithLogger(log))
	proj := project.NewProject(root, fs, store,
		project.WithCompiler(noopCompiler{}),
		project.WithLogger(log),
	)

	srv := lspserver.New(proj, store, lspserver.WithLogger(log))
	handler := lspserver.NewHandler(srv, lspserver.WithHandlerLogger(log))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		cancel()
	}()

	stream := jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, handler)

	log.Info("cjls listening on stdio", "workspace", root)

	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		_ = conn.Close()
	}

	srv.Shutdown()
	return ignoreClosed(ctx.Err())
}

func ignoreClosed(err error) error {
	if err == context.Canceled {
		return nil
	}
	return err
}

var _ io.ReadWriteCloser = stdrwc{}
