package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"xdao.co/xsdhash/api/grpcapi"
	"xdao.co/xsdhash/api/httpapi"
	"xdao.co/xsdhash/storage"
	"xdao.co/xsdhash/storage/casregistry"
	"xdao.co/xsdhash/storage/grpccas"
	"xdao.co/xsdhash/registry"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	httpAddr  string
	grpcAddr  string
	backend   string
	exposeCAS bool
	ready     func(httpAddr, grpcAddr net.Addr)
}

func newServeCmd(a *app) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and gRPC APIs",
		Long: `serve starts the HTTP API and a gRPC server hosting the Fingerprinter service
and, unless --expose-cas=false, the raw CAS service used by the grpc backend.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, &f)
		},
	}
	cmd.Flags().StringVar(&f.httpAddr, "http-addr", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&f.grpcAddr, "grpc-addr", "", "gRPC listen address (default from config)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "CAS backend opened from flags instead of the config storage section")
	cmd.Flags().BoolVar(&f.exposeCAS, "expose-cas", true, "Register the CAS gRPC service")

	addBackendFlags(cmd.Flags(), "serve", casregistry.UsageDaemon)
	return cmd
}

func (a *app) serve(ctx context.Context, f *serveFlags) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	if f.httpAddr != "" {
		cfg.HTTPAddr = f.httpAddr
	}
	if f.grpcAddr != "" {
		cfg.GRPCAddr = f.grpcAddr
	}
	log := a.logger(cfg)
	alg := cfg.DigestAlgorithm()

	var (
		cas     storage.CAS
		closeFn func() error
	)
	if f.backend != "" {
		cas, closeFn, err = casregistry.Open(f.backend, casregistry.UsageDaemon)
	} else {
		cas, closeFn, err = cfg.Storage.Open(casregistry.UsageDaemon, "")
	}
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	reg := registry.New(cas, alg, log)

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return err
	}
	defer httpLis.Close()
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	defer grpcLis.Close()

	gs := grpc.NewServer()
	grpcapi.RegisterFingerprinterServer(gs, &grpcapi.Server{Registry: reg, Algorithm: alg, Logger: log})
	if f.exposeCAS {
		grpccas.RegisterCASServer(gs, &grpccas.Server{CAS: cas})
	}

	hs := &http.Server{
		Handler: (&httpapi.Server{
			Registry:  reg,
			Algorithm: alg,
			Logger:    log,
			Version:   version,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("xsdhash serving",
		slog.String("http", httpLis.Addr().String()),
		slog.String("grpc", grpcLis.Addr().String()),
		slog.String("algorithm", string(alg)),
		slog.Bool("cas_service", f.exposeCAS))
	if f.ready != nil {
		f.ready(httpLis.Addr(), grpcLis.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hs.Serve(httpLis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := gs.Serve(grpcLis); !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("xsdhash shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := hs.Shutdown(sctx)
		gs.GracefulStop()
		return err
	})
	return g.Wait()
}
