package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-dispatcher/app/controller"
	grpcserver "github.com/vibast-solutions/ms-go-dispatcher/app/grpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler with the HTTP and gRPC triggers",
	Long:  "Start the job scheduler together with the HTTP (Echo) and gRPC on-demand trigger servers.",
	RunE:  runServe,
}

// init registers the serve command.
func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe wires dependencies and runs the scheduler and both servers until
// SIGINT or SIGTERM.
func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := exitOnSignal(cmd.Context())
	defer stop()

	d, err := loadDeps(ctx, depOptions{lock: true})
	if err != nil {
		return err
	}
	defer d.Close()

	sched, err := d.newScheduler()
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}

	dispatchController := controller.NewDispatchController(d.dispatcher, sched, d.failures, d.logger)
	e := setupHTTPServer(dispatchController)

	grpcServer := setupGRPCServer(grpcserver.NewServer(d.dispatcher, sched, d.logger), d.logger)
	lis, err := net.Listen("tcp", net.JoinHostPort(d.cfg.GRPCHost, d.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen on gRPC port: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gctx)
	})

	g.Go(func() error {
		httpAddr := net.JoinHostPort(d.cfg.HTTPHost, d.cfg.HTTPPort)
		d.logger.WithField("addr", httpAddr).Info("starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		d.logger.WithField("addr", lis.Addr().String()).Info("starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		d.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			d.logger.WithError(err).Warn("http shutdown")
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	d.logger.Info("server stopped")
	return nil
}

// setupHTTPServer configures the Echo HTTP server and routes.
func setupHTTPServer(dispatchController *controller.DispatchController) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	dispatchController.Register(e)
	e.GET("/health", controller.Health)

	return e
}

// setupGRPCServer builds the gRPC server with the dispatch service registered.
func setupGRPCServer(server *grpcserver.Server, logger logrus.FieldLogger) *grpc.Server {
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor(logger)))
	grpcserver.RegisterDispatchServiceServer(grpcServer, server)
	return grpcServer
}

// exitOnSignal cancels ctx on SIGINT or SIGTERM.
func exitOnSignal(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
