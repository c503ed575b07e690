package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/segloom/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /segment over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.Addr
		}
		if addr == "" {
			addr = ":5000"
		}
		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.New(newRunner(), server.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		}, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config addr)")
}
