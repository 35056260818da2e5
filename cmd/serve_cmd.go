package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"OwaraiArchive/internal/api"
	"OwaraiArchive/internal/service"
	"OwaraiArchive/internal/store"

	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the published archive as a read-only JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.Server.Port
			}

			pub, err := store.OpenPublished(cfg.Paths.DBPath, log)
			if err != nil {
				return withCode(exitDB, err)
			}
			defer pub.Close()
			log.WithField("db", pub.Path()).Info("已发布库以只读方式打开")

			r := api.NewRouter(service.NewArchiveService(pub, log), log, cfg.Server.Mode)
			srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: r}

			errCh := make(chan error, 1)
			go func() {
				log.Infof("服务启动成功，端口：%d", port)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("启动服务失败: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
				log.Info("收到退出信号，关闭服务")
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default: server.port from config)")
	return cmd
}
