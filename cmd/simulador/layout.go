package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JeeerryZ/simuladordre/internal/config"
	"github.com/JeeerryZ/simuladordre/internal/mapping"
	"github.com/JeeerryZ/simuladordre/internal/store"
)

var checkLayoutCmd = &cobra.Command{
	Use:   "check-layout",
	Short: "Verifica se os rótulos da planilha correspondem ao mapeamento de entrada",
	RunE:  runCheckLayout,
}

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Lista os cálculos recentes registrados",
	RunE:  runRuns,
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Grava config.toml com os valores atuais (sem credenciais)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configDir != "" {
			path := configDir + "/config.toml"
			if err := config.SaveTo(path, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}
		return config.SaveConfig(cfg)
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "显示条数")
}

func runCheckLayout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	checkErr := a.calculator.CheckLayout(ctx)
	if a.store != nil {
		recordLayoutCheck(a.store, checkErr)
	}

	out := cmd.OutOrStdout()
	var le *mapping.LayoutError
	switch {
	case checkErr == nil:
		fmt.Fprintf(out, "ok: %s\n", a.calculator.Backend())
	case errors.As(checkErr, &le):
		fmt.Fprintf(out, "layout divergente na linha %d (%s): esperado %q, encontrado %q\n",
			le.Row+1, le.Field, le.Expected, le.Actual)
	}
	return checkErr
}

// recordLayoutCheck 记录最近一次校验时间与结果
func recordLayoutCheck(st *store.Store, checkErr error) {
	ctx := context.Background()
	if err := st.SetMeta(ctx, store.MetaLastLayoutCheck, time.Now().Format(time.RFC3339)); err != nil {
		logger.Warn("save layout check", zap.Error(err))
	}
	msg := ""
	if checkErr != nil {
		msg = checkErr.Error()
	}
	if err := st.SetMeta(ctx, store.MetaLastLayoutError, msg); err != nil {
		logger.Warn("save layout check", zap.Error(err))
	}
}

func runRuns(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.store == nil {
		return errors.New("run log disabled (data.run_log = false)")
	}

	ctx := cmd.Context()
	runs, err := a.store.RecentRuns(ctx, runsLimit)
	if err != nil {
		return err
	}
	stats, err := a.store.Stats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "total %d, ok %d, falhas %d, média %d ms\n",
		stats.Total, stats.Succeeded, stats.Failed, stats.AvgDuration)
	if last, err := a.store.GetMeta(ctx, store.MetaLastLayoutCheck); err == nil {
		fmt.Fprintf(out, "última verificação de layout: %s\n", last)
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %-9s  %6d ms  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), shortID(r.ID), r.Status, r.DurationMs, r.ErrorMessage)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
