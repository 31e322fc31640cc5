package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JeeerryZ/simuladordre/internal/exporter"
	"github.com/JeeerryZ/simuladordre/internal/model"
	"github.com/JeeerryZ/simuladordre/internal/service/summary"
)

var (
	exportPath  string
	showSummary bool
	calcTimeout time.Duration
)

var calculateCmd = &cobra.Command{
	Use:   "calculate [entrada.json]",
	Short: "Calcula um cenário a partir de um arquivo JSON (\"-\" lê da entrada padrão)",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalculate,
}

func init() {
	calculateCmd.Flags().StringVarP(&exportPath, "export", "o", "", "导出 xlsx 到指定路径")
	calculateCmd.Flags().BoolVar(&showSummary, "summary", false, "输出结果页汇总而不是原始输出")
	calculateCmd.Flags().DurationVar(&calcTimeout, "timeout", 2*time.Minute, "计算超时")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	in, err := readScenario(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), calcTimeout)
	defer cancel()

	out, err := a.calculator.Calculate(ctx, in)
	if err != nil {
		var fe model.FieldErrors
		if errors.As(err, &fe) {
			for field, msg := range fe {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
			}
		}
		return err
	}

	formValues := summary.FormValues(in)
	if exportPath != "" {
		at := time.Now()
		f, err := a.exporter.Export(out, formValues, exporter.ExportOptions{GeneratedAt: at})
		if err != nil {
			return err
		}
		defer f.Close()
		if err := f.SaveAs(exportPath); err != nil {
			return fmt.Errorf("save %s: %w", exportPath, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exportado: %s\n", exportPath)
	}

	var v any = out
	if showSummary {
		v = summary.Build(out, formValues)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func readScenario(stdin io.Reader, path string) (*model.ScenarioInput, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var in model.ScenarioInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &in, nil
}
