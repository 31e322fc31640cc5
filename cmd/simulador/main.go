package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JeeerryZ/simuladordre/internal/config"
)

var (
	// 全局参数
	configDir string
	verbose   bool
	devMode   bool
	dataDir   string

	logger *zap.Logger
	cfg    *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "simulador",
	Short: "Simulador DRE - custos de concessão de resíduos sólidos",
	Long: `Simulador DRE calcula o dimensionamento e os custos de uma concessão
de resíduos sólidos urbanos a partir de uma planilha de cálculo.

Sem subcomando, inicia o servidor HTTP (equivalente a "simulador serve").`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(devMode, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loadConfig()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config.toml 所在目录 (默认可执行文件目录)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "开发模式")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")

	rootCmd.AddCommand(serveCmd, calculateCmd, chatCmd, checkLayoutCmd, runsCmd, initConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger 开发模式输出彩色控制台日志，否则输出 JSON
func newLogger(dev, verbose bool) (*zap.Logger, error) {
	var zc zap.Config
	if dev {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

// loadConfig 加载配置，失败时退回默认配置
func loadConfig() *config.AppConfig {
	var (
		c    *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if configDir != "" {
		c, info, err = config.LoadFrom(configDir)
	} else {
		c, info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		logger.Warn("加载配置失败，使用默认配置", zap.String("path", info.Path), zap.Error(err))
		c = config.DefaultConfig()
	} else {
		logger.Debug("config loaded",
			zap.String("path", info.Path),
			zap.Bool("found", info.FileFound),
			zap.Strings("env_files", info.EnvFiles))
	}

	if devMode {
		c.Server.DevMode = true
	}
	if dataDir != "" {
		c.Data.DataDir = dataDir
	}
	return c
}
