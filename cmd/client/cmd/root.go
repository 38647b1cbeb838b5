package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"excelkeeper/cmd/client/cmd/types"
	"excelkeeper/internal/app/client"
	"excelkeeper/internal/app/client/config"
	"excelkeeper/internal/utils/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "excelkeeper",
	Short: "Excelkeeper - клиент сервиса хранения Excel-файла",
	Long: `Excelkeeper - консольный клиент сервиса, который хранит один Excel-файл.

Администратор загружает и удаляет файл, гость может его скачать.
Токен после входа сохраняется в ~/.excelkeeper.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		if errors.Is(err, client.ErrNotLoggedIn) {
			fmt.Fprintln(os.Stderr, "Выполните: excelkeeper auth login")
		}
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	} else if level == "" {
		level = "warn"
	}
	log := logger.NewWithLevel(cfg.Env, level)

	app, err := client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func closeApp(cmd *cobra.Command, _ []string) error {
	app, err := types.App(cmd)
	if err != nil {
		return nil
	}
	return app.Close()
}

func loadConfig() (*config.Config, error) {
	v := viper.GetViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(config.DefaultDir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	if cfgFile != "" && v.GetString("config_dir") == "" {
		v.SetDefault("config_dir", filepath.Dir(cfgFile))
	}

	return config.Load(v)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл (по умолчанию ~/.excelkeeper/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный режим")
	rootCmd.PersistentFlags().Bool("json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().String("server", "", "URL сервера Excelkeeper")

	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))
}
