package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"go-starter/internal/build"
	"go-starter/internal/config"
)

// configureAction генерує конфігурацію з шаблону
func configureAction(c *cli.Context) error {
	mode := c.String("mode")
	version := c.String("version")

	templatePath, err := absPath(c.String("template"))
	if err != nil {
		return err
	}
	outputPath, err := absPath(c.String("output"))
	if err != nil {
		return err
	}

	fmt.Printf("🔧 Configuring go-starter\n")
	fmt.Printf("Template: %s\n", templatePath)
	fmt.Printf("Output: %s\n", outputPath)
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Mode: %s\n", mode)

	if _, err := os.Stat(templatePath); os.IsNotExist(err) {
		return fmt.Errorf("template file does not exist: %s", templatePath)
	}

	vars := config.DefaultConfigVars(mode, version)
	if varsPath := c.String("vars"); varsPath != "" {
		overrides, err := config.LoadConfigVars(varsPath)
		if err != nil {
			return err
		}
		for k, v := range overrides {
			vars[k] = v
		}
	}

	if err := config.GenerateConfigFromTemplate(templatePath, outputPath, vars); err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	fmt.Printf("✅ Configuration generated successfully: %s\n", outputPath)
	return nil
}

// serverAction запускає HTTP сервер
func serverAction(c *cli.Context) error {
	configPath := c.String("config")

	fmt.Printf("🚀 Starting go-starter\n")
	fmt.Printf("Config: %s\n", configPath)
	fmt.Printf("Version: %s\n", build.Version)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	return config.StartServer(cfg)
}

// migrateAction застосовує або відкочує міграції
func migrateAction(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}

	if c.Bool("rollback") {
		return config.RollbackMigration(cfg)
	}
	return config.RunMigrations(cfg)
}

// versionAction показує інформацію про версію
func versionAction(c *cli.Context) error {
	info := build.Current()

	fmt.Printf("go-starter\n")
	fmt.Printf("Version: %s\n", info.Version)
	fmt.Printf("Build Number: %s\n", info.Number)
	fmt.Printf("Git Commit: %s\n", info.GitCommit)
	fmt.Printf("Build Time: %s\n", info.BuildTime)

	return nil
}

func loadConfig(configPath string) (*config.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s. Run 'configure' command first", configPath)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func absPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	workDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(workDir, path), nil
}
