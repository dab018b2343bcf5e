package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

// varTag {{var "name" default required}}
var varTag = regexp.MustCompile(`\{\{var\s+"([^"]+)"\s+([^\s}]+)\s+(true|false)\s*\}\}`)

// generateConfigWithVars рендерить шаблон конфігурації зі змінними
func generateConfigWithVars(templatePath, outputPath string, vars map[string]interface{}) error {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	rendered, err := renderTemplate(string(content), vars)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Файл містить секрети
	if err := os.WriteFile(outputPath, rendered, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// renderTemplate підставляє var теги, потім виконує text/template
func renderTemplate(content string, vars map[string]interface{}) ([]byte, error) {
	processed, missing := processVarTags(content, vars)
	if len(missing) > 0 {
		return nil, fmt.Errorf("required config variables not set: %s", strings.Join(missing, ", "))
	}

	tmpl, err := template.New("config").Option("missingkey=error").Parse(processed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.Bytes(), nil
}

// processVarTags замінює var теги на HCL значення і повертає
// відсортований список обов'язкових змінних без значення
func processVarTags(content string, vars map[string]interface{}) (string, []string) {
	missingSet := map[string]bool{}

	result := varTag.ReplaceAllStringFunc(content, func(match string) string {
		m := varTag.FindStringSubmatch(match)
		name, defaultValue, required := m[1], m[2], m[3] == "true"

		if value, ok := vars[name]; ok && value != "" {
			return formatValue(value)
		}

		def := parseDefaultValue(defaultValue)
		if required && def == "" {
			missingSet[name] = true
			return `""`
		}

		return formatValue(def)
	})

	missing := make([]string, 0, len(missingSet))
	for name := range missingSet {
		missing = append(missing, name)
	}
	sort.Strings(missing)

	return result, missing
}

// formatValue форматує значення як HCL літерал.
// Рядок з комами стає елементами списку.
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		if strings.Contains(v, ",") {
			return formatList(strings.Split(v, ","))
		}
		return strconv.Quote(v)
	case []string:
		return formatList(v)
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%g", v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strconv.Quote(fmt.Sprint(v))
	}
}

func formatList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			quoted = append(quoted, strconv.Quote(item))
		}
	}
	return strings.Join(quoted, ", ")
}

// parseDefaultValue парсить дефолтне значення з тегу
func parseDefaultValue(defaultValue string) interface{} {
	if strings.HasPrefix(defaultValue, `"`) && strings.HasSuffix(defaultValue, `"`) {
		return strings.Trim(defaultValue, `"`)
	}
	if intVal, err := strconv.Atoi(defaultValue); err == nil {
		return intVal
	}
	if floatVal, err := strconv.ParseFloat(defaultValue, 64); err == nil {
		return floatVal
	}
	if boolVal, err := strconv.ParseBool(defaultValue); err == nil {
		return boolVal
	}
	return defaultValue
}
