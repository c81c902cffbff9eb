package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"CoinScope/internal/model"
)

const markdownTemplate = `# Cryptocurrency Analysis Report

Generated: {{ .GeneratedAt.Format "2006-01-02 15:04" }} UTC

## Summary
{{ range .Stats -}}
- **{{ title .Asset }}**:
  - Average Price: ${{ printf "%.2f" .MeanPrice }}
  - Volatility: {{ printf "%.2f" .Volatility }}%
  - Price Change ({{ $.WindowDays }} days): {{ printf "%.2f" .ChangePct }}%
  - Average Volume: ${{ printf "%.2f" .AvgVolume }}
{{ end -}}
{{ range .Correlations -}}
- **Correlation**: {{ title .Base }} and {{ title .Quote }} prices correlate at {{ printf "%.2f" .Coefficient }}
{{ end }}
## Trends
{{ if .Busiest.Weekday -}}
- {{ title .BaseAsset }} trading volume is highest on {{ .Busiest.Weekday }} (avg: ${{ printf "%.2f" .Busiest.AvgVolume }}).
- {{ title .BaseAsset }} trading volume is lowest on {{ .Quietest.Weekday }} (avg: ${{ printf "%.2f" .Quietest.AvgVolume }}).
{{ else -}}
- No weekday volume data for {{ title .BaseAsset }} in this window.
{{ end }}
## Business Recommendations
{{ if .Busiest.Weekday -}}
- Monitor trading volumes on high-volume days ({{ .Busiest.Weekday }}) for potential price movements.
{{ end -}}
{{ range .Correlations -}}
- Use the correlation ({{ printf "%.2f" .Coefficient }}) between {{ title .Base }} and {{ title .Quote }} for portfolio diversification strategies.
{{ end -}}
- Track weekend volatility for trading opportunities.

## Visualizations
- Price trends: see [price_trend.png](price_trend.png)
- Correlation heatmap: see [correlation_heatmap.png](correlation_heatmap.png)
- Volume by weekday: see [volume_bar.png](volume_bar.png)
`

// Renderer produces the markdown analysis report.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("report").
			Funcs(template.FuncMap{"title": titleCase}).
			Parse(markdownTemplate)),
	}
}

// Render returns the markdown report for an analysis.
func (r *Renderer) Render(a *model.Analysis) (string, error) {
	var b strings.Builder
	if err := r.tmpl.Execute(&b, a); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return b.String(), nil
}

// WriteFile renders the report and writes it to path, creating the
// parent directory if needed.
func (r *Renderer) WriteFile(a *model.Analysis, path string) error {
	md, err := r.Render(a)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
