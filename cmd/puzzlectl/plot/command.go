package plot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"net/http"
	"os"

	"github.com/go-analyze/charts"
	"github.com/mattn/go-sixel"
	"github.com/mdouchement/puzzled"
	"github.com/spf13/cobra"
)

func Command(client *http.Client) *cobra.Command {
	var samples int
	var resolution int

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot temperatures and fan speeds sampled from the monitor stream",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			resp, err := client.Get("http://unix/monitor")
			if err != nil {
				return err
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 { // Should never happen
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
				return fmt.Errorf("sse bad status: %s body=%q", resp.Status, string(b))
			}
			defer resp.Body.Close()

			//
			// Collect samples
			//

			var temps, fans charts.LineSeriesList
			labels := make([]string, 0, samples)

			for i := 0; i < samples; i++ {
				event, err := puzzled.ReadSSE(resp.Body)
				if err != nil {
					return err
				}
				if len(event) == 0 {
					continue
				}

				var snapshot puzzled.Snapshot
				if err = json.Unmarshal(event, &snapshot); err != nil {
					return err
				}

				for ch, v := range snapshot.Temperatures {
					if ch == len(temps) {
						temps = append(temps, charts.LineSeries{Name: fmt.Sprintf("temp%d", ch+1)})
					}
					temps[ch].Values = append(temps[ch].Values, float64(v)/1000)
				}

				for ch, v := range snapshot.Fans {
					if ch == len(fans) {
						fans = append(fans, charts.LineSeries{Name: fmt.Sprintf("fan%d", ch+1)})
					}
					fans[ch].Values = append(fans[ch].Values, float64(v))
				}

				labels = append(labels, fmt.Sprint(i))
			}

			//
			// Render charts
			//

			for title, set := range map[string]charts.LineSeriesList{"temperatures (°C)": temps, "fan speeds (RPM)": fans} {
				if err := render(title, set, labels, resolution); err != nil {
					return err
				}
			}

			return nil
		},
	}
	cmd.Flags().IntVarP(&samples, "samples", "n", 30, "Number of monitor samples to collect")
	cmd.Flags().IntVarP(&resolution, "resolution", "r", 1000, "The width size in pixel of each graph")

	return cmd
}

func render(title string, set charts.LineSeriesList, labels []string, resolution int) error {
	opt := charts.NewLineChartOptionWithSeries(set)
	opt.Theme = charts.GetTheme(charts.ThemeVividDark)
	opt.Padding = charts.NewBox(20, 20, 20, 20)
	opt.Title.Text = title
	opt.Title.FontStyle.FontSize = 16
	opt.Title.Offset = charts.OffsetLeft
	opt.Legend = charts.LegendOption{
		Show:     puzzled.ToPtr(true),
		Offset:   charts.OffsetCenter,
		Vertical: puzzled.ToPtr(true),
		Padding:  charts.NewBox(0, 0, 0, 20),
	}
	opt.Symbol = charts.SymbolNone
	opt.LineStrokeWidth = 2
	opt.XAxis.Show = puzzled.ToPtr(true)
	opt.XAxis.Title = "sample"
	opt.XAxis.Labels = labels

	p := charts.NewPainter(charts.PainterOptions{
		OutputFormat: charts.ChartOutputPNG,
		Width:        resolution,
		Height:       int(float64(resolution) / (16.0 / 9.0)),
	})

	err := p.LineChart(opt)
	if err != nil {
		return fmt.Errorf("%s: %w", title, err)
	}

	raw, err := p.Bytes()
	if err != nil {
		return fmt.Errorf("%s: %w", title, err)
	}

	m, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", title, err)
	}

	codec := sixel.NewEncoder(os.Stdout)
	err = codec.Encode(m)
	if err != nil {
		return fmt.Errorf("%s: %w", title, err)
	}

	return nil
}
