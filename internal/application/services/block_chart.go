package services

import (
	"fmt"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// ChartBlock buckets records by xField and aggregates yField per bucket.
// With a groupField each distinct group value becomes its own series.
// Label order follows record order, which the pipeline has already fixed.
type ChartBlock struct{}

func (b *ChartBlock) Type() constants.BlockType {
	return constants.BlockTypeChart
}

func (b *ChartBlock) Render(in *RenderInput) (map[string]interface{}, error) {
	props := in.Block.Props
	xField := GetConfigString(props, "xField")
	if xField == "" {
		return nil, fmt.Errorf("chart block %s requires props.xField", in.Block.ID)
	}
	yField := GetConfigString(props, "yField")
	groupField := GetConfigString(props, "groupField")

	chartType := GetConfigString(props, "chartType")
	if chartType == "" {
		chartType = "bar"
	}

	labels, seriesNames, buckets := bucketRecords(in.Records, xField, groupField)

	series := make([]map[string]interface{}, 0, len(seriesNames))
	for _, name := range seriesNames {
		data := make([]float64, 0, len(labels))
		for _, label := range labels {
			data = append(data, aggregateRecords(buckets[name][label], yField, "sum"))
		}
		series = append(series, map[string]interface{}{
			"name": name,
			"data": data,
		})
	}

	payload := map[string]interface{}{
		"chartType":  chartType,
		"labels":     labels,
		"series":     series,
		"showLegend": GetConfigBool(props, "showLegend"),
	}
	if colors := GetConfigSlice(props, "colors"); len(colors) > 0 {
		payload["colors"] = colors
	}
	return payload, nil
}

// bucketRecords splits records into series/label buckets preserving first
// appearance order for both axes. Without a group field there is a single
// unnamed series.
func bucketRecords(records []models.Record, xField, groupField string) ([]string, []string, map[string]map[string][]models.Record) {
	var labels []string
	var seriesNames []string
	seenLabel := make(map[string]bool)
	seenSeries := make(map[string]bool)
	buckets := make(map[string]map[string][]models.Record)

	for _, rec := range records {
		label := utils.ToString(rec[xField])
		if !seenLabel[label] {
			seenLabel[label] = true
			labels = append(labels, label)
		}

		name := ""
		if groupField != "" {
			name = utils.ToString(rec[groupField])
		}
		if !seenSeries[name] {
			seenSeries[name] = true
			seriesNames = append(seriesNames, name)
			buckets[name] = make(map[string][]models.Record)
		}
		buckets[name][label] = append(buckets[name][label], rec)
	}

	if len(seriesNames) == 0 {
		seriesNames = []string{""}
		buckets[""] = make(map[string][]models.Record)
	}
	return labels, seriesNames, buckets
}
