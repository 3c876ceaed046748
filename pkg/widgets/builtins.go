package widgets

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

func builtins() []Widget {
	return []Widget{
		{
			Name:      WidgetTooltip,
			Directive: "ccnutBsTooltip",
			Plugin:    "tooltip",
			Library:   "Bootstrap",
			Defaults: map[string]any{
				"title":     "",
				"placement": "top",
				"trigger":   "hover",
			},
			Prepare: prepareTooltip,
		},
		{
			Name:      WidgetDatepicker,
			Directive: "ccnutJqueryUiDatepicker",
			Plugin:    "datepicker",
			Library:   "jQuery UI",
			Defaults: map[string]any{
				"changeMonth":    true,
				"changeYear":     true,
				"maxDate":        0,
				"dateFormat":     DefaultDateFormat,
				"constrainInput": true,
			},
			RequiresModel: true,
		},
		{
			Name:          WidgetSlider,
			Directive:     "ccnutJqueryUiSlider",
			Plugin:        "slider",
			Library:       "jQuery UI",
			RequiresModel: true,
		},
	}
}

var (
	tooltipPolicyOnce sync.Once
	tooltipPolicy     *bluemonday.Policy
)

// prepareTooltip sanitises HTML titles. Bootstrap inserts the title as markup
// when html is enabled; plain titles are inserted as text and left alone.
func prepareTooltip(options map[string]any) (map[string]any, error) {
	html, _ := options["html"].(bool)
	if !html {
		return options, nil
	}
	title, ok := options["title"].(string)
	if !ok {
		return options, nil
	}
	options["title"] = SanitizeHTML(title)
	return options, nil
}

// SanitizeHTML strips unsafe markup using a user-generated-content policy.
func SanitizeHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return htmlSanitizer().Sanitize(raw)
}

func htmlSanitizer() *bluemonday.Policy {
	tooltipPolicyOnce.Do(func() {
		tooltipPolicy = bluemonday.UGCPolicy()
	})
	return tooltipPolicy
}
