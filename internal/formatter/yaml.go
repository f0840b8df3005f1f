package formatter

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harunnryd/deskflow/internal/actions"
	"github.com/harunnryd/deskflow/internal/catalog"
)

type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) FormatServices(services []*catalog.ServiceDefinition) (string, error) {
	return marshalYAML(services)
}

// FormatActions emits the action summary rows; payloads stay JSON-only.
func (f *YAMLFormatter) FormatActions(list []*actions.PendingAction) (string, error) {
	rows := make([]actionRow, 0, len(list))
	for _, a := range list {
		rows = append(rows, newActionRow(a))
	}
	return marshalYAML(rows)
}

func marshalYAML(v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
