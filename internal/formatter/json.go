package formatter

import (
	"encoding/json"

	"github.com/harunnryd/deskflow/internal/actions"
	"github.com/harunnryd/deskflow/internal/catalog"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatServices(services []*catalog.ServiceDefinition) (string, error) {
	return marshalJSON(services)
}

func (f *JSONFormatter) FormatActions(list []*actions.PendingAction) (string, error) {
	return marshalJSON(list)
}

func marshalJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
