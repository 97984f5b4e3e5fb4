package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TradePoint holds the accounting-system identifiers of one physical location.
type TradePoint struct {
	Name         string `yaml:"name" validate:"required"`
	CompanyID    string `yaml:"company_id"`
	TradePointID int64  `yaml:"trade_point_id" validate:"required,gt=0"`
	WarehouseID  int64  `yaml:"warehouse_id" validate:"required,gt=0"`
}

// TradePoints is keyed by the text key used in the user access table.
type TradePoints map[string]TradePoint

type tradePointsFile struct {
	TradePoints TradePoints `yaml:"trade_points"`
}

// LoadTradePoints reads and validates the trade point YAML file.
func LoadTradePoints(path string) (TradePoints, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trade points file: %w", err)
	}
	return ParseTradePoints(raw)
}

func ParseTradePoints(raw []byte) (TradePoints, error) {
	var file tradePointsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse trade points: %w", err)
	}

	validate := validator.New()
	for key, point := range file.TradePoints {
		if err := validate.Struct(point); err != nil {
			return nil, fmt.Errorf("trade point %q: %w", key, err)
		}
	}

	if file.TradePoints == nil {
		return TradePoints{}, nil
	}
	return file.TradePoints, nil
}

func (tp TradePoints) Get(key string) (TradePoint, bool) {
	point, ok := tp[key]
	return point, ok
}

// Keys returns the configured keys in stable order.
func (tp TradePoints) Keys() []string {
	keys := make([]string, 0, len(tp))
	for k := range tp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
